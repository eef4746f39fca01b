package frame

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// AspectRatio is the image aspect ratio advertised for every frame.
const AspectRatio = "1:1"

// View is everything needed to render one frame document.
type View struct {
	Title    string
	Image    string
	PostURL  string
	State    string
	Controls []Control
}

type meta struct {
	name, content string
}

func (v View) metaTags() []meta {
	tags := []meta{
		{"fc:frame", "vNext"},
		{"fc:frame:image", v.Image},
		{"fc:frame:image:aspect_ratio", AspectRatio},
		{"fc:frame:post_url", v.PostURL},
	}
	if v.State != "" {
		tags = append(tags, meta{"fc:frame:state", v.State})
	}

	button := 0
	for _, c := range v.Controls {
		if c.Kind == KindTextInput {
			tags = append(tags, meta{"fc:frame:input:text", c.Label})
			continue
		}
		button++
		prefix := "fc:frame:button:" + strconv.Itoa(button)
		tags = append(tags,
			meta{prefix, c.Label},
			meta{prefix + ":action", c.Kind.String()},
			meta{prefix + ":target", c.Target},
		)
	}
	return tags
}

// Page renders v as an HTML document with frame meta tags.
func Page(v View) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<!doctype html><html><head><meta charset=\"utf-8\">"); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "<title>%s</title>", templ.EscapeString(v.Title)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<meta property="og:title" content="%s"><meta property="og:image" content="%s">`,
			templ.EscapeString(v.Title), templ.EscapeString(v.Image)); err != nil {
			return err
		}
		for _, m := range v.metaTags() {
			if _, err := fmt.Fprintf(w, `<meta property="%s" content="%s">`,
				templ.EscapeString(m.name), templ.EscapeString(m.content)); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `</head><body><h1>%s</h1><img src="%s" alt="%s" width="600" height="600"></body></html>`,
			templ.EscapeString(v.Title), templ.EscapeString(v.Image), templ.EscapeString(v.Title))
		return err
	})
}
