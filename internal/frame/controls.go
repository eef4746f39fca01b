package frame

import (
	"fmt"
	"net/url"
	"strconv"
)

// ControlKind tags a Control.
type ControlKind int

const (
	KindTextInput ControlKind = iota
	KindPost
	KindLink
	KindTx
)

func (k ControlKind) String() string {
	switch k {
	case KindTextInput:
		return "text_input"
	case KindPost:
		return "post"
	case KindLink:
		return "link"
	case KindTx:
		return "tx"
	default:
		return "unknown"
	}
}

// Control is one interactive element of a frame. Label is the button text or
// the input placeholder. Target is unused for text inputs.
type Control struct {
	Kind   ControlKind
	Label  string
	Target string
}

// ControlSet carries what BuildControls needs.
type ControlSet struct {
	// BaseURL is the absolute URL of the frame routes, e.g. https://host/api.
	BaseURL string
	// ShareURL is the cast composer URL the share link points at.
	ShareURL string
}

// BuildControls returns the controls for a frame showing pieceID, in display
// order.
func BuildControls(set ControlSet, pieceID int64) []Control {
	id := strconv.FormatInt(pieceID, 10)
	return []Control{
		{Kind: KindTextInput, Label: fmt.Sprintf("Enter piece id... (current: %s)", id)},
		{Kind: KindPost, Label: "🔍 Search", Target: set.BaseURL},
		{Kind: KindLink, Label: "Share", Target: shareLink(set.ShareURL, set.BaseURL+"/"+id)},
		{Kind: KindPost, Label: "Next", Target: set.BaseURL + "?action=" + string(ButtonInc)},
		{Kind: KindTx, Label: "Vote", Target: set.BaseURL + "/vote/" + id},
	}
}

func shareLink(composeURL, frameURL string) string {
	u, err := url.Parse(composeURL)
	if err != nil {
		return composeURL
	}
	q := u.Query()
	q.Add("embeds[]", frameURL)
	u.RawQuery = q.Encode()
	return u.String()
}
