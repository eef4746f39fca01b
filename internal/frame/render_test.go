package frame

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_FrameMetaTags(t *testing.T) {
	view := View{
		Title:    `Piece "A" <b>`,
		Image:    "https://ipfs.io/ipfs/Qm/a.svg",
		PostURL:  "https://frame.example.com/api",
		State:    "token",
		Controls: BuildControls(ControlSet{BaseURL: "https://frame.example.com/api", ShareURL: "https://warpcast.com/~/compose"}, 7),
	}

	var buf bytes.Buffer
	require.NoError(t, Page(view).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, `<meta property="fc:frame" content="vNext">`)
	assert.Contains(t, html, `<meta property="fc:frame:image" content="https://ipfs.io/ipfs/Qm/a.svg">`)
	assert.Contains(t, html, `<meta property="fc:frame:image:aspect_ratio" content="1:1">`)
	assert.Contains(t, html, `<meta property="fc:frame:post_url" content="https://frame.example.com/api">`)
	assert.Contains(t, html, `<meta property="fc:frame:state" content="token">`)
	assert.Contains(t, html, `<meta property="fc:frame:input:text" content="Enter piece id... (current: 7)">`)
	assert.Contains(t, html, `<meta property="fc:frame:button:1" content="🔍 Search">`)
	assert.Contains(t, html, `<meta property="fc:frame:button:2:action" content="link">`)
	assert.Contains(t, html, `<meta property="fc:frame:button:3:target" content="https://frame.example.com/api?action=inc">`)
	assert.Contains(t, html, `<meta property="fc:frame:button:4:action" content="tx">`)
	assert.Contains(t, html, `<meta property="fc:frame:button:4:target" content="https://frame.example.com/api/vote/7">`)
	assert.NotContains(t, html, "fc:frame:button:5")

	assert.Contains(t, html, "Piece &#34;A&#34; &lt;b&gt;")
	assert.NotContains(t, html, "<b>")
}
