package markdown

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p := NewParser()

	out, err := p.Parse([]byte("**Great day.**\nShipped the report.\n\n- a\n- b"))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<strong>Great day.</strong><br>")
	assert.Contains(t, html, "<li>a</li>")
}

func TestParse_DropsRawHTMLAndDangerousLinks(t *testing.T) {
	p := NewParser()

	out, err := p.Parse([]byte("<script>alert(1)</script>\n\n[x](javascript:alert(1))"))
	require.NoError(t, err)

	assert.NotContains(t, string(out), "<script>")
	assert.NotContains(t, string(out), "javascript:")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	err := NewParser().Component("| a | b |\n|---|---|\n| 1 | 2 |").Render(context.Background(), &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<table>")
}
