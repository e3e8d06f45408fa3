package evidence

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func TestSummarize(t *testing.T) {
	html := `<html><head><title> Login </title></head><body>
	<h1>Welcome</h1><h2>Sign   in</h2>
	<form><input type="email"><input type="password"><input type="submit" value="Go"></form>
	<div role="button">Forgot password</div>
	</body></html>`

	s, err := Summarize(html)
	require.NoError(t, err)
	assert.Equal(t, "Login", s.Title)
	assert.Equal(t, []string{"Welcome", "Sign in"}, s.Headings)
	assert.Equal(t, []string{"Go", "Forgot password"}, s.Buttons)
	assert.Equal(t, 3, s.Inputs)
	assert.Equal(t, len(html), s.Bytes)

	fields := s.Fields()
	assert.Equal(t, "Welcome | Sign in", fields["headings"])
}

func TestSummarize_CapsItems(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("<h2>Section</h2>")
	}

	s, err := Summarize(b.String())
	require.NoError(t, err)
	assert.Len(t, s.Headings, maxSummaryItems)
}
