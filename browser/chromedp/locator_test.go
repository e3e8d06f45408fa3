package chromedp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
)

func TestToSpec(t *testing.T) {
	loc := browser.Locator{
		Text:     "Roadmap",
		Exact:    true,
		Ancestor: 2,
		Within:   &browser.Locator{CSS: "main"},
	}

	raw, err := json.Marshal(toSpec(loc))
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"Roadmap","exact":true,"ancestor":2,"within":{"css":"main"}}`, string(raw))
}

func TestCSSSpecPicksFirst(t *testing.T) {
	spec := cssSpec("input[type='email']")
	assert.Equal(t, "input[type='email']", spec.CSS)
	assert.True(t, spec.First)
}

func TestTagSelector(t *testing.T) {
	assert.Equal(t, `[data-uiverify-id="7"]`, tagSelector("7"))
}

func TestResolveScriptEmbedded(t *testing.T) {
	assert.Contains(t, resolveScript, "strict mode violation")
	assert.Contains(t, resolveScript, tagAttribute)
}
