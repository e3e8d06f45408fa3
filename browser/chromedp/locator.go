package chromedp

import (
	_ "embed"
	"fmt"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
)

// resolveScript finds the element described by a locatorSpec, reports
// whether it reached the requested state and, when asked, tags it with a
// data-uiverify-id attribute so CDP actions can target it by selector.
//
//go:embed resolve.js
var resolveScript string

const tagAttribute = "data-uiverify-id"

// locatorSpec is the JSON shape resolve.js understands.
type locatorSpec struct {
	Role     string       `json:"role,omitempty"`
	Name     string       `json:"name,omitempty"`
	Text     string       `json:"text,omitempty"`
	CSS      string       `json:"css,omitempty"`
	Exact    bool         `json:"exact,omitempty"`
	First    bool         `json:"first,omitempty"`
	Ancestor int          `json:"ancestor,omitempty"`
	Within   *locatorSpec `json:"within,omitempty"`
}

func toSpec(loc browser.Locator) *locatorSpec {
	spec := &locatorSpec{
		Role:     loc.Role,
		Name:     loc.Name,
		Text:     loc.Text,
		CSS:      loc.CSS,
		Exact:    loc.Exact,
		First:    loc.First,
		Ancestor: loc.Ancestor,
	}
	if loc.Within != nil {
		spec.Within = toSpec(*loc.Within)
	}
	return spec
}

func cssSpec(selector string) *locatorSpec {
	return &locatorSpec{CSS: selector, First: true}
}

func tagSelector(tag string) string {
	return fmt.Sprintf(`[%s="%s"]`, tagAttribute, tag)
}
