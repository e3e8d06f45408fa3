package browser

import (
	"fmt"
	"strings"
)

// Locator describes how to find one element. Exactly one of Role, Text or
// CSS selects the strategy; Name narrows a role by accessible name.
//
// Within scopes the search under another located element. Ancestor then
// walks that many parent levels up from the match, which is how a whole
// section is captured from a heading inside it.
type Locator struct {
	Role string `mapstructure:"role" yaml:"role,omitempty" json:"role,omitempty"`
	Name string `mapstructure:"name" yaml:"name,omitempty" json:"name,omitempty"`
	Text string `mapstructure:"text" yaml:"text,omitempty" json:"text,omitempty"`
	CSS  string `mapstructure:"css" yaml:"css,omitempty" json:"css,omitempty"`

	// Exact requires a full, case-sensitive match of Name or Text.
	Exact bool `mapstructure:"exact" yaml:"exact,omitempty" json:"exact,omitempty"`

	// First picks the first match instead of requiring a unique one.
	First bool `mapstructure:"first" yaml:"first,omitempty" json:"first,omitempty"`

	Ancestor int      `mapstructure:"ancestor" yaml:"ancestor,omitempty" json:"ancestor,omitempty"`
	Within   *Locator `mapstructure:"within" yaml:"within,omitempty" json:"within,omitempty"`
}

// Validate checks that the locator names exactly one strategy.
func (l Locator) Validate() error {
	strategies := 0
	if l.Role != "" {
		strategies++
	}
	if l.Text != "" {
		strategies++
	}
	if l.CSS != "" {
		strategies++
	}

	switch {
	case strategies == 0:
		return fmt.Errorf("%w: one of role, text or css is required", ErrInvalidLocator)
	case strategies > 1:
		return fmt.Errorf("%w: role, text and css are mutually exclusive", ErrInvalidLocator)
	case l.Name != "" && l.Role == "":
		return fmt.Errorf("%w: name is only valid together with role", ErrInvalidLocator)
	case l.Ancestor < 0:
		return fmt.Errorf("%w: ancestor must not be negative", ErrInvalidLocator)
	}

	if l.Within != nil {
		if err := l.Within.Validate(); err != nil {
			return fmt.Errorf("within: %w", err)
		}
	}
	return nil
}

// String renders the locator for log narration, e.g.
// `role=button name="Recalculate Usage"` or `text="Roadmap" ancestor=2`.
func (l Locator) String() string {
	var parts []string
	if l.Within != nil {
		parts = append(parts, "within("+l.Within.String()+")")
	}
	switch {
	case l.Role != "":
		parts = append(parts, "role="+l.Role)
		if l.Name != "" {
			parts = append(parts, fmt.Sprintf("name=%q", l.Name))
		}
	case l.Text != "":
		parts = append(parts, fmt.Sprintf("text=%q", l.Text))
	case l.CSS != "":
		parts = append(parts, fmt.Sprintf("css=%q", l.CSS))
	}
	if l.Exact {
		parts = append(parts, "exact")
	}
	if l.First {
		parts = append(parts, "first")
	}
	if l.Ancestor > 0 {
		parts = append(parts, fmt.Sprintf("ancestor=%d", l.Ancestor))
	}
	return strings.Join(parts, " ")
}
