package playwright

import (
	pw "github.com/playwright-community/playwright-go"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
)

// build translates a browser.Locator into a Playwright locator chain. The
// match is resolved first, then First, then the ancestor walk, so
// `text=Roadmap ancestor=2` is the grandparent of the Roadmap heading.
func build(page pw.Page, scope pw.Locator, loc browser.Locator) pw.Locator {
	if loc.Within != nil {
		scope = build(page, scope, *loc.Within)
	}

	var l pw.Locator
	switch {
	case loc.Role != "":
		l = byRole(page, scope, loc)
	case loc.Text != "":
		l = byText(page, scope, loc)
	default:
		if scope != nil {
			l = scope.Locator(loc.CSS)
		} else {
			l = page.Locator(loc.CSS)
		}
	}

	if loc.First {
		l = l.First()
	}
	for i := 0; i < loc.Ancestor; i++ {
		l = l.Locator("..")
	}
	return l
}

func byRole(page pw.Page, scope pw.Locator, loc browser.Locator) pw.Locator {
	role := pw.AriaRole(loc.Role)
	if scope != nil {
		opts := pw.LocatorGetByRoleOptions{Exact: pw.Bool(loc.Exact)}
		if loc.Name != "" {
			opts.Name = loc.Name
		}
		return scope.GetByRole(role, opts)
	}
	opts := pw.PageGetByRoleOptions{Exact: pw.Bool(loc.Exact)}
	if loc.Name != "" {
		opts.Name = loc.Name
	}
	return page.GetByRole(role, opts)
}

func byText(page pw.Page, scope pw.Locator, loc browser.Locator) pw.Locator {
	if scope != nil {
		return scope.GetByText(loc.Text, pw.LocatorGetByTextOptions{Exact: pw.Bool(loc.Exact)})
	}
	return page.GetByText(loc.Text, pw.PageGetByTextOptions{Exact: pw.Bool(loc.Exact)})
}
