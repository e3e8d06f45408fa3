// Package browser defines the capability the harness consumes from a
// browser-automation engine. Engines live in subpackages (playwright,
// chromedp); the verification flow only ever sees these interfaces.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when a bounded wait expires.
	ErrTimeout = errors.New("timed out")

	// ErrNotFound is returned when an element is required immediately and
	// is not in the page.
	ErrNotFound = errors.New("element not found")

	// ErrClosed is returned when the browser or page was already released.
	ErrClosed = errors.New("browser closed")

	// ErrInvalidLocator is returned when a locator names no strategy or more
	// than one.
	ErrInvalidLocator = errors.New("invalid locator")
)

// Engine launches browsers.
type Engine interface {
	// Name identifies the engine in logs ("playwright", "chromedp").
	Name() string

	// Launch starts a browser process.
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	Headless bool

	// Product selects chromium, firefox or webkit where the engine supports it.
	Product string

	ViewportWidth  int
	ViewportHeight int

	// Timeout bounds the launch itself.
	Timeout time.Duration
}

// Browser is a launched browser process. Close must be safe to call more
// than once.
type Browser interface {
	// NewPage opens a page in a fresh, isolated context: no cookies or
	// storage are shared with any other page or run.
	NewPage(ctx context.Context) (Page, error)

	Close() error
}

// WaitState is the condition a bounded element wait is waiting for.
type WaitState string

const (
	StateAttached WaitState = "attached"
	StateVisible  WaitState = "visible"
	StateHidden   WaitState = "hidden"
)

// Page is one tab. Every method that waits takes an explicit timeout.
type Page interface {
	// Goto navigates to url and waits for the load event.
	Goto(ctx context.Context, url string, timeout time.Duration) error

	// URL returns the page's current URL.
	URL() string

	// SetLocalStorage writes key=value into window.localStorage of the
	// page's current origin.
	SetLocalStorage(ctx context.Context, key, value string) error

	// WaitForSelector waits until a CSS selector matches an element in state.
	WaitForSelector(ctx context.Context, selector string, state WaitState, timeout time.Duration) error

	// Fill replaces the value of the input matched by selector.
	Fill(ctx context.Context, selector, value string, timeout time.Duration) error

	// Click clicks the element matched by selector.
	Click(ctx context.Context, selector string, timeout time.Duration) error

	// WaitForURL waits until the page URL equals url.
	WaitForURL(ctx context.Context, url string, timeout time.Duration) error

	// Locate returns a lazy handle; nothing is resolved until it is used.
	Locate(loc Locator) (Element, error)

	// Screenshot captures the viewport, or the whole scrollable page when
	// fullPage is set. PNG encoded.
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)

	// Content returns the rendered markup of the page.
	Content(ctx context.Context) (string, error)
}

// Element is a located element.
type Element interface {
	// WaitFor waits until the element reaches state.
	WaitFor(ctx context.Context, state WaitState, timeout time.Duration) error

	// ScrollIntoView scrolls the element into the viewport if needed.
	ScrollIntoView(ctx context.Context, timeout time.Duration) error

	// Screenshot captures only the element's bounding box. PNG encoded.
	Screenshot(ctx context.Context, timeout time.Duration) ([]byte, error)
}
