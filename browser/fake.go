package browser

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"
)

// FakeEngine is an in-memory Engine for tests. It records every call in
// order and answers waits from scripted hooks instead of a real DOM; a wait
// whose condition is false fails with ErrTimeout immediately.
type FakeEngine struct {
	mu    sync.Mutex
	calls []string

	// Present reports whether a CSS selector matches on the page. Nil means
	// every selector matches.
	Present func(p *FakePage, selector string) bool

	// Visible reports whether a located element is visible. Nil means
	// nothing is visible.
	Visible func(p *FakePage, loc Locator) bool

	// OnClick lets a test react to clicks, e.g. move to a post-login URL.
	OnClick func(p *FakePage, selector string)

	// HTML renders the page markup. Nil renders a minimal document.
	HTML func(p *FakePage) string

	LaunchErr     error
	GotoErr       map[string]error
	ScreenshotErr error
	ContentErr    error

	// FullPageErr fails only full-page screenshots, as a page too tall to
	// stitch would.
	FullPageErr error

	// Launched counts browsers started; Closed counts Close calls that
	// actually released a browser.
	Launched int
	Closed   int

	pages []*FakePage
}

// NewFakeEngine creates a FakeEngine with no scripted behaviour.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{GotoErr: map[string]error{}}
}

func (e *FakeEngine) Name() string { return "fake" }

// Launch starts a fake browser.
func (e *FakeEngine) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	e.record("launch headless=%t", opts.Headless)
	if e.LaunchErr != nil {
		return nil, e.LaunchErr
	}
	e.mu.Lock()
	e.Launched++
	e.mu.Unlock()
	return &fakeBrowser{engine: e}, nil
}

// Calls returns the ordered call log.
func (e *FakeEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	copy(out, e.calls)
	return out
}

// Pages returns every page opened so far.
func (e *FakeEngine) Pages() []*FakePage {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*FakePage, len(e.pages))
	copy(out, e.pages)
	return out
}

func (e *FakeEngine) record(format string, args ...interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
}

type fakeBrowser struct {
	engine *FakeEngine
	closed bool
}

func (b *fakeBrowser) NewPage(ctx context.Context) (Page, error) {
	if b.closed {
		return nil, ErrClosed
	}
	b.engine.record("new_page")
	p := &FakePage{
		engine:  b.engine,
		browser: b,
		url:     "about:blank",
		Storage: map[string]map[string]string{},
		Values:  map[string]string{},
	}
	b.engine.mu.Lock()
	b.engine.pages = append(b.engine.pages, p)
	b.engine.mu.Unlock()
	return p, nil
}

func (b *fakeBrowser) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.engine.record("close")
	b.engine.mu.Lock()
	b.engine.Closed++
	b.engine.mu.Unlock()
	return nil
}

// FakePage is the page handed out by FakeEngine. Storage is keyed by origin.
type FakePage struct {
	engine  *FakeEngine
	browser *fakeBrowser
	url     string

	Storage map[string]map[string]string
	Values  map[string]string
}

// SetURL moves the page without recording a navigation, as a redirect would.
func (p *FakePage) SetURL(u string) { p.url = u }

// LocalStorage returns the storage of the page's current origin.
func (p *FakePage) LocalStorage() map[string]string {
	return p.Storage[origin(p.url)]
}

func (p *FakePage) check() error {
	if p.browser.closed {
		return ErrClosed
	}
	return nil
}

func (p *FakePage) Goto(ctx context.Context, u string, timeout time.Duration) error {
	if err := p.check(); err != nil {
		return err
	}
	p.engine.record("goto %s", u)
	if err, ok := p.engine.GotoErr[u]; ok && err != nil {
		return err
	}
	p.url = u
	return nil
}

func (p *FakePage) URL() string { return p.url }

func (p *FakePage) SetLocalStorage(ctx context.Context, key, value string) error {
	if err := p.check(); err != nil {
		return err
	}
	o := origin(p.url)
	if o == "" {
		return fmt.Errorf("localStorage is not available on %s", p.url)
	}
	p.engine.record("storage %s", key)
	if p.Storage[o] == nil {
		p.Storage[o] = map[string]string{}
	}
	p.Storage[o][key] = value
	return nil
}

func (p *FakePage) WaitForSelector(ctx context.Context, selector string, state WaitState, timeout time.Duration) error {
	if err := p.check(); err != nil {
		return err
	}
	p.engine.record("wait_selector %s", selector)
	if p.engine.Present != nil && !p.engine.Present(p, selector) {
		return fmt.Errorf("waiting for %s: %w", selector, ErrTimeout)
	}
	return nil
}

func (p *FakePage) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	if err := p.check(); err != nil {
		return err
	}
	p.engine.record("fill %s", selector)
	if p.engine.Present != nil && !p.engine.Present(p, selector) {
		return fmt.Errorf("fill %s: %w", selector, ErrTimeout)
	}
	p.Values[selector] = value
	return nil
}

func (p *FakePage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	if err := p.check(); err != nil {
		return err
	}
	p.engine.record("click %s", selector)
	if p.engine.OnClick != nil {
		p.engine.OnClick(p, selector)
	}
	return nil
}

func (p *FakePage) WaitForURL(ctx context.Context, u string, timeout time.Duration) error {
	if err := p.check(); err != nil {
		return err
	}
	p.engine.record("wait_url %s", u)
	if p.url != u {
		return fmt.Errorf("waiting for URL %s (at %s): %w", u, p.url, ErrTimeout)
	}
	return nil
}

func (p *FakePage) Locate(loc Locator) (Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	return &fakeElement{page: p, loc: loc}, nil
}

func (p *FakePage) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	p.engine.record("screenshot full=%t", fullPage)
	if p.engine.ScreenshotErr != nil {
		return nil, p.engine.ScreenshotErr
	}
	if fullPage && p.engine.FullPageErr != nil {
		return nil, p.engine.FullPageErr
	}
	kind := "viewport"
	if fullPage {
		kind = "full"
	}
	return []byte("png:" + kind + ":" + p.url), nil
}

func (p *FakePage) Content(ctx context.Context) (string, error) {
	if err := p.check(); err != nil {
		return "", err
	}
	p.engine.record("content")
	if p.engine.ContentErr != nil {
		return "", p.engine.ContentErr
	}
	if p.engine.HTML != nil {
		return p.engine.HTML(p), nil
	}
	return "<html><head><title>fake</title></head><body></body></html>", nil
}

type fakeElement struct {
	page *FakePage
	loc  Locator
}

func (el *fakeElement) visible() bool {
	return el.page.engine.Visible != nil && el.page.engine.Visible(el.page, el.loc)
}

func (el *fakeElement) WaitFor(ctx context.Context, state WaitState, timeout time.Duration) error {
	if err := el.page.check(); err != nil {
		return err
	}
	el.page.engine.record("wait %s %s", state, el.loc)
	ok := el.visible()
	if state == StateHidden {
		ok = !ok
	}
	if !ok {
		return fmt.Errorf("waiting for %s to be %s: %w", el.loc, state, ErrTimeout)
	}
	return nil
}

func (el *fakeElement) ScrollIntoView(ctx context.Context, timeout time.Duration) error {
	if err := el.page.check(); err != nil {
		return err
	}
	el.page.engine.record("scroll %s", el.loc)
	if !el.visible() {
		return fmt.Errorf("scroll %s: %w", el.loc, ErrTimeout)
	}
	return nil
}

func (el *fakeElement) Screenshot(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if err := el.page.check(); err != nil {
		return nil, err
	}
	el.page.engine.record("element_screenshot %s", el.loc)
	if el.page.engine.ScreenshotErr != nil {
		return nil, el.page.engine.ScreenshotErr
	}
	if !el.visible() {
		return nil, fmt.Errorf("screenshot %s: %w", el.loc, ErrNotFound)
	}
	return []byte("png:element:" + el.loc.String()), nil
}

func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
