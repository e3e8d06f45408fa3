// Package playwright implements browser.Engine on top of playwright-go.
package playwright

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	pw "github.com/playwright-community/playwright-go"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
)

// Options configures the playwright engine.
type Options struct {
	// Install downloads the browser binaries before the first launch.
	Install bool
}

// Engine is a browser.Engine driving Chromium, Firefox or WebKit through
// the Playwright driver.
type Engine struct {
	opts Options
}

// NewEngine creates a playwright engine.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

func (e *Engine) Name() string { return "playwright" }

// Launch starts the Playwright driver and a browser. Both are released by
// the returned browser's Close.
func (e *Engine) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	product := strings.ToLower(opts.Product)
	if product == "" {
		product = "chromium"
	}

	if e.opts.Install {
		if err := pw.Install(&pw.RunOptions{Browsers: []string{product}}); err != nil {
			return nil, fmt.Errorf("failed to install playwright %s: %w", product, err)
		}
	}

	runtime, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var browserType pw.BrowserType
	switch product {
	case "chromium", "chrome":
		browserType = runtime.Chromium
	case "firefox":
		browserType = runtime.Firefox
	case "webkit":
		browserType = runtime.WebKit
	default:
		runtime.Stop()
		return nil, fmt.Errorf("unsupported browser product: %s", opts.Product)
	}

	launchOpts := pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(opts.Headless),
	}
	if opts.Timeout > 0 {
		launchOpts.Timeout = millis(opts.Timeout)
	}

	b, err := browserType.Launch(launchOpts)
	if err != nil {
		runtime.Stop()
		return nil, fmt.Errorf("failed to launch %s: %w", product, mapError(err))
	}

	return &Browser{
		runtime: runtime,
		browser: b,
		opts:    opts,
	}, nil
}

// Browser wraps a launched Playwright browser and its driver process.
type Browser struct {
	mu       sync.Mutex
	runtime  *pw.Playwright
	browser  pw.Browser
	contexts []pw.BrowserContext
	opts     browser.LaunchOptions
	closed   bool
}

// NewPage opens a page inside a new browser context, so cookies and
// storage start empty.
func (b *Browser) NewPage(ctx context.Context) (browser.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, browser.ErrClosed
	}

	contextOpts := pw.BrowserNewContextOptions{}
	if b.opts.ViewportWidth > 0 && b.opts.ViewportHeight > 0 {
		contextOpts.Viewport = &pw.Size{
			Width:  b.opts.ViewportWidth,
			Height: b.opts.ViewportHeight,
		}
	}

	bc, err := b.browser.NewContext(contextOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", mapError(err))
	}
	b.contexts = append(b.contexts, bc)

	page, err := bc.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", mapError(err))
	}

	return &Page{page: page}, nil
}

// Close releases contexts, the browser and the driver. Later calls are no-ops.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	for _, bc := range b.contexts {
		if err := bc.Close(); err != nil && !errors.Is(err, pw.ErrTargetClosed) {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if err := b.browser.Close(); err != nil && !errors.Is(err, pw.ErrTargetClosed) {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := b.runtime.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

// Page adapts a Playwright page.
type Page struct {
	page pw.Page
}

func (p *Page) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, pw.PageGotoOptions{
		Timeout:   millis(timeout),
		WaitUntil: pw.WaitUntilStateLoad,
	})
	if err != nil {
		return fmt.Errorf("goto %s: %w", url, mapError(err))
	}
	return nil
}

func (p *Page) URL() string {
	return p.page.URL()
}

// SetLocalStorage passes key and value as evaluation arguments, so neither
// needs quoting for JavaScript.
func (p *Page) SetLocalStorage(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Evaluate(`([k, v]) => window.localStorage.setItem(k, v)`, []interface{}{key, value})
	if err != nil {
		return fmt.Errorf("localStorage.setItem(%q): %w", key, mapError(err))
	}
	return nil
}

func (p *Page) WaitForSelector(ctx context.Context, selector string, state browser.WaitState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).First().WaitFor(pw.LocatorWaitForOptions{
		State:   waitState(state),
		Timeout: millis(timeout),
	})
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, mapError(err))
	}
	return nil
}

func (p *Page) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().Fill(value, pw.LocatorFillOptions{Timeout: millis(timeout)}); err != nil {
		return fmt.Errorf("fill %s: %w", selector, mapError(err))
	}
	return nil
}

func (p *Page) Click(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Locator(selector).First().Click(pw.LocatorClickOptions{Timeout: millis(timeout)}); err != nil {
		return fmt.Errorf("click %s: %w", selector, mapError(err))
	}
	return nil
}

func (p *Page) WaitForURL(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.WaitForURL(url, pw.PageWaitForURLOptions{Timeout: millis(timeout)}); err != nil {
		return fmt.Errorf("waiting for URL %s (at %s): %w", url, p.page.URL(), mapError(err))
	}
	return nil
}

func (p *Page) Locate(loc browser.Locator) (browser.Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	return &Element{locator: build(p.page, nil, loc), desc: loc.String()}, nil
}

func (p *Page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := p.page.Screenshot(pw.PageScreenshotOptions{
		FullPage: pw.Bool(fullPage),
		Type:     pw.ScreenshotTypePng,
	})
	if err != nil {
		return nil, fmt.Errorf("page screenshot: %w", mapError(err))
	}
	return buf, nil
}

func (p *Page) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := p.page.Content()
	if err != nil {
		return "", fmt.Errorf("page content: %w", mapError(err))
	}
	return html, nil
}

// Element adapts a Playwright locator.
type Element struct {
	locator pw.Locator
	desc    string
}

func (e *Element) WaitFor(ctx context.Context, state browser.WaitState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := e.locator.WaitFor(pw.LocatorWaitForOptions{
		State:   waitState(state),
		Timeout: millis(timeout),
	})
	if err != nil {
		return fmt.Errorf("waiting for %s to be %s: %w", e.desc, state, mapError(err))
	}
	return nil
}

func (e *Element) ScrollIntoView(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.locator.ScrollIntoViewIfNeeded(pw.LocatorScrollIntoViewIfNeededOptions{Timeout: millis(timeout)}); err != nil {
		return fmt.Errorf("scroll %s: %w", e.desc, mapError(err))
	}
	return nil
}

func (e *Element) Screenshot(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := e.locator.Screenshot(pw.LocatorScreenshotOptions{
		Timeout: millis(timeout),
		Type:    pw.ScreenshotTypePng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", e.desc, mapError(err))
	}
	return buf, nil
}

func waitState(state browser.WaitState) *pw.WaitForSelectorState {
	switch state {
	case browser.StateAttached:
		return pw.WaitForSelectorStateAttached
	case browser.StateHidden:
		return pw.WaitForSelectorStateHidden
	default:
		return pw.WaitForSelectorStateVisible
	}
}

func millis(d time.Duration) *float64 {
	return pw.Float(float64(d.Milliseconds()))
}

// mapError tags Playwright timeouts and closed targets with the browser
// package sentinels while keeping the driver's message.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pw.ErrTimeout):
		return fmt.Errorf("%w: %v", browser.ErrTimeout, err)
	case errors.Is(err, pw.ErrTargetClosed):
		return fmt.Errorf("%w: %v", browser.ErrClosed, err)
	default:
		return err
	}
}
