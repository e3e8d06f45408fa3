// Package chromedp implements browser.Engine over the Chrome DevTools
// Protocol with chromedp. It drives a local Chrome or attaches to a remote
// one (for example a headless-shell container).
package chromedp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
)

const (
	pollInterval = 100 * time.Millisecond
	urlTimeout   = 2 * time.Second
)

// Options configures the chromedp engine.
type Options struct {
	// RemoteURL attaches to a running browser's DevTools websocket instead
	// of starting a local Chrome.
	RemoteURL string

	// ExecPath overrides the Chrome binary.
	ExecPath string
}

// Engine is a browser.Engine driving Chrome through chromedp.
type Engine struct {
	opts Options
}

// NewEngine creates a chromedp engine.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

func (e *Engine) Name() string { return "chromedp" }

// Launch allocates a browser and starts it. Only Chrome is supported.
func (e *Engine) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Browser, error) {
	switch opts.Product {
	case "", "chromium", "chrome":
	default:
		return nil, fmt.Errorf("chromedp engine only drives chrome, got %s", opts.Product)
	}

	allocCtx, allocCancel := e.newAllocator(ctx, opts)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	started := make(chan error, 1)
	go func() { started <- chromedp.Run(browserCtx) }()

	var timeout <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case err := <-started:
		if err != nil {
			browserCancel()
			allocCancel()
			return nil, fmt.Errorf("failed to start chrome: %w", err)
		}
	case <-timeout:
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start chrome: %w", browser.ErrTimeout)
	case <-ctx.Done():
		browserCancel()
		allocCancel()
		return nil, ctx.Err()
	}

	return &Browser{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		opts:        opts,
	}, nil
}

// newAllocator builds the allocator on a context detached from ctx's
// cancellation, so Chrome survives an interrupted run until Browser.Close.
func (e *Engine) newAllocator(ctx context.Context, opts browser.LaunchOptions) (context.Context, context.CancelFunc) {
	parent := context.WithoutCancel(ctx)
	if e.opts.RemoteURL != "" {
		return chromedp.NewRemoteAllocator(parent, e.opts.RemoteURL)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight))
	}
	if e.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(e.opts.ExecPath))
	}
	return chromedp.NewExecAllocator(parent, allocOpts...)
}

// Browser is a running Chrome.
type Browser struct {
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	opts        browser.LaunchOptions
	pages       []*Page
	closed      bool
}

// NewPage opens a tab in a new browser context, so storage and cookies are
// not shared with other pages.
func (b *Browser) NewPage(ctx context.Context) (browser.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, browser.ErrClosed
	}

	pageCtx, cancel := chromedp.NewContext(b.ctx, chromedp.WithNewBrowserContext())

	var actions []chromedp.Action
	if b.opts.ViewportWidth > 0 && b.opts.ViewportHeight > 0 {
		actions = append(actions, chromedp.EmulateViewport(int64(b.opts.ViewportWidth), int64(b.opts.ViewportHeight)))
	}
	if err := runWithCaller(ctx, pageCtx, actions...); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	page := &Page{ctx: pageCtx, cancel: cancel}
	b.pages = append(b.pages, page)
	return page, nil
}

// Close closes every tab, then the browser, then the allocator.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, p := range b.pages {
		p.cancel()
	}
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close chrome: %w", err)
	}
	return nil
}

// Page is one chromedp tab.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	seq    atomic.Int64

	mu      sync.Mutex
	lastURL string
}

func (p *Page) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := p.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	p.URL()
	return nil
}

// URL reads location.href. If the page is mid-navigation the last URL read
// is returned.
func (p *Page) URL() string {
	var current string
	if err := p.run(context.Background(), urlTimeout, chromedp.Location(&current)); err == nil {
		p.mu.Lock()
		p.lastURL = current
		p.mu.Unlock()
		return current
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastURL
}

func (p *Page) SetLocalStorage(ctx context.Context, key, value string) error {
	var ok bool
	expr := fmt.Sprintf("(window.localStorage.setItem(%s, %s), true)", strconv.Quote(key), strconv.Quote(value))
	if err := p.run(ctx, urlTimeout, chromedp.Evaluate(expr, &ok)); err != nil {
		return fmt.Errorf("localStorage.setItem(%q): %w", key, err)
	}
	return nil
}

func (p *Page) WaitForSelector(ctx context.Context, selector string, state browser.WaitState, timeout time.Duration) error {
	if err := p.poll(ctx, cssSpec(selector), state, "", timeout); err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, err)
	}
	return nil
}

func (p *Page) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	tag := p.nextTag()
	if err := p.poll(ctx, cssSpec(selector), browser.StateVisible, tag, timeout); err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	sel := tagSelector(tag)
	err := p.run(ctx, timeout,
		chromedp.SetValue(sel, "", chromedp.ByQuery),
		chromedp.SendKeys(sel, value, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

func (p *Page) Click(ctx context.Context, selector string, timeout time.Duration) error {
	tag := p.nextTag()
	if err := p.poll(ctx, cssSpec(selector), browser.StateVisible, tag, timeout); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	if err := p.run(ctx, timeout, chromedp.Click(tagSelector(tag), chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// WaitForURL polls location.href from Go rather than in the page, because a
// client-side redirect destroys the page's execution context mid-wait.
func (p *Page) WaitForURL(ctx context.Context, url string, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if p.URL() == url {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("waiting for URL %s (at %s): %w", url, p.URL(), browser.ErrTimeout)
		case <-ticker.C:
		}
	}
}

func (p *Page) Locate(loc browser.Locator) (browser.Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	return &Element{page: p, spec: toSpec(loc), desc: loc.String()}, nil
}

func (p *Page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	var buf []byte
	action := chromedp.CaptureScreenshot(&buf)
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 100)
	}
	if err := p.run(ctx, 0, action); err != nil {
		return nil, fmt.Errorf("page screenshot: %w", err)
	}
	return buf, nil
}

func (p *Page) Content(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("page content: %w", err)
	}
	return html, nil
}

func (p *Page) nextTag() string {
	return strconv.FormatInt(p.seq.Add(1), 10)
}

// poll waits in the page until spec reaches state.
func (p *Page) poll(ctx context.Context, spec *locatorSpec, state browser.WaitState, tag string, timeout time.Duration) error {
	var ok bool
	return p.run(ctx, 0, chromedp.PollFunction(resolveScript, &ok,
		chromedp.WithPollingArgs(spec, string(state), tag),
		chromedp.WithPollingInterval(pollInterval),
		chromedp.WithPollingTimeout(timeout),
	))
}

// run executes actions on the tab, bounded by timeout (when positive) and
// by the caller's ctx.
func (p *Page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx := p.ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(runCtx)
	}
	defer cancel()
	return mapError(ctx, runWithCaller(ctx, runCtx, actions...))
}

// runWithCaller runs actions in target, cancelling them when caller is done.
func runWithCaller(caller, target context.Context, actions ...chromedp.Action) error {
	target, cancel := context.WithCancel(target)
	defer cancel()
	stop := context.AfterFunc(caller, cancel)
	defer stop()
	return chromedp.Run(target, actions...)
}

func mapError(caller context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case caller.Err() != nil:
		return caller.Err()
	case errors.Is(err, chromedp.ErrPollingTimeout), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", browser.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", browser.ErrClosed, err)
	default:
		return err
	}
}

// Element is a lazily resolved locator on a chromedp page.
type Element struct {
	page *Page
	spec *locatorSpec
	desc string
}

func (e *Element) WaitFor(ctx context.Context, state browser.WaitState, timeout time.Duration) error {
	if err := e.page.poll(ctx, e.spec, state, "", timeout); err != nil {
		return fmt.Errorf("waiting for %s to be %s: %w", e.desc, state, err)
	}
	return nil
}

func (e *Element) ScrollIntoView(ctx context.Context, timeout time.Duration) error {
	tag := e.page.nextTag()
	if err := e.page.poll(ctx, e.spec, browser.StateAttached, tag, timeout); err != nil {
		return fmt.Errorf("scroll %s: %w", e.desc, err)
	}
	if err := e.page.run(ctx, timeout, chromedp.ScrollIntoView(tagSelector(tag), chromedp.ByQuery)); err != nil {
		return fmt.Errorf("scroll %s: %w", e.desc, err)
	}
	return nil
}

func (e *Element) Screenshot(ctx context.Context, timeout time.Duration) ([]byte, error) {
	tag := e.page.nextTag()
	if err := e.page.poll(ctx, e.spec, browser.StateVisible, tag, timeout); err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", e.desc, err)
	}
	var buf []byte
	if err := e.page.run(ctx, timeout, chromedp.Screenshot(tagSelector(tag), &buf, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", e.desc, err)
	}
	return buf, nil
}
