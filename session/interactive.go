package session

import (
	"context"
	"fmt"
	"time"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
	"github.com/hairizuanbinnoorazman/ui-verify/logger"
)

const (
	DefaultLoginPath        = "/login"
	DefaultEmailSelector    = "input[type='email']"
	DefaultPasswordSelector = "input[type='password']"
	DefaultSubmitSelector   = "button[type='submit']"
	DefaultSuccessPath      = "/"
	DefaultFieldTimeout     = 5 * time.Second
	DefaultLoginTimeout     = 10 * time.Second
)

// Diagnostics captures evidence of a login page that is not what the
// strategy expected, before the failure is returned.
type Diagnostics interface {
	CaptureLoginDebug(ctx context.Context, page browser.Page) error
}

// InteractiveOptions configures form login.
type InteractiveOptions struct {
	BaseURL   string
	LoginPath string

	Email    string
	Password string

	EmailSelector    string
	PasswordSelector string
	SubmitSelector   string

	// FieldTimeout bounds the wait for the credential inputs.
	FieldTimeout time.Duration

	// SuccessPath is where the application lands after a good login.
	SuccessPath string

	// NavigationTimeout bounds loading the login page and the post-login
	// redirect.
	NavigationTimeout time.Duration
}

// Interactive logs in through the application's own form.
type Interactive struct {
	opts        InteractiveOptions
	diagnostics Diagnostics
	logger      logger.Logger
}

// NewInteractive creates the form login strategy, filling defaults.
// diagnostics may be nil.
func NewInteractive(opts InteractiveOptions, diagnostics Diagnostics, log logger.Logger) *Interactive {
	if opts.LoginPath == "" {
		opts.LoginPath = DefaultLoginPath
	}
	if opts.EmailSelector == "" {
		opts.EmailSelector = DefaultEmailSelector
	}
	if opts.PasswordSelector == "" {
		opts.PasswordSelector = DefaultPasswordSelector
	}
	if opts.SubmitSelector == "" {
		opts.SubmitSelector = DefaultSubmitSelector
	}
	if opts.SuccessPath == "" {
		opts.SuccessPath = DefaultSuccessPath
	}
	if opts.FieldTimeout <= 0 {
		opts.FieldTimeout = DefaultFieldTimeout
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultLoginTimeout
	}
	return &Interactive{opts: opts, diagnostics: diagnostics, logger: log}
}

func (s *Interactive) Name() string { return StrategyInteractive }

// Establish opens the login page, fills and submits the form, and waits for
// the post-login URL.
func (s *Interactive) Establish(ctx context.Context, page browser.Page) (*Session, error) {
	if s.opts.Email == "" || s.opts.Password == "" {
		return nil, ErrMissingCredentials
	}

	loginURL := browser.ResolveURL(s.opts.BaseURL, s.opts.LoginPath)
	s.logger.Info(ctx, "opening login page", map[string]interface{}{"url": loginURL})
	if err := page.Goto(ctx, loginURL, s.opts.NavigationTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNavigation, err)
	}

	s.logger.Info(ctx, "waiting for login form", map[string]interface{}{
		"selector": s.opts.EmailSelector,
		"timeout":  s.opts.FieldTimeout.String(),
	})
	for _, selector := range []string{s.opts.EmailSelector, s.opts.PasswordSelector} {
		if err := page.WaitForSelector(ctx, selector, browser.StateVisible, s.opts.FieldTimeout); err != nil {
			s.captureDebug(ctx, page)
			return nil, fmt.Errorf("%w: %w", ErrLoginFormMissing, err)
		}
	}

	s.logger.Info(ctx, "submitting credentials", map[string]interface{}{"email": s.opts.Email})
	if err := page.Fill(ctx, s.opts.EmailSelector, s.opts.Email, s.opts.FieldTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFormMissing, err)
	}
	if err := page.Fill(ctx, s.opts.PasswordSelector, s.opts.Password, s.opts.FieldTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFormMissing, err)
	}
	if err := page.Click(ctx, s.opts.SubmitSelector, s.opts.FieldTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFormMissing, err)
	}

	successURL := browser.ResolveURL(s.opts.BaseURL, s.opts.SuccessPath)
	s.logger.Info(ctx, "waiting for post-login page", map[string]interface{}{
		"url":     successURL,
		"timeout": s.opts.NavigationTimeout.String(),
	})
	if err := page.WaitForURL(ctx, successURL, s.opts.NavigationTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginRejected, err)
	}

	return &Session{
		Strategy:      StrategyInteractive,
		Email:         s.opts.Email,
		EstablishedAt: time.Now(),
		LandingURL:    page.URL(),
	}, nil
}

func (s *Interactive) captureDebug(ctx context.Context, page browser.Page) {
	if s.diagnostics == nil {
		return
	}
	if err := s.diagnostics.CaptureLoginDebug(ctx, page); err != nil {
		s.logger.Warn(ctx, "failed to capture login debug evidence", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
