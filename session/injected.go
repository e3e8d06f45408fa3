package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
	"github.com/hairizuanbinnoorazman/ui-verify/logger"
)

const (
	DefaultBootstrapPath = "/login"
	DefaultTokenKey      = "token"
	DefaultIdentityKey   = "user"
	DefaultNavTimeout    = 30 * time.Second
)

// InjectedOptions configures token injection.
type InjectedOptions struct {
	BaseURL string

	// BootstrapPath is an unauthenticated page on the application's origin;
	// client storage is only writable once the page is on that origin.
	BootstrapPath string

	Token       string
	TokenKey    string
	IdentityKey string
	Identity    Identity

	NavigationTimeout time.Duration
}

// Injected writes a pre-issued token and identity record into
// localStorage. It makes no network call of its own.
type Injected struct {
	opts   InjectedOptions
	logger logger.Logger
}

// NewInjected creates the token injection strategy, filling defaults.
func NewInjected(opts InjectedOptions, log logger.Logger) *Injected {
	if opts.BootstrapPath == "" {
		opts.BootstrapPath = DefaultBootstrapPath
	}
	if opts.TokenKey == "" {
		opts.TokenKey = DefaultTokenKey
	}
	if opts.IdentityKey == "" {
		opts.IdentityKey = DefaultIdentityKey
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavTimeout
	}
	return &Injected{opts: opts, logger: log}
}

func (s *Injected) Name() string { return StrategyInjected }

// Validate checks the token against the identity record before any browser
// work: the identity's role must equal the token's role claim. A token that
// is not a JWT is treated as opaque and only logged, as is an expired one.
func (s *Injected) Validate(ctx context.Context) (*Claims, error) {
	if s.opts.Token == "" {
		return nil, ErrMissingToken
	}

	claims, err := ParseClaims(s.opts.Token)
	if err != nil {
		s.logger.Warn(ctx, "token is not a JWT, skipping role check", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, nil
	}

	if err := CheckRole(s.opts.Identity, claims); err != nil {
		return claims, err
	}
	if claims.Expired(time.Now()) {
		s.logger.Warn(ctx, "token is expired, the application will likely reject it", map[string]interface{}{
			"expired_at": claims.ExpiresAt.Format(time.RFC3339),
		})
	}
	return claims, nil
}

// Establish opens the bootstrap page and writes the token, then the
// identity record. Nothing else is navigated, so both writes land before
// any page that reads them.
func (s *Injected) Establish(ctx context.Context, page browser.Page) (*Session, error) {
	if s.opts.Token == "" {
		return nil, ErrMissingToken
	}

	identity, err := json.Marshal(s.opts.Identity)
	if err != nil {
		return nil, fmt.Errorf("%w: encode identity: %v", ErrStorageWrite, err)
	}

	bootstrap := browser.ResolveURL(s.opts.BaseURL, s.opts.BootstrapPath)
	s.logger.Info(ctx, "opening bootstrap page", map[string]interface{}{"url": bootstrap})
	if err := page.Goto(ctx, bootstrap, s.opts.NavigationTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNavigation, err)
	}

	s.logger.Info(ctx, "injecting session token", map[string]interface{}{
		"token_key":    s.opts.TokenKey,
		"identity_key": s.opts.IdentityKey,
		"role":         s.opts.Identity.Role(),
	})
	if err := page.SetLocalStorage(ctx, s.opts.TokenKey, s.opts.Token); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	if err := page.SetLocalStorage(ctx, s.opts.IdentityKey, string(identity)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	sess := &Session{
		Strategy:      StrategyInjected,
		Email:         s.opts.Identity.Email(),
		Role:          s.opts.Identity.Role(),
		EstablishedAt: time.Now(),
		LandingURL:    page.URL(),
	}
	if claims, err := ParseClaims(s.opts.Token); err == nil {
		sess.ExpiresAt = claims.ExpiresAt
	}
	return sess, nil
}
