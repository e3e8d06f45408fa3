// Package session makes a browser page appear authenticated, either by
// writing a pre-issued token into the page's client storage or by driving
// the application's login form.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
)

const (
	StrategyInjected    = "injected"
	StrategyInteractive = "interactive"
	StrategyNone        = "none"
)

var (
	// ErrNavigation is returned when a page the strategy needs could not be
	// loaded. The application is most likely not running.
	ErrNavigation = errors.New("session page did not load")

	// ErrStorageWrite is returned when the token or identity could not be
	// written into client storage.
	ErrStorageWrite = errors.New("failed to write client storage")

	// ErrLoginFormMissing is returned when the credential inputs never
	// appeared on the login page.
	ErrLoginFormMissing = errors.New("login form not found")

	// ErrLoginRejected is returned when the login form was submitted but the
	// post-login page was never reached.
	ErrLoginRejected = errors.New("login did not reach the post-login page")

	// ErrMissingToken is returned when the injected strategy has no token.
	ErrMissingToken = errors.New("token is required")

	// ErrMissingCredentials is returned when the interactive strategy has no
	// email or password.
	ErrMissingCredentials = errors.New("email and password are required")
)

// Strategy establishes a session on a page.
type Strategy interface {
	// Name is "injected", "interactive" or "none".
	Name() string

	// Establish leaves page authenticated, or returns an error wrapping one
	// of the package sentinels.
	Establish(ctx context.Context, page browser.Page) (*Session, error)
}

// Session describes the identity a run's page is acting under.
type Session struct {
	Strategy      string
	Email         string
	Role          string
	EstablishedAt time.Time

	// LandingURL is the page URL once the session was established.
	LandingURL string

	// ExpiresAt is the token expiry when known.
	ExpiresAt *time.Time
}

// IsExpired reports whether the session's token expiry has passed. A
// session with no known expiry never expires.
func (s *Session) IsExpired() bool {
	return s.ExpiresAt != nil && time.Now().After(*s.ExpiresAt)
}

// Identity is the companion record stored next to an injected token, e.g.
// {"id": 1, "email": "admin@test.com", "role": "admin", "name": "Admin User"}.
type Identity map[string]interface{}

// Role returns the identity's role field, or "" when absent.
func (i Identity) Role() string {
	return i.str("role")
}

// Email returns the identity's email field, or "" when absent.
func (i Identity) Email() string {
	return i.str("email")
}

func (i Identity) str(key string) string {
	if v, ok := i[key].(string); ok {
		return v
	}
	return ""
}
