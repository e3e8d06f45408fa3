package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken is returned when a token is not a decodable JWT.
	ErrMalformedToken = errors.New("token is not a decodable JWT")

	// ErrRoleMismatch is returned when the identity record's role differs
	// from the token's role claim.
	ErrRoleMismatch = errors.New("identity role does not match token role claim")
)

// Claims are the fields of an injected token the harness cares about. The
// signature is never verified; that is the application's job.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
	Raw       jwt.MapClaims
}

// Expired reports whether the token's exp claim is before now.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// ParseClaims decodes a JWT payload without verifying its signature.
func ParseClaims(token string) (*Claims, error) {
	raw := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	c := &Claims{Raw: raw}
	if s, ok := raw["role"].(string); ok {
		c.Role = s
	}
	if s, ok := raw["email"].(string); ok {
		c.Email = s
	}

	if sub, err := raw.GetSubject(); err == nil && sub != "" {
		c.Subject = sub
	} else if id, ok := raw["id"]; ok {
		c.Subject = fmt.Sprint(id)
	}

	if iat, err := raw.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		c.IssuedAt = &t
	}
	if exp, err := raw.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		c.ExpiresAt = &t
	}
	return c, nil
}

// CheckRole enforces that an identity record with a role agrees with the
// token's role claim. Identities without a role are not checked.
func CheckRole(identity Identity, claims *Claims) error {
	want := identity.Role()
	if want == "" {
		return nil
	}
	if claims.Role != want {
		return fmt.Errorf("%w: identity has %q, token has %q", ErrRoleMismatch, want, claims.Role)
	}
	return nil
}
