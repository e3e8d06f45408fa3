package session

import (
	"context"
	"time"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
)

// None leaves the page anonymous, for public pages.
type None struct{}

func (None) Name() string { return StrategyNone }

func (None) Establish(ctx context.Context, page browser.Page) (*Session, error) {
	return &Session{
		Strategy:      StrategyNone,
		EstablishedAt: time.Now(),
		LandingURL:    page.URL(),
	}, nil
}
