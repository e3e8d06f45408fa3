package main

import (
	"fmt"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
	cdpengine "github.com/hairizuanbinnoorazman/ui-verify/browser/chromedp"
	pwengine "github.com/hairizuanbinnoorazman/ui-verify/browser/playwright"
	"github.com/hairizuanbinnoorazman/ui-verify/verification"
)

func newEngine(cfg *verification.Config) (browser.Engine, error) {
	switch cfg.Browser.Engine {
	case verification.EnginePlaywright:
		return pwengine.NewEngine(pwengine.Options{Install: cfg.Browser.Install}), nil
	case verification.EngineChromedp:
		return cdpengine.NewEngine(cdpengine.Options{RemoteURL: cfg.Browser.RemoteURL}), nil
	default:
		return nil, fmt.Errorf("unsupported browser engine: %s", cfg.Browser.Engine)
	}
}
