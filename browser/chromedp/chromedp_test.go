package chromedp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
)

func TestNewAllocator_SurvivesCallerCancellation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"local chrome", Options{ExecPath: "/usr/bin/chromium"}},
		{"remote chrome", Options{RemoteURL: "ws://127.0.0.1:9222/devtools/browser/test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			allocCtx, allocCancel := NewEngine(tt.opts).newAllocator(ctx, browser.LaunchOptions{
				Headless:       true,
				ViewportWidth:  1280,
				ViewportHeight: 720,
			})

			cancel()
			assert.NoError(t, allocCtx.Err())

			allocCancel()
			assert.Error(t, allocCtx.Err())
		})
	}
}

func TestLaunch_RejectsOtherProducts(t *testing.T) {
	_, err := NewEngine(Options{}).Launch(context.Background(), browser.LaunchOptions{Product: "firefox"})
	assert.Error(t, err)
}
