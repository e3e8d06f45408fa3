package verification

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
)

func TestError(t *testing.T) {
	cause := fmt.Errorf("waiting for text=%q: %w", "Roadmap", browser.ErrTimeout)
	err := error(&Error{Kind: KindAssertion, Step: "assert Roadmap", Err: cause})

	assert.Equal(t, `assertion failure at "assert Roadmap": waiting for text="Roadmap": timed out`, err.Error())
	assert.ErrorIs(t, err, browser.ErrTimeout)
	assert.Equal(t, KindAssertion, KindOf(err))
	assert.Equal(t, KindAssertion, KindOf(fmt.Errorf("run: %w", err)))
	assert.True(t, IsTimeout(err))
}

func TestError_NoStep(t *testing.T) {
	err := &Error{Kind: KindSetup, Err: errors.New("base_url is required")}
	assert.Equal(t, "setup failure: base_url is required", err.Error())
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.False(t, IsTimeout(&Error{Kind: KindEnvironment, Err: browser.ErrNotFound}))
}
