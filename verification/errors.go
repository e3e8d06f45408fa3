package verification

import (
	"errors"
	"fmt"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
)

// Kind classifies why a run failed.
type Kind string

const (
	// KindSetup is a configuration problem found before the browser starts.
	KindSetup Kind = "setup"

	// KindEnvironment means the application could not be reached or a page
	// did not load.
	KindEnvironment Kind = "environment"

	// KindAuthentication means the session could not be established.
	KindAuthentication Kind = "authentication"

	// KindAssertion means an expected element or URL never showed up.
	KindAssertion Kind = "assertion"

	// KindCapture means requested evidence could not be written.
	KindCapture Kind = "capture"
)

// ErrInvalidConfig is returned when the configuration does not validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Error is the error a failed run returns.
type Error struct {
	Kind Kind
	Step string
	Err  error
}

func (e *Error) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("%s failure: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failure at %q: %v", e.Kind, e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a run error, or "" if err is not one.
func KindOf(err error) Kind {
	var runErr *Error
	if errors.As(err, &runErr) {
		return runErr.Kind
	}
	return ""
}

// IsTimeout reports whether err came from a bounded wait expiring, as
// opposed to something failing outright.
func IsTimeout(err error) bool {
	return errors.Is(err, browser.ErrTimeout)
}
