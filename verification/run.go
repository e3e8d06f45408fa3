package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
	"github.com/hairizuanbinnoorazman/ui-verify/logger"
	"github.com/hairizuanbinnoorazman/ui-verify/session"
	"github.com/hairizuanbinnoorazman/ui-verify/testrun"
)

// captureTimeout bounds evidence capture and browser release, which run on
// a context detached from the run's so they still happen after SIGINT.
const captureTimeout = 15 * time.Second

// Recorder is the evidence sink a run writes to.
type Recorder interface {
	session.Diagnostics
	Prepare(ctx context.Context) error
	CaptureSuccess(ctx context.Context, page browser.Page) error
	CaptureFailure(ctx context.Context, page browser.Page) error
	CaptureElement(ctx context.Context, el browser.Element, path, description string) error
	Assets() []testrun.Asset
}

// tokenValidator is implemented by strategies that can be checked before
// a browser exists.
type tokenValidator interface {
	Validate(ctx context.Context) (*session.Claims, error)
}

// Runner executes verification runs.
type Runner struct {
	cfg      Config
	engine   browser.Engine
	recorder Recorder
	logger   logger.Logger
}

// NewRunner creates a Runner. Defaults are applied to a copy of cfg.
func NewRunner(cfg Config, engine browser.Engine, recorder Recorder, log logger.Logger) *Runner {
	cfg.ApplyDefaults()
	return &Runner{
		cfg:      cfg,
		engine:   engine,
		recorder: recorder,
		logger:   log,
	}
}

// Run performs one verification. The returned record is never nil; the
// error is a *Error when the run failed.
func (r *Runner) Run(ctx context.Context) (*testrun.TestRun, error) {
	run := testrun.New(r.cfg.Run.Name, r.cfg.BaseURL)
	run.Strategy = r.cfg.Session.Strategy
	log := r.logger.WithFields(map[string]interface{}{
		"run_id": run.ID.String(),
		"run":    run.Name,
	})
	if err := run.Start(); err != nil {
		log.Warn(ctx, "run record not started", map[string]interface{}{"error": err.Error()})
	}

	err := r.execute(ctx, run, log)
	run.Assets = r.recorder.Assets()

	if err != nil {
		runErr := asRunError(err)
		_ = run.Fail(string(runErr.Kind), runErr.Step, runErr.Err)
		log.Error(ctx, "verification failed", map[string]interface{}{
			"kind":    string(runErr.Kind),
			"step":    runErr.Step,
			"timeout": IsTimeout(runErr),
			"error":   runErr.Err.Error(),
		})
		return run, runErr
	}

	_ = run.Pass()
	log.Info(ctx, "verification passed", map[string]interface{}{
		"duration": run.Duration().String(),
		"steps":    len(run.Steps),
	})
	return run, nil
}

// execute is acquire, steps, capture, release. Evidence is captured before
// the browser is released, and release happens on every path.
func (r *Runner) execute(ctx context.Context, run *testrun.TestRun, log logger.Logger) error {
	strategy, err := r.setup(ctx, run, log)
	if err != nil {
		return err
	}

	var b browser.Browser
	err = r.step(ctx, run, log, "launch browser", KindEnvironment, func() error {
		log.Info(ctx, "launching browser", map[string]interface{}{
			"engine":   r.engine.Name(),
			"browser":  r.cfg.Browser.Browser,
			"headless": r.cfg.Browser.Headless,
		})
		b, err = r.engine.Launch(ctx, r.cfg.LaunchOptions())
		return err
	})
	if err != nil {
		return err
	}
	defer r.release(ctx, b, log)

	var page browser.Page
	err = r.step(ctx, run, log, "open page", KindEnvironment, func() error {
		page, err = b.NewPage(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if err := r.verify(ctx, run, log, page, strategy); err != nil {
		captureCtx, cancel := detached(ctx)
		defer cancel()
		if cerr := r.recorder.CaptureFailure(captureCtx, page); cerr != nil {
			log.Warn(ctx, "failed to capture failure evidence", map[string]interface{}{"error": cerr.Error()})
			run.AddCaptureError(cerr)
		}
		return err
	}

	captureCtx, cancel := detached(ctx)
	defer cancel()
	if err := r.recorder.CaptureSuccess(captureCtx, page); err != nil {
		run.AddCaptureError(err)
		log.Warn(ctx, "failed to capture success evidence, capturing failure evidence instead", map[string]interface{}{"error": err.Error()})
		if cerr := r.recorder.CaptureFailure(captureCtx, page); cerr != nil {
			run.AddCaptureError(cerr)
		}
		return &Error{Kind: KindCapture, Step: "capture success evidence", Err: err}
	}
	return nil
}

// setup validates everything that can be checked without a browser.
func (r *Runner) setup(ctx context.Context, run *testrun.TestRun, log logger.Logger) (session.Strategy, error) {
	var strategy session.Strategy
	err := r.step(ctx, run, log, "validate configuration", KindSetup, func() error {
		// Stale outcome files go first so a setup failure leaves none behind.
		if err := r.recorder.Prepare(ctx); err != nil {
			return fmt.Errorf("reset evidence: %w", err)
		}
		if err := r.cfg.Validate(); err != nil {
			return err
		}
		strategy = r.newStrategy(log)
		if v, ok := strategy.(tokenValidator); ok {
			if _, err := v.Validate(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	return strategy, err
}

func (r *Runner) newStrategy(log logger.Logger) session.Strategy {
	s := r.cfg.Session
	switch s.Strategy {
	case session.StrategyNone:
		return session.None{}
	case session.StrategyInteractive:
		return session.NewInteractive(session.InteractiveOptions{
			BaseURL:           r.cfg.BaseURL,
			LoginPath:         s.Interactive.LoginPath,
			Email:             s.Interactive.Email,
			Password:          s.Interactive.Password,
			EmailSelector:     s.Interactive.EmailSelector,
			PasswordSelector:  s.Interactive.PasswordSelector,
			SubmitSelector:    s.Interactive.SubmitSelector,
			FieldTimeout:      s.Interactive.FieldTimeout,
			SuccessPath:       s.Interactive.SuccessPath,
			NavigationTimeout: s.Interactive.NavigationTimeout,
		}, r.recorder, log)
	}
	return session.NewInjected(session.InjectedOptions{
		BaseURL:       r.cfg.BaseURL,
		BootstrapPath: s.Injected.BootstrapPath,
		Token:         s.Injected.Token,
		TokenKey:      s.Injected.TokenKey,
		IdentityKey:   s.Injected.IdentityKey,
		Identity:      session.Identity(s.Injected.Identity),
	}, log)
}

// verify establishes the session and checks every target in order. The
// first failure ends it.
func (r *Runner) verify(ctx context.Context, run *testrun.TestRun, log logger.Logger, page browser.Page, strategy session.Strategy) error {
	err := r.step(ctx, run, log, "establish session", KindAuthentication, func() error {
		sess, err := strategy.Establish(ctx, page)
		if err != nil {
			return err
		}
		log.Info(ctx, "session established", map[string]interface{}{
			"strategy": sess.Strategy,
			"email":    sess.Email,
			"url":      sess.LandingURL,
		})
		return nil
	})
	if err != nil {
		return err
	}

	for _, target := range r.cfg.Targets {
		if err := r.visit(ctx, run, log, page, target); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) visit(ctx context.Context, run *testrun.TestRun, log logger.Logger, page browser.Page, target Target) error {
	tlog := log.WithField("target", target.Label())
	targetURL := browser.ResolveURL(r.cfg.BaseURL, target.Path)

	err := r.step(ctx, run, tlog, "navigate to "+target.Label(), KindEnvironment, func() error {
		tlog.Info(ctx, "navigating to target", map[string]interface{}{"url": targetURL})
		return page.Goto(ctx, targetURL, target.NavigationTimeout)
	})
	if err != nil {
		return err
	}

	if target.ExpectPath != "" {
		expected := browser.ResolveURL(r.cfg.BaseURL, target.ExpectPath)
		err := r.step(ctx, run, tlog, "expect "+expected, KindAssertion, func() error {
			return page.WaitForURL(ctx, expected, target.NavigationTimeout)
		})
		if err != nil {
			return err
		}
	}

	if target.WaitFor != nil {
		err := r.step(ctx, run, tlog, "wait for "+target.WaitFor.String(), KindAssertion, func() error {
			el, err := page.Locate(*target.WaitFor)
			if err != nil {
				return err
			}
			return el.WaitFor(ctx, browser.StateVisible, target.NavigationTimeout)
		})
		if err != nil {
			return err
		}
	}

	if target.SettleDelay > 0 {
		err := r.step(ctx, run, tlog, "settle", KindEnvironment, func() error {
			tlog.Info(ctx, "waiting for page to settle", map[string]interface{}{"delay": target.SettleDelay.String()})
			timer := time.NewTimer(target.SettleDelay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		})
		if err != nil {
			return err
		}
	}

	for _, a := range target.Assertions {
		if err := r.check(ctx, run, tlog, page, a); err != nil {
			return err
		}
	}
	return nil
}

// check evaluates one assertion. A requested element screenshot that
// cannot be written fails the run as a capture failure.
func (r *Runner) check(ctx context.Context, run *testrun.TestRun, log logger.Logger, page browser.Page, a Assertion) error {
	state := browser.StateVisible
	if !a.ExpectVisible() {
		state = browser.StateHidden
	}

	var el browser.Element
	err := r.step(ctx, run, log, "assert "+a.Name, KindAssertion, func() error {
		log.Info(ctx, "checking assertion", map[string]interface{}{
			"assertion": a.Name,
			"locator":   a.Locator.String(),
			"state":     string(state),
			"timeout":   a.Timeout.String(),
		})

		var err error
		el, err = page.Locate(a.Locator)
		if err != nil {
			return err
		}
		if a.Scroll {
			if err := el.ScrollIntoView(ctx, a.Timeout); err != nil {
				return err
			}
		}
		return el.WaitFor(ctx, state, a.Timeout)
	})
	if err != nil {
		return err
	}

	if a.Screenshot == "" {
		return nil
	}
	return r.step(ctx, run, log, "screenshot "+a.Name, KindCapture, func() error {
		return r.recorder.CaptureElement(ctx, el, a.Screenshot, a.Name)
	})
}

// step runs fn as a recorded, narrated step. Errors come back as *Error of
// the given kind, except session errors that say the page never loaded or
// the strategy was misconfigured.
func (r *Runner) step(ctx context.Context, run *testrun.TestRun, log logger.Logger, name string, kind Kind, fn func() error) error {
	s := run.BeginStep(name)
	log.Debug(ctx, "step started", map[string]interface{}{"step": name})

	err := fn()
	s.End(err)
	if err == nil {
		log.Debug(ctx, "step passed", map[string]interface{}{"step": name, "duration": s.Duration.String()})
		return nil
	}

	switch {
	case errors.Is(err, session.ErrNavigation):
		kind = KindEnvironment
	case errors.Is(err, session.ErrMissingToken), errors.Is(err, session.ErrMissingCredentials):
		kind = KindSetup
	}
	return &Error{Kind: kind, Step: name, Err: err}
}

func (r *Runner) release(ctx context.Context, b browser.Browser, log logger.Logger) {
	log.Info(ctx, "closing browser", nil)
	if err := b.Close(); err != nil {
		log.Warn(ctx, "failed to close browser", map[string]interface{}{"error": err.Error()})
	}
}

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
}

func asRunError(err error) *Error {
	var runErr *Error
	if errors.As(err, &runErr) {
		return runErr
	}
	return &Error{Kind: KindEnvironment, Err: err}
}
