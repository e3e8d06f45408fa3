// Package verification runs one end-to-end UI check: launch a browser,
// establish a session, visit the targets, check assertions in order, and
// leave a screenshot behind whatever happens.
package verification

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
	"github.com/hairizuanbinnoorazman/ui-verify/evidence"
	"github.com/hairizuanbinnoorazman/ui-verify/session"
	"github.com/hairizuanbinnoorazman/ui-verify/storage"
)

const (
	EnginePlaywright = "playwright"
	EngineChromedp   = "chromedp"

	DefaultRunName           = "verification"
	DefaultAssertionTimeout  = 5 * time.Second
	DefaultNavigationTimeout = 30 * time.Second
	DefaultLaunchTimeout     = 30 * time.Second
	DefaultEvidenceDir       = "evidence"
)

// Config is everything one run needs.
type Config struct {
	Run      RunConfig      `mapstructure:"run"`
	BaseURL  string         `mapstructure:"base_url"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Session  SessionConfig  `mapstructure:"session"`
	Targets  []Target       `mapstructure:"targets"`
	Evidence EvidenceConfig `mapstructure:"evidence"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
}

type RunConfig struct {
	Name string `mapstructure:"name"`
}

type BrowserConfig struct {
	Engine         string        `mapstructure:"engine"`
	Browser        string        `mapstructure:"browser"`
	Headless       bool          `mapstructure:"headless"`
	ViewportWidth  int           `mapstructure:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height"`
	RemoteURL      string        `mapstructure:"remote_url"`
	Install        bool          `mapstructure:"install"`
	LaunchTimeout  time.Duration `mapstructure:"launch_timeout"`
}

type SessionConfig struct {
	Strategy    string            `mapstructure:"strategy"`
	Injected    InjectedConfig    `mapstructure:"injected"`
	Interactive InteractiveConfig `mapstructure:"interactive"`
}

type InjectedConfig struct {
	BootstrapPath string                 `mapstructure:"bootstrap_path"`
	Token         string                 `mapstructure:"token"`
	TokenKey      string                 `mapstructure:"token_key"`
	IdentityKey   string                 `mapstructure:"identity_key"`
	Identity      map[string]interface{} `mapstructure:"identity"`
}

type InteractiveConfig struct {
	LoginPath         string        `mapstructure:"login_path"`
	Email             string        `mapstructure:"email"`
	Password          string        `mapstructure:"password"`
	EmailSelector     string        `mapstructure:"email_selector"`
	PasswordSelector  string        `mapstructure:"password_selector"`
	SubmitSelector    string        `mapstructure:"submit_selector"`
	FieldTimeout      time.Duration `mapstructure:"field_timeout"`
	SuccessPath       string        `mapstructure:"success_path"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
}

// Target is one page the run visits, with the assertions checked there.
type Target struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`

	// ExpectPath, when set, must be the page URL after navigation.
	ExpectPath string `mapstructure:"expect_path"`

	// WaitFor, when set, must become visible after navigation.
	WaitFor *browser.Locator `mapstructure:"wait_for"`

	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`

	// SettleDelay is a fixed wait before the assertions, for pages that
	// fill in asynchronously and expose no readiness signal.
	SettleDelay time.Duration `mapstructure:"settle_delay"`

	Assertions []Assertion `mapstructure:"assertions"`
}

// Label names the target in logs.
func (t Target) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Path
}

// Assertion expects one located element to reach a visibility state.
type Assertion struct {
	Name    string          `mapstructure:"name"`
	Locator browser.Locator `mapstructure:"locator"`

	// Visible defaults to true; false asserts the element is hidden or absent.
	Visible *bool `mapstructure:"visible"`

	// Scroll brings the element into view before checking it.
	Scroll bool `mapstructure:"scroll"`

	Timeout time.Duration `mapstructure:"timeout"`

	// Screenshot, when set, is where the element's own screenshot goes.
	Screenshot string `mapstructure:"screenshot"`
}

// ExpectVisible reports the state the assertion waits for.
func (a Assertion) ExpectVisible() bool {
	return a.Visible == nil || *a.Visible
}

type EvidenceConfig struct {
	Success    string `mapstructure:"success"`
	Failure    string `mapstructure:"failure"`
	Markup     string `mapstructure:"markup"`
	LoginDebug string `mapstructure:"login_debug"`
	FullPage   bool   `mapstructure:"full_page"`
	LogMarkup  bool   `mapstructure:"log_markup"`
}

type StorageConfig struct {
	Type        string `mapstructure:"type"`
	BaseDir     string `mapstructure:"base_dir"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3PathStyle bool   `mapstructure:"s3_path_style"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ApplyDefaults fills every unset option that has a default.
func (c *Config) ApplyDefaults() {
	if c.Run.Name == "" {
		c.Run.Name = DefaultRunName
	}
	if c.Browser.Engine == "" {
		c.Browser.Engine = EnginePlaywright
	}
	if c.Browser.Browser == "" {
		c.Browser.Browser = "chromium"
	}
	if c.Browser.LaunchTimeout <= 0 {
		c.Browser.LaunchTimeout = DefaultLaunchTimeout
	}
	if c.Session.Strategy == "" {
		c.Session.Strategy = session.StrategyInjected
	}
	if c.Evidence.Success == "" {
		c.Evidence.Success = evidence.DefaultSuccessPath
	}
	if c.Evidence.Failure == "" {
		c.Evidence.Failure = evidence.DefaultFailurePath
	}
	if c.Storage.Type == "" {
		c.Storage.Type = storage.TypeLocal
	}
	if c.Storage.Type == storage.TypeLocal && c.Storage.BaseDir == "" {
		c.Storage.BaseDir = DefaultEvidenceDir
	}

	for i := range c.Targets {
		t := &c.Targets[i]
		if t.NavigationTimeout <= 0 {
			t.NavigationTimeout = DefaultNavigationTimeout
		}
		for j := range t.Assertions {
			if t.Assertions[j].Timeout <= 0 {
				t.Assertions[j].Timeout = DefaultAssertionTimeout
			}
		}
	}
}

// Validate checks the configuration without touching a browser. All
// problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url %q must be an http(s) URL", c.BaseURL))
	}

	switch c.Browser.Engine {
	case EnginePlaywright, EngineChromedp:
	default:
		errs = append(errs, fmt.Errorf("unsupported browser.engine %q", c.Browser.Engine))
	}
	if c.Browser.ViewportWidth < 0 || c.Browser.ViewportHeight < 0 {
		errs = append(errs, errors.New("browser viewport must not be negative"))
	}

	errs = append(errs, c.validateSession()...)

	if len(c.Targets) == 0 {
		errs = append(errs, errors.New("at least one target is required"))
	}
	for i, t := range c.Targets {
		errs = append(errs, validateTarget(i, t)...)
	}

	errs = append(errs, c.validateEvidencePaths()...)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (c *Config) validateSession() []error {
	var errs []error
	switch c.Session.Strategy {
	case session.StrategyInjected:
		inj := c.Session.Injected
		if inj.Token == "" {
			errs = append(errs, fmt.Errorf("session.injected.token: %w", session.ErrMissingToken))
			break
		}
		if claims, err := session.ParseClaims(inj.Token); err == nil {
			if err := session.CheckRole(session.Identity(inj.Identity), claims); err != nil {
				errs = append(errs, err)
			}
		}
	case session.StrategyNone:
	case session.StrategyInteractive:
		if c.Session.Interactive.Email == "" || c.Session.Interactive.Password == "" {
			errs = append(errs, fmt.Errorf("session.interactive: %w", session.ErrMissingCredentials))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported session.strategy %q", c.Session.Strategy))
	}
	return errs
}

func validateTarget(i int, t Target) []error {
	var errs []error
	prefix := fmt.Sprintf("targets[%d]", i)

	if t.Path == "" {
		errs = append(errs, fmt.Errorf("%s.path is required", prefix))
	}
	if t.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("%s.settle_delay must not be negative", prefix))
	}
	if t.WaitFor != nil {
		if err := t.WaitFor.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s.wait_for: %w", prefix, err))
		}
	}
	if len(t.Assertions) == 0 && t.WaitFor == nil && t.ExpectPath == "" {
		errs = append(errs, fmt.Errorf("%s has nothing to check", prefix))
	}

	for j, a := range t.Assertions {
		ap := fmt.Sprintf("%s.assertions[%d]", prefix, j)
		if a.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", ap))
		}
		if err := a.Locator.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s.locator: %w", ap, err))
		}
		if a.Screenshot != "" && !a.ExpectVisible() {
			errs = append(errs, fmt.Errorf("%s: cannot screenshot an element expected to be hidden", ap))
		}
	}
	return errs
}

// validateEvidencePaths requires every evidence file to have its own path,
// otherwise one outcome could overwrite another's artifact.
func (c *Config) validateEvidencePaths() []error {
	var errs []error
	seen := map[string]string{}
	claim := func(p, owner string) {
		if p == "" {
			return
		}
		if other, ok := seen[p]; ok {
			errs = append(errs, fmt.Errorf("evidence path %q is used by both %s and %s", p, other, owner))
			return
		}
		seen[p] = owner
	}

	claim(c.Evidence.Success, "evidence.success")
	claim(c.Evidence.Failure, "evidence.failure")
	claim(c.Evidence.Markup, "evidence.markup")
	claim(c.Evidence.LoginDebug, "evidence.login_debug")
	for i, t := range c.Targets {
		for j, a := range t.Assertions {
			claim(a.Screenshot, fmt.Sprintf("targets[%d].assertions[%d].screenshot", i, j))
		}
	}
	return errs
}

// RecorderOptions maps the evidence section onto evidence.Options.
func (c *Config) RecorderOptions() evidence.Options {
	return evidence.Options{
		Paths: evidence.Paths{
			Success:    c.Evidence.Success,
			Failure:    c.Evidence.Failure,
			Markup:     c.Evidence.Markup,
			LoginDebug: c.Evidence.LoginDebug,
		},
		FullPage:  c.Evidence.FullPage,
		LogMarkup: c.Evidence.LogMarkup,
	}
}

// BlobStorageConfig maps the storage section onto storage.Config.
func (c *Config) BlobStorageConfig() storage.Config {
	return storage.Config{
		Type:        c.Storage.Type,
		BaseDir:     c.Storage.BaseDir,
		S3Bucket:    c.Storage.S3Bucket,
		S3Region:    c.Storage.S3Region,
		S3Endpoint:  c.Storage.S3Endpoint,
		S3PathStyle: c.Storage.S3PathStyle,
	}
}

// LaunchOptions maps the browser section onto browser.LaunchOptions.
func (c *Config) LaunchOptions() browser.LaunchOptions {
	return browser.LaunchOptions{
		Headless:       c.Browser.Headless,
		Product:        c.Browser.Browser,
		ViewportWidth:  c.Browser.ViewportWidth,
		ViewportHeight: c.Browser.ViewportHeight,
		Timeout:        c.Browser.LaunchTimeout,
	}
}
