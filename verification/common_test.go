package verification

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
	"github.com/hairizuanbinnoorazman/ui-verify/evidence"
	"github.com/hairizuanbinnoorazman/ui-verify/logger"
	"github.com/hairizuanbinnoorazman/ui-verify/storage"
)

const base = "http://localhost:5173"

func signToken(t *testing.T, role, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    1,
		"email": "admin@test.com",
		"role":  role,
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func adminIdentity() map[string]interface{} {
	return map[string]interface{}{
		"id":    1,
		"email": "admin@test.com",
		"role":  "admin",
		"name":  "Admin User",
	}
}

func injectedConfig(token string) Config {
	return Config{
		Run:     RunConfig{Name: "admin-dashboard"},
		BaseURL: base,
		Browser: BrowserConfig{Engine: EnginePlaywright, Headless: true},
		Session: SessionConfig{
			Strategy: "injected",
			Injected: InjectedConfig{Token: token, Identity: adminIdentity()},
		},
		Targets: []Target{{
			Name: "admin",
			Path: "/admin",
			Assertions: []Assertion{
				{Name: "System Health", Locator: browser.Locator{Text: "System Health (Live)"}},
				{Name: "Recalculate Usage", Locator: browser.Locator{Role: "button", Name: "Recalculate Usage"}},
			},
		}},
		Evidence: EvidenceConfig{
			Success: "admin_dashboard.png",
			Failure: "error.png",
			Markup:  "error.html",
		},
	}
}

func interactiveConfig(password string) Config {
	return Config{
		Run:     RunConfig{Name: "admin-email"},
		BaseURL: base,
		Browser: BrowserConfig{Engine: EnginePlaywright, Headless: true},
		Session: SessionConfig{
			Strategy: "interactive",
			Interactive: InteractiveConfig{
				Email:    "admin@test.com",
				Password: password,
			},
		},
		Targets: []Target{{
			Name: "admin",
			Path: "/admin",
			Assertions: []Assertion{
				{Name: "Admin Dashboard", Locator: browser.Locator{Role: "heading", Name: "Admin Dashboard"}},
				{Name: "Send Test Email", Locator: browser.Locator{Text: "Send Test Email"}, Scroll: true},
			},
		}},
		Evidence: EvidenceConfig{
			Success:    "admin_email_verification.png",
			Failure:    "error.png",
			LoginDebug: "login_debug.png",
		},
	}
}

type harness struct {
	engine *browser.FakeEngine
	store  *storage.LocalStorage
	log    *logger.TestLogger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return &harness{
		engine: browser.NewFakeEngine(),
		store:  store,
		log:    logger.NewTestLogger(),
	}
}

func (h *harness) runner(cfg Config) *Runner {
	cfg.ApplyDefaults()
	recorder := evidence.NewRecorder(h.store, cfg.RecorderOptions(), h.log)
	return NewRunner(cfg, h.engine, recorder, h.log)
}

func (h *harness) exists(t *testing.T, p string) bool {
	t.Helper()
	ok, err := h.store.Exists(context.Background(), p)
	require.NoError(t, err)
	return ok
}

func indexOf(calls []string, call string) int {
	for i, c := range calls {
		if c == call {
			return i
		}
	}
	return -1
}
