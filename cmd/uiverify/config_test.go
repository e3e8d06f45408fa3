package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuanbinnoorazman/ui-verify/session"
	"github.com/hairizuanbinnoorazman/ui-verify/testrun"
	"github.com/hairizuanbinnoorazman/ui-verify/verification"
)

func adminToken(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    1,
		"email": "admin@test.com",
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "uiverify.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

// execute runs the CLI with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestLoadConfig_TemplateWithEnvToken(t *testing.T) {
	t.Setenv("UIVERIFY_SESSION_INJECTED_TOKEN", adminToken(t, "admin"))
	p := writeConfig(t, configTemplate)

	cfg, v, err := loadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, p, v.ConfigFileUsed())

	assert.Equal(t, "admin-dashboard", cfg.Run.Name)
	assert.Equal(t, "http://localhost:5173", cfg.BaseURL)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1280, cfg.Browser.ViewportWidth)
	assert.Equal(t, "admin", session.Identity(cfg.Session.Injected.Identity).Role())
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, 5*time.Second, cfg.Targets[0].SettleDelay)
	require.Len(t, cfg.Targets[0].Assertions, 2)
	assert.Equal(t, "button", cfg.Targets[0].Assertions[1].Locator.Role)
	assert.Equal(t, "Recalculate Usage", cfg.Targets[0].Assertions[1].Locator.Name)
	assert.Equal(t, verification.DefaultAssertionTimeout, cfg.Targets[0].Assertions[0].Timeout)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_IdentityKeepsFieldNames(t *testing.T) {
	p := writeConfig(t, `
base_url: http://localhost:5173
session:
  strategy: injected
  injected:
    token: opaque
    identity:
      role: admin
      displayName: Admin User
      avatarUrl: /a.png
      preferences:
        darkMode: true
targets:
  - path: /admin
    assertions:
      - name: heading
        locator:
          role: heading
`)

	cfg, _, err := loadConfig(p)
	require.NoError(t, err)

	identity := cfg.Session.Injected.Identity
	assert.Equal(t, "admin", identity["role"])
	assert.Equal(t, "Admin User", identity["displayName"])
	assert.Equal(t, "/a.png", identity["avatarUrl"])
	assert.NotContains(t, identity, "displayname")
	assert.Equal(t, map[string]interface{}{"darkMode": true}, identity["preferences"])
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	p := writeConfig(t, configTemplate)
	flagBaseURL, flagEngine, flagHeaded, flagLogLevel = "http://staging.test", "chromedp", true, "debug"
	t.Cleanup(func() {
		flagBaseURL, flagEngine, flagHeaded, flagLogLevel = "", "", false, ""
	})

	cfg, _, err := loadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, "http://staging.test", cfg.BaseURL)
	assert.Equal(t, verification.EngineChromedp, cfg.Browser.Engine)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_ExampleConfigs(t *testing.T) {
	t.Setenv("UIVERIFY_SESSION_INJECTED_TOKEN", adminToken(t, "admin"))
	t.Setenv("UIVERIFY_SESSION_INTERACTIVE_PASSWORD", "password123")

	tests := []struct {
		file       string
		strategy   string
		assertions int
	}{
		{file: "admin-dashboard.yaml", strategy: session.StrategyInjected, assertions: 2},
		{file: "admin-email.yaml", strategy: session.StrategyInteractive, assertions: 3},
		{file: "landing.yaml", strategy: session.StrategyNone, assertions: 2},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			cfg, _, err := loadConfig(filepath.Join("..", "..", "configs", tt.file))
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
			assert.Equal(t, tt.strategy, cfg.Session.Strategy)
			require.Len(t, cfg.Targets, 1)
			assert.Len(t, cfg.Targets[0].Assertions, tt.assertions)
		})
	}
}

func TestConfigValidateCommand(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		t.Setenv("UIVERIFY_SESSION_INJECTED_TOKEN", adminToken(t, "admin"))
		out, err := execute(t, "config", "validate", "-c", writeConfig(t, configTemplate))
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration is valid: 1 target(s), 2 assertion(s), injected session")
	})

	t.Run("role mismatch exits with setup code", func(t *testing.T) {
		t.Setenv("UIVERIFY_SESSION_INJECTED_TOKEN", adminToken(t, "user"))
		_, err := execute(t, "config", "validate", "-c", writeConfig(t, configTemplate))
		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrRoleMismatch)
		assert.Equal(t, exitSetup, exitCode(err))
	})
}

func TestConfigShowMasksSecrets(t *testing.T) {
	token := adminToken(t, "admin")
	t.Setenv("UIVERIFY_SESSION_INJECTED_TOKEN", token)
	t.Setenv("UIVERIFY_SESSION_INTERACTIVE_PASSWORD", "password123")

	out, err := execute(t, "config", "show", "-c", writeConfig(t, configTemplate))
	require.NoError(t, err)
	assert.NotContains(t, out, token)
	assert.NotContains(t, out, "password123")
	assert.Contains(t, out, token[:4]+"..."+token[len(token)-4:])
	assert.Contains(t, out, "base_url: http://localhost:5173")
}

func TestConfigInitCommand(t *testing.T) {
	p := filepath.Join(t.TempDir(), "uiverify.yaml")

	out, err := execute(t, "config", "init", p)
	require.NoError(t, err)
	assert.Contains(t, out, "Config file created")
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, configTemplate, string(data))

	require.NoError(t, os.WriteFile(p, []byte("base_url: x\n"), 0600))
	out, err = execute(t, "config", "init", p)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	_, err = execute(t, "config", "init", "--force", p)
	require.NoError(t, err)
	data, err = os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, configTemplate, string(data))
}

func TestTokenInspectCommand(t *testing.T) {
	p := writeConfig(t, configTemplate)

	out, err := execute(t, "token", "inspect", "-c", p, adminToken(t, "admin"))
	require.NoError(t, err)
	assert.Contains(t, out, "admin@test.com")
	assert.Contains(t, out, "valid for")

	_, err = execute(t, "token", "inspect", "-c", p, adminToken(t, "user"))
	assert.ErrorIs(t, err, session.ErrRoleMismatch)

	_, err = execute(t, "token", "inspect", "-c", p, "not-a-jwt")
	assert.ErrorIs(t, err, session.ErrMalformedToken)
	assert.Equal(t, exitSetup, exitCode(err))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "uiverify dev")
}

func TestMaskSetting(t *testing.T) {
	settings := map[string]interface{}{
		"session": map[string]interface{}{
			"injected":    map[string]interface{}{"token": "abcdefghijkl"},
			"interactive": map[string]interface{}{"password": "pw"},
		},
	}
	maskSetting(settings, []string{"session", "injected", "token"})
	maskSetting(settings, []string{"session", "interactive", "password"})
	maskSetting(settings, []string{"session", "missing", "key"})

	s := settings["session"].(map[string]interface{})
	assert.Equal(t, "abcd...ijkl", s["injected"].(map[string]interface{})["token"])
	assert.Equal(t, "****", s["interactive"].(map[string]interface{})["password"])
	assert.Equal(t, "(not set)", mask(""))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSetup, exitCode(setupError(errors.New("bad"))))
	assert.Equal(t, exitSetup, exitCode(&verification.Error{Kind: verification.KindSetup, Err: errors.New("x")}))
	assert.Equal(t, exitFailed, exitCode(&verification.Error{Kind: verification.KindAssertion, Err: errors.New("x")}))
	assert.Equal(t, exitFailed, exitCode(errors.New("unknown command")))
}

func TestClaimRows(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	exp := now.Add(-time.Minute)
	rows := claimRows(&session.Claims{Role: "admin", ExpiresAt: &exp}, now)

	assert.Equal(t, []string{"role", "admin"}, rows[2])
	assert.Equal(t, []string{"issued_at", "(none)"}, rows[3])
	assert.Equal(t, []string{"status", "expired 1m0s ago"}, rows[5])
}

func TestPrintRunSummary(t *testing.T) {
	run := testrun.New("admin-dashboard", "http://localhost:5173")
	require.NoError(t, run.Start())
	run.BeginStep("launch browser").End(nil)
	run.BeginStep("assert System Health").End(errors.New("timed out"))
	require.NoError(t, run.AddAsset(testrun.Asset{
		AssetType:   testrun.AssetTypeImage,
		AssetPath:   "error.png",
		Location:    "/tmp/evidence/error.png",
		FileName:    "error.png",
		Description: "failure screenshot",
	}))
	require.NoError(t, run.Fail("assertion", "assert System Health", errors.New("timed out")))

	var buf bytes.Buffer
	printRunSummary(&buf, run)
	out := buf.String()

	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "1 step(s) passed, 1 failed")
	assert.Contains(t, out, `Failure [assertion] at "assert System Health": timed out`)
	assert.Contains(t, out, "/tmp/evidence/error.png")
}
