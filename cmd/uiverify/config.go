package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hairizuanbinnoorazman/ui-verify/verification"
)

//go:embed template.yaml
var configTemplate string

const envPrefix = "UIVERIFY"

// secretKeys are masked by `config show`.
var secretKeys = []string{
	"session.injected.token",
	"session.interactive.password",
}

// loadConfig reads the config file, then environment overrides, then
// command-line flags, and applies defaults.
func loadConfig(configPath string) (*verification.Config, *viper.Viper, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("uiverify")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("run.name", verification.DefaultRunName)
	v.SetDefault("base_url", "")

	v.SetDefault("browser.engine", verification.EnginePlaywright)
	v.SetDefault("browser.browser", "chromium")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 720)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.install", false)
	v.SetDefault("browser.launch_timeout", "30s")

	v.SetDefault("session.strategy", "injected")
	v.SetDefault("session.injected.bootstrap_path", "/login")
	v.SetDefault("session.injected.token", "")
	v.SetDefault("session.injected.token_key", "token")
	v.SetDefault("session.injected.identity_key", "user")
	v.SetDefault("session.interactive.login_path", "/login")
	v.SetDefault("session.interactive.email", "")
	v.SetDefault("session.interactive.password", "")
	v.SetDefault("session.interactive.field_timeout", "5s")
	v.SetDefault("session.interactive.success_path", "/")
	v.SetDefault("session.interactive.navigation_timeout", "10s")

	v.SetDefault("evidence.success", "success.png")
	v.SetDefault("evidence.failure", "error.png")
	v.SetDefault("evidence.markup", "")
	v.SetDefault("evidence.login_debug", "login_debug.png")
	v.SetDefault("evidence.full_page", false)
	v.SetDefault("evidence.log_markup", false)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_dir", verification.DefaultEvidenceDir)
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_endpoint", "")
	v.SetDefault("storage.s3_path_style", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// CLI flags take highest priority
	if flagBaseURL != "" {
		v.Set("base_url", flagBaseURL)
	}
	if flagEngine != "" {
		v.Set("browser.engine", flagEngine)
	}
	if flagHeaded {
		v.Set("browser.headless", false)
	}
	if flagLogLevel != "" {
		v.Set("log.level", flagLogLevel)
	}
	if flagLogFormat != "" {
		v.Set("log.format", flagLogFormat)
	}

	var cfg verification.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	identity, err := readIdentity(v.ConfigFileUsed())
	if err != nil {
		return nil, nil, err
	}
	if identity != nil {
		cfg.Session.Injected.Identity = identity
	}
	cfg.ApplyDefaults()
	return &cfg, v, nil
}

// readIdentity decodes session.injected.identity straight from the YAML
// file so its keys keep their case; viper lowercases map keys.
func readIdentity(configFile string) (map[string]interface{}, error) {
	if configFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw struct {
		Session struct {
			Injected struct {
				Identity map[string]interface{} `yaml:"identity"`
			} `yaml:"injected"`
		} `yaml:"session"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse session.injected.identity: %w", err)
	}
	return raw.Session.Injected.Identity, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, inspect and validate run configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file template (default ./uiverify.yaml)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := "uiverify.yaml"
			if len(args) == 1 {
				configPath = args[0]
			}

			if _, err := os.Stat(configPath); err == nil && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Config file already exists at %s (use --force to overwrite)\n", configPath)
				return nil
			}

			if err := os.WriteFile(configPath, []byte(configTemplate), 0600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, v, err := loadConfig(flagConfig)
			if err != nil {
				return setupError(err)
			}

			settings := v.AllSettings()
			for _, key := range secretKeys {
				maskSetting(settings, strings.Split(key, "."))
			}

			out, err := yaml.Marshal(settings)
			if err != nil {
				return fmt.Errorf("failed to render configuration: %w", err)
			}

			if cfgFile := v.ConfigFileUsed(); cfgFile != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# Config file: %s\n", cfgFile)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "# Config file: (none)")
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration without launching a browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flagConfig)
			if err != nil {
				return setupError(err)
			}
			if err := cfg.Validate(); err != nil {
				return setupError(err)
			}

			targets := 0
			assertions := 0
			for _, t := range cfg.Targets {
				targets++
				assertions += len(t.Assertions)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid: %d target(s), %d assertion(s), %s session\n",
				targets, assertions, cfg.Session.Strategy)
			return nil
		},
	}
}

// maskSetting replaces a nested string setting with a masked form.
func maskSetting(settings map[string]interface{}, path []string) {
	if len(path) == 0 {
		return
	}
	value, ok := settings[path[0]]
	if !ok {
		return
	}
	if len(path) > 1 {
		if nested, ok := value.(map[string]interface{}); ok {
			maskSetting(nested, path[1:])
		}
		return
	}
	if s, ok := value.(string); ok {
		settings[path[0]] = mask(s)
	}
}

func mask(secret string) string {
	switch {
	case secret == "":
		return "(not set)"
	case len(secret) > 8:
		return secret[:4] + "..." + secret[len(secret)-4:]
	default:
		return "****"
	}
}
