package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hairizuanbinnoorazman/ui-verify/verification"
)

var (
	// Version is the application version (set during build).
	Version = "dev"

	// Commit is the git commit hash (set during build).
	Commit = "unknown"

	// BuildDate is the build date (set during build).
	BuildDate = "unknown"
)

const (
	exitFailed = 1
	exitSetup  = 2
)

var (
	flagConfig    string
	flagBaseURL   string
	flagEngine    string
	flagHeaded    bool
	flagLogLevel  string
	flagLogFormat string
	flagJSON      bool
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func setupError(err error) error {
	return &exitError{code: exitSetup, err: err}
}

// exitCode is 2 for configuration and setup problems and 1 for anything
// else, including a run that failed its checks.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if verification.KindOf(err) == verification.KindSetup || errors.Is(err, verification.ErrInvalidConfig) {
		return exitSetup
	}
	return exitFailed
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "uiverify",
		Short: "Drive a browser against a running web app and check what it renders",
		Long: `uiverify runs one-shot UI verifications: it launches a headless browser,
establishes a session (token injection or form login), visits the configured
pages, checks that the expected elements are visible, and writes a screenshot
of the outcome either way.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default uiverify.yaml in . or ./config)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "application base URL (env: UIVERIFY_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flagEngine, "engine", "", "browser engine: playwright or chromedp")
	rootCmd.PersistentFlags().BoolVar(&flagHeaded, "headed", false, "show the browser window")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "uiverify %s (commit: %s, built: %s)\n", Version, Commit, BuildDate)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newTokenCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
