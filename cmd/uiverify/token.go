package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hairizuanbinnoorazman/ui-verify/session"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect session tokens",
	}
	cmd.AddCommand(newTokenInspectCmd())
	return cmd
}

func newTokenInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [token]",
		Short: "Decode a token's claims and check them against the configured identity",
		Long: `Decodes the token given as argument, or session.injected.token from the
configuration, without verifying its signature. The role claim is compared
with the configured identity record.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flagConfig)
			if err != nil {
				return setupError(err)
			}

			token := cfg.Session.Injected.Token
			if len(args) == 1 {
				token = args[0]
			}
			if token == "" {
				return setupError(session.ErrMissingToken)
			}

			claims, err := session.ParseClaims(token)
			if err != nil {
				return setupError(err)
			}

			roleErr := session.CheckRole(session.Identity(cfg.Session.Injected.Identity), claims)

			if flagJSON {
				printJSON(cmd.OutOrStdout(), claims.Raw)
			} else {
				printTable(cmd.OutOrStdout(), []string{"CLAIM", "VALUE"}, claimRows(claims, time.Now()))
			}

			if roleErr != nil {
				if errors.Is(roleErr, session.ErrRoleMismatch) {
					return setupError(roleErr)
				}
				return roleErr
			}
			return nil
		},
	}
}

func claimRows(c *session.Claims, now time.Time) [][]string {
	rows := [][]string{
		{"subject", orNone(c.Subject)},
		{"email", orNone(c.Email)},
		{"role", orNone(c.Role)},
		{"issued_at", formatTime(c.IssuedAt)},
		{"expires_at", formatTime(c.ExpiresAt)},
	}
	status := "valid"
	if c.Expired(now) {
		status = fmt.Sprintf("expired %s ago", now.Sub(*c.ExpiresAt).Round(time.Second))
	} else if c.ExpiresAt != nil {
		status = fmt.Sprintf("valid for %s", c.ExpiresAt.Sub(now).Round(time.Second))
	}
	return append(rows, []string{"status", status})
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "(none)"
	}
	return t.UTC().Format(time.RFC3339)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
