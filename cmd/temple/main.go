// temple serves the temple management API behind permission-based
// authorization.
//
// Usage:
//
//	temple serve                       Run the HTTP API (default)
//	temple policy check -f <file>      Show endpoint to page mapping and policy issues
//	temple token --user <id>           Print a signed bearer token
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/cmd/temple/cli"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/app"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/auth"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}
	if err := newRootCmd().Execute(); err != nil {
		var code exitCodeError
		if errors.As(err, &code) {
			os.Exit(int(code))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type exitCodeError int

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// exitWith carries a command's exit status out of cobra without printing it
// as an error; the command has already reported to stderr.
func exitWith(code int) error {
	if code == 0 {
		return nil
	}
	return exitCodeError(code)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "temple",
		Short:             "Temple management API",
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newPolicyCmd(), newTokenCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newPolicyCmd() *cobra.Command {
	policy := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the authorization policy file",
	}
	var (
		file       string
		jsonOutput bool
	)
	check := &cobra.Command{
		Use:   "check",
		Short: "Validate a policy file and print endpoint to page mapping",
		Long: `Validate a policy file and print, for every endpoint and method, the
permission required and the page it is checked against.

Exit status is 10 when a rule names an unknown permission; such rules are
not enforced at request time.

  temple policy check -f config/authz.yaml
  temple policy check -f config/authz.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = os.Getenv("AUTHZ_POLICY_FILE")
			}
			return exitWith(cli.CheckPolicyCommand(cli.PolicyCheckOptions{
				Path:       file,
				JSONOutput: jsonOutput,
				Stdout:     cmd.OutOrStdout(),
				Stderr:     cmd.ErrOrStderr(),
			}))
		},
	}
	check.Flags().StringVarP(&file, "file", "f", "", "policy file (defaults to $AUTHZ_POLICY_FILE)")
	check.Flags().BoolVar(&jsonOutput, "json", false, "JSON output")
	policy.AddCommand(check)
	return policy
}

func newTokenCmd() *cobra.Command {
	var (
		userID   int64
		username string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed bearer token for a user id",
		Long: `Print a signed bearer token using JWT_SECRET, JWT_ISSUER, JWT_TTL and
JWT_USER_ID_CLAIM from the environment. The user must already exist; the
token grants nothing beyond that user's active roles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, cfg.JWTUserIDClaim)
			if err != nil {
				return err
			}
			return exitWith(cli.IssueTokenCommand(tokens, cli.IssueTokenOptions{
				UserID:   userID,
				Username: username,
				Stdout:   cmd.OutOrStdout(),
				Stderr:   cmd.ErrOrStderr(),
			}))
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&username, "name", "", "username claim")
	return cmd
}
