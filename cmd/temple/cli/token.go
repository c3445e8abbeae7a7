package cli

import (
	"fmt"
	"io"
	"os"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateToken(userID int64, username string) (string, error)
}

// IssueTokenOptions defines available flags for the token command.
type IssueTokenOptions struct {
	UserID   int64
	Username string
	Stdout   io.Writer
	Stderr   io.Writer
}

// IssueTokenCommand prints a signed bearer token for an existing user id.
func IssueTokenCommand(issuer TokenIssuer, opts IssueTokenOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.UserID <= 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "token: --user is required and must be positive")
		return 1
	}
	token, err := issuer.GenerateToken(opts.UserID, opts.Username)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "token: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(opts.Stdout, token)
	return 0
}
