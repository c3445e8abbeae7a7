// Package cli implements operator commands for the temple binary.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/authz"
)

// PolicyCheckOptions defines available flags for the policy check command.
type PolicyCheckOptions struct {
	Path       string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// PolicyCheckSummary describes the JSON response for policy check.
type PolicyCheckSummary struct {
	OK                    bool             `json:"ok"`
	Enabled               bool             `json:"enabled"`
	RequireAuthentication bool             `json:"require_authentication"`
	PublicEndpoints       []string         `json:"public_endpoints"`
	Rules                 []PolicyRuleLine `json:"rules"`
	Issues                []string         `json:"issues"`
}

// PolicyRuleLine is one endpoint method requirement and the page it checks.
type PolicyRuleLine struct {
	Endpoint   string `json:"endpoint"`
	Method     string `json:"method"`
	Permission string `json:"permission"`
	Page       string `json:"page"`
	Enforced   bool   `json:"enforced"`
}

// CheckPolicyCommand loads a policy file and prints how every endpoint maps to
// a page. It returns 1 when the file cannot be loaded and 10 when a rule names
// an unknown permission.
func CheckPolicyCommand(opts PolicyCheckOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if strings.TrimSpace(opts.Path) == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "policy check: --file is required")
		return 1
	}
	settings, err := authz.LoadSettings(opts.Path)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "policy check: %v\n", err)
		return 1
	}
	table := settings.Table(slog.New(slog.NewTextHandler(opts.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	summary := buildPolicySummary(settings, table)

	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "policy check: encode json: %v\n", err)
			return 1
		}
	} else {
		renderPolicyHuman(opts.Stdout, summary)
	}
	if !summary.OK {
		return 10
	}
	return 0
}

func buildPolicySummary(settings authz.Settings, table *authz.Table) PolicyCheckSummary {
	summary := PolicyCheckSummary{
		Enabled:               settings.EnablePermissionBasedAuth,
		RequireAuthentication: table.RequireAuthentication(),
		PublicEndpoints:       table.PublicEndpoints(),
		Rules:                 []PolicyRuleLine{},
		Issues:                []string{},
	}
	for _, prefix := range table.Prefixes() {
		page := authz.MapToPage(prefix)
		for _, method := range table.Methods(prefix) {
			req, _ := table.Required(prefix, method)
			summary.Rules = append(summary.Rules, PolicyRuleLine{
				Endpoint:   prefix,
				Method:     method,
				Permission: req.Raw,
				Page:       page,
				Enforced:   req.ParseErr == nil,
			})
		}
	}
	for _, issue := range table.Validate() {
		summary.Issues = append(summary.Issues, issue.Error())
	}
	summary.OK = len(summary.Issues) == 0
	return summary
}

func renderPolicyHuman(out io.Writer, s PolicyCheckSummary) {
	state := "enabled"
	if !s.Enabled {
		state = "DISABLED"
	}
	_, _ = fmt.Fprintf(out, "Permission checks %s; unauthenticated callers required to log in: %t\n", state, s.RequireAuthentication)
	if len(s.PublicEndpoints) > 0 {
		_, _ = fmt.Fprintf(out, "Public: %s\n", strings.Join(s.PublicEndpoints, ", "))
	}
	for _, r := range s.Rules {
		marker := ""
		if !r.Enforced {
			marker = " (not enforced)"
		}
		_, _ = fmt.Fprintf(out, " - %-7s %-32s %-8s on %s%s\n", r.Method, r.Endpoint, r.Permission, r.Page, marker)
	}
	if len(s.Issues) == 0 {
		_, _ = fmt.Fprintln(out, "No issues found.")
		return
	}
	_, _ = fmt.Fprintf(out, "%d issue(s):\n", len(s.Issues))
	for _, issue := range s.Issues {
		_, _ = fmt.Fprintf(out, " - %s\n", issue)
	}
}
