// Package authz decides whether a request may reach its handler by mapping
// the request to a required permission on a logical page and checking the
// caller's active role grants.
package authz

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/auth"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/permission"
)

// Denial messages returned to callers as plain text.
const (
	MsgAuthenticationRequired = "Authentication required"
	MsgMissingUserID          = "User ID not found in claims"
)

// Store answers whether an active user→role→page permission chain exists.
type Store interface {
	HasActivePermission(ctx context.Context, userID int64, pageURL string, perm permission.Permission) (bool, error)
}

// Recorder observes every decision, for metrics.
type Recorder interface {
	ObserveDecision(Decision)
}

// Outcome is the terminal state of a decision.
type Outcome int

const (
	// Allow means the request was evaluated and may proceed.
	Allow Outcome = iota
	// PassThrough means enforcement did not apply (kill-switch, anonymous
	// caller, or no enforceable rule); downstream may still reject.
	PassThrough
	// Unauthenticated maps to HTTP 401.
	Unauthenticated
	// Forbidden maps to HTTP 403.
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case PassThrough:
		return "pass_through"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Rule names the step that produced a decision.
type Rule string

const (
	RuleDisabled               Rule = "disabled"
	RulePublic                 Rule = "public"
	RuleAnonymous              Rule = "anonymous"
	RuleAuthenticationRequired Rule = "authentication_required"
	RuleNoPolicy               Rule = "no_policy"
	RuleNoMethod               Rule = "no_method"
	RuleUnparsedPermission     Rule = "unparsed_permission"
	RuleMissingUserID          Rule = "missing_user_id"
	RuleGranted                Rule = "granted"
	RuleDenied                 Rule = "denied"
)

// Request is the input of a single authorization decision.
type Request struct {
	Method   string
	Path     string
	Identity *auth.Identity
}

// Decision is the result of Decide. Status and Message are only set for
// Unauthenticated and Forbidden outcomes. StoreErr holds the store fault that
// turned into a denial, if any.
type Decision struct {
	Outcome    Outcome
	Rule       Rule
	Status     int
	Message    string
	Method     string
	Path       string
	Endpoint   string
	Page       string
	Permission permission.Permission
	UserID     int64
	StoreErr   error
}

// Allowed reports whether the request may continue to its handler.
func (d Decision) Allowed() bool {
	return d.Outcome == Allow || d.Outcome == PassThrough
}

// EngineConfig wires an Engine. Table and Store are required.
type EngineConfig struct {
	Table        *Table
	Store        Store
	Enabled      bool
	UserIDClaim  string
	StoreTimeout time.Duration
	Logger       *slog.Logger
	Auditor      Auditor
	Recorder     Recorder
}

// Engine evaluates requests against the policy table and permission store.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	table        *Table
	store        Store
	enabled      bool
	userIDClaim  string
	storeTimeout time.Duration
	logger       *slog.Logger
	auditor      Auditor
	recorder     Recorder
}

// NewEngine constructs an Engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Table == nil {
		return nil, fmt.Errorf("authz: policy table required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("authz: permission store required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	auditor := cfg.Auditor
	if auditor == nil {
		auditor = NewLogAuditor(logger)
	}
	return &Engine{
		table:        cfg.Table,
		store:        cfg.Store,
		enabled:      cfg.Enabled,
		userIDClaim:  cfg.UserIDClaim,
		storeTimeout: cfg.StoreTimeout,
		logger:       logger,
		auditor:      auditor,
		recorder:     cfg.Recorder,
	}, nil
}

// Decide authorizes a single request.
func (e *Engine) Decide(ctx context.Context, req Request) Decision {
	d := e.decide(ctx, req)
	if e.recorder != nil {
		e.recorder.ObserveDecision(d)
	}
	return d
}

func (e *Engine) decide(ctx context.Context, req Request) Decision {
	d := Decision{
		Method: strings.ToUpper(req.Method),
		Path:   strings.ToLower(req.Path),
	}
	if !e.enabled {
		return d.pass(RuleDisabled)
	}
	if e.table.IsPublic(d.Path) {
		return d.allow(RulePublic)
	}
	if req.Identity == nil {
		if e.table.RequireAuthentication() {
			return d.reject(Unauthenticated, RuleAuthenticationRequired, MsgAuthenticationRequired)
		}
		return d.pass(RuleAnonymous)
	}

	prefix, ok := e.table.Lookup(d.Path)
	if !ok {
		return d.pass(RuleNoPolicy)
	}
	d.Endpoint = prefix
	required, ok := e.table.Required(prefix, d.Method)
	if !ok {
		return d.pass(RuleNoMethod)
	}
	if required.ParseErr != nil {
		e.logger.Warn("authz permission misconfigured",
			slog.String("endpoint", prefix),
			slog.String("method", d.Method),
			slog.String("permission", required.Raw),
			slog.Any("error", required.ParseErr),
		)
		return d.pass(RuleUnparsedPermission)
	}
	d.Permission = required.Permission

	userID, ok := req.Identity.UserID(e.userIDClaim)
	if !ok {
		return d.reject(Unauthenticated, RuleMissingUserID, MsgMissingUserID)
	}
	d.UserID = userID
	d.Page = MapToPage(prefix)

	granted, err := e.check(ctx, userID, d.Page, d.Permission)
	if err != nil {
		d.StoreErr = err
		e.logger.Error("authz store query",
			slog.Int64("user_id", userID),
			slog.String("page", d.Page),
			slog.String("permission", d.Permission.String()),
			slog.Any("error", err),
		)
	}
	if granted {
		d = d.allow(RuleGranted)
	} else {
		d = d.reject(Forbidden, RuleDenied,
			fmt.Sprintf("Access denied. Required permission: %s for %s", d.Permission, d.Page))
	}
	e.auditor.Audit(ctx, d)
	return d
}

// check runs one bounded store query. Errors are returned as-is and never
// retried; the caller treats them as not permitted.
func (e *Engine) check(ctx context.Context, userID int64, page string, perm permission.Permission) (bool, error) {
	if e.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.storeTimeout)
		defer cancel()
	}
	ok, err := e.store.HasActivePermission(ctx, userID, page, perm)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (d Decision) allow(rule Rule) Decision {
	d.Outcome = Allow
	d.Rule = rule
	return d
}

func (d Decision) pass(rule Rule) Decision {
	d.Outcome = PassThrough
	d.Rule = rule
	return d
}

func (d Decision) reject(outcome Outcome, rule Rule, msg string) Decision {
	d.Outcome = outcome
	d.Rule = rule
	d.Message = msg
	if outcome == Unauthenticated {
		d.Status = http.StatusUnauthorized
	} else {
		d.Status = http.StatusForbidden
	}
	return d
}
