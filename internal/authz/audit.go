package authz

import (
	"context"
	"log/slog"
	"time"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/shared"
)

// Auditor receives granted and denied permission checks.
type Auditor interface {
	Audit(ctx context.Context, d Decision)
}

// Auditors fans a decision out to several auditors in order.
type Auditors []Auditor

// Audit implements Auditor.
func (a Auditors) Audit(ctx context.Context, d Decision) {
	for _, auditor := range a {
		if auditor != nil {
			auditor.Audit(ctx, d)
		}
	}
}

// LogAuditor writes audit records to slog.
type LogAuditor struct {
	logger *slog.Logger
}

// NewLogAuditor returns an Auditor backed by logger.
func NewLogAuditor(logger *slog.Logger) *LogAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogAuditor{logger: logger}
}

// Audit implements Auditor.
func (a *LogAuditor) Audit(ctx context.Context, d Decision) {
	attrs := []any{
		slog.Int64("user_id", d.UserID),
		slog.String("permission", d.Permission.String()),
		slog.String("method", d.Method),
		slog.String("path", d.Path),
		slog.String("page", d.Page),
	}
	if d.Allowed() {
		a.logger.InfoContext(ctx, "authz granted", attrs...)
		return
	}
	a.logger.WarnContext(ctx, "authz denied", attrs...)
}

// AuditRecorder persists audit log entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// RecordAuditor stores decisions in the audit_logs table. Write failures are
// logged and never change the decision.
type RecordAuditor struct {
	recorder AuditRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewRecordAuditor returns an Auditor persisting through recorder.
func NewRecordAuditor(recorder AuditRecorder, logger *slog.Logger) *RecordAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordAuditor{recorder: recorder, logger: logger, now: time.Now}
}

// Audit implements Auditor.
func (a *RecordAuditor) Audit(ctx context.Context, d Decision) {
	action := "authz.denied"
	if d.Allowed() {
		action = "authz.granted"
	}
	entry := shared.AuditLog{
		ActorID:  d.UserID,
		Action:   action,
		Entity:   "page",
		EntityID: d.Page,
		Meta: map[string]any{
			"method":     d.Method,
			"path":       d.Path,
			"endpoint":   d.Endpoint,
			"permission": d.Permission.String(),
		},
		At: a.now().UTC(),
	}
	if d.StoreErr != nil {
		entry.Meta["store_error"] = d.StoreErr.Error()
	}
	if err := a.recorder.Record(ctx, entry); err != nil {
		a.logger.Warn("authz audit persist", slog.String("action", action), slog.Any("error", err))
	}
}
