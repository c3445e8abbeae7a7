package shared

import "errors"

// ErrAuditUnavailable indicates the audit logger has no database.
var ErrAuditUnavailable = errors.New("audit logger not initialised")
