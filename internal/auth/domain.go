package auth

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SubjectClaim is the standard subject identifier claim.
const SubjectClaim = "sub"

// Identity describes an authenticated caller as asserted by a verified token.
type Identity struct {
	Subject string
	Claims  map[string]any
}

// UserID resolves the numeric user identifier. The primary claim is checked
// first, then the subject claim. Claim values may be strings or JSON numbers.
func (i *Identity) UserID(primaryClaim string) (int64, bool) {
	if i == nil {
		return 0, false
	}
	if primaryClaim != "" {
		if id, ok := claimInt64(i.Claims[primaryClaim]); ok {
			return id, true
		}
	}
	if id, ok := claimInt64(i.Claims[SubjectClaim]); ok {
		return id, true
	}
	return claimInt64(i.Subject)
}

func claimInt64(v any) (int64, bool) {
	switch value := v.(type) {
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	case float64:
		if value != math.Trunc(value) || value > math.MaxInt64 || value < math.MinInt64 {
			return 0, false
		}
		return int64(value), true
	case int64:
		return value, true
	case int:
		return int64(value), true
	case json.Number:
		id, err := value.Int64()
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
