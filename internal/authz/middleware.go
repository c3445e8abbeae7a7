package authz

import (
	"context"
	"net/http"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/auth"
)

type decisionContextKey struct{}

// Middleware enforces decisions before the wrapped handler runs. Denials are
// written as plain text with the decision status.
func (e *Engine) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := e.Decide(r.Context(), Request{
			Method:   r.Method,
			Path:     r.URL.Path,
			Identity: auth.IdentityFromContext(r.Context()),
		})
		if !d.Allowed() {
			http.Error(w, d.Message, d.Status)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), decisionContextKey{}, d)))
	})
}

// DecisionFromContext returns the decision that admitted the request.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(Decision)
	return d, ok
}
