package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/auth"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/authz"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/observability"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/rbac"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/roles"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Tokens             auth.TokenParser
	Engine             *authz.Engine
	RolesHandler       *roles.Handler
	PermissionsHandler *rbac.Handler
	CacheAdmin         *authz.CachedStore
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
		Tokens:  params.Tokens,
		Engine:  params.Engine,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.PermissionsHandler != nil {
			r.Route("/me", params.PermissionsHandler.MountRoutes)
		}
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.CacheAdmin != nil {
			r.Route("/admin/authz", params.CacheAdmin.MountRoutes)
		}
	})

	return r
}
