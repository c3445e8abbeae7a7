package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/auth"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/platform/httpx"
)

// GrantLister lists the active grants of a user.
type GrantLister interface {
	ListGrants(ctx context.Context, userID int64) ([]Grant, error)
}

// Handler exposes the caller's own grants so the front-end can mirror the
// server policy in its route guards.
type Handler struct {
	logger      *slog.Logger
	grants      GrantLister
	userIDClaim string
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, grants GrantLister, userIDClaim string) *Handler {
	return &Handler{logger: logger, grants: grants, userIDClaim: userIDClaim}
}

// MountRoutes registers caller permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/permissions", h.myPermissions)
}

type grantResponse struct {
	Page       string `json:"page"`
	Permission string `json:"permission"`
	Code       int    `json:"code"`
}

type myPermissionsResponse struct {
	UserID int64           `json:"user_id"`
	Grants []grantResponse `json:"grants"`
}

func (h *Handler) myPermissions(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	userID, ok := identity.UserID(h.userIDClaim)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "User ID not found in claims")
		return
	}
	grants, err := h.grants.ListGrants(r.Context(), userID)
	if err != nil {
		h.logger.Error("list grants", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := myPermissionsResponse{UserID: userID, Grants: make([]grantResponse, 0, len(grants))}
	for _, g := range grants {
		resp.Grants = append(resp.Grants, grantResponse{Page: g.PageURL, Permission: g.Permission.String(), Code: g.Permission.Code()})
	}
	httpx.JSON(w, http.StatusOK, resp)
}
