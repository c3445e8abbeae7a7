package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/platform/httpx"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/shared"
)

// Handler serves the roles read API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers role routes. Access is enforced by the authz
// middleware in front of the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listRoles)
}

type roleResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type listResponse struct {
	Roles      []roleResponse    `json:"roles"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		ActiveOnly: q.Get("active") == "true",
		Search:     q.Get("search"),
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "page must be a number")
			return
		}
		filter.Page = page
	}
	if v := q.Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "per_page must be a number")
			return
		}
		filter.PerPage = perPage
	}

	roles, pagination, err := h.service.ListRoles(r.Context(), filter)
	if err != nil {
		if !errors.Is(err, httpx.ErrValidation) {
			h.logger.Error("list roles", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	resp := listResponse{Roles: make([]roleResponse, 0, len(roles)), Pagination: pagination}
	for _, role := range roles {
		resp.Roles = append(resp.Roles, roleResponse{
			ID:          role.ID,
			Name:        role.Name,
			Description: role.Description,
			IsActive:    role.IsActive,
			CreatedAt:   role.CreatedAt,
			UpdatedAt:   role.UpdatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}
