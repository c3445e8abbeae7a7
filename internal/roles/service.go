package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/platform/httpx"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context, filter ListFilter) ([]Role, int, error)
}

// Service handles role business logic.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// ListRoles returns a page of roles. Zero paging values take defaults.
func (s *Service) ListRoles(ctx context.Context, filter ListFilter) ([]Role, shared.Pagination, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PerPage == 0 {
		filter.PerPage = shared.DefaultPerPage
	}
	if err := s.validate.Struct(filter); err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	roles, total, err := s.repo.ListRoles(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return roles, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}
