package roles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	db Querier
}

// NewRepository constructs a repository.
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

const roleFilter = `($1::bool = FALSE OR is_active = TRUE) AND ($2::text = '' OR name ILIKE '%' || $2::text || '%')`

// ListRoles returns one page of roles ordered by name and the total match count.
func (r *Repository) ListRoles(ctx context.Context, filter ListFilter) ([]Role, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM roles WHERE `+roleFilter, filter.ActiveOnly, filter.Search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("roles: count: %w", err)
	}
	offset := (filter.Page - 1) * filter.PerPage
	rows, err := r.db.Query(ctx, `SELECT id, name, COALESCE(description, ''), is_active, created_at, updated_at
FROM roles WHERE `+roleFilter+`
ORDER BY name, id LIMIT $3 OFFSET $4`, filter.ActiveOnly, filter.Search, filter.PerPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("roles: list: %w", err)
	}
	defer rows.Close()
	roles := make([]Role, 0, filter.PerPage)
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("roles: scan: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("roles: list: %w", err)
	}
	return roles, total, nil
}
