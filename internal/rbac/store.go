package rbac

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/permission"
)

// Querier is the subset of pgxpool.Pool used by Store.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store reads role assignments and page grants from PostgreSQL. It never
// writes and holds no state between calls.
type Store struct {
	db Querier
}

// NewStore constructs a Store.
func NewStore(db Querier) *Store {
	return &Store{db: db}
}

const hasActivePermissionSQL = `SELECT EXISTS (
	SELECT 1
	FROM user_roles ur
	JOIN role_permissions rp ON rp.role_id = ur.role_id
	JOIN page_permissions pp ON pp.id = rp.page_permission_id
	WHERE ur.user_id = $1
	  AND ur.is_active
	  AND rp.is_active
	  AND pp.is_active
	  AND pp.page_url = $2
	  AND pp.permission_id = $3
)`

// HasActivePermission reports whether an active chain grants perm on pageURL.
func (s *Store) HasActivePermission(ctx context.Context, userID int64, pageURL string, perm permission.Permission) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, hasActivePermissionSQL, userID, pageURL, perm.Code()).Scan(&exists); err != nil {
		return false, fmt.Errorf("rbac: has active permission: %w", err)
	}
	return exists, nil
}

const listGrantsSQL = `SELECT DISTINCT pp.page_url, pp.permission_id
FROM user_roles ur
JOIN role_permissions rp ON rp.role_id = ur.role_id
JOIN page_permissions pp ON pp.id = rp.page_permission_id
WHERE ur.user_id = $1
  AND ur.is_active
  AND rp.is_active
  AND pp.is_active
ORDER BY pp.page_url, pp.permission_id`

// ListGrants returns every active page permission held by the user.
func (s *Store) ListGrants(ctx context.Context, userID int64) ([]Grant, error) {
	rows, err := s.db.Query(ctx, listGrantsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: list grants: %w", err)
	}
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		var (
			g    Grant
			code int
		)
		if err := rows.Scan(&g.PageURL, &code); err != nil {
			return nil, fmt.Errorf("rbac: scan grant: %w", err)
		}
		g.Permission = permission.Permission(code)
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: list grants: %w", err)
	}
	return grants, nil
}
