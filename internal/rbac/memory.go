package rbac

import (
	"context"
	"sort"
	"sync"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/permission"
)

// MemoryStore evaluates the same chain as Store over in-process records.
// It backs local development and tests.
type MemoryStore struct {
	mu              sync.RWMutex
	userRoles       []UserRole
	rolePermissions []RolePermission
	pagePermissions map[int64]PagePermission
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pagePermissions: make(map[int64]PagePermission)}
}

// AddUserRole records a user role link.
func (m *MemoryStore) AddUserRole(ur UserRole) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userRoles = append(m.userRoles, ur)
}

// AddRolePermission records a role grant.
func (m *MemoryStore) AddRolePermission(rp RolePermission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolePermissions = append(m.rolePermissions, rp)
}

// AddPagePermission records a page permission.
func (m *MemoryStore) AddPagePermission(pp PagePermission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pagePermissions[pp.ID] = pp
}

// HasActivePermission implements the authorization chain lookup.
func (m *MemoryStore) HasActivePermission(ctx context.Context, userID int64, pageURL string, perm permission.Permission) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, g := range m.grants(userID) {
		if g.PageURL == pageURL && g.Permission == perm {
			return true, nil
		}
	}
	return false, nil
}

// ListGrants returns the active grants for a user.
func (m *MemoryStore) ListGrants(ctx context.Context, userID int64) ([]Grant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.grants(userID), nil
}

func (m *MemoryStore) grants(userID int64) []Grant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roles := make(map[int64]struct{})
	for _, ur := range m.userRoles {
		if ur.UserID == userID && ur.IsActive {
			roles[ur.RoleID] = struct{}{}
		}
	}
	seen := make(map[Grant]struct{})
	var out []Grant
	for _, rp := range m.rolePermissions {
		if !rp.IsActive {
			continue
		}
		if _, ok := roles[rp.RoleID]; !ok {
			continue
		}
		pp, ok := m.pagePermissions[rp.PagePermissionID]
		if !ok || !pp.IsActive {
			continue
		}
		g := Grant{PageURL: pp.PageURL, Permission: pp.Permission}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PageURL != out[j].PageURL {
			return out[i].PageURL < out[j].PageURL
		}
		return out[i].Permission < out[j].Permission
	})
	return out
}
