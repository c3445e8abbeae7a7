package rbac

import (
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/permission"
)

// UserRole links a user to a role. Inactive links are soft-disabled.
type UserRole struct {
	UserID   int64
	RoleID   int64
	IsActive bool
}

// RolePermission grants a page permission to a role.
type RolePermission struct {
	RoleID           int64
	PagePermissionID int64
	IsActive         bool
}

// PagePermission is the atomic grantable unit: a permission on a logical page.
type PagePermission struct {
	ID         int64
	PageURL    string
	Permission permission.Permission
	IsActive   bool
}

// Grant is the end of an active user → role → page permission chain.
type Grant struct {
	PageURL    string
	Permission permission.Permission
}
