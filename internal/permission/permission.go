// Package permission enumerates the grantable permission kinds.
package permission

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknown indicates a permission name or code outside the catalog.
var ErrUnknown = errors.New("permission: unknown")

// Permission is a named capability identified by its stable integer code.
// Codes are persisted in page_permissions.permission_id and must never change.
type Permission int

// Catalog codes.
const (
	View   Permission = 1
	Create Permission = 2
	Edit   Permission = 3
	Delete Permission = 4
)

var names = map[Permission]string{
	View:   "View",
	Create: "Create",
	Edit:   "Edit",
	Delete: "Delete",
}

// All returns every catalog permission ordered by code.
func All() []Permission {
	return []Permission{View, Create, Edit, Delete}
}

// Code returns the persisted integer identity.
func (p Permission) Code() int {
	return int(p)
}

// Valid reports whether p is part of the catalog.
func (p Permission) Valid() bool {
	_, ok := names[p]
	return ok
}

// String returns the display label, or the bare code for unknown values.
func (p Permission) String() string {
	if name, ok := names[p]; ok {
		return name
	}
	return strconv.Itoa(int(p))
}

// Parse resolves a configured value into a Permission. Names match
// case-insensitively; a numeric value is accepted when it is a defined code.
func Parse(raw string) (Permission, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("%w: empty value", ErrUnknown)
	}
	if code, err := strconv.Atoi(value); err == nil {
		p := Permission(code)
		if !p.Valid() {
			return 0, fmt.Errorf("%w: code %d", ErrUnknown, code)
		}
		return p, nil
	}
	for p, name := range names {
		if strings.EqualFold(name, value) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, value)
}
