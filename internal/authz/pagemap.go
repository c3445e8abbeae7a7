package authz

import "strings"

const (
	apiSegment  = "/api"
	adminPrefix = "/api/admin/"
)

// knownPages maps API endpoint prefixes to the logical front-end page used as
// the grant granularity in page_permissions.
var knownPages = map[string]string{
	"/api/users":              "/admin/users",
	"/api/roles":              "/roles",
	"/api/userroles":          "/admin/user-roles",
	"/api/rolepermissions":    "/admin/role-permissions",
	"/api/pagepermissions":    "/admin/page-permissions",
	"/api/devotees":           "/devotees",
	"/api/donations":          "/donations",
	"/api/events":             "/events",
	"/api/events/expenses":    "/events/expenses",
	"/api/eventregistrations": "/event-registrations",
	"/api/temples":            "/temples",
	"/api/vouchers":           "/vouchers",
	"/api/categories":         "/categories",
	"/api/reports":            "/reports",
	"/api/dashboard":          "/dashboard",
}

// MapToPage returns the page URL governed by an endpoint prefix. It is pure
// and total: known prefixes use the table, /api/admin/... only loses its /api
// segment, anything else maps to its final path segment.
func MapToPage(endpointPrefix string) string {
	prefix := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(endpointPrefix)), "/")
	if page, ok := knownPages[prefix]; ok {
		return page
	}
	if strings.HasPrefix(prefix+"/", adminPrefix) && prefix+"/" != adminPrefix {
		return ensureRooted(strings.TrimPrefix(prefix, apiSegment))
	}
	rest := prefix
	if rest == apiSegment || strings.HasPrefix(rest, apiSegment+"/") {
		rest = strings.TrimPrefix(rest, apiSegment)
	}
	return ensureRooted(lastSegment(rest))
}

// lastSegment keeps only the final segment, so /api/events/tickets maps to
// /tickets. Keep it that way rather than a plain /api strip; the admin
// carve-out exists because /api/admin/users would otherwise become /users.
func lastSegment(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func ensureRooted(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}
