package authz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/permission"
)

// Requirement is the configured permission for one HTTP method on an endpoint.
// ParseErr is set when Raw does not name a catalog permission; such rules
// are not enforced.
type Requirement struct {
	Raw        string
	Permission permission.Permission
	ParseErr   error
}

type endpoint struct {
	prefix  string
	methods map[string]Requirement
}

// Table maps endpoint prefixes and methods to required permissions. It is
// populated before serving and read-only afterwards, so concurrent lookups
// need no locking.
type Table struct {
	endpoints   []endpoint
	index       map[string]int
	public      []string
	requireAuth bool
}

// NewTable creates an empty table with the public allow-list and the policy
// for unauthenticated callers on non-public paths.
func NewTable(publicEndpoints []string, requireAuthentication bool) *Table {
	t := &Table{index: make(map[string]int), requireAuth: requireAuthentication}
	for _, p := range publicEndpoints {
		p = normalizePath(p)
		if p == "" {
			continue
		}
		t.public = append(t.public, p)
	}
	return t
}

// Configure registers the method requirements for a prefix. A prefix that is
// already registered (ignoring case) keeps its first registration and
// Configure returns false.
func (t *Table) Configure(prefix string, methodPermissions map[string]string) bool {
	prefix = normalizePath(prefix)
	if prefix == "" {
		return false
	}
	if _, dup := t.index[prefix]; dup {
		return false
	}
	methods := make(map[string]Requirement, len(methodPermissions))
	for method, raw := range methodPermissions {
		method = strings.ToUpper(strings.TrimSpace(method))
		p, err := permission.Parse(raw)
		methods[method] = Requirement{Raw: raw, Permission: p, ParseErr: err}
	}
	t.endpoints = append(t.endpoints, endpoint{prefix: prefix, methods: methods})
	// Longest prefix first; stable so equal lengths keep registration order.
	sort.SliceStable(t.endpoints, func(i, j int) bool {
		return len(t.endpoints[i].prefix) > len(t.endpoints[j].prefix)
	})
	for i, e := range t.endpoints {
		t.index[e.prefix] = i
	}
	return true
}

// Lookup returns the longest configured prefix of path.
func (t *Table) Lookup(path string) (string, bool) {
	path = normalizePath(path)
	for _, e := range t.endpoints {
		if strings.HasPrefix(path, e.prefix) {
			return e.prefix, true
		}
	}
	return "", false
}

// Required returns the rule for method on a prefix returned by Lookup.
func (t *Table) Required(prefix, method string) (Requirement, bool) {
	i, ok := t.index[normalizePath(prefix)]
	if !ok {
		return Requirement{}, false
	}
	rule, ok := t.endpoints[i].methods[strings.ToUpper(method)]
	return rule, ok
}

// Methods lists the configured methods of a prefix in sorted order.
func (t *Table) Methods(prefix string) []string {
	i, ok := t.index[normalizePath(prefix)]
	if !ok {
		return nil
	}
	methods := make([]string, 0, len(t.endpoints[i].methods))
	for m := range t.endpoints[i].methods {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// PublicEndpoints returns the normalized public prefixes.
func (t *Table) PublicEndpoints() []string {
	return append([]string(nil), t.public...)
}

// IsPublic reports whether path falls under a public endpoint prefix.
func (t *Table) IsPublic(path string) bool {
	path = normalizePath(path)
	for _, p := range t.public {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// RequireAuthentication reports whether unauthenticated callers are rejected
// on non-public paths.
func (t *Table) RequireAuthentication() bool {
	return t.requireAuth
}

// Prefixes lists configured prefixes, longest first.
func (t *Table) Prefixes() []string {
	out := make([]string, len(t.endpoints))
	for i, e := range t.endpoints {
		out[i] = e.prefix
	}
	return out
}

// Validate reports every requirement whose permission value is not in the catalog.
// Those rules fall open at request time, so callers should log the result at
// startup.
func (t *Table) Validate() []error {
	var issues []error
	for _, e := range t.endpoints {
		for _, m := range t.Methods(e.prefix) {
			if err := e.methods[m].ParseErr; err != nil {
				issues = append(issues, fmt.Errorf("authz: %s %s: %w", m, e.prefix, err))
			}
		}
	}
	return issues
}

func normalizePath(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
