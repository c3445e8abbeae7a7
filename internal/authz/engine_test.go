package authz

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/auth"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/permission"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/rbac"
)

type stubStore struct {
	mu     sync.Mutex
	err    error
	wait   bool
	result bool
	calls  int
	pages  []string
}

func (s *stubStore) HasActivePermission(ctx context.Context, userID int64, pageURL string, perm permission.Permission) (bool, error) {
	s.mu.Lock()
	s.calls++
	s.pages = append(s.pages, pageURL)
	s.mu.Unlock()
	if s.wait {
		<-ctx.Done()
		return false, ctx.Err()
	}
	return s.result, s.err
}

type captureAuditor struct {
	mu        sync.Mutex
	decisions []Decision
}

func (a *captureAuditor) Audit(_ context.Context, d Decision) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.decisions = append(a.decisions, d)
}

type captureRecorder struct {
	rules []Rule
}

func (r *captureRecorder) ObserveDecision(d Decision) {
	r.rules = append(r.rules, d.Rule)
}

func rolesTable(requireAuth bool) *Table {
	tbl := NewTable([]string{"/api/auth"}, requireAuth)
	tbl.Configure("/api/roles", map[string]string{"GET": "View", "POST": "Create"})
	tbl.Configure("/api/auth", map[string]string{"POST": "Edit"})
	tbl.Configure("/api/admin/users", map[string]string{"GET": "View"})
	tbl.Configure("/api/vouchers", map[string]string{"GET": "Approve"})
	return tbl
}

func grantedStore() *rbac.MemoryStore {
	m := rbac.NewMemoryStore()
	m.AddPagePermission(rbac.PagePermission{ID: 1, PageURL: "/roles", Permission: permission.View, IsActive: true})
	m.AddRolePermission(rbac.RolePermission{RoleID: 3, PagePermissionID: 1, IsActive: true})
	m.AddUserRole(rbac.UserRole{UserID: 7, RoleID: 3, IsActive: true})
	return m
}

func identity(id any) *auth.Identity {
	return &auth.Identity{Claims: map[string]any{"user_id": id}}
}

func newTestEngine(t *testing.T, cfg EngineConfig) *Engine {
	t.Helper()
	if cfg.Table == nil {
		cfg.Table = rolesTable(true)
	}
	cfg.UserIDClaim = "user_id"
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func TestNewEngineRequiresCollaborators(t *testing.T) {
	_, err := NewEngine(EngineConfig{Store: &stubStore{}})
	assert.Error(t, err)
	_, err = NewEngine(EngineConfig{Table: rolesTable(true)})
	assert.Error(t, err)
}

func TestDecideGrantedWritesAudit(t *testing.T) {
	audit := &captureAuditor{}
	e := newTestEngine(t, EngineConfig{Store: grantedStore(), Enabled: true, Auditor: audit})

	d := e.Decide(context.Background(), Request{Method: "get", Path: "/api/roles", Identity: identity(float64(7))})

	assert.Equal(t, Allow, d.Outcome)
	assert.Equal(t, RuleGranted, d.Rule)
	assert.True(t, d.Allowed())
	require.Len(t, audit.decisions, 1)
	got := audit.decisions[0]
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, permission.View, got.Permission)
	assert.Equal(t, "/api/roles", got.Path)
	assert.Equal(t, "/roles", got.Page)
}

func TestDecideDeniedWithoutGrant(t *testing.T) {
	audit := &captureAuditor{}
	e := newTestEngine(t, EngineConfig{Store: grantedStore(), Enabled: true, Auditor: audit})

	d := e.Decide(context.Background(), Request{Method: http.MethodGet, Path: "/api/roles", Identity: identity("8")})

	assert.Equal(t, Forbidden, d.Outcome)
	assert.Equal(t, http.StatusForbidden, d.Status)
	assert.Equal(t, "Access denied. Required permission: View for /roles", d.Message)
	assert.NoError(t, d.StoreErr)
	require.Len(t, audit.decisions, 1)
	assert.False(t, audit.decisions[0].Allowed())
}

func TestDecideUnauthenticated(t *testing.T) {
	e := newTestEngine(t, EngineConfig{Store: &stubStore{}, Enabled: true})

	d := e.Decide(context.Background(), Request{Method: http.MethodGet, Path: "/api/roles"})
	assert.Equal(t, Unauthenticated, d.Outcome)
	assert.Equal(t, http.StatusUnauthorized, d.Status)
	assert.Equal(t, "Authentication required", d.Message)
}

func TestDecideAnonymousPassThroughWhenAuthOptional(t *testing.T) {
	store := &stubStore{}
	e := newTestEngine(t, EngineConfig{Table: rolesTable(false), Store: store, Enabled: true})

	d := e.Decide(context.Background(), Request{Method: http.MethodGet, Path: "/api/roles"})
	assert.Equal(t, PassThrough, d.Outcome)
	assert.Equal(t, RuleAnonymous, d.Rule)
	assert.Zero(t, store.calls)
}

func TestDecideAdminPrefixMapsToAdminPage(t *testing.T) {
	store := &stubStore{result: true}
	e := newTestEngine(t, EngineConfig{Store: store, Enabled: true, Auditor: &captureAuditor{}})

	d := e.Decide(context.Background(), Request{Method: http.MethodGet, Path: "/api/admin/users/4", Identity: identity(1)})
	assert.Equal(t, Allow, d.Outcome)
	assert.Equal(t, "/api/admin/users", d.Endpoint)
	assert.Equal(t, "/admin/users", d.Page)
	assert.Equal(t, []string{"/admin/users"}, store.pages)
}

func TestDecideFailsOpenWithoutPolicy(t *testing.T) {
	store := &stubStore{}
	e := newTestEngine(t, EngineConfig{Store: store, Enabled: true})
	ctx := context.Background()

	d := e.Decide(ctx, Request{Method: http.MethodGet, Path: "/api/devotees", Identity: identity(7)})
	assert.Equal(t, PassThrough, d.Outcome)
	assert.True(t, d.Allowed())
	assert.Equal(t, RuleNoPolicy, d.Rule)

	d = e.Decide(ctx, Request{Method: http.MethodDelete, Path: "/api/roles/1", Identity: identity(7)})
	assert.Equal(t, PassThrough, d.Outcome)
	assert.True(t, d.Allowed())
	assert.Equal(t, RuleNoMethod, d.Rule)

	d = e.Decide(ctx, Request{Method: http.MethodGet, Path: "/api/vouchers", Identity: identity(7)})
	assert.Equal(t, PassThrough, d.Outcome)
	assert.True(t, d.Allowed())
	assert.Equal(t, RuleUnparsedPermission, d.Rule)

	assert.Zero(t, store.calls)
}

func TestDecideMissingUserID(t *testing.T) {
	store := &stubStore{result: true}
	e := newTestEngine(t, EngineConfig{Store: store, Enabled: true})

	id := &auth.Identity{Subject: "trustee", Claims: map[string]any{"user_id": "abc"}}
	d := e.Decide(context.Background(), Request{Method: http.MethodGet, Path: "/api/roles", Identity: id})
	assert.Equal(t, Unauthenticated, d.Outcome)
	assert.Equal(t, RuleMissingUserID, d.Rule)
	assert.Equal(t, "User ID not found in claims", d.Message)
	assert.Zero(t, store.calls)
}

func TestDecideStoreFaultDenies(t *testing.T) {
	boom := errors.New("connection refused")
	store := &stubStore{err: boom, result: true}
	audit := &captureAuditor{}
	e := newTestEngine(t, EngineConfig{Store: store, Enabled: true, Auditor: audit})

	d := e.Decide(context.Background(), Request{Method: http.MethodPost, Path: "/api/roles", Identity: identity(7)})
	assert.Equal(t, Forbidden, d.Outcome)
	assert.Equal(t, "Access denied. Required permission: Create for /roles", d.Message)
	assert.ErrorIs(t, d.StoreErr, boom)
	assert.Equal(t, 1, store.calls)
	require.Len(t, audit.decisions, 1)
}

func TestDecideStoreTimeoutDeniesOnce(t *testing.T) {
	store := &stubStore{wait: true}
	e := newTestEngine(t, EngineConfig{Store: store, Enabled: true, StoreTimeout: 20 * time.Millisecond})

	d := e.Decide(context.Background(), Request{Method: http.MethodGet, Path: "/api/roles", Identity: identity(7)})
	assert.Equal(t, Forbidden, d.Outcome)
	assert.ErrorIs(t, d.StoreErr, context.DeadlineExceeded)
	assert.Equal(t, 1, store.calls)
}

func TestDecidePublicBypassesPolicy(t *testing.T) {
	store := &stubStore{}
	e := newTestEngine(t, EngineConfig{Store: store, Enabled: true})

	d := e.Decide(context.Background(), Request{Method: http.MethodPost, Path: "/API/Auth/login"})
	assert.Equal(t, Allow, d.Outcome)
	assert.Equal(t, RulePublic, d.Rule)
	assert.Zero(t, store.calls)
}

func TestDecideDisabledAllowsEverything(t *testing.T) {
	store := &stubStore{err: errors.New("down")}
	e := newTestEngine(t, EngineConfig{Store: store, Enabled: false})

	for _, req := range []Request{
		{Method: http.MethodGet, Path: "/api/roles"},
		{Method: http.MethodPost, Path: "/api/roles", Identity: identity(8)},
		{Method: http.MethodGet, Path: "/api/admin/users", Identity: &auth.Identity{}},
	} {
		d := e.Decide(context.Background(), req)
		assert.True(t, d.Allowed())
		assert.Equal(t, RuleDisabled, d.Rule)
	}
	assert.Zero(t, store.calls)
}

func TestDecideNotifiesRecorder(t *testing.T) {
	rec := &captureRecorder{}
	e := newTestEngine(t, EngineConfig{Store: grantedStore(), Enabled: true, Recorder: rec, Auditor: &captureAuditor{}})
	ctx := context.Background()

	e.Decide(ctx, Request{Method: http.MethodGet, Path: "/api/roles"})
	e.Decide(ctx, Request{Method: http.MethodGet, Path: "/api/roles", Identity: identity(7)})
	e.Decide(ctx, Request{Method: http.MethodGet, Path: "/healthz", Identity: identity(7)})

	assert.Equal(t, []Rule{RuleAuthenticationRequired, RuleGranted, RuleNoPolicy}, rec.rules)
}
