package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/auth"
)

type failingLister struct{}

func (failingLister) ListGrants(context.Context, int64) ([]Grant, error) {
	return nil, errors.New("store offline")
}

func serveMyPermissions(t *testing.T, lister GrantLister, identity *auth.Identity) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), lister, "user_id")
	r := chi.NewRouter()
	r.Route("/api/me", h.MountRoutes)

	req := httptest.NewRequest(http.MethodGet, "/api/me/permissions", nil)
	if identity != nil {
		req = req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestMyPermissionsListsGrants(t *testing.T) {
	rr := serveMyPermissions(t, seededMemoryStore(), &auth.Identity{Claims: map[string]any{"user_id": "7"}})
	require.Equal(t, http.StatusOK, rr.Code)

	var body myPermissionsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.UserID)
	assert.Equal(t, []grantResponse{{Page: "/roles", Permission: "View", Code: 1}}, body.Grants)
}

func TestMyPermissionsRequiresIdentity(t *testing.T) {
	rr := serveMyPermissions(t, seededMemoryStore(), nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serveMyPermissions(t, seededMemoryStore(), &auth.Identity{Claims: map[string]any{}})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMyPermissionsStoreFailure(t *testing.T) {
	rr := serveMyPermissions(t, failingLister{}, &auth.Identity{Claims: map[string]any{"sub": "7"}})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
