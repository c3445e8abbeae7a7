package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/permission"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/platform/httpx"
)

const (
	cacheVersionKey = "authz:version"
	cacheKeyPrefix  = "authz:perm"

	defaultCacheQueryTimeout = 5 * time.Second
)

// CachedStore memoizes permission checks in redis. Keys embed a version
// number so Invalidate drops every cached answer at once. Redis faults fall
// through to the wrapped store and store errors are never cached.
//
// Concurrent misses on one key share a single store query. That query runs
// detached from every caller's context and is bounded by queryTimeout, so one
// caller going away cannot fail the others.
type CachedStore struct {
	store        Store
	client       *redis.Client
	ttl          time.Duration
	queryTimeout time.Duration
	logger       *slog.Logger
	group        singleflight.Group
}

// NewCachedStore wraps store with a redis cache holding answers for ttl.
// queryTimeout bounds a shared store query; zero uses a 5s default.
func NewCachedStore(store Store, client *redis.Client, ttl, queryTimeout time.Duration, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	if queryTimeout <= 0 {
		queryTimeout = defaultCacheQueryTimeout
	}
	return &CachedStore{store: store, client: client, ttl: ttl, queryTimeout: queryTimeout, logger: logger}
}

// Version returns the current cache version, initialising it when missing.
func (c *CachedStore) Version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		// SETNX so a concurrent Invalidate is not overwritten.
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Invalidate bumps the version so subsequent checks hit the store.
func (c *CachedStore) Invalidate(ctx context.Context) (int64, error) {
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return 0, fmt.Errorf("authz: invalidate cache: %w", err)
	}
	return ver, nil
}

// HasActivePermission implements Store.
func (c *CachedStore) HasActivePermission(ctx context.Context, userID int64, pageURL string, perm permission.Permission) (bool, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		c.logger.Warn("authz cache version", slog.Any("error", err))
		return c.store.HasActivePermission(ctx, userID, pageURL, perm)
	}
	key := fmt.Sprintf("%s:%d:%d:%d:%s", cacheKeyPrefix, ver, userID, perm.Code(), pageURL)

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached == "1", nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("authz cache read", slog.String("key", key), slog.Any("error", err))
		return c.store.HasActivePermission(ctx, userID, pageURL, perm)
	}

	resultChan := c.group.DoChan(key, func() (interface{}, error) {
		sfCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.queryTimeout)
		defer cancel()
		ok, err := c.store.HasActivePermission(sfCtx, userID, pageURL, perm)
		if err != nil {
			return false, err
		}
		value := "0"
		if ok {
			value = "1"
		}
		if err := c.client.Set(sfCtx, key, value, c.ttl).Err(); err != nil {
			c.logger.Warn("authz cache write", slog.String("key", key), slog.Any("error", err))
		}
		return ok, nil
	})
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return false, res.Err
		}
		return res.Val.(bool), nil
	}
}

// MountRoutes exposes cache administration.
func (c *CachedStore) MountRoutes(r chi.Router) {
	r.Post("/invalidate", c.handleInvalidate)
}

func (c *CachedStore) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	ver, err := c.Invalidate(r.Context())
	if err != nil {
		c.logger.Error("authz cache invalidate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"version": ver})
}
