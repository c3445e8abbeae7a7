package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/app"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/auth"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/authz"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/observability"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/platform/cache"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/platform/db"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/rbac"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/roles"
	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/shared"
)

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return err
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return err
	}
	defer dbpool.Close()

	metrics := observability.NewMetrics()
	permissionStore := rbac.NewStore(dbpool)

	var (
		authzStore  authz.Store = permissionStore
		cachedStore *authz.CachedStore
	)
	if cfg.AuthzCacheTTL > 0 {
		redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, permission cache disabled", slog.Any("error", err))
		} else {
			defer closeRedis(redisClient, logger)
			cachedStore = authz.NewCachedStore(permissionStore, redisClient, cfg.AuthzCacheTTL, cfg.AuthzStoreTimeout, logger)
			authzStore = cachedStore
		}
	}

	auditors := authz.Auditors{authz.NewLogAuditor(logger)}
	if cfg.AuthzAuditPersist {
		auditors = append(auditors, authz.NewRecordAuditor(shared.NewAuditLogger(dbpool), logger))
	}

	settings, err := app.LoadAuthzSettings(cfg, logger)
	if err != nil {
		logger.Error("load authz policy", slog.Any("error", err))
		return err
	}
	engine, err := app.NewAuthzEngine(app.AuthzParams{
		Config:   cfg,
		Settings: settings,
		Store:    authzStore,
		Auditor:  auditors,
		Recorder: metrics,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("build authz engine", slog.Any("error", err))
		return err
	}

	tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, cfg.JWTUserIDClaim)
	if err != nil {
		logger.Error("jwt manager", slog.Any("error", err))
		return err
	}

	rolesHandler := roles.NewHandler(logger, roles.NewService(roles.NewRepository(dbpool)))
	permissionsHandler := rbac.NewHandler(logger, permissionStore, cfg.JWTUserIDClaim)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Tokens:             tokens,
		Engine:             engine,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		CacheAdmin:         cachedStore,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return err
	}
	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

func closeRedis(client *redis.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn("redis close", slog.Any("error", err))
	}
}
