package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/PrasanthThyagarajan/temple-management-app-sub002/internal/authz"
)

// LoadAuthzSettings reads the policy file named by the config. A missing file
// yields the defaults with no endpoint policies. AUTHZ_DISABLE overrides the
// file's kill-switch.
func LoadAuthzSettings(cfg *Config, logger *slog.Logger) (authz.Settings, error) {
	settings := authz.DefaultSettings()
	if cfg.AuthzPolicyFile != "" {
		loaded, err := authz.LoadSettings(cfg.AuthzPolicyFile)
		switch {
		case err == nil:
			settings = loaded
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("authz policy file missing, no endpoint policies loaded", slog.String("path", cfg.AuthzPolicyFile))
		default:
			return authz.Settings{}, err
		}
	}
	if cfg.AuthzDisable {
		settings.EnablePermissionBasedAuth = false
	}
	return settings, nil
}

// AuthzParams wires the decision engine.
type AuthzParams struct {
	Config   *Config
	Settings authz.Settings
	Store    authz.Store
	Auditor  authz.Auditor
	Recorder authz.Recorder
	Logger   *slog.Logger
}

// NewAuthzEngine builds the policy table and engine. Unknown permission
// names are logged here once; the affected endpoints stay unenforced.
func NewAuthzEngine(params AuthzParams) (*authz.Engine, error) {
	table := params.Settings.Table(params.Logger)
	for _, issue := range table.Validate() {
		params.Logger.Warn("authz policy issue", slog.Any("error", issue))
	}
	if !params.Settings.EnablePermissionBasedAuth {
		params.Logger.Warn("permission based authorization disabled")
	}
	engine, err := authz.NewEngine(authz.EngineConfig{
		Table:        table,
		Store:        params.Store,
		Enabled:      params.Settings.EnablePermissionBasedAuth,
		UserIDClaim:  params.Config.JWTUserIDClaim,
		StoreTimeout: params.Config.AuthzStoreTimeout,
		Logger:       params.Logger,
		Auditor:      params.Auditor,
		Recorder:     params.Recorder,
	})
	if err != nil {
		return nil, fmt.Errorf("app: authz engine: %w", err)
	}
	params.Logger.Info("authz policy loaded",
		slog.Int("endpoints", len(table.Prefixes())),
		slog.Int("public", len(params.Settings.PublicEndpoints)),
	)
	return engine, nil
}
