package authz

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var httpMethods = "GET HEAD POST PUT PATCH DELETE OPTIONS"

// Settings is the policy configuration loaded once at startup.
type Settings struct {
	EnablePermissionBasedAuth    bool                         `yaml:"enablePermissionBasedAuth"`
	PublicEndpoints              []string                     `yaml:"publicEndpoints" validate:"dive,required,startswith=/"`
	DefaultRequireAuthentication bool                         `yaml:"defaultRequireAuthentication"`
	EndpointPermissions          map[string]map[string]string `yaml:"endpointPermissions"`
}

// DefaultSettings enables enforcement and requires authentication.
func DefaultSettings() Settings {
	return Settings{
		EnablePermissionBasedAuth:    true,
		DefaultRequireAuthentication: true,
	}
}

// LoadSettings reads a YAML policy file. Missing keys keep DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("authz: read settings: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes and validates YAML policy settings.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("authz: parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the structure of the settings. Unknown permission names are
// not structural errors; Table.Validate reports them.
func (s Settings) Validate() error {
	v := validator.New()
	if err := v.Struct(s); err != nil {
		return fmt.Errorf("authz: invalid settings: %w", err)
	}
	for prefix, methods := range s.EndpointPermissions {
		if err := v.Var(prefix, "required,startswith=/"); err != nil {
			return fmt.Errorf("authz: endpoint %q: prefix must start with /", prefix)
		}
		for method := range methods {
			if err := v.Var(strings.ToUpper(method), "oneof="+httpMethods); err != nil {
				return fmt.Errorf("authz: endpoint %q: unsupported method %q", prefix, method)
			}
		}
	}
	return nil
}

// Table builds the endpoint policy table. Prefixes are registered in sorted
// order so duplicate resolution does not depend on map iteration.
func (s Settings) Table(logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	t := NewTable(s.PublicEndpoints, s.DefaultRequireAuthentication)
	prefixes := make([]string, 0, len(s.EndpointPermissions))
	for p := range s.EndpointPermissions {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		if !t.Configure(p, s.EndpointPermissions[p]) {
			logger.Warn("authz duplicate endpoint prefix ignored", slog.String("prefix", p))
		}
	}
	return t
}
