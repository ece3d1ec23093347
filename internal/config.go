package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/timemachine/internal/horizon"
	"github.com/starford/timemachine/internal/parser"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`

	TimeMachine TimeMachineConfig `yaml:"timemachine"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.TimeMachine.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the Markdown vault location and the directories
// excluded from the time machine.
type VaultConfig struct {
	Path       string   `yaml:"path"`
	IgnoreDirs []string `yaml:"ignore_dirs"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// TimeMachineConfig controls how notes are dated and selected.
type TimeMachineConfig struct {
	Property        string        `yaml:"property"`
	Capacity        int           `yaml:"capacity"`
	Horizons        []string      `yaml:"horizons"`
	Workers         int           `yaml:"workers"`
	RefreshThrottle time.Duration `yaml:"refresh_throttle"`
}

// Validate validates the time machine configuration.
func (c *TimeMachineConfig) Validate() error {
	keys := make([]interface{}, 0, len(horizon.Catalog))
	for _, k := range horizon.Keys() {
		keys = append(keys, k)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Property, validation.Required),
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.Horizons,
			validation.Required,
			validation.Each(validation.In(keys...)),
			validation.By(uniqueStrings)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
		validation.Field(&c.RefreshThrottle, validation.Min(time.Duration(0))),
	)
}

// Specs resolves the configured horizon keys.
func (c *TimeMachineConfig) Specs() ([]horizon.Spec, error) {
	return horizon.Resolve(c.Horizons)
}

func uniqueStrings(value interface{}) error {
	list, _ := value.([]string)
	seen := make(map[string]struct{}, len(list))
	for _, s := range list {
		if _, ok := seen[s]; ok {
			return errors.New("must not contain duplicates: " + s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./timemachine.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		TimeMachine: TimeMachineConfig{
			Property:        parser.DefaultDateProperty,
			Capacity:        3,
			Horizons:        append([]string(nil), horizon.DefaultKeys...),
			Workers:         8,
			RefreshThrottle: 2 * time.Second,
		},
	}
}
