// ABOUTME: cledger configuration loaded from a YAML file and CLEDGER_* environment variables.
// ABOUTME: Also provides the storage backend factory.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/cledger/internal/analytics"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/harperreed/cledger/internal/storage/postgres"
	"github.com/spf13/viper"
)

// Backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CLEDGER"

// DefaultOwner is the owner id used when none is configured.
var DefaultOwner = uuid.NewSHA1(uuid.NameSpaceURL, []byte("cledger://local"))

// Config stores cledger configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default) or "postgres".
	Backend string `mapstructure:"backend"`

	// DataDir is where the SQLite database and logs live.
	// Supports ~ expansion. Defaults to ~/.local/share/cledger.
	DataDir string `mapstructure:"data_dir"`

	// DatabaseURL is the Postgres connection string.
	DatabaseURL string `mapstructure:"database_url"`

	// OwnerID scopes every row this process reads or writes.
	OwnerID string `mapstructure:"owner_id"`

	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Log       LogConfig       `mapstructure:"log"`
	Remote    RemoteConfig    `mapstructure:"remote"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig configures API login.
type AuthConfig struct {
	PasswordHash string        `mapstructure:"password_hash"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

// AnalyticsConfig configures snapshot assembly.
type AnalyticsConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// RemoteConfig points the MCP adapter at a running API.
type RemoteConfig struct {
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("backend", BackendSQLite)
	v.SetDefault("data_dir", "")
	v.SetDefault("database_url", "")
	v.SetDefault("owner_id", "")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("auth.password_hash", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("analytics.timeout", analytics.DefaultTimeout.String())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("remote.url", "")
	v.SetDefault("remote.password", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short aliases for the settings most often supplied by a deployment.
	_ = v.BindEnv("auth.jwt_secret", "CLEDGER_JWT_SECRET", "CLEDGER_AUTH_JWT_SECRET")
	_ = v.BindEnv("auth.password_hash", "CLEDGER_PASSWORD_HASH", "CLEDGER_AUTH_PASSWORD_HASH")
	_ = v.BindEnv("server.addr", "CLEDGER_ADDR", "CLEDGER_SERVER_ADDR")

	return v
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendSQLite
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetLogFile returns the log file path, defaulting to cledger.log in the data directory.
func (c *Config) GetLogFile() string {
	if c.Log.File == "" {
		return filepath.Join(c.GetDataDir(), "cledger.log")
	}
	return ExpandPath(c.Log.File)
}

// Owner parses the configured owner id.
func (c *Config) Owner() (uuid.UUID, error) {
	if c.OwnerID == "" {
		return DefaultOwner, nil
	}
	id, err := uuid.Parse(c.OwnerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse owner_id: %w", err)
	}
	return id, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Repository implementation based on the configured backend.
func (c *Config) OpenStorage(ctx context.Context) (storage.Repository, error) {
	owner, err := c.Owner()
	if err != nil {
		return nil, err
	}

	switch backend := c.GetBackend(); backend {
	case BackendSQLite:
		dbPath := filepath.Join(c.GetDataDir(), "cledger.db")
		return storage.Open(dbPath, owner)
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return nil, errors.New("postgres backend requires database_url")
		}
		return postgres.NewStore(ctx, c.DatabaseURL, owner)
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "cledger", "config.yaml")
}

// Load reads config from the default path and the environment.
func Load() (*Config, error) {
	return LoadFile(GetConfigPath())
}

// LoadFile reads config from path and the environment. A missing file
// yields defaults.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Save writes config to the default path.
func (c *Config) Save() error {
	return c.SaveFile(GetConfigPath())
}

// SaveFile writes config to path as YAML.
func (c *Config) SaveFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range c.settings() {
		v.Set(key, value)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Chmod(path, 0600)
}

// settings lists the explicitly set values so saving never pins defaults.
func (c *Config) settings() map[string]any {
	out := map[string]any{}
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set("backend", c.Backend)
	set("data_dir", c.DataDir)
	set("database_url", c.DatabaseURL)
	set("owner_id", c.OwnerID)
	set("server.addr", c.Server.Addr)
	if len(c.Server.AllowedOrigins) > 0 {
		out["server.allowed_origins"] = c.Server.AllowedOrigins
	}
	set("auth.password_hash", c.Auth.PasswordHash)
	set("auth.jwt_secret", c.Auth.JWTSecret)
	if c.Auth.TokenTTL > 0 {
		out["auth.token_ttl"] = c.Auth.TokenTTL.String()
	}
	if c.Analytics.Timeout > 0 {
		out["analytics.timeout"] = c.Analytics.Timeout.String()
	}
	set("log.level", c.Log.Level)
	set("log.file", c.Log.File)
	set("remote.url", c.Remote.URL)
	set("remote.password", c.Remote.Password)
	return out
}
