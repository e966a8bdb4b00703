package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
)

// Backend kinds understood by the gateway.
const (
	KindSnowflake = "snowflake"
	KindAsana     = "asana"
	KindCatalog   = "catalog"
	KindNotebook  = "notebook"
	KindHivemind  = "hivemind"
	KindMCP       = "mcp"
)

// EnvPrefix prefixes every structured environment key, e.g.
// GATEWAY_SERVER_PORT.
const EnvPrefix = "GATEWAY"

var ErrFileNotFound = errors.New("config file not found")

// Config represents the gateway configuration
type Config struct {
	Name        string    `json:"name" yaml:"name" mapstructure:"name"`
	Version     string    `json:"version" yaml:"version" mapstructure:"version"`
	Environment string    `json:"environment" yaml:"environment" mapstructure:"environment"`
	BuildDate   string    `json:"build_date,omitempty" yaml:"build_date,omitempty" mapstructure:"build_date"`
	Server      Server    `json:"server" yaml:"server" mapstructure:"server"`
	Logging     Logging   `json:"logging" yaml:"logging" mapstructure:"logging"`
	Gateway     Gateway   `json:"gateway" yaml:"gateway" mapstructure:"gateway"`
	Asana       Asana     `json:"asana" yaml:"asana" mapstructure:"asana"`
	Snowflake   Snowflake `json:"snowflake" yaml:"snowflake" mapstructure:"snowflake"`
	Hivemind    Hivemind  `json:"hivemind" yaml:"hivemind" mapstructure:"hivemind"`
	Notebook    Notebook  `json:"notebook" yaml:"notebook" mapstructure:"notebook"`
}

// Server represents server configuration
type Server struct {
	Host                   string `json:"host" yaml:"host" mapstructure:"host"`
	Port                   int    `json:"port" yaml:"port" mapstructure:"port"`
	KeepaliveSeconds       int    `json:"keepalive_seconds" yaml:"keepalive_seconds" mapstructure:"keepalive_seconds"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`
	MetricsEnabled         bool   `json:"metrics_enabled" yaml:"metrics_enabled" mapstructure:"metrics_enabled"`
}

// Logging represents logging configuration
type Logging struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
	Path   string `json:"path" yaml:"path" mapstructure:"path"`
}

// Gateway holds routing options and the ordered backend list.
type Gateway struct {
	ValidateArguments bool      `json:"validate_arguments" yaml:"validate_arguments" mapstructure:"validate_arguments"`
	Backends          []Backend `json:"backends" yaml:"backends" mapstructure:"backends"`
}

// Backend is one entry of the registration list. Endpoint and Headers are
// only read for the mcp kind.
type Backend struct {
	Prefix             string            `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	Kind               string            `json:"kind" yaml:"kind" mapstructure:"kind"`
	Enabled            bool              `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Endpoint           string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	Headers            map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" mapstructure:"headers"`
	CallTimeoutSeconds int               `json:"call_timeout_seconds,omitempty" yaml:"call_timeout_seconds,omitempty" mapstructure:"call_timeout_seconds"`
}

// Asana configures the Asana backend.
type Asana struct {
	Token          string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`
	WorkspaceGID   string `json:"workspace_gid" yaml:"workspace_gid" mapstructure:"workspace_gid"`
	BaseURL        string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	RetryMax       int    `json:"retry_max" yaml:"retry_max" mapstructure:"retry_max"`
}

// Snowflake configures the SQL backend.
type Snowflake struct {
	Account             string `json:"account" yaml:"account" mapstructure:"account"`
	User                string `json:"user" yaml:"user" mapstructure:"user"`
	Password            string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	Warehouse           string `json:"warehouse" yaml:"warehouse" mapstructure:"warehouse"`
	Database            string `json:"database" yaml:"database" mapstructure:"database"`
	Schema              string `json:"schema" yaml:"schema" mapstructure:"schema"`
	Role                string `json:"role" yaml:"role" mapstructure:"role"`
	QueryTimeoutSeconds int    `json:"query_timeout_seconds" yaml:"query_timeout_seconds" mapstructure:"query_timeout_seconds"`
}

// Hivemind configures the shared-memory statement builder.
type Hivemind struct {
	Table      string `json:"table" yaml:"table" mapstructure:"table"`
	TargetTool string `json:"target_tool" yaml:"target_tool" mapstructure:"target_tool"`
}

// Notebook configures the local notebook store.
type Notebook struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// DefaultBackends returns the registration order of the production
// deployment.
func DefaultBackends() []Backend {
	entry := func(prefix, kind string) Backend {
		return Backend{Prefix: prefix, Kind: kind, Enabled: true}
	}
	return []Backend{
		entry("sm", KindSnowflake),
		entry("asana", KindAsana),
		entry("drive", KindCatalog),
		entry("m365", KindCatalog),
		entry("dropbox", KindCatalog),
		entry("dc", KindCatalog),
		entry("github", KindCatalog),
		entry("azure", KindCatalog),
		entry("make", KindCatalog),
		entry("vertex", KindCatalog),
		entry("gemini", KindCatalog),
		entry("voice", KindCatalog),
		entry("avatar", KindCatalog),
		entry("figma", KindCatalog),
		entry("vector", KindCatalog),
		entry("ts", KindCatalog),
		entry("notebook", KindNotebook),
		entry("hivemind", KindHivemind),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, ".sm-gateway")
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Name:        mcp.ServerName,
		Version:     mcp.ServerVersion,
		Environment: "production",
		Server: Server{
			Host:                   "0.0.0.0",
			Port:                   8000,
			KeepaliveSeconds:       30,
			ShutdownTimeoutSeconds: 10,
			MetricsEnabled:         true,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		Gateway: Gateway{
			ValidateArguments: false,
			Backends:          DefaultBackends(),
		},
		Asana: Asana{
			WorkspaceGID:   "373563495855656",
			BaseURL:        "https://app.asana.com/api/1.0",
			TimeoutSeconds: 30,
			RetryMax:       2,
		},
		Snowflake: Snowflake{
			Account:             "uib44717",
			User:                "JOHN_CLAUDE",
			Warehouse:           "COMPUTE_WH",
			Database:            "SOVEREIGN_MIND",
			Schema:              "RAW",
			Role:                "ACCOUNTADMIN",
			QueryTimeoutSeconds: 120,
		},
		Hivemind: Hivemind{
			Table:      "SOVEREIGN_MIND.RAW.HIVE_MIND",
			TargetTool: "sm_query_snowflake",
		},
		Notebook: Notebook{
			Path: filepath.Join(defaultDataDir(), "notebooks.db"),
		},
	}
}

// newViper returns a viper instance seeded with every scalar default so
// GATEWAY_* variables resolve even when the file omits a key.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, NewConfig())
	return v
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("name", d.Name)
	v.SetDefault("version", d.Version)
	v.SetDefault("environment", d.Environment)
	v.SetDefault("build_date", d.BuildDate)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.keepalive_seconds", d.Server.KeepaliveSeconds)
	v.SetDefault("server.shutdown_timeout_seconds", d.Server.ShutdownTimeoutSeconds)
	v.SetDefault("server.metrics_enabled", d.Server.MetricsEnabled)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("gateway.validate_arguments", d.Gateway.ValidateArguments)
	v.SetDefault("asana.token", d.Asana.Token)
	v.SetDefault("asana.workspace_gid", d.Asana.WorkspaceGID)
	v.SetDefault("asana.base_url", d.Asana.BaseURL)
	v.SetDefault("asana.timeout_seconds", d.Asana.TimeoutSeconds)
	v.SetDefault("asana.retry_max", d.Asana.RetryMax)
	v.SetDefault("snowflake.account", d.Snowflake.Account)
	v.SetDefault("snowflake.user", d.Snowflake.User)
	v.SetDefault("snowflake.password", d.Snowflake.Password)
	v.SetDefault("snowflake.warehouse", d.Snowflake.Warehouse)
	v.SetDefault("snowflake.database", d.Snowflake.Database)
	v.SetDefault("snowflake.schema", d.Snowflake.Schema)
	v.SetDefault("snowflake.role", d.Snowflake.Role)
	v.SetDefault("snowflake.query_timeout_seconds", d.Snowflake.QueryTimeoutSeconds)
	v.SetDefault("hivemind.table", d.Hivemind.Table)
	v.SetDefault("hivemind.target_tool", d.Hivemind.TargetTool)
	v.SetDefault("notebook.path", d.Notebook.Path)
}

// LoadConfig loads the configuration. An empty path loads defaults and the
// environment only; a non-empty path must exist. The file type follows the
// extension (json, yaml, yml or toml).
func LoadConfig(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFileNotFound, err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if !v.IsSet("gateway.backends") {
		cfg.Gateway.Backends = DefaultBackends()
	}

	// Flat legacy variables win over everything else.
	applyEnvOverrides(cfg)
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Server.Port = port
		} else {
			logger.Warn("Ignoring invalid PORT value", "value", portStr, "error", err)
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		cfg.Server.Host = host
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		cfg.Environment = env
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if token := os.Getenv("ASANA_TOKEN"); token != "" {
		cfg.Asana.Token = token
	}

	if gid := os.Getenv("ASANA_WORKSPACE_GID"); gid != "" {
		cfg.Asana.WorkspaceGID = gid
	}

	snowflake := []struct {
		name string
		dst  *string
	}{
		{"SNOWFLAKE_ACCOUNT", &cfg.Snowflake.Account},
		{"SNOWFLAKE_USER", &cfg.Snowflake.User},
		{"SNOWFLAKE_PASSWORD", &cfg.Snowflake.Password},
		{"SNOWFLAKE_WAREHOUSE", &cfg.Snowflake.Warehouse},
		{"SNOWFLAKE_DATABASE", &cfg.Snowflake.Database},
		{"SNOWFLAKE_SCHEMA", &cfg.Snowflake.Schema},
		{"SNOWFLAKE_ROLE", &cfg.Snowflake.Role},
	}
	for _, s := range snowflake {
		if value := os.Getenv(s.name); value != "" {
			*s.dst = value
		}
	}
}

// Normalize canonicalizes config values so downstream validation and runtime
// logic operate on stable representations.
func (c *Config) Normalize() {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	c.Environment = strings.TrimSpace(c.Environment)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Path = strings.TrimSpace(c.Logging.Path)
	if c.Server.KeepaliveSeconds == 0 {
		c.Server.KeepaliveSeconds = 30
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}
	for i := range c.Gateway.Backends {
		b := &c.Gateway.Backends[i]
		b.Prefix = strings.TrimSpace(b.Prefix)
		b.Kind = strings.ToLower(strings.TrimSpace(b.Kind))
		b.Endpoint = strings.TrimSpace(b.Endpoint)
	}
	c.Notebook.Path = strings.TrimSpace(c.Notebook.Path)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid port number")
	}

	if c.Server.Host == "" {
		return errors.New("host cannot be empty")
	}

	if c.Server.KeepaliveSeconds < 1 {
		return fmt.Errorf("invalid keepalive seconds %d", c.Server.KeepaliveSeconds)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q", c.Logging.Format)
	}

	validKinds := map[string]bool{
		KindSnowflake: true,
		KindAsana:     true,
		KindCatalog:   true,
		KindNotebook:  true,
		KindHivemind:  true,
		KindMCP:       true,
	}
	for i, b := range c.Gateway.Backends {
		if b.Prefix == "" {
			return fmt.Errorf("backend %d: prefix cannot be empty", i)
		}
		if strings.Contains(b.Prefix, "_") {
			return fmt.Errorf("backend %s: prefix must not contain '_'", b.Prefix)
		}
		if !validKinds[b.Kind] {
			return fmt.Errorf("backend %s: invalid kind %q", b.Prefix, b.Kind)
		}
		if b.Kind == KindMCP && b.Enabled && b.Endpoint == "" {
			return fmt.Errorf("backend %s: endpoint is required for kind mcp", b.Prefix)
		}
	}

	return nil
}

// EnabledBackends returns the backends to register, in order.
func (c *Config) EnabledBackends() []Backend {
	out := make([]Backend, 0, len(c.Gateway.Backends))
	for _, b := range c.Gateway.Backends {
		if b.Enabled {
			out = append(out, b)
		}
	}
	return out
}

// Address returns the listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Marshal renders cfg as json or yaml.
func Marshal(cfg *Config, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return json.MarshalIndent(cfg, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// SaveConfig saves the configuration to a file. The format follows the
// extension.
func SaveConfig(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	data, err := Marshal(cfg, formatFromPath(path))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Candidate locations checked when no path is given.
var searchPaths = []string{
	filepath.Join("config", "gateway.yaml"),
	filepath.Join("config", "gateway.json"),
}

// ResolveConfigPath returns the path that should be used for configuration:
// the explicit flag, then GATEWAY_CONFIG_PATH, then the first existing
// search path. An empty result means defaults and environment only.
func ResolveConfigPath(flag string) string {
	if path := strings.TrimSpace(flag); path != "" {
		return path
	}
	if path := strings.TrimSpace(os.Getenv(EnvPrefix + "_CONFIG_PATH")); path != "" {
		return path
	}
	for _, candidate := range searchPaths {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// EnsureDefaultConfig creates a default config file if one does not exist.
// It reports whether a file was written.
func EnsureDefaultConfig(path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, errors.New("config path cannot be empty")
	}

	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := SaveConfig(NewConfig(), path); err != nil {
		return false, err
	}
	return true, nil
}
