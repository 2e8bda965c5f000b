// Package config provides configuration management for missionctl.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections for missionctl.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Agents   AgentsConfig   `mapstructure:"agents"`
	Desktop  DesktopConfig  `mapstructure:"desktop"`
	MCP      MCPConfig      `mapstructure:"mcp"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // in seconds
}

// DatabaseConfig holds persistence configuration.
// Driver selects the store backend: memory, sqlite, or postgres.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"` // sqlite database file
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbName"`
	SSLMode  string `mapstructure:"sslMode"`
	MaxConns int    `mapstructure:"maxConns"`
	MinConns int    `mapstructure:"minConns"`
}

// NATSConfig holds NATS messaging configuration.
// An empty URL selects the in-memory event bus.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// ExecutorConfig holds task execution configuration.
type ExecutorConfig struct {
	// MaxConcurrentTasks caps how many tasks may execute at once.
	MaxConcurrentTasks int `mapstructure:"maxConcurrentTasks"`
}

// AgentsConfig holds agent runtime configuration shared by all agents.
// Per-task settings are derived from these values with the agent's own
// backend substituted in.
type AgentsConfig struct {
	// RosterPath points to a YAML roster file seeded into the agent store at startup.
	RosterPath string `mapstructure:"rosterPath"`

	// DefaultBackend is used for agents that do not specify a backend.
	DefaultBackend string `mapstructure:"defaultBackend"`

	// Model is the model identifier passed to LLM-backed runtimes.
	Model string `mapstructure:"model"`

	// OllamaHost is the base URL of a local Ollama daemon.
	OllamaHost string `mapstructure:"ollamaHost"`

	AnthropicAPIKey string `mapstructure:"anthropicApiKey"`
	OpenAIAPIKey    string `mapstructure:"openaiApiKey"`
}

// DesktopConfig holds host desktop integration configuration.
type DesktopConfig struct {
	// ScreenshotDir is where captured screenshots are written.
	ScreenshotDir string `mapstructure:"screenshotDir"`
}

// MCPConfig holds embedded MCP server configuration.
type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// detectDefaultLogFormat returns the appropriate log format based on environment.
func detectDefaultLogFormat() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}
	if env := os.Getenv("MISSIONCTL_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "console"
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Database defaults - sqlite file in the working directory
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./missionctl.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "missionctl")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbName", "missionctl")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxConns", 25)
	v.SetDefault("database.minConns", 5)

	// NATS defaults - empty URL means use in-memory event bus
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "missionctl")
	v.SetDefault("nats.maxReconnects", 10)

	// Executor defaults
	v.SetDefault("executor.maxConcurrentTasks", 5)

	// Agent defaults
	v.SetDefault("agents.rosterPath", "")
	v.SetDefault("agents.defaultBackend", "scripted")
	v.SetDefault("agents.model", "")
	v.SetDefault("agents.ollamaHost", "http://localhost:11434")
	v.SetDefault("agents.anthropicApiKey", "")
	v.SetDefault("agents.openaiApiKey", "")

	// Desktop defaults
	v.SetDefault("desktop.screenshotDir", "screenshots")

	// MCP defaults
	v.SetDefault("mcp.enabled", false)
	v.SetDefault("mcp.port", 9090)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")
}

// Load reads configuration from environment variables, config file, and defaults.
// Environment variables use the prefix MISSIONCTL_ with snake_case naming.
// Config file should be named config.yaml and placed in the current directory
// or /etc/missionctl/.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("MISSIONCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit bindings where the config key's camelCase does not round-trip
	// through AutomaticEnv's snake_case conversion.
	_ = v.BindEnv("executor.maxConcurrentTasks", "MISSIONCTL_EXECUTOR_MAX_CONCURRENT_TASKS")
	_ = v.BindEnv("agents.rosterPath", "MISSIONCTL_AGENTS_ROSTER_PATH")
	_ = v.BindEnv("agents.defaultBackend", "MISSIONCTL_AGENTS_DEFAULT_BACKEND")
	_ = v.BindEnv("agents.ollamaHost", "MISSIONCTL_AGENTS_OLLAMA_HOST")
	_ = v.BindEnv("agents.anthropicApiKey", "MISSIONCTL_AGENTS_ANTHROPIC_API_KEY")
	_ = v.BindEnv("agents.openaiApiKey", "MISSIONCTL_AGENTS_OPENAI_API_KEY")
	_ = v.BindEnv("desktop.screenshotDir", "MISSIONCTL_DESKTOP_SCREENSHOT_DIR")
	_ = v.BindEnv("database.dbName", "MISSIONCTL_DATABASE_DB_NAME")

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/missionctl/")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	switch cfg.Database.Driver {
	case "memory", "sqlite":
	case "postgres":
		if cfg.Database.User == "" {
			errs = append(errs, "database.user is required for the postgres driver")
		}
		if cfg.Database.DBName == "" {
			errs = append(errs, "database.dbName is required for the postgres driver")
		}
		if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
			errs = append(errs, "database.port must be between 1 and 65535")
		}
	default:
		errs = append(errs, "database.driver must be one of: memory, sqlite, postgres")
	}

	if cfg.Executor.MaxConcurrentTasks <= 0 {
		errs = append(errs, "executor.maxConcurrentTasks must be positive")
	}

	if cfg.MCP.Enabled && (cfg.MCP.Port <= 0 || cfg.MCP.Port > 65535) {
		errs = append(errs, "mcp.port must be between 1 and 65535")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, console, text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}
