// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.aviary/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Completion: OpenAI API key, default model, request timeout
//   - Storage: PostgreSQL connection (see storage.go)
//   - Auth: JWT secret and token lifetimes
//   - Mail: SMTP relay for password-reset mail
//   - Serve: listen address, CORS origins, proxy trust
//
// Security: sensitive fields (passwords, API keys, secrets) are masked in
// MarshalJSON; the config directory uses 0750 permissions.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the OpenAI API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrMissingJWTSecret indicates the JWT signing secret is not set.
	ErrMissingJWTSecret = errors.New("missing JWT secret")

	// ErrInvalidJWTSecret indicates the JWT signing secret is too short.
	ErrInvalidJWTSecret = errors.New("invalid JWT secret")

	// ErrInvalidModelName indicates the default model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidContextWindow indicates the context window is out of range.
	ErrInvalidContextWindow = errors.New("invalid context window")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

const (
	// DefaultModelName is the model used when an agent does not override it.
	DefaultModelName = "gpt-4o-mini"

	// DefaultContextWindow is the number of most recent messages sent to the
	// completion service per turn. This default must be preserved even when
	// the value is made configurable.
	DefaultContextWindow = 20

	// MaxContextWindow is the absolute maximum to prevent runaway prompts.
	MaxContextWindow = 200

	// DefaultTokenTTL is the default access token lifetime.
	DefaultTokenTTL = 60 * time.Minute

	// DefaultResetTokenTTL is the default password-reset token lifetime.
	DefaultResetTokenTTL = 30 * time.Minute
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields, update MarshalJSON.
type Config struct {
	// Completion service configuration
	ModelName        string `mapstructure:"model_name" json:"model_name"`
	OpenAIAPIKey     string `mapstructure:"openai_api_key" json:"openai_api_key"` // SENSITIVE: masked in MarshalJSON
	OpenAIBaseURL    string `mapstructure:"openai_base_url" json:"openai_base_url"`
	CompletionTimeoutSeconds int    `mapstructure:"completion_timeout_seconds" json:"completion_timeout_seconds"`

	// Context window configuration
	ContextWindow int `mapstructure:"context_window" json:"context_window"`

	// Auth configuration
	JWTSecret          string `mapstructure:"jwt_secret" json:"jwt_secret"` // SENSITIVE: masked in MarshalJSON
	TokenTTLMinutes    int    `mapstructure:"token_ttl_minutes" json:"token_ttl_minutes"`
	ResetTTLMinutes    int    `mapstructure:"reset_token_ttl_minutes" json:"reset_token_ttl_minutes"`
	ResetURLBase       string `mapstructure:"reset_url_base" json:"reset_url_base"`
	AllowInsecureServe bool   `mapstructure:"allow_insecure_serve" json:"allow_insecure_serve"`

	// Storage configuration (see storage.go for documentation)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Mail configuration (password-reset delivery)
	SMTPHost     string `mapstructure:"smtp_host" json:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port" json:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username" json:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password" json:"smtp_password"` // SENSITIVE: masked in MarshalJSON
	SMTPFrom     string `mapstructure:"smtp_from" json:"smtp_from"`

	// Serve configuration
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // Trust X-Real-IP/X-Forwarded-For (set true behind reverse proxy)
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".aviary")

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Parse DATABASE_URL if set (highest priority for PostgreSQL config)
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	// Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// Completion defaults
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("completion_timeout_seconds", 60)
	viper.SetDefault("context_window", DefaultContextWindow)

	// Auth defaults
	viper.SetDefault("token_ttl_minutes", int(DefaultTokenTTL.Minutes()))
	viper.SetDefault("reset_token_ttl_minutes", int(DefaultResetTokenTTL.Minutes()))
	viper.SetDefault("reset_url_base", "http://localhost:3000/reset-password")

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "aviary")
	viper.SetDefault("postgres_password", "aviary_dev_password")
	viper.SetDefault("postgres_db_name", "aviary")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Mail defaults (unset host disables delivery; forgot-password still 202s)
	viper.SetDefault("smtp_port", 587)

	// Serve defaults (Next.js dev server origin)
	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("trust_proxy", false)
}

// bindEnvVariables binds environment variables explicitly.
// Secrets are never read from the config file search path in production
// deployments; they arrive through the environment.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("openai_api_key", "OPENAI_API_KEY")
	mustBind("openai_base_url", "OPENAI_BASE_URL")
	mustBind("model_name", "AVIARY_MODEL_NAME")

	mustBind("jwt_secret", "JWT_SECRET")

	mustBind("smtp_host", "SMTP_SERVER")
	mustBind("smtp_port", "SMTP_PORT")
	mustBind("smtp_username", "SMTP_USERNAME")
	mustBind("smtp_password", "SMTP_PASSWORD")
	mustBind("smtp_from", "SMTP_FROM")

	mustBind("listen_addr", "AVIARY_LISTEN_ADDR")
	mustBind("cors_origins", "AVIARY_CORS_ORIGINS")
	mustBind("trust_proxy", "AVIARY_TRUST_PROXY")
}

// TokenTTL returns the access token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	if c.TokenTTLMinutes <= 0 {
		return DefaultTokenTTL
	}
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// ResetTokenTTL returns the password-reset token lifetime as a duration.
func (c *Config) ResetTokenTTL() time.Duration {
	if c.ResetTTLMinutes <= 0 {
		return DefaultResetTokenTTL
	}
	return time.Duration(c.ResetTTLMinutes) * time.Minute
}

// CompletionTimeout returns the gateway request timeout as a duration.
func (c *Config) CompletionTimeout() time.Duration {
	if c.CompletionTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.CompletionTimeoutSeconds) * time.Second
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid accidental substring matches against
// real secret material.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 bytes or fewer are fully masked; longer secrets show the
// first and last 2 characters for debug utility.
//
// THREAT MODEL: this defends against accidental logging of real secrets.
// It is not cryptographically secure - if logs are compromised, rotate secrets.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked: OpenAIAPIKey, JWTSecret, PostgresPassword, SMTPPassword.
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.OpenAIAPIKey = maskSecret(a.OpenAIAPIKey)
	a.JWTSecret = maskSecret(a.JWTSecret)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	a.SMTPPassword = maskSecret(a.SMTPPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
