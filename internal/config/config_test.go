package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// validConfig returns a Config that passes Validate().
func validConfig() *Config {
	return &Config{
		ModelName:        "gpt-4o-mini",
		ContextWindow:    DefaultContextWindow,
		PostgresHost:     "localhost",
		PostgresPort:     5432,
		PostgresUser:     "aviary",
		PostgresPassword: "test_password",
		PostgresDBName:   "aviary",
		PostgresSSLMode:  "disable",
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("Validate() = %v, want ErrConfigNil", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty model name", func(c *Config) { c.ModelName = "" }, ErrInvalidModelName},
		{"zero context window", func(c *Config) { c.ContextWindow = 0 }, ErrInvalidContextWindow},
		{"oversized context window", func(c *Config) { c.ContextWindow = MaxContextWindow + 1 }, ErrInvalidContextWindow},
		{"empty postgres host", func(c *Config) { c.PostgresHost = "" }, ErrInvalidPostgresHost},
		{"port too low", func(c *Config) { c.PostgresPort = 0 }, ErrInvalidPostgresPort},
		{"port too high", func(c *Config) { c.PostgresPort = 70000 }, ErrInvalidPostgresPort},
		{"empty db name", func(c *Config) { c.PostgresDBName = "" }, ErrInvalidPostgresDBName},
		{"empty ssl mode", func(c *Config) { c.PostgresSSLMode = "" }, ErrInvalidPostgresSSLMode},
		{"deprecated ssl mode", func(c *Config) { c.PostgresSSLMode = "prefer" }, ErrInvalidPostgresSSLMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateServe(t *testing.T) {
	cfg := validConfig()
	if err := cfg.ValidateServe(); !errors.Is(err, ErrMissingJWTSecret) {
		t.Errorf("ValidateServe() without secret = %v, want ErrMissingJWTSecret", err)
	}

	cfg.JWTSecret = "short"
	if err := cfg.ValidateServe(); !errors.Is(err, ErrInvalidJWTSecret) {
		t.Errorf("ValidateServe() with short secret = %v, want ErrInvalidJWTSecret", err)
	}

	cfg.JWTSecret = strings.Repeat("s", 32)
	if err := cfg.ValidateServe(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("ValidateServe() without API key = %v, want ErrMissingAPIKey", err)
	}

	cfg.OpenAIAPIKey = "sk-test"
	if err := cfg.ValidateServe(); err != nil {
		t.Errorf("ValidateServe() = %v, want nil", err)
	}
}

func TestPostgresConnectionString_QuotesPassword(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "pa ss'word"

	dsn := cfg.PostgresConnectionString()
	if !strings.Contains(dsn, `password='pa ss\'word'`) {
		t.Errorf("DSN does not quote password correctly: %s", dsn)
	}
}

func TestPostgresURL_EncodesCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresUser = "user@host"
	cfg.PostgresPassword = "p@ss/word"

	u := cfg.PostgresURL()
	if !strings.HasPrefix(u, "postgres://") {
		t.Errorf("URL missing scheme: %s", u)
	}
	if strings.Contains(u, "p@ss/word") {
		t.Errorf("URL contains unencoded password: %s", u)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", maskedValue},
		{"12345678", maskedValue},
		{"my_long_secret_key_123", "my<" + maskedValue + ">23"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarshalJSON_MasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAIAPIKey = "sk-verysecret-api-key"
	cfg.JWTSecret = "jwt-super-secret-signing-key"
	cfg.SMTPPassword = "smtp_secret_pw"

	out := cfg.String()
	for _, secret := range []string{"sk-verysecret-api-key", "jwt-super-secret-signing-key", "smtp_secret_pw", "test_password"} {
		if strings.Contains(out, secret) {
			t.Errorf("String() leaked secret %q: %s", secret, out)
		}
	}
}

func TestTokenTTL_Defaults(t *testing.T) {
	cfg := &Config{}
	if got := cfg.TokenTTL(); got != DefaultTokenTTL {
		t.Errorf("TokenTTL() = %v, want %v", got, DefaultTokenTTL)
	}
	cfg.TokenTTLMinutes = 15
	if got := cfg.TokenTTL(); got != 15*time.Minute {
		t.Errorf("TokenTTL() = %v, want 15m", got)
	}
}
