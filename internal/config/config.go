package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port              int    `env:"PORT" envDefault:"8080"`
	DatabaseURL       string `env:"DATABASE_URL,required"`
	RedisURL          string `env:"REDIS_URL,required"`
	SessionSigningKey string `env:"SESSION_SIGNING_KEY,required"`
	AdminEmail        string `env:"ADMIN_EMAIL"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	CustomAccessCode  string `env:"CUSTOM_DARAW_CODE"`
	CodeTTLHours      int    `env:"CODE_TTL_HOURS" envDefault:"72"`
	InsecureCookies   bool   `env:"INSECURE_COOKIES" envDefault:"false"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
}

// CodeTTL is how long a freshly issued one-time code stays redeemable.
func (c *Config) CodeTTL() time.Duration {
	return time.Duration(c.CodeTTLHours) * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate enforces the startup invariants. The signing key is checked
// unconditionally: running with a weak or short key is never
// acceptable, so the server refuses to start instead of falling back
// to a default.
func (c *Config) Validate(isProduction bool) error {
	if err := validateSecret("SESSION_SIGNING_KEY", c.SessionSigningKey); err != nil {
		return err
	}

	if (c.AdminEmail == "") != (c.AdminPasswordHash == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD_HASH must be set together")
	}
	if c.AdminPasswordHash != "" {
		if !strings.HasPrefix(c.AdminPasswordHash, "$2a$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2b$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2y$") {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash (generate with: go run scripts/hash-password.go <password>)")
		}
	}

	if c.CustomAccessCode != "" {
		if len(c.CustomAccessCode) < 8 {
			return fmt.Errorf("CUSTOM_DARAW_CODE must be at least 8 characters when set")
		}
		log.Warn().Msg("CUSTOM_DARAW_CODE is set: partner bypass code login is enabled")
	}

	if c.InsecureCookies {
		if isProduction {
			return fmt.Errorf("INSECURE_COOKIES must not be enabled in production")
		}
		log.Warn().Msg("INSECURE_COOKIES is enabled: session cookies will be sent over plain HTTP")
	}

	if c.CodeTTLHours <= 0 {
		return fmt.Errorf("CODE_TTL_HOURS must be positive, got %d", c.CodeTTLHours)
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
