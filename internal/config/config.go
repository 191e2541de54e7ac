package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

const (
	// TransitionsStrict rejects order/return status changes outside the
	// allowed-transition tables.
	TransitionsStrict = "strict"
	// TransitionsPermissive restores the legacy behavior where any status can
	// be set from any other.
	TransitionsPermissive = "permissive"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	Port        string `env:"PORT" envDefault:"8080"`
	BaseURL     string `env:"BASE_URL" validate:"omitempty,url"`

	// AdminAPIKey bootstraps admin access; approved login requests mint JWTs
	// signed with SessionSecret.
	AdminAPIKey   string `env:"ADMIN_API_KEY,required" validate:"required,min=16"`
	SessionSecret string `env:"SESSION_SECRET,required" validate:"required,min=32"`
	// EncryptionKey protects secret system settings at rest (AES-256-GCM).
	EncryptionKey string `env:"ENCRYPTION_KEY,required" validate:"required,len=32"`

	LoginApprovalTTL time.Duration `env:"LOGIN_APPROVAL_TTL" envDefault:"10m" validate:"min=1m"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"24h" validate:"min=1m"`

	ScreenshotDir      string `env:"SCREENSHOT_DIR" envDefault:"data/screenshots" validate:"required"`
	MaxScreenshotBytes int64  `env:"MAX_SCREENSHOT_BYTES" envDefault:"5242880" validate:"gt=0"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	ApprovalStoreProvider string `env:"APPROVAL_STORE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis,required_if=ApprovalStoreProvider redis"`

	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"log" validate:"omitempty,oneof=log resend"`
	ResendAPIKey  string `env:"RESEND_API_KEY"`
	EmailFrom     string `env:"EMAIL_FROM" envDefault:"orders@upikart.example" validate:"omitempty,email"`

	StatusTransitions string `env:"STATUS_TRANSITIONS" envDefault:"strict" validate:"oneof=strict permissive"`

	SentryDSN string `env:"SENTRY_DSN"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	if c.EmailProvider == "resend" && strings.TrimSpace(c.ResendAPIKey) == "" {
		return fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER is resend")
	}

	return nil
}

// StrictTransitions reports whether the formal transition tables are enforced.
func (c *Config) StrictTransitions() bool {
	return c.StatusTransitions != TransitionsPermissive
}
