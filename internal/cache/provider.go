// Package cache provides TTL caching for settings reads and notification
// idempotency keys.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("key not found")

// Provider is a string-valued TTL cache.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// SettingKey namespaces cached system settings.
func SettingKey(name string) string {
	return "setting:" + name
}

// EmailSentKey marks a verification decision notification as already sent.
func EmailSentKey(verificationID string) string {
	return "email:verification:" + verificationID
}
