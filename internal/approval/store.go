// Package approval stores admin login requests awaiting out-of-band approval.
// Requests carry a server-enforced TTL: a pending request that ages out of the
// store is reported to pollers as expired.
package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/upikart/upikart/internal/models"
)

// Store is a TTL'd login request store. Get returns false for unknown or
// aged-out tokens; the caller maps that to the expired status.
type Store interface {
	Get(ctx context.Context, token string) (*models.LoginRequest, bool)
	Set(ctx context.Context, req *models.LoginRequest, ttl time.Duration)
	Delete(ctx context.Context, token string)
	Pending(ctx context.Context) []*models.LoginRequest
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Provider {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported approval store provider: %s", cfg.Provider)
	}
}

func cloneRequest(req *models.LoginRequest) *models.LoginRequest {
	if req == nil {
		return nil
	}
	clone := *req
	return &clone
}
