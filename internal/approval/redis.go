package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/upikart/upikart/internal/models"
)

const redisKeyPrefix = "login_request:"

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, connectionString string) (*RedisStore, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis connection string: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (*models.LoginRequest, bool) {
	if s == nil || s.client == nil || token == "" {
		return nil, false
	}

	val, err := s.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) || err != nil {
		return nil, false
	}

	var req models.LoginRequest
	if err := json.Unmarshal(val, &req); err != nil {
		return nil, false
	}
	return &req, true
}

func (s *RedisStore) Set(ctx context.Context, req *models.LoginRequest, ttl time.Duration) {
	if s == nil || s.client == nil || req == nil {
		return
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return
	}
	s.client.Set(ctx, redisKeyPrefix+req.Token, payload, ttl)
}

func (s *RedisStore) Delete(ctx context.Context, token string) {
	if s == nil || s.client == nil {
		return
	}
	s.client.Del(ctx, redisKeyPrefix+token)
}

func (s *RedisStore) Pending(ctx context.Context) []*models.LoginRequest {
	if s == nil || s.client == nil {
		return nil
	}

	var pending []*models.LoginRequest
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		val, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var req models.LoginRequest
		if err := json.Unmarshal(val, &req); err != nil {
			continue
		}
		if req.Status == models.ApprovalPending {
			pending = append(pending, &req)
		}
	}
	return pending
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
