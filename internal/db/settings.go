package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upikart/upikart/internal/models"
)

type SettingStore struct {
	pool *pgxpool.Pool
}

func NewSettingStore(pool *pgxpool.Pool) *SettingStore {
	return &SettingStore{pool: pool}
}

func (s *SettingStore) Get(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := s.pool.QueryRow(ctx, `
		SELECT key, value, secret, updated_at FROM system_settings WHERE key = $1
	`, key).Scan(&setting.Key, &setting.Value, &setting.Secret, &setting.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: setting %s", models.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan setting: %w", err)
	}
	return &setting, nil
}

func (s *SettingStore) Set(ctx context.Context, setting *models.Setting) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO system_settings (key, value, secret, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, secret = EXCLUDED.secret, updated_at = NOW()
	`, setting.Key, setting.Value, setting.Secret)
	if err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}

func (s *SettingStore) All(ctx context.Context) ([]*models.Setting, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value, secret, updated_at FROM system_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []*models.Setting
	for rows.Next() {
		var setting models.Setting
		if err := rows.Scan(&setting.Key, &setting.Value, &setting.Secret, &setting.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, &setting)
	}
	return settings, rows.Err()
}
