// Package services implements the business operations behind the HTTP
// handlers. Services accept store interfaces so tests can substitute fakes.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/upikart/upikart/internal/cache"
	"github.com/upikart/upikart/internal/crypto"
	"github.com/upikart/upikart/internal/logging"
	"github.com/upikart/upikart/internal/models"
)

const settingCacheTTL = time.Minute

// SecretMask replaces secret setting values in listings.
const SecretMask = "********"

type settingStore interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Set(ctx context.Context, setting *models.Setting) error
	All(ctx context.Context) ([]*models.Setting, error)
}

// SettingsService reads and writes system settings. Non-secret values are
// cached briefly; secret values are encrypted at rest and never cached.
type SettingsService struct {
	store     settingStore
	cache     cache.Provider
	encryptor crypto.Encryptor
	logger    *slog.Logger
}

func NewSettingsService(store settingStore, cacheProvider cache.Provider, encryptor crypto.Encryptor, logger *slog.Logger) *SettingsService {
	return &SettingsService{store: store, cache: cacheProvider, encryptor: encryptor, logger: logger}
}

func (s *SettingsService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Get returns the plaintext value for a setting key.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	if s.cache != nil {
		if value, err := s.cache.Get(ctx, cache.SettingKey(key)); err == nil {
			return value, nil
		}
	}

	setting, err := s.store.Get(ctx, key)
	if err != nil {
		return "", err
	}

	value := setting.Value
	if setting.Secret {
		value, err = s.encryptor.Decrypt(setting.Value)
		if err != nil {
			return "", fmt.Errorf("failed to decrypt setting %s: %w", key, err)
		}
		return value, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.SettingKey(key), value, settingCacheTTL); err != nil {
			s.loggerFromContext(ctx).Warn("failed to cache setting", "key", key, "error", err)
		}
	}
	return value, nil
}

// Set stores a setting, encrypting secret values, and drops any cached copy.
func (s *SettingsService) Set(ctx context.Context, key, value string, secret bool) error {
	if key == "" {
		return models.Validationf("setting key is required")
	}

	stored := value
	if secret {
		encrypted, err := s.encryptor.Encrypt(value)
		if err != nil {
			return fmt.Errorf("failed to encrypt setting %s: %w", key, err)
		}
		stored = encrypted
	}

	if err := s.store.Set(ctx, &models.Setting{Key: key, Value: stored, Secret: secret}); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.SettingKey(key)); err != nil {
			s.loggerFromContext(ctx).Warn("failed to invalidate cached setting", "key", key, "error", err)
		}
	}
	return nil
}

// All lists every setting with secret values masked.
func (s *SettingsService) All(ctx context.Context) ([]*models.Setting, error) {
	settings, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, setting := range settings {
		if setting.Secret {
			setting.Value = SecretMask
		}
	}
	return settings, nil
}

// MaintenanceMode reports whether the storefront is closed to checkouts.
// Missing or unparseable values read as off.
func (s *SettingsService) MaintenanceMode(ctx context.Context) bool {
	value, err := s.Get(ctx, models.SettingMaintenanceMode)
	if err != nil {
		return false
	}
	on, _ := strconv.ParseBool(value)
	return on
}

// TaxRateBasisPoints returns the configured tax rate, defaulting to zero.
func (s *SettingsService) TaxRateBasisPoints(ctx context.Context) int64 {
	return s.int64Setting(ctx, models.SettingTaxRateBasisPoints)
}

// ShippingFlatRatePaise returns the flat shipping charge, defaulting to zero.
func (s *SettingsService) ShippingFlatRatePaise(ctx context.Context) int64 {
	return s.int64Setting(ctx, models.SettingShippingFlatRatePaise)
}

// MinimumBulkOrderPaise returns the subtotal floor for bulk-priced orders,
// defaulting to zero (no floor).
func (s *SettingsService) MinimumBulkOrderPaise(ctx context.Context) int64 {
	return s.int64Setting(ctx, models.SettingMinimumBulkOrderPaise)
}

func (s *SettingsService) int64Setting(ctx context.Context, key string) int64 {
	value, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.loggerFromContext(ctx).Warn("failed to read setting", "key", key, "error", err)
		}
		return 0
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		s.loggerFromContext(ctx).Warn("setting is not an integer", "key", key, "value", value)
		return 0
	}
	return n
}
