// Package app wires configuration, storage, providers, services, and handlers
// into a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"

	"github.com/upikart/upikart/internal/approval"
	"github.com/upikart/upikart/internal/cache"
	"github.com/upikart/upikart/internal/catalog"
	"github.com/upikart/upikart/internal/config"
	"github.com/upikart/upikart/internal/crypto"
	"github.com/upikart/upikart/internal/db"
	"github.com/upikart/upikart/internal/email"
	"github.com/upikart/upikart/internal/handlers"
	"github.com/upikart/upikart/internal/logging"
	"github.com/upikart/upikart/internal/pricing"
	"github.com/upikart/upikart/internal/services"
	"github.com/upikart/upikart/internal/storage"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	ApprovalStore approval.Store
	Handlers      *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:        cfg.SentryDSN,
			EnableLogs: true,
		}); err != nil {
			return nil, fmt.Errorf("failed to initialize sentry: %w", err)
		}
	}

	logger := newLogger(cfg)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	approvalStore, err := approval.NewStore(startupCtx, approval.Config{
		Provider:              cfg.ApprovalStoreProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize approval store: %w", err)
	}

	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		closeApprovalStore(logger, approvalStore)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	screenshots, err := storage.NewScreenshotStore(cfg.ScreenshotDir, cfg.MaxScreenshotBytes)
	if err != nil {
		closeApprovalStore(logger, approvalStore)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize screenshot store: %w", err)
	}

	emailProvider, err := email.NewProvider(email.Config{
		Provider: cfg.EmailProvider,
		APIKey:   cfg.ResendAPIKey,
		From:     cfg.EmailFrom,
	})
	if err != nil {
		closeApprovalStore(logger, approvalStore)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize email provider: %w", err)
	}

	orderStore := db.NewOrderStore(database)
	verificationStore := db.NewVerificationStore(database)
	returnStore := db.NewReturnStore(database)
	productStore := db.NewProductStore(database)
	categoryStore := db.NewCategoryStore(database)
	offerStore := db.NewOfferStore(database)
	couponStore := db.NewCouponStore(database)
	customerStore := db.NewCustomerStore(database)
	settingStore := db.NewSettingStore(database)

	parser := catalog.NewParser()
	validator := catalog.NewValidator()
	pricer := pricing.NewPricer()
	strict := cfg.StrictTransitions()

	settingsService := services.NewSettingsService(settingStore, cacheProvider, encryptor, logger.With("component", "settings_service"))
	couponService := services.NewCouponService(couponStore, pricer)
	orderService := services.NewOrderService(
		orderStore,
		productStore,
		offerStore,
		customerStore,
		couponService,
		settingsService,
		pricer,
		emailProvider,
		strict,
		logger.With("component", "order_service"),
	)
	verificationService := services.NewVerificationService(
		verificationStore,
		orderStore,
		screenshots,
		cacheProvider,
		emailProvider,
		logger.With("component", "verification_service"),
	)
	returnService := services.NewReturnService(returnStore, orderStore, emailProvider, strict, logger.With("component", "return_service"))
	catalogService := services.NewCatalogService(
		productStore,
		categoryStore,
		offerStore,
		couponStore,
		parser,
		validator,
		logger.With("component", "catalog_service"),
	)
	approvalService := services.NewApprovalService(
		approvalStore,
		cfg.SessionSecret,
		cfg.LoginApprovalTTL,
		cfg.SessionTTL,
		logger.With("component", "approval_service"),
	)
	dashboardService := services.NewDashboardService(orderStore, verificationStore, returnStore, customerStore, productStore)

	h, err := handlers.New(handlers.Dependencies{
		Config:        cfg,
		DB:            database,
		Orders:        orderService,
		Verifications: verificationService,
		Returns:       returnService,
		Catalog:       catalogService,
		Coupons:       couponService,
		Settings:      settingsService,
		Approval:      approvalService,
		Dashboard:     dashboardService,
		Customers:     customerStore,
		Screenshots:   screenshots,
		Logger:        logger,
	})
	if err != nil {
		closeApprovalStore(logger, approvalStore)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		ApprovalStore: approvalStore,
		Handlers:      h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.ApprovalStore != nil {
		closeApprovalStore(a.Logger, a.ApprovalStore)
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Config != nil && a.Config.SentryDSN != "" {
		sentry.Flush(2 * time.Second)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var console slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.LogFormat)) {
	case "json":
		console = slog.NewJSONHandler(os.Stdout, opts)
	default:
		console = tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel})
	}

	if cfg.SentryDSN == "" {
		return slog.New(console)
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	return slog.New(logging.Fanout(console, sentryHandler))
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}

func closeApprovalStore(logger *slog.Logger, store approval.Store) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil && logger != nil {
		logger.Warn("failed to close approval store", "error", err)
	}
}
