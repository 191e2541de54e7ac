package main

// Applies database migrations and optionally imports a catalog seed file.

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/upikart/upikart/internal/catalog"
	"github.com/upikart/upikart/internal/db"
	"github.com/upikart/upikart/internal/services"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of migrating up")
	seed := flag.String("seed", "", "YAML seed file to import after migrating")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	if *down > 0 {
		if err := db.MigrateDown(databaseURL, *down); err != nil {
			logger.Error("rollback failed", "error", err)
			os.Exit(1)
		}
		logger.Info("rolled back migrations", "steps", *down)
		return
	}

	if err := db.Migrate(databaseURL); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	if *seed == "" {
		return
	}

	content, err := os.ReadFile(*seed)
	if err != nil {
		logger.Error("failed to read seed file", "path", *seed, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	catalogService := services.NewCatalogService(
		db.NewProductStore(pool),
		db.NewCategoryStore(pool),
		db.NewOfferStore(pool),
		db.NewCouponStore(pool),
		catalog.NewParser(),
		catalog.NewValidator(),
		logger,
	)

	stats, err := catalogService.ImportSeed(ctx, content)
	if err != nil {
		logger.Error("seed import failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed imported",
		"categories", stats.Categories,
		"products", stats.Products,
		"coupons", stats.Coupons,
		"offers", stats.Offers,
	)
}
