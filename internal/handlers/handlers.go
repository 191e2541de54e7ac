// Package handlers provides the HTTP surface: the public storefront API and
// the key-protected admin API. Responses use a uniform JSON envelope.
package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upikart/upikart/internal/config"
	"github.com/upikart/upikart/internal/logging"
	"github.com/upikart/upikart/internal/services"
	"github.com/upikart/upikart/internal/storage"
)

// Handlers provides HTTP request handlers for the storefront and admin APIs.
type Handlers struct {
	config        *config.Config
	db            *pgxpool.Pool
	orders        *services.OrderService
	verifications *services.VerificationService
	returns       *services.ReturnService
	catalog       *services.CatalogService
	coupons       *services.CouponService
	settings      *services.SettingsService
	approval      *services.ApprovalService
	dashboard     *services.DashboardService
	customers     customerDirectory
	screenshots   *storage.ScreenshotStore
	logger        *slog.Logger
}

type Dependencies struct {
	Config        *config.Config
	DB            *pgxpool.Pool
	Orders        *services.OrderService
	Verifications *services.VerificationService
	Returns       *services.ReturnService
	Catalog       *services.CatalogService
	Coupons       *services.CouponService
	Settings      *services.SettingsService
	Approval      *services.ApprovalService
	Dashboard     *services.DashboardService
	Customers     customerDirectory
	Screenshots   *storage.ScreenshotStore
	Logger        *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("handlers dependencies: order service is required")
	}
	if deps.Verifications == nil {
		return nil, fmt.Errorf("handlers dependencies: verification service is required")
	}
	if deps.Returns == nil {
		return nil, fmt.Errorf("handlers dependencies: return service is required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("handlers dependencies: catalog service is required")
	}
	if deps.Coupons == nil {
		return nil, fmt.Errorf("handlers dependencies: coupon service is required")
	}
	if deps.Settings == nil {
		return nil, fmt.Errorf("handlers dependencies: settings service is required")
	}
	if deps.Approval == nil {
		return nil, fmt.Errorf("handlers dependencies: approval service is required")
	}
	if deps.Dashboard == nil {
		return nil, fmt.Errorf("handlers dependencies: dashboard service is required")
	}
	if deps.Customers == nil {
		return nil, fmt.Errorf("handlers dependencies: customer store is required")
	}
	if deps.Screenshots == nil {
		return nil, fmt.Errorf("handlers dependencies: screenshot store is required")
	}

	return &Handlers{
		config:        deps.Config,
		db:            deps.DB,
		orders:        deps.Orders,
		verifications: deps.Verifications,
		returns:       deps.Returns,
		catalog:       deps.Catalog,
		coupons:       deps.Coupons,
		settings:      deps.Settings,
		approval:      deps.Approval,
		dashboard:     deps.Dashboard,
		customers:     deps.Customers,
		screenshots:   deps.Screenshots,
		logger:        logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.loggerFromContext(ctx).Error("database health check failed", "error", err)
			respondMessage(w, http.StatusServiceUnavailable, "database unhealthy")
			return
		}
	}
	respondData(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// NotFound answers unmatched routes with the standard response envelope.
func (h *Handlers) NotFound(w http.ResponseWriter, _ *http.Request) {
	respondMessage(w, http.StatusNotFound, "not found")
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}
