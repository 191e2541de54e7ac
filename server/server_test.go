package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/upikart/upikart/internal/approval"
	"github.com/upikart/upikart/internal/catalog"
	"github.com/upikart/upikart/internal/config"
	"github.com/upikart/upikart/internal/handlers"
	"github.com/upikart/upikart/internal/models"
	"github.com/upikart/upikart/internal/pricing"
	"github.com/upikart/upikart/internal/services"
	"github.com/upikart/upikart/internal/storage"
)

type stubCustomers struct{}

func (stubCustomers) GetByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	return nil, fmt.Errorf("%w: customer %s", models.ErrNotFound, id)
}

func (stubCustomers) List(_ context.Context, _ int) ([]*models.Customer, error) {
	return nil, nil
}

// newTestRouter builds the real route table. The services carry no stores;
// these tests only exercise routing, not handlers.
func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Port:               "0",
		AdminAPIKey:        "test-admin-key-0123456789abcdef",
		SessionSecret:      "0123456789abcdef0123456789abcdef",
		MaxScreenshotBytes: 5 << 20,
		StatusTransitions:  config.TransitionsStrict,
	}

	screenshots, err := storage.NewScreenshotStore(t.TempDir(), cfg.MaxScreenshotBytes)
	if err != nil {
		t.Fatalf("failed to create screenshot store: %v", err)
	}

	pricer := pricing.NewPricer()
	h, err := handlers.New(handlers.Dependencies{
		Config:        cfg,
		Orders:        services.NewOrderService(nil, nil, nil, nil, nil, nil, pricer, nil, true, logger),
		Verifications: services.NewVerificationService(nil, nil, nil, nil, nil, logger),
		Returns:       services.NewReturnService(nil, nil, nil, true, logger),
		Catalog:       services.NewCatalogService(nil, nil, nil, nil, catalog.NewParser(), catalog.NewValidator(), logger),
		Coupons:       services.NewCouponService(nil, pricer),
		Settings:      services.NewSettingsService(nil, nil, nil, logger),
		Approval:      services.NewApprovalService(approval.NewMemoryStore(), cfg.SessionSecret, 10*time.Minute, time.Hour, logger),
		Dashboard:     services.NewDashboardService(nil, nil, nil, nil, nil),
		Customers:     stubCustomers{},
		Screenshots:   screenshots,
		Logger:        logger,
	})
	if err != nil {
		t.Fatalf("failed to build handlers: %v", err)
	}

	s, err := New(cfg, logger, h)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(s.submitLimiter.Close)

	return s.buildRouter()
}

func TestUnknownRouteAnswersEnvelope(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
	want := `{"success":false,"message":"not found"}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestStatusUpdateRoutesUsePatch(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	id := uuid.NewString()

	paths := []string{
		"/api/admin/orders/" + id + "/status",
		"/api/admin/orders/" + id + "/payment-status",
		"/api/admin/returns/" + id + "/status",
	}
	for _, path := range paths {
		var match mux.RouteMatch
		if ok := router.Match(httptest.NewRequest(http.MethodPatch, path, nil), &match); !ok || match.MatchErr != nil {
			t.Fatalf("PATCH %s did not match a route: %v", path, match.MatchErr)
		}

		match = mux.RouteMatch{}
		if router.Match(httptest.NewRequest(http.MethodPut, path, nil), &match) {
			t.Fatalf("PUT %s matched a route", path)
		}
		if !errors.Is(match.MatchErr, mux.ErrMethodMismatch) {
			t.Fatalf("PUT %s match error = %v, want method mismatch", path, match.MatchErr)
		}
	}
}
