package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/upikart/upikart/internal/config"
	"github.com/upikart/upikart/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server

	// submitLimiter throttles the anonymous endpoints that create state:
	// checkout, payment proof submission, and login requests.
	submitLimiter *handlers.RateLimiter
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:           cfg,
		logger:        logger,
		handlers:      h,
		submitLimiter: handlers.NewRateLimiter(1, 5),
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.submitLimiter.Close()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers
	limited := s.submitLimiter.Middleware

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)
	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	// Public storefront API. Writes go through the maintenance gate.
	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.MaintenanceGate)
	api.HandleFunc("/products", h.ListProducts).Methods("GET").Name("api.products")
	api.HandleFunc("/products/{id}", h.GetProduct).Methods("GET").Name("api.products.get")
	api.HandleFunc("/categories", h.ListCategories).Methods("GET").Name("api.categories")
	api.HandleFunc("/offers", h.ListOffers).Methods("GET").Name("api.offers")
	api.HandleFunc("/coupons/validate", h.ValidateCoupon).Methods("POST").Name("api.coupons.validate")
	api.Handle("/orders", limited(http.HandlerFunc(h.Checkout))).Methods("POST").Name("api.orders.create")
	api.HandleFunc("/orders/track/{number}", h.TrackOrder).Methods("GET").Name("api.orders.track")
	api.Handle("/payments/verify", limited(http.HandlerFunc(h.SubmitVerification))).Methods("POST").Name("api.payments.verify")
	api.HandleFunc("/returns", h.RequestReturn).Methods("POST").Name("api.returns.create")

	// Login approval flow. Requesting and polling are unauthenticated; the
	// decision endpoints live under the admin router.
	r.Handle("/api/auth/login", limited(http.HandlerFunc(h.RequestLogin))).Methods("POST").Name("auth.login")
	r.HandleFunc("/api/auth/login/{token}", h.CheckLogin).Methods("GET").Name("auth.login.check")

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(h.RequireAdmin)
	admin.HandleFunc("/dashboard", h.DashboardStats).Methods("GET").Name("admin.dashboard")

	admin.HandleFunc("/login-requests", h.ListLoginRequests).Methods("GET").Name("admin.login_requests")
	admin.HandleFunc("/login-requests/{token}/approve", h.ApproveLogin).Methods("POST").Name("admin.login_requests.approve")
	admin.HandleFunc("/login-requests/{token}/reject", h.RejectLogin).Methods("POST").Name("admin.login_requests.reject")

	admin.HandleFunc("/orders", h.ListOrders).Methods("GET").Name("admin.orders")
	admin.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET").Name("admin.orders.get")
	admin.HandleFunc("/orders/{id}/status", h.UpdateOrderStatus).Methods("PATCH").Name("admin.orders.status")
	admin.HandleFunc("/orders/{id}/payment-status", h.UpdateOrderPaymentStatus).Methods("PATCH").Name("admin.orders.payment_status")

	admin.HandleFunc("/verifications", h.ListVerifications).Methods("GET").Name("admin.verifications")
	admin.HandleFunc("/verifications/{id}", h.GetVerification).Methods("GET").Name("admin.verifications.get")
	admin.HandleFunc("/verifications/{id}/screenshot", h.VerificationScreenshot).Methods("GET").Name("admin.verifications.screenshot")
	admin.HandleFunc("/verifications/{id}/verify", h.VerifyPayment).Methods("POST").Name("admin.verifications.verify")
	admin.HandleFunc("/verifications/{id}/reject", h.RejectPayment).Methods("POST").Name("admin.verifications.reject")

	admin.HandleFunc("/returns", h.ListReturns).Methods("GET").Name("admin.returns")
	admin.HandleFunc("/returns/{id}", h.GetReturn).Methods("GET").Name("admin.returns.get")
	admin.HandleFunc("/returns/{id}/status", h.UpdateReturnStatus).Methods("PATCH").Name("admin.returns.status")

	admin.HandleFunc("/products", h.ListProducts).Methods("GET").Name("admin.products")
	admin.HandleFunc("/products", h.CreateProduct).Methods("POST").Name("admin.products.create")
	admin.HandleFunc("/products/{id}", h.GetProduct).Methods("GET").Name("admin.products.get")
	admin.HandleFunc("/products/{id}", h.UpdateProduct).Methods("PUT").Name("admin.products.update")
	admin.HandleFunc("/products/{id}", h.DeleteProduct).Methods("DELETE").Name("admin.products.delete")

	admin.HandleFunc("/categories", h.ListCategories).Methods("GET").Name("admin.categories")
	admin.HandleFunc("/categories", h.CreateCategory).Methods("POST").Name("admin.categories.create")
	admin.HandleFunc("/categories/{id}", h.UpdateCategory).Methods("PUT").Name("admin.categories.update")
	admin.HandleFunc("/categories/{id}", h.DeleteCategory).Methods("DELETE").Name("admin.categories.delete")

	admin.HandleFunc("/offers", h.ListOffers).Methods("GET").Name("admin.offers")
	admin.HandleFunc("/offers", h.CreateOffer).Methods("POST").Name("admin.offers.create")
	admin.HandleFunc("/offers/{id}", h.UpdateOffer).Methods("PUT").Name("admin.offers.update")
	admin.HandleFunc("/offers/{id}", h.DeleteOffer).Methods("DELETE").Name("admin.offers.delete")

	admin.HandleFunc("/coupons", h.ListCoupons).Methods("GET").Name("admin.coupons")
	admin.HandleFunc("/coupons", h.CreateCoupon).Methods("POST").Name("admin.coupons.create")
	admin.HandleFunc("/coupons/{id}", h.UpdateCoupon).Methods("PUT").Name("admin.coupons.update")
	admin.HandleFunc("/coupons/{id}", h.DeleteCoupon).Methods("DELETE").Name("admin.coupons.delete")

	admin.HandleFunc("/customers", h.ListCustomers).Methods("GET").Name("admin.customers")
	admin.HandleFunc("/customers/{id}", h.GetCustomer).Methods("GET").Name("admin.customers.get")

	admin.HandleFunc("/settings", h.ListSettings).Methods("GET").Name("admin.settings")
	admin.HandleFunc("/settings", h.PutSetting).Methods("PUT").Name("admin.settings.put")

	admin.HandleFunc("/seed/import", h.ImportSeed).Methods("POST").Name("admin.seed.import")

	return r
}
