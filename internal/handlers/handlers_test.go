package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/upikart/upikart/internal/approval"
	"github.com/upikart/upikart/internal/cache"
	"github.com/upikart/upikart/internal/catalog"
	"github.com/upikart/upikart/internal/config"
	"github.com/upikart/upikart/internal/crypto"
	"github.com/upikart/upikart/internal/email"
	"github.com/upikart/upikart/internal/models"
	"github.com/upikart/upikart/internal/pricing"
	"github.com/upikart/upikart/internal/services"
	"github.com/upikart/upikart/internal/storage"
)

const (
	testAdminKey      = "test-admin-key-0123456789abcdef"
	testSessionSecret = "0123456789abcdef0123456789abcdef"
	testEncryptionKey = "abcdef0123456789abcdef0123456789"
)

// pngBytes is a minimal PNG header, enough for content sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n" + "0000000000000000")

type fakeVerificationStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.PaymentVerification
}

func newFakeVerificationStore() *fakeVerificationStore {
	return &fakeVerificationStore{records: make(map[uuid.UUID]*models.PaymentVerification)}
}

func (s *fakeVerificationStore) Create(_ context.Context, v *models.PaymentVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.OrderID == v.OrderID && existing.Status == models.VerificationPending {
			return fmt.Errorf("%w: order already has a pending verification", models.ErrInvalidStateTransition)
		}
	}
	v.ID = uuid.New()
	v.Status = models.VerificationPending
	v.SubmittedAt = time.Now()
	s.records[v.ID] = v
	return nil
}

func (s *fakeVerificationStore) GetByID(_ context.Context, id uuid.UUID) (*models.PaymentVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: verification %s", models.ErrNotFound, id)
	}
	clone := *v
	return &clone, nil
}

func (s *fakeVerificationStore) ListByStatus(_ context.Context, status models.VerificationStatus) ([]*models.PaymentVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.PaymentVerification
	for _, v := range s.records {
		if v.Status == status {
			clone := *v
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *fakeVerificationStore) MarkVerified(_ context.Context, id uuid.UUID, adminID, notes string) (*models.PaymentVerification, error) {
	return s.decide(id, models.VerificationVerified, adminID, notes, "")
}

func (s *fakeVerificationStore) MarkRejected(_ context.Context, id uuid.UUID, adminID, reason string) (*models.PaymentVerification, error) {
	return s.decide(id, models.VerificationRejected, adminID, "", reason)
}

func (s *fakeVerificationStore) decide(id uuid.UUID, to models.VerificationStatus, adminID, notes, reason string) (*models.PaymentVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: verification %s", models.ErrNotFound, id)
	}
	if v.Status != models.VerificationPending {
		return nil, fmt.Errorf("%w: verification already %s", models.ErrInvalidStateTransition, v.Status)
	}
	v.Status = to
	v.VerifiedBy = adminID
	v.VerifiedAt = time.Now()
	v.AdminNotes = notes
	v.RejectionReason = reason
	clone := *v
	return &clone, nil
}

func (s *fakeVerificationStore) CountPending(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, v := range s.records {
		if v.Status == models.VerificationPending {
			n++
		}
	}
	return n, nil
}

type fakeOrderDirectory struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
}

func (s *fakeOrderDirectory) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", models.ErrNotFound, id)
	}
	clone := *order
	return &clone, nil
}

func (s *fakeOrderDirectory) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.OrderNumber == number {
			clone := *order
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: order %s", models.ErrNotFound, number)
}

type noopEmail struct{}

func (noopEmail) SendEmail(_ context.Context, _ *email.Email) error { return nil }

type fakeSettingStore struct {
	mu     sync.Mutex
	values map[string]*models.Setting
}

func (s *fakeSettingStore) Get(_ context.Context, key string) (*models.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setting, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: setting %s", models.ErrNotFound, key)
	}
	clone := *setting
	return &clone, nil
}

func (s *fakeSettingStore) Set(_ context.Context, setting *models.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *setting
	s.values[setting.Key] = &clone
	return nil
}

func (s *fakeSettingStore) All(_ context.Context) ([]*models.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Setting
	for _, setting := range s.values {
		clone := *setting
		out = append(out, &clone)
	}
	return out, nil
}

type fakeCustomerDirectory struct{}

func (fakeCustomerDirectory) GetByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	return nil, fmt.Errorf("%w: customer %s", models.ErrNotFound, id)
}

func (fakeCustomerDirectory) List(_ context.Context, _ int) ([]*models.Customer, error) {
	return nil, nil
}

type testEnv struct {
	handlers      *Handlers
	verifications *fakeVerificationStore
	orders        *fakeOrderDirectory
	settings      *fakeSettingStore
	approvals     *services.ApprovalService
	order         *models.Order
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{
		Port:               "0",
		AdminAPIKey:        testAdminKey,
		SessionSecret:      testSessionSecret,
		MaxScreenshotBytes: 5 << 20,
		StatusTransitions:  config.TransitionsStrict,
	}

	screenshots, err := storage.NewScreenshotStore(t.TempDir(), cfg.MaxScreenshotBytes)
	if err != nil {
		t.Fatalf("failed to create screenshot store: %v", err)
	}

	memCache, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(func() { _ = memCache.Close() })

	encryptor, err := crypto.NewEncryptor(testEncryptionKey)
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}

	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-20260815-AB12CD",
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPendingVerification,
		TotalPaise:    149900,
	}

	verifications := newFakeVerificationStore()
	orders := &fakeOrderDirectory{orders: map[uuid.UUID]*models.Order{order.ID: order}}
	settings := &fakeSettingStore{values: make(map[string]*models.Setting)}

	verificationService := services.NewVerificationService(
		verifications, orders, screenshots, memCache, noopEmail{}, logger)
	settingsService := services.NewSettingsService(settings, memCache, encryptor, logger)
	approvalService := services.NewApprovalService(
		approval.NewMemoryStore(), testSessionSecret, 10*time.Minute, time.Hour, logger)
	pricer := pricing.NewPricer()

	h, err := New(Dependencies{
		Config:        cfg,
		Orders:        services.NewOrderService(nil, nil, nil, nil, nil, settingsService, pricer, nil, true, logger),
		Verifications: verificationService,
		Returns:       services.NewReturnService(nil, nil, nil, true, logger),
		Catalog:       services.NewCatalogService(nil, nil, nil, nil, catalog.NewParser(), catalog.NewValidator(), logger),
		Coupons:       services.NewCouponService(nil, pricer),
		Settings:      settingsService,
		Approval:      approvalService,
		Dashboard:     services.NewDashboardService(nil, verifications, nil, nil, nil),
		Customers:     fakeCustomerDirectory{},
		Screenshots:   screenshots,
		Logger:        logger,
	})
	if err != nil {
		t.Fatalf("failed to build handlers: %v", err)
	}

	return &testEnv{
		handlers:      h,
		verifications: verifications,
		orders:        orders,
		settings:      settings,
		approvals:     approvalService,
		order:         order,
	}
}

// router mirrors the server's route shapes so path variables resolve.
func (env *testEnv) router() *mux.Router {
	h := env.handlers

	r := mux.NewRouter()
	r.HandleFunc("/api/payments/verify", h.SubmitVerification).Methods("POST")
	r.HandleFunc("/api/auth/login", h.RequestLogin).Methods("POST")
	r.HandleFunc("/api/auth/login/{token}", h.CheckLogin).Methods("GET")

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(h.RequireAdmin)
	admin.HandleFunc("/login-requests", h.ListLoginRequests).Methods("GET")
	admin.HandleFunc("/login-requests/{token}/approve", h.ApproveLogin).Methods("POST")
	admin.HandleFunc("/login-requests/{token}/reject", h.RejectLogin).Methods("POST")
	admin.HandleFunc("/verifications", h.ListVerifications).Methods("GET")
	admin.HandleFunc("/verifications/{id}", h.GetVerification).Methods("GET")
	admin.HandleFunc("/verifications/{id}/screenshot", h.VerificationScreenshot).Methods("GET")
	admin.HandleFunc("/verifications/{id}/verify", h.VerifyPayment).Methods("POST")
	admin.HandleFunc("/verifications/{id}/reject", h.RejectPayment).Methods("POST")
	admin.HandleFunc("/settings", h.ListSettings).Methods("GET")
	admin.HandleFunc("/settings", h.PutSetting).Methods("PUT")
	return r
}

func decodeEnvelope(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response envelope: %v", err)
	}
	return env
}
