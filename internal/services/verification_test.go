package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/upikart/upikart/internal/cache"
	"github.com/upikart/upikart/internal/email"
	"github.com/upikart/upikart/internal/models"
)

type fakeVerificationStore struct {
	records map[uuid.UUID]*models.PaymentVerification
	orders  map[uuid.UUID]*models.Order
}

func newFakeVerificationStore() *fakeVerificationStore {
	return &fakeVerificationStore{
		records: make(map[uuid.UUID]*models.PaymentVerification),
		orders:  make(map[uuid.UUID]*models.Order),
	}
}

func (f *fakeVerificationStore) Create(_ context.Context, v *models.PaymentVerification) error {
	order, ok := f.orders[v.OrderID]
	if !ok {
		return fmt.Errorf("%w: order %s", models.ErrNotFound, v.OrderID)
	}
	switch order.PaymentStatus {
	case models.PaymentPendingVerification:
	case models.PaymentFailed:
		order.PaymentStatus = models.PaymentPendingVerification
	default:
		return fmt.Errorf("%w: order payment is %s", models.ErrInvalidStateTransition, order.PaymentStatus)
	}
	for _, existing := range f.records {
		if existing.OrderID == v.OrderID && existing.Status == models.VerificationPending {
			return fmt.Errorf("%w: a pending verification already exists for this order", models.ErrInvalidStateTransition)
		}
	}
	clone := *v
	clone.Status = models.VerificationPending
	clone.SubmittedAt = time.Now()
	f.records[v.ID] = &clone
	v.Status = models.VerificationPending
	return nil
}

func (f *fakeVerificationStore) GetByID(_ context.Context, id uuid.UUID) (*models.PaymentVerification, error) {
	v, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: verification %s", models.ErrNotFound, id)
	}
	clone := *v
	return &clone, nil
}

func (f *fakeVerificationStore) ListByStatus(_ context.Context, status models.VerificationStatus) ([]*models.PaymentVerification, error) {
	var out []*models.PaymentVerification
	for _, v := range f.records {
		if v.Status == status {
			clone := *v
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeVerificationStore) MarkVerified(_ context.Context, id uuid.UUID, adminID, notes string) (*models.PaymentVerification, error) {
	v, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: verification %s", models.ErrNotFound, id)
	}
	if v.Status != models.VerificationPending {
		return nil, fmt.Errorf("%w: verification is not pending", models.ErrInvalidStateTransition)
	}
	v.Status = models.VerificationVerified
	v.AdminNotes = notes
	v.VerifiedBy = adminID
	v.VerifiedAt = time.Now()
	f.orders[v.OrderID].PaymentStatus = models.PaymentPaid
	clone := *v
	return &clone, nil
}

func (f *fakeVerificationStore) MarkRejected(_ context.Context, id uuid.UUID, adminID, reason string) (*models.PaymentVerification, error) {
	v, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: verification %s", models.ErrNotFound, id)
	}
	if v.Status != models.VerificationPending {
		return nil, fmt.Errorf("%w: verification is not pending", models.ErrInvalidStateTransition)
	}
	v.Status = models.VerificationRejected
	v.RejectionReason = reason
	v.VerifiedBy = adminID
	v.VerifiedAt = time.Now()
	f.orders[v.OrderID].PaymentStatus = models.PaymentFailed
	clone := *v
	return &clone, nil
}

func (f *fakeVerificationStore) GetOrderByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", models.ErrNotFound, id)
	}
	clone := *order
	return &clone, nil
}

type fakeOrderReader struct {
	store *fakeVerificationStore
}

func (f fakeOrderReader) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.store.GetOrderByID(ctx, id)
}

func (f fakeOrderReader) GetByNumber(_ context.Context, orderNumber string) (*models.Order, error) {
	for _, order := range f.store.orders {
		if order.OrderNumber == orderNumber {
			clone := *order
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: order %s", models.ErrNotFound, orderNumber)
}

type fakeScreenshots struct{ saved int }

func (f *fakeScreenshots) Save(r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.saved++
	return uuid.NewString() + ".png", nil
}

type fakeEmailProvider struct {
	sent []*email.Email
	err  error
}

func (f *fakeEmailProvider) SendEmail(_ context.Context, e *email.Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, e)
	return nil
}

func newVerificationFixture(t *testing.T, emailErr error) (*VerificationService, *fakeVerificationStore, *fakeEmailProvider, *models.Order) {
	t.Helper()

	store := newFakeVerificationStore()
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-20260815-AB12CD",
		CustomerName:  "Asha Patel",
		CustomerEmail: "asha@example.com",
		PaymentStatus: models.PaymentPendingVerification,
		TotalPaise:    149900,
	}
	store.orders[order.ID] = order

	provider := &fakeEmailProvider{err: emailErr}
	cacheProvider, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(func() { cacheProvider.Close() })

	svc := NewVerificationService(store, fakeOrderReader{store}, &fakeScreenshots{}, cacheProvider, provider, nil)
	return svc, store, provider, order
}

func submitPending(t *testing.T, svc *VerificationService, order *models.Order) *models.PaymentVerification {
	t.Helper()
	v, err := svc.Submit(context.Background(), SubmitVerificationInput{
		OrderNumber:   order.OrderNumber,
		TransactionID: "UPI123456789",
		Screenshot:    strings.NewReader("fake image bytes"),
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return v
}

func TestSubmit_CreatesPendingRecord(t *testing.T) {
	t.Parallel()

	svc, store, _, order := newVerificationFixture(t, nil)
	v := submitPending(t, svc, order)

	if v.Status != models.VerificationPending {
		t.Fatalf("expected pending, got %s", v.Status)
	}
	if v.AmountPaise != order.TotalPaise {
		t.Fatalf("expected amount %d from order, got %d", order.TotalPaise, v.AmountPaise)
	}
	if v.CustomerEmail != order.CustomerEmail {
		t.Fatalf("expected customer email backfilled from order, got %q", v.CustomerEmail)
	}
	if store.orders[order.ID].PaymentStatus != models.PaymentPendingVerification {
		t.Fatalf("submit must not change order payment status, got %s", store.orders[order.ID].PaymentStatus)
	}
}

func TestSubmit_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _, order := newVerificationFixture(t, nil)

	cases := []struct {
		name  string
		input SubmitVerificationInput
	}{
		{"missing order number", SubmitVerificationInput{TransactionID: "UPI1", Screenshot: strings.NewReader("x")}},
		{"missing transaction id", SubmitVerificationInput{OrderNumber: order.OrderNumber, Screenshot: strings.NewReader("x")}},
		{"missing screenshot", SubmitVerificationInput{OrderNumber: order.OrderNumber, TransactionID: "UPI1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Submit(context.Background(), tc.input); !errors.Is(err, models.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSubmit_DuplicatePendingRejected(t *testing.T) {
	t.Parallel()

	svc, _, _, order := newVerificationFixture(t, nil)
	submitPending(t, svc, order)

	_, err := svc.Submit(context.Background(), SubmitVerificationInput{
		OrderNumber:   order.OrderNumber,
		TransactionID: "UPI-SECOND",
		Screenshot:    strings.NewReader("x"),
	})
	if !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid state transition for duplicate pending, got %v", err)
	}
}

func TestVerify_CascadesAndNotifies(t *testing.T) {
	t.Parallel()

	svc, store, provider, order := newVerificationFixture(t, nil)
	v := submitPending(t, svc, order)

	decision, err := svc.Verify(context.Background(), v.ID, "admin@upikart", "checked bank statement")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if decision.Verification.Status != models.VerificationVerified {
		t.Fatalf("expected verified, got %s", decision.Verification.Status)
	}
	if store.orders[order.ID].PaymentStatus != models.PaymentPaid {
		t.Fatalf("expected order paid, got %s", store.orders[order.ID].PaymentStatus)
	}
	if !decision.EmailSent || decision.EmailError != "" {
		t.Fatalf("expected email sent, got sent=%v error=%q", decision.EmailSent, decision.EmailError)
	}
	if len(provider.sent) != 1 || provider.sent[0].To != order.CustomerEmail {
		t.Fatalf("expected one email to %s, got %+v", order.CustomerEmail, provider.sent)
	}
	if !strings.Contains(provider.sent[0].Text, order.OrderNumber) {
		t.Fatalf("expected email body to reference the order number")
	}
}

func TestVerify_EmailFailureDoesNotRevertDecision(t *testing.T) {
	t.Parallel()

	svc, store, _, order := newVerificationFixture(t, errors.New("smtp unreachable"))
	v := submitPending(t, svc, order)

	decision, err := svc.Verify(context.Background(), v.ID, "admin@upikart", "")
	if err != nil {
		t.Fatalf("verify must not fail on email error: %v", err)
	}
	if decision.EmailSent {
		t.Fatal("expected EmailSent=false")
	}
	if decision.EmailError == "" {
		t.Fatal("expected EmailError to carry the send failure")
	}
	if store.orders[order.ID].PaymentStatus != models.PaymentPaid {
		t.Fatalf("decision must stand despite email failure, got %s", store.orders[order.ID].PaymentStatus)
	}
}

func TestVerify_EmailSentAtMostOnce(t *testing.T) {
	t.Parallel()

	svc, _, provider, order := newVerificationFixture(t, nil)
	v := submitPending(t, svc, order)

	if err := svc.cache.Set(context.Background(), cache.EmailSentKey(v.ID.String()), "1", time.Minute); err != nil {
		t.Fatalf("failed to seed sent marker: %v", err)
	}

	decision, err := svc.Verify(context.Background(), v.ID, "admin@upikart", "")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !decision.EmailSent {
		t.Fatal("expected EmailSent=true for an already-notified verification")
	}
	if len(provider.sent) != 0 {
		t.Fatalf("expected no duplicate send, got %d", len(provider.sent))
	}
}

func TestVerify_ConcurrentDecisionLosesRace(t *testing.T) {
	t.Parallel()

	svc, _, _, order := newVerificationFixture(t, nil)
	v := submitPending(t, svc, order)

	if _, err := svc.Verify(context.Background(), v.ID, "first-admin", ""); err != nil {
		t.Fatalf("first decision failed: %v", err)
	}
	if _, err := svc.Reject(context.Background(), v.ID, "second-admin", "duplicate txn"); !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("expected second decision to lose with invalid state transition, got %v", err)
	}
}

func TestReject_RequiresReason(t *testing.T) {
	t.Parallel()

	svc, _, _, order := newVerificationFixture(t, nil)
	v := submitPending(t, svc, order)

	if _, err := svc.Reject(context.Background(), v.ID, "admin@upikart", "  "); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for empty reason, got %v", err)
	}
}

func TestReject_ReopensOrderAndAllowsResubmission(t *testing.T) {
	t.Parallel()

	svc, store, provider, order := newVerificationFixture(t, nil)
	v := submitPending(t, svc, order)

	decision, err := svc.Reject(context.Background(), v.ID, "admin@upikart", "amount mismatch")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if decision.Verification.RejectionReason != "amount mismatch" {
		t.Fatalf("expected reason recorded, got %q", decision.Verification.RejectionReason)
	}
	if store.orders[order.ID].PaymentStatus != models.PaymentFailed {
		t.Fatalf("expected order payment failed, got %s", store.orders[order.ID].PaymentStatus)
	}
	if len(provider.sent) != 1 || !strings.Contains(provider.sent[0].Text, "amount mismatch") {
		t.Fatal("expected rejection email carrying the reason")
	}

	// Resubmission reopens the order's payment.
	v2 := submitPending(t, svc, order)
	if v2.Status != models.VerificationPending {
		t.Fatalf("expected resubmission to be pending, got %s", v2.Status)
	}
	if store.orders[order.ID].PaymentStatus != models.PaymentPendingVerification {
		t.Fatalf("expected order reopened, got %s", store.orders[order.ID].PaymentStatus)
	}
}

func TestFormatPaise(t *testing.T) {
	t.Parallel()

	cases := []struct {
		paise int64
		want  string
	}{
		{0, "₹0.00"},
		{5, "₹0.05"},
		{149900, "₹1499.00"},
		{123456, "₹1234.56"},
		{-250, "-₹2.50"},
	}
	for _, tc := range cases {
		if got := FormatPaise(tc.paise); got != tc.want {
			t.Fatalf("FormatPaise(%d) = %q, want %q", tc.paise, got, tc.want)
		}
	}
}
