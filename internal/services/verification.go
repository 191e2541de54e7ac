package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/upikart/upikart/internal/cache"
	"github.com/upikart/upikart/internal/email"
	"github.com/upikart/upikart/internal/logging"
	"github.com/upikart/upikart/internal/models"
	"github.com/upikart/upikart/internal/observability"
)

// emailSentTTL bounds how long a decision notification is remembered as sent.
const emailSentTTL = 24 * time.Hour

type verificationStore interface {
	Create(ctx context.Context, v *models.PaymentVerification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentVerification, error)
	ListByStatus(ctx context.Context, status models.VerificationStatus) ([]*models.PaymentVerification, error)
	MarkVerified(ctx context.Context, id uuid.UUID, adminID, notes string) (*models.PaymentVerification, error)
	MarkRejected(ctx context.Context, id uuid.UUID, adminID, reason string) (*models.PaymentVerification, error)
}

type orderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
}

type screenshotSaver interface {
	Save(r io.Reader) (string, error)
}

// VerificationService runs the manual payment verification workflow: customers
// submit a UPI transaction reference with a screenshot, admins verify or
// reject, and the decision cascades onto the order's payment status. Customer
// notification is best-effort and never blocks or reverts a committed
// decision.
type VerificationService struct {
	verifications verificationStore
	orders        orderReader
	screenshots   screenshotSaver
	cache         cache.Provider
	email         email.Provider
	logger        *slog.Logger
}

func NewVerificationService(
	verifications verificationStore,
	orders orderReader,
	screenshots screenshotSaver,
	cacheProvider cache.Provider,
	emailProvider email.Provider,
	logger *slog.Logger,
) *VerificationService {
	return &VerificationService{
		verifications: verifications,
		orders:        orders,
		screenshots:   screenshots,
		cache:         cacheProvider,
		email:         emailProvider,
		logger:        logger,
	}
}

func (s *VerificationService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type SubmitVerificationInput struct {
	OrderNumber   string
	TransactionID string
	PaymentMethod string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Screenshot    io.Reader
}

// Submit records a customer's payment claim as a pending verification. The
// order must be awaiting payment; a rejected earlier submission is allowed and
// reopens the order's payment.
func (s *VerificationService) Submit(ctx context.Context, input SubmitVerificationInput) (*models.PaymentVerification, error) {
	if strings.TrimSpace(input.OrderNumber) == "" {
		return nil, models.Validationf("order number is required")
	}
	if strings.TrimSpace(input.TransactionID) == "" {
		return nil, models.Validationf("transaction id is required")
	}
	if input.Screenshot == nil {
		return nil, models.Validationf("screenshot is required")
	}

	order, err := s.orders.GetByNumber(ctx, strings.TrimSpace(input.OrderNumber))
	if err != nil {
		return nil, err
	}

	filename, err := s.screenshots.Save(input.Screenshot)
	if err != nil {
		return nil, err
	}

	method := strings.TrimSpace(input.PaymentMethod)
	if method == "" {
		method = "upi"
	}

	v := &models.PaymentVerification{
		ID:            uuid.New(),
		OrderID:       order.ID,
		TransactionID: strings.TrimSpace(input.TransactionID),
		PaymentMethod: method,
		AmountPaise:   order.TotalPaise,
		CustomerName:  firstNonEmpty(input.CustomerName, order.CustomerName),
		CustomerEmail: firstNonEmpty(input.CustomerEmail, order.CustomerEmail),
		CustomerPhone: firstNonEmpty(input.CustomerPhone, order.CustomerPhone),
		Screenshot:    filename,
	}
	if err := s.verifications.Create(ctx, v); err != nil {
		return nil, err
	}

	observability.MeterFromContext(ctx).Count("verification.submitted", 1)
	s.loggerFromContext(ctx).Info("payment verification submitted",
		"verification_id", v.ID, "order_number", order.OrderNumber)
	return v, nil
}

// Decision is the outcome of a verify or reject call. EmailSent and EmailError
// report the notification side channel; a failed send never fails the
// decision.
type Decision struct {
	Verification *models.PaymentVerification `json:"verification"`
	EmailSent    bool                        `json:"email_sent"`
	EmailError   string                      `json:"email_error,omitempty"`
}

// Verify commits a pending verification as verified and marks the order paid.
// Of two concurrent decisions on the same record exactly one succeeds.
func (s *VerificationService) Verify(ctx context.Context, id uuid.UUID, adminID, notes string) (*Decision, error) {
	v, err := s.verifications.MarkVerified(ctx, id, adminID, notes)
	if err != nil {
		return nil, err
	}

	observability.MeterFromContext(ctx).Count("verification.verified", 1)
	decision := &Decision{Verification: v}
	s.notify(ctx, decision, "payment_verified")
	return decision, nil
}

// Reject commits a pending verification as rejected with the reason and marks
// the order's payment failed, opening it for resubmission.
func (s *VerificationService) Reject(ctx context.Context, id uuid.UUID, adminID, reason string) (*Decision, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, models.Validationf("rejection reason is required")
	}

	v, err := s.verifications.MarkRejected(ctx, id, adminID, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}

	observability.MeterFromContext(ctx).Count("verification.rejected", 1)
	decision := &Decision{Verification: v}
	s.notify(ctx, decision, "payment_rejected")
	return decision, nil
}

func (s *VerificationService) Get(ctx context.Context, id uuid.UUID) (*models.PaymentVerification, error) {
	return s.verifications.GetByID(ctx, id)
}

func (s *VerificationService) Pending(ctx context.Context) ([]*models.PaymentVerification, error) {
	return s.verifications.ListByStatus(ctx, models.VerificationPending)
}

func (s *VerificationService) ListByStatus(ctx context.Context, status models.VerificationStatus) ([]*models.PaymentVerification, error) {
	if !status.Valid() {
		return nil, models.Validationf("unknown verification status %q", status)
	}
	return s.verifications.ListByStatus(ctx, status)
}

// notify sends the decision email at most once per verification. The sent
// marker is a cache key so a retried decision does not double-send.
func (s *VerificationService) notify(ctx context.Context, decision *Decision, templateName string) {
	log := s.loggerFromContext(ctx)
	v := decision.Verification

	if s.cache != nil {
		if _, err := s.cache.Get(ctx, cache.EmailSentKey(v.ID.String())); err == nil {
			decision.EmailSent = true
			return
		}
	}

	info := email.PaymentInfo{
		CustomerName:    v.CustomerName,
		CustomerEmail:   v.CustomerEmail,
		OrderNumber:     v.OrderID.String(),
		Amount:          FormatPaise(v.AmountPaise),
		TransactionID:   v.TransactionID,
		RejectionReason: v.RejectionReason,
	}
	if order, err := s.orders.GetByID(ctx, v.OrderID); err == nil {
		info.OrderNumber = order.OrderNumber
	}

	var err error
	switch templateName {
	case "payment_verified":
		err = email.SendPaymentVerified(ctx, s.email, info)
	case "payment_rejected":
		err = email.SendPaymentRejected(ctx, s.email, info)
	}
	if err != nil {
		decision.EmailError = fmt.Errorf("%w: %v", models.ErrUpstream, err).Error()
		log.Warn("failed to send verification decision email",
			"verification_id", v.ID, "template", templateName, "error", err)
		return
	}

	decision.EmailSent = true
	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.EmailSentKey(v.ID.String()), "1", emailSentTTL); err != nil {
			log.Warn("failed to record email sent marker", "verification_id", v.ID, "error", err)
		}
	}
}

// FormatPaise renders a paise amount as rupees, e.g. 123456 -> "₹1234.56".
func FormatPaise(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, paise/100, paise%100)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
