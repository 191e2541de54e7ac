package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/upikart/upikart/internal/email"
	"github.com/upikart/upikart/internal/logging"
	"github.com/upikart/upikart/internal/models"
	"github.com/upikart/upikart/internal/observability"
)

type returnStore interface {
	Create(ctx context.Context, ret *models.Return) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Return, error)
	List(ctx context.Context, status models.ReturnStatus) ([]*models.Return, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ReturnStatus) error
	ForceStatus(ctx context.Context, id uuid.UUID, to models.ReturnStatus) error
}

// ReturnService handles return requests against delivered orders. The refund
// status tracks the return status; reaching refunded also flips the order's
// payment status from paid to refunded.
type ReturnService struct {
	returns returnStore
	orders  orderStore
	email   email.Provider
	strict  bool
	logger  *slog.Logger
}

func NewReturnService(returns returnStore, orders orderStore, emailProvider email.Provider, strictTransitions bool, logger *slog.Logger) *ReturnService {
	return &ReturnService{returns: returns, orders: orders, email: emailProvider, strict: strictTransitions, logger: logger}
}

func (s *ReturnService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Request opens a return for a delivered order. The refund amount is the
// order's paid total.
func (s *ReturnService) Request(ctx context.Context, orderID uuid.UUID, reason string) (*models.Return, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, models.Validationf("return reason is required")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderDelivered {
		return nil, fmt.Errorf("%w: only delivered orders can be returned", models.ErrInvalidStateTransition)
	}

	ret := &models.Return{
		ID:          uuid.New(),
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Reason:      strings.TrimSpace(reason),
		RefundPaise: order.TotalPaise,
	}
	if err := s.returns.Create(ctx, ret); err != nil {
		return nil, err
	}

	observability.MeterFromContext(ctx).Count("return.requested", 1)
	s.loggerFromContext(ctx).Info("return requested",
		"return_id", ret.ID, "order_number", order.OrderNumber)
	return ret, nil
}

func (s *ReturnService) Get(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	return s.returns.GetByID(ctx, id)
}

func (s *ReturnService) List(ctx context.Context, status models.ReturnStatus) ([]*models.Return, error) {
	if status != "" && !status.Valid() {
		return nil, models.Validationf("unknown return status %q", status)
	}
	return s.returns.List(ctx, status)
}

// UpdateStatus advances a return. Moving to refunded also marks the order's
// payment refunded; that cascade failing does not undo the return change and
// is surfaced in the log.
func (s *ReturnService) UpdateStatus(ctx context.Context, id uuid.UUID, to models.ReturnStatus) (*models.Return, error) {
	if !to.Valid() {
		return nil, models.Validationf("unknown return status %q", to)
	}

	ret, err := s.returns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.strict {
		if !ret.Status.CanTransition(to) {
			return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidStateTransition, ret.Status, to)
		}
		if err := s.returns.UpdateStatus(ctx, id, ret.Status, to); err != nil {
			return nil, err
		}
	} else {
		if err := s.returns.ForceStatus(ctx, id, to); err != nil {
			return nil, err
		}
	}

	if to == models.ReturnRefunded {
		err := s.orders.SetPaymentStatus(ctx, ret.OrderID, models.PaymentPaid, models.PaymentRefunded)
		if err != nil && !errors.Is(err, models.ErrInvalidStateTransition) {
			return nil, err
		}
		if errors.Is(err, models.ErrInvalidStateTransition) {
			s.loggerFromContext(ctx).Warn("order payment was not paid when refund processed",
				"return_id", id, "order_id", ret.OrderID)
		}
	}

	s.notifyUpdate(ctx, ret, to)

	observability.MeterFromContext(ctx).Count("return.status_updated", 1)
	return s.returns.GetByID(ctx, id)
}

// notifyUpdate is best-effort; a failed send never affects the committed
// status change.
func (s *ReturnService) notifyUpdate(ctx context.Context, ret *models.Return, to models.ReturnStatus) {
	if s.email == nil {
		return
	}
	order, err := s.orders.GetByID(ctx, ret.OrderID)
	if err != nil || order.CustomerEmail == "" {
		return
	}
	err = email.SendReturnUpdate(ctx, s.email, email.ReturnInfo{
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		OrderNumber:   order.OrderNumber,
		Status:        string(to),
		Reason:        ret.Reason,
	})
	if err != nil {
		s.loggerFromContext(ctx).Warn("failed to send return update email",
			"return_id", ret.ID, "error", err)
	}
}
