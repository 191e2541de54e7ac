package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/upikart/upikart/internal/db"
	"github.com/upikart/upikart/internal/email"
	"github.com/upikart/upikart/internal/logging"
	"github.com/upikart/upikart/internal/models"
	"github.com/upikart/upikart/internal/observability"
	"github.com/upikart/upikart/internal/pricing"
)

type orderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context, filter db.OrderFilter) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to models.OrderStatus) error
	ForceStatus(ctx context.Context, orderID uuid.UUID, to models.OrderStatus) error
	SetPaymentStatus(ctx context.Context, orderID uuid.UUID, from, to models.PaymentStatus) error
}

type productReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type offerReader interface {
	List(ctx context.Context, activeOnly bool) ([]*models.Offer, error)
}

type customerUpserter interface {
	UpsertByEmail(ctx context.Context, name, email, phone string) (*models.Customer, error)
}

type couponValidator interface {
	Validate(ctx context.Context, code string, subtotalPaise int64) (*models.Coupon, int64, error)
}

// checkoutRates supplies the storefront-level amounts that feed order totals.
type checkoutRates interface {
	TaxRateBasisPoints(ctx context.Context) int64
	ShippingFlatRatePaise(ctx context.Context) int64
	MinimumBulkOrderPaise(ctx context.Context) int64
}

// OrderService creates orders from carts and moves them through the order
// status sequence. New orders always start awaiting manual payment
// verification; nothing here marks an order paid.
type OrderService struct {
	orders    orderStore
	products  productReader
	offers    offerReader
	customers customerUpserter
	coupons   couponValidator
	rates     checkoutRates
	pricer    *pricing.Pricer
	email     email.Provider
	strict    bool
	logger    *slog.Logger
	now       func() time.Time
}

func NewOrderService(
	orders orderStore,
	products productReader,
	offers offerReader,
	customers customerUpserter,
	coupons couponValidator,
	rates checkoutRates,
	pricer *pricing.Pricer,
	emailProvider email.Provider,
	strictTransitions bool,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		offers:    offers,
		customers: customers,
		coupons:   coupons,
		rates:     rates,
		pricer:    pricer,
		email:     emailProvider,
		strict:    strictTransitions,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *OrderService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type CheckoutLine struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

type CheckoutInput struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ShippingAddr  models.Address
	BillingAddr   models.Address
	Items         []CheckoutLine
	CouponCode    string
}

// Checkout prices the cart server-side and persists the order. Client-supplied
// amounts are never trusted; unit prices, discounts, tax, and shipping are all
// recomputed here.
func (s *OrderService) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	meter := observability.MeterFromContext(ctx)

	if err := validateCheckout(input); err != nil {
		meter.Count("order.checkout.rejected", 1)
		return nil, err
	}

	offers, err := s.offers.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}

	now := s.now()
	var (
		items         []models.OrderItem
		subtotal      int64
		offerDiscount int64
		bulkApplied   bool
	)
	for _, line := range input.Items {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Active {
			return nil, models.Validationf("product %q is not available", product.Name)
		}

		var variant *models.Variant
		if line.VariantID != nil {
			for i := range product.Variants {
				if product.Variants[i].ID == *line.VariantID {
					variant = &product.Variants[i]
					break
				}
			}
			if variant == nil {
				return nil, models.Validationf("product %q has no such variant", product.Name)
			}
		}

		unitPrice := s.pricer.UnitPrice(product, variant, line.Quantity)
		lineSubtotal := unitPrice * int64(line.Quantity)
		subtotal += lineSubtotal
		offerDiscount += s.pricer.OfferDiscount(derefOffers(offers), product, lineSubtotal, now)

		for _, tier := range product.BulkPrices {
			if line.Quantity >= tier.MinQty {
				bulkApplied = true
			}
		}

		item := models.OrderItem{
			ID:             uuid.New(),
			ProductID:      &product.ID,
			ProductName:    product.Name,
			Quantity:       line.Quantity,
			UnitPricePaise: unitPrice,
			SubtotalPaise:  lineSubtotal,
		}
		if variant != nil {
			item.VariantID = &variant.ID
			item.VariantLabel = variant.Label
		}
		items = append(items, item)
	}

	if minBulk := s.rates.MinimumBulkOrderPaise(ctx); bulkApplied && minBulk > 0 && subtotal < minBulk {
		return nil, models.Validationf("bulk orders require a minimum of %s", FormatPaise(minBulk))
	}

	discount := offerDiscount
	couponCode := ""
	if strings.TrimSpace(input.CouponCode) != "" {
		coupon, couponDiscount, err := s.coupons.Validate(ctx, input.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
		discount += couponDiscount
		couponCode = coupon.Code
	}

	totals := s.pricer.ComputeTotals(subtotal, discount,
		s.rates.ShippingFlatRatePaise(ctx), s.rates.TaxRateBasisPoints(ctx))

	customer, err := s.customers.UpsertByEmail(ctx,
		strings.TrimSpace(input.CustomerName),
		strings.TrimSpace(input.CustomerEmail),
		strings.TrimSpace(input.CustomerPhone))
	if err != nil {
		return nil, err
	}

	billing := input.BillingAddr
	if billing == (models.Address{}) {
		billing = input.ShippingAddr
	}

	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   newOrderNumber(now),
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		CustomerPhone: customer.Phone,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPendingVerification,
		PaymentMethod: "upi",
		SubtotalPaise: totals.SubtotalPaise,
		DiscountPaise: totals.DiscountPaise,
		TaxPaise:      totals.TaxPaise,
		ShippingPaise: totals.ShippingPaise,
		TotalPaise:    totals.TotalPaise,
		CouponCode:    couponCode,
		ShippingAddr:  input.ShippingAddr,
		BillingAddr:   billing,
		Items:         items,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		meter.Count("order.checkout.failed", 1)
		return nil, err
	}

	meter.Count("order.created", 1, sentry.WithAttributes(
		attribute.Int64("total_paise", order.TotalPaise),
	))
	s.loggerFromContext(ctx).Info("order created",
		"order_number", order.OrderNumber, "total_paise", order.TotalPaise, "items", len(items))
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *OrderService) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.orders.GetByNumber(ctx, strings.TrimSpace(orderNumber))
}

func (s *OrderService) List(ctx context.Context, filter db.OrderFilter) ([]*models.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, models.Validationf("unknown order status %q", filter.Status)
	}
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		return nil, models.Validationf("unknown payment status %q", filter.PaymentStatus)
	}
	return s.orders.List(ctx, filter)
}

// UpdateStatus moves an order to a new status. In strict mode the change must
// follow the allowed-transition table and is committed with a compare-and-set
// against the status the decision was made on; permissive mode sets the status
// unconditionally.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, models.Validationf("unknown order status %q", to)
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.strict {
		if !order.Status.CanTransition(to) {
			return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidStateTransition, order.Status, to)
		}
		if err := s.orders.UpdateStatus(ctx, id, order.Status, to); err != nil {
			return nil, err
		}
	} else {
		if err := s.orders.ForceStatus(ctx, id, to); err != nil {
			return nil, err
		}
	}

	if to == models.OrderShipped {
		s.notifyShipped(ctx, order)
	}

	s.loggerFromContext(ctx).Info("order status updated",
		"order_id", id, "from", order.Status, "to", to)
	return s.orders.GetByID(ctx, id)
}

// notifyShipped is best-effort; a failed send never affects the committed
// status change.
func (s *OrderService) notifyShipped(ctx context.Context, order *models.Order) {
	if s.email == nil || order.CustomerEmail == "" {
		return
	}
	err := email.SendOrderShipped(ctx, s.email, email.OrderInfo{
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		OrderNumber:   order.OrderNumber,
	})
	if err != nil {
		s.loggerFromContext(ctx).Warn("failed to send shipped email",
			"order_number", order.OrderNumber, "error", err)
	}
}

// UpdatePaymentStatus handles the manual payment corrections an admin may make
// directly. Paid and failed are reserved for the verification workflow in
// strict mode; the usual direct change is paid -> refunded.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, to models.PaymentStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, models.Validationf("unknown payment status %q", to)
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.strict {
		if to == models.PaymentPaid || to == models.PaymentFailed {
			return nil, models.Validationf("payment status %s is set through the verification workflow", to)
		}
		if !order.PaymentStatus.CanTransition(to) {
			return nil, fmt.Errorf("%w: payment %s -> %s", models.ErrInvalidStateTransition, order.PaymentStatus, to)
		}
	}

	if err := s.orders.SetPaymentStatus(ctx, id, order.PaymentStatus, to); err != nil {
		return nil, err
	}

	s.loggerFromContext(ctx).Info("order payment status updated",
		"order_id", id, "from", order.PaymentStatus, "to", to)
	return s.orders.GetByID(ctx, id)
}

func validateCheckout(input CheckoutInput) error {
	if strings.TrimSpace(input.CustomerName) == "" {
		return models.Validationf("customer name is required")
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return models.Validationf("customer email is required")
	}
	if len(input.Items) == 0 {
		return models.Validationf("cart is empty")
	}
	for _, line := range input.Items {
		if line.ProductID == uuid.Nil {
			return models.Validationf("cart line is missing a product")
		}
		if line.Quantity < 1 {
			return models.Validationf("cart quantities must be at least 1")
		}
	}
	if input.ShippingAddr.Line1 == "" || input.ShippingAddr.City == "" || input.ShippingAddr.PostalCode == "" {
		return models.Validationf("shipping address is incomplete")
	}
	return nil
}

// newOrderNumber builds a human-quotable order reference, e.g.
// ORD-20260301-4F2A9C.
func newOrderNumber(now time.Time) string {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		// Timestamp fallback keeps numbers unique enough under rand failure.
		return fmt.Sprintf("ORD-%s-%06d", now.Format("20060102"), now.UnixNano()%1_000_000)
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(suffix)))
}

func derefOffers(offers []*models.Offer) []models.Offer {
	out := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		if o != nil {
			out = append(out, *o)
		}
	}
	return out
}
