package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/upikart/upikart/internal/models"
	"github.com/upikart/upikart/internal/pricing"
)

type couponStore interface {
	Create(ctx context.Context, c *models.Coupon) error
	Update(ctx context.Context, c *models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]*models.Coupon, error)
}

// CouponService validates coupons at checkout and backs the admin coupon CRUD.
type CouponService struct {
	store  couponStore
	pricer *pricing.Pricer
	now    func() time.Time
}

func NewCouponService(store couponStore, pricer *pricing.Pricer) *CouponService {
	return &CouponService{store: store, pricer: pricer, now: time.Now}
}

// Validate checks a coupon code against a subtotal and returns the coupon with
// the discount it grants. Unknown, inactive, out-of-window, and
// below-minimum coupons all fail validation.
func (s *CouponService) Validate(ctx context.Context, code string, subtotalPaise int64) (*models.Coupon, int64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, 0, models.Validationf("coupon code is required")
	}

	coupon, err := s.store.GetByCode(ctx, code)
	if errors.Is(err, models.ErrNotFound) {
		return nil, 0, models.Validationf("invalid coupon code %q", code)
	}
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	if !coupon.Active {
		return nil, 0, models.Validationf("coupon %q is not active", code)
	}
	if !coupon.ValidFrom.IsZero() && now.Before(coupon.ValidFrom) {
		return nil, 0, models.Validationf("coupon %q is not valid yet", code)
	}
	if !coupon.ValidUntil.IsZero() && now.After(coupon.ValidUntil) {
		return nil, 0, models.Validationf("coupon %q has expired", code)
	}
	if subtotalPaise < coupon.MinOrderPaise {
		return nil, 0, models.Validationf("coupon %q requires a minimum order of %s",
			code, FormatPaise(coupon.MinOrderPaise))
	}

	return coupon, s.pricer.CouponDiscount(coupon, subtotalPaise), nil
}

func (s *CouponService) Create(ctx context.Context, coupon *models.Coupon) error {
	if err := validateCoupon(coupon); err != nil {
		return err
	}
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	return s.store.Create(ctx, coupon)
}

func (s *CouponService) Update(ctx context.Context, coupon *models.Coupon) error {
	if err := validateCoupon(coupon); err != nil {
		return err
	}
	return s.store.Update(ctx, coupon)
}

func (s *CouponService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

func (s *CouponService) List(ctx context.Context) ([]*models.Coupon, error) {
	return s.store.List(ctx)
}

func validateCoupon(coupon *models.Coupon) error {
	if strings.TrimSpace(coupon.Code) == "" {
		return models.Validationf("coupon code is required")
	}
	switch coupon.Type {
	case models.CouponPercentage:
		if coupon.Value <= 0 || coupon.Value > 100 {
			return models.Validationf("percentage coupon value must be within (0, 100]")
		}
	case models.CouponFixed:
		if coupon.Value <= 0 {
			return models.Validationf("fixed coupon value must be positive")
		}
	default:
		return models.Validationf("unknown coupon type %q", coupon.Type)
	}
	if coupon.MinOrderPaise < 0 || coupon.MaxDiscountPaise < 0 {
		return models.Validationf("coupon amounts must be non-negative")
	}
	if !coupon.ValidFrom.IsZero() && !coupon.ValidUntil.IsZero() && coupon.ValidUntil.Before(coupon.ValidFrom) {
		return models.Validationf("coupon validity window is inverted")
	}
	return nil
}
