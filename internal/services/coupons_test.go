package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/upikart/upikart/internal/models"
	"github.com/upikart/upikart/internal/pricing"
)

type fakeCouponStore struct {
	coupons map[string]*models.Coupon
}

func (f *fakeCouponStore) Create(_ context.Context, c *models.Coupon) error {
	f.coupons[strings.ToUpper(c.Code)] = c
	return nil
}

func (f *fakeCouponStore) Update(_ context.Context, c *models.Coupon) error {
	f.coupons[strings.ToUpper(c.Code)] = c
	return nil
}

func (f *fakeCouponStore) Delete(_ context.Context, id uuid.UUID) error {
	for code, c := range f.coupons {
		if c.ID == id {
			delete(f.coupons, code)
			return nil
		}
	}
	return fmt.Errorf("%w: coupon %s", models.ErrNotFound, id)
}

func (f *fakeCouponStore) GetByCode(_ context.Context, code string) (*models.Coupon, error) {
	c, ok := f.coupons[strings.ToUpper(code)]
	if !ok {
		return nil, fmt.Errorf("%w: coupon %s", models.ErrNotFound, code)
	}
	return c, nil
}

func (f *fakeCouponStore) List(_ context.Context) ([]*models.Coupon, error) {
	var out []*models.Coupon
	for _, c := range f.coupons {
		out = append(out, c)
	}
	return out, nil
}

func TestCouponValidate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeCouponStore{coupons: map[string]*models.Coupon{
		"SAVE10": {
			ID: uuid.New(), Code: "SAVE10", Type: models.CouponPercentage, Value: 10,
			MaxDiscountPaise: 5_000, Active: true,
		},
		"FLAT200": {
			ID: uuid.New(), Code: "FLAT200", Type: models.CouponFixed, Value: 20_000,
			MinOrderPaise: 100_000, Active: true,
		},
		"DORMANT": {
			ID: uuid.New(), Code: "DORMANT", Type: models.CouponFixed, Value: 1_000, Active: false,
		},
		"EXPIRED": {
			ID: uuid.New(), Code: "EXPIRED", Type: models.CouponFixed, Value: 1_000, Active: true,
			ValidUntil: now.Add(-time.Hour),
		},
		"UPCOMING": {
			ID: uuid.New(), Code: "UPCOMING", Type: models.CouponFixed, Value: 1_000, Active: true,
			ValidFrom: now.Add(time.Hour),
		},
	}}

	svc := NewCouponService(store, pricing.NewPricer())
	svc.now = func() time.Time { return now }

	t.Run("percentage capped", func(t *testing.T) {
		coupon, discount, err := svc.Validate(context.Background(), "save10", 100_000)
		if err != nil {
			t.Fatalf("validate failed: %v", err)
		}
		if coupon.Code != "SAVE10" {
			t.Fatalf("expected code uppercased on lookup, got %q", coupon.Code)
		}
		// 10% of 100000 is 10000, capped at 5000.
		if discount != 5_000 {
			t.Fatalf("discount = %d, want 5000", discount)
		}
	})

	t.Run("fixed above minimum", func(t *testing.T) {
		_, discount, err := svc.Validate(context.Background(), "FLAT200", 150_000)
		if err != nil {
			t.Fatalf("validate failed: %v", err)
		}
		if discount != 20_000 {
			t.Fatalf("discount = %d, want 20000", discount)
		}
	})

	failures := []struct {
		name     string
		code     string
		subtotal int64
	}{
		{"unknown code", "NOPE", 100_000},
		{"inactive", "DORMANT", 100_000},
		{"expired", "EXPIRED", 100_000},
		{"not yet valid", "UPCOMING", 100_000},
		{"below minimum", "FLAT200", 50_000},
		{"empty code", "  ", 100_000},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.Validate(context.Background(), tc.code, tc.subtotal); !errors.Is(err, models.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCouponCreate_Validation(t *testing.T) {
	t.Parallel()

	svc := NewCouponService(&fakeCouponStore{coupons: map[string]*models.Coupon{}}, pricing.NewPricer())

	cases := []struct {
		name   string
		coupon models.Coupon
	}{
		{"missing code", models.Coupon{Type: models.CouponFixed, Value: 100}},
		{"percentage over 100", models.Coupon{Code: "X", Type: models.CouponPercentage, Value: 150}},
		{"zero fixed value", models.Coupon{Code: "X", Type: models.CouponFixed, Value: 0}},
		{"unknown type", models.Coupon{Code: "X", Type: "points", Value: 10}},
		{"negative minimum", models.Coupon{Code: "X", Type: models.CouponFixed, Value: 100, MinOrderPaise: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			coupon := tc.coupon
			if err := svc.Create(context.Background(), &coupon); !errors.Is(err, models.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	valid := models.Coupon{Code: "WELCOME", Type: models.CouponPercentage, Value: 15, Active: true}
	if err := svc.Create(context.Background(), &valid); err != nil {
		t.Fatalf("valid coupon rejected: %v", err)
	}
	if valid.ID == uuid.Nil {
		t.Fatal("expected an ID to be assigned")
	}
}
