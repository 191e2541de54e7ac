package pricing

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/upikart/upikart/internal/models"
)

func TestUnitPrice(t *testing.T) {
	t.Parallel()

	product := &models.Product{
		ID:         uuid.New(),
		PricePaise: 50000,
		BulkPrices: []models.BulkPrice{
			{MinQty: 10, UnitPricePaise: 45000},
			{MinQty: 50, UnitPricePaise: 40000},
		},
	}
	variant := &models.Variant{PricePaise: 55000}

	pricer := NewPricer()

	tests := []struct {
		name    string
		variant *models.Variant
		qty     int
		want    int64
	}{
		{"base price", nil, 1, 50000},
		{"variant price", variant, 1, 55000},
		{"first bulk tier", nil, 10, 45000},
		{"highest matching tier", nil, 120, 40000},
		{"bulk tier overrides variant", variant, 50, 40000},
		{"below tier keeps base", nil, 9, 50000},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := pricer.UnitPrice(product, tc.variant, tc.qty); got != tc.want {
				t.Fatalf("UnitPrice() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCouponDiscount(t *testing.T) {
	t.Parallel()

	pricer := NewPricer()

	tests := []struct {
		name     string
		coupon   *models.Coupon
		subtotal int64
		want     int64
	}{
		{"nil coupon", nil, 10000, 0},
		{"percentage", &models.Coupon{Type: models.CouponPercentage, Value: 10}, 100000, 10000},
		{"percentage capped", &models.Coupon{Type: models.CouponPercentage, Value: 50, MaxDiscountPaise: 20000}, 100000, 20000},
		{"fixed", &models.Coupon{Type: models.CouponFixed, Value: 5000}, 100000, 5000},
		{"fixed exceeding subtotal clamps", &models.Coupon{Type: models.CouponFixed, Value: 5000}, 3000, 3000},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := pricer.CouponDiscount(tc.coupon, tc.subtotal); got != tc.want {
				t.Fatalf("CouponDiscount() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestOfferDiscount(t *testing.T) {
	t.Parallel()

	pricer := NewPricer()
	now := time.Now()
	productID := uuid.New()
	product := &models.Product{ID: productID}
	otherID := uuid.New()

	offers := []models.Offer{
		{Active: true, DiscountPercent: 5},                                    // shop-wide
		{Active: true, DiscountPercent: 20, ProductID: &productID},            // product match
		{Active: true, DiscountPercent: 50, ProductID: &otherID},              // other product
		{Active: false, DiscountPercent: 90},                                  // inactive
		{Active: true, DiscountPercent: 80, EndsAt: now.Add(-time.Hour)},      // ended
		{Active: true, DiscountPercent: 70, StartsAt: now.Add(time.Hour)},     // not started
	}

	if got := pricer.OfferDiscount(offers, product, 10000, now); got != 2000 {
		t.Fatalf("OfferDiscount() = %d, want 2000", got)
	}

	if got := pricer.OfferDiscount(nil, product, 10000, now); got != 0 {
		t.Fatalf("OfferDiscount() with no offers = %d, want 0", got)
	}
}

func TestComputeTotalsInvariant(t *testing.T) {
	t.Parallel()

	pricer := NewPricer()

	tests := []struct {
		name     string
		subtotal int64
		discount int64
		shipping int64
		taxBP    int64
	}{
		{"plain", 100000, 0, 5000, 0},
		{"discounted and taxed", 150000, 15000, 5000, 500},
		{"discount exceeds subtotal", 1000, 9000, 0, 0},
		{"zero order", 0, 0, 0, 1800},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			totals := pricer.ComputeTotals(tc.subtotal, tc.discount, tc.shipping, tc.taxBP)

			if totals.TotalPaise != totals.SubtotalPaise-totals.DiscountPaise+totals.TaxPaise+totals.ShippingPaise {
				t.Fatalf("totals invariant violated: %+v", totals)
			}
			if totals.TotalPaise < 0 {
				t.Fatalf("total must be non-negative, got %d", totals.TotalPaise)
			}
			if totals.DiscountPaise > totals.SubtotalPaise {
				t.Fatalf("discount must be clamped to subtotal: %+v", totals)
			}
		})
	}
}
