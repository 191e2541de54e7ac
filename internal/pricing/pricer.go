package pricing

// Package pricing computes checkout totals. All amounts are paise.

import (
	"sort"
	"time"

	"github.com/upikart/upikart/internal/models"
)

type Pricer struct{}

func NewPricer() *Pricer {
	return &Pricer{}
}

// Line is one priced cart entry.
type Line struct {
	Product  *models.Product
	Variant  *models.Variant
	Quantity int
}

// Totals satisfies total = subtotal - discount + tax + shipping, total >= 0.
type Totals struct {
	SubtotalPaise int64
	DiscountPaise int64
	TaxPaise      int64
	ShippingPaise int64
	TotalPaise    int64
}

// UnitPrice resolves the effective unit price for a line: the variant price
// when a variant is selected, otherwise the product price, with bulk tiers
// overriding either once the quantity reaches a tier's minimum. Tiers with a
// higher minimum win.
func (p *Pricer) UnitPrice(product *models.Product, variant *models.Variant, quantity int) int64 {
	price := product.PricePaise
	if variant != nil {
		price = variant.PricePaise
	}

	tiers := append([]models.BulkPrice(nil), product.BulkPrices...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinQty < tiers[j].MinQty })
	for _, tier := range tiers {
		if quantity >= tier.MinQty {
			price = tier.UnitPricePaise
		}
	}
	return price
}

// OfferDiscount returns the paise discounted from a line by the best matching
// active offer. Product-scoped offers beat shop-wide ones only by percentage.
func (p *Pricer) OfferDiscount(offers []models.Offer, product *models.Product, linePaise int64, now time.Time) int64 {
	best := 0
	for _, offer := range offers {
		if !offerApplies(offer, product, now) {
			continue
		}
		if offer.DiscountPercent > best {
			best = offer.DiscountPercent
		}
	}
	return linePaise * int64(best) / 100
}

func offerApplies(offer models.Offer, product *models.Product, now time.Time) bool {
	if !offer.Active || offer.DiscountPercent <= 0 {
		return false
	}
	if offer.ProductID != nil && (product == nil || *offer.ProductID != product.ID) {
		return false
	}
	if !offer.StartsAt.IsZero() && now.Before(offer.StartsAt) {
		return false
	}
	if !offer.EndsAt.IsZero() && now.After(offer.EndsAt) {
		return false
	}
	return true
}

// CouponDiscount computes the paise discounted by a coupon from the given
// subtotal. The caller is expected to have validated the coupon's window,
// active flag, and minimum order amount.
func (p *Pricer) CouponDiscount(coupon *models.Coupon, subtotalPaise int64) int64 {
	if coupon == nil {
		return 0
	}

	var discount int64
	switch coupon.Type {
	case models.CouponPercentage:
		discount = subtotalPaise * coupon.Value / 100
	case models.CouponFixed:
		discount = coupon.Value
	}

	if coupon.MaxDiscountPaise > 0 && discount > coupon.MaxDiscountPaise {
		discount = coupon.MaxDiscountPaise
	}
	if discount > subtotalPaise {
		discount = subtotalPaise
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// ComputeTotals assembles the order amounts. The discount is clamped to the
// subtotal so the total can never go negative. Tax applies to the discounted
// goods value; shipping is added last.
func (p *Pricer) ComputeTotals(subtotal, discount, shippingPaise int64, taxRateBasisPoints int64) Totals {
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}

	tax := (subtotal - discount) * taxRateBasisPoints / 10_000

	return Totals{
		SubtotalPaise: subtotal,
		DiscountPaise: discount,
		TaxPaise:      tax,
		ShippingPaise: shippingPaise,
		TotalPaise:    subtotal - discount + tax + shippingPaise,
	}
}
