package catalog

import (
	"fmt"
	"strings"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate enforces the seed-file invariants: unique slugs and codes,
// non-negative amounts, known coupon types, resolvable references.
func (v *Validator) Validate(seed *Seed) error {
	if seed == nil {
		return fmt.Errorf("catalog seed is required")
	}

	categorySlugs := make(map[string]bool, len(seed.Categories))
	for _, c := range seed.Categories {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Slug) == "" {
			return fmt.Errorf("category name and slug are required")
		}
		if categorySlugs[c.Slug] {
			return fmt.Errorf("duplicate category slug %q", c.Slug)
		}
		categorySlugs[c.Slug] = true
	}

	productSlugs := make(map[string]bool, len(seed.Products))
	for _, p := range seed.Products {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Slug) == "" {
			return fmt.Errorf("product name and slug are required")
		}
		if productSlugs[p.Slug] {
			return fmt.Errorf("duplicate product slug %q", p.Slug)
		}
		productSlugs[p.Slug] = true

		if p.PricePaise < 0 {
			return fmt.Errorf("product %q has negative price", p.Slug)
		}
		if p.CategorySlug != "" && !categorySlugs[p.CategorySlug] {
			return fmt.Errorf("product %q references unknown category %q", p.Slug, p.CategorySlug)
		}
		for _, variant := range p.Variants {
			if strings.TrimSpace(variant.Label) == "" {
				return fmt.Errorf("product %q has a variant without a label", p.Slug)
			}
			if variant.PricePaise < 0 {
				return fmt.Errorf("product %q variant %q has negative price", p.Slug, variant.Label)
			}
		}
		lastMin := 0
		for _, tier := range p.BulkPrices {
			if tier.MinQty <= lastMin {
				return fmt.Errorf("product %q bulk tiers must have strictly increasing min_qty", p.Slug)
			}
			if tier.UnitPricePaise < 0 {
				return fmt.Errorf("product %q bulk tier has negative price", p.Slug)
			}
			lastMin = tier.MinQty
		}
	}

	couponCodes := make(map[string]bool, len(seed.Coupons))
	for _, c := range seed.Coupons {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if code == "" {
			return fmt.Errorf("coupon code is required")
		}
		if couponCodes[code] {
			return fmt.Errorf("duplicate coupon code %q", code)
		}
		couponCodes[code] = true

		if c.Type != "percentage" && c.Type != "fixed" {
			return fmt.Errorf("coupon %q has unknown type %q", code, c.Type)
		}
		if c.Value < 0 || c.MinOrderPaise < 0 || c.MaxDiscountPaise < 0 {
			return fmt.Errorf("coupon %q has negative amounts", code)
		}
		if c.Type == "percentage" && c.Value > 100 {
			return fmt.Errorf("coupon %q percentage exceeds 100", code)
		}
	}

	for _, o := range seed.Offers {
		if strings.TrimSpace(o.Title) == "" {
			return fmt.Errorf("offer title is required")
		}
		if o.DiscountPercent <= 0 || o.DiscountPercent > 100 {
			return fmt.Errorf("offer %q discount percent must be within (0, 100]", o.Title)
		}
		if o.ProductSlug != "" && !productSlugs[o.ProductSlug] {
			return fmt.Errorf("offer %q references unknown product %q", o.Title, o.ProductSlug)
		}
	}

	return nil
}
