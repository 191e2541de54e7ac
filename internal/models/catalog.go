package models

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Description string       `json:"description"`
	PricePaise  int64        `json:"price_paise"`
	CategoryID  *uuid.UUID   `json:"category_id,omitempty"`
	Active      bool         `json:"active"`
	Variants    []Variant    `json:"variants,omitempty"`
	Images      []Image      `json:"images,omitempty"`
	BulkPrices  []BulkPrice  `json:"bulk_prices,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type Variant struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	Label      string    `json:"label"`
	PricePaise int64     `json:"price_paise"`
	Stock      int       `json:"stock"`
}

type Image struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	URL       string    `json:"url"`
	Position  int       `json:"position"`
}

// BulkPrice overrides the unit price when the ordered quantity reaches MinQty.
// Tiers with higher MinQty win.
type BulkPrice struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	MinQty         int       `json:"min_qty"`
	UnitPricePaise int64     `json:"unit_price_paise"`
}

type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

type Coupon struct {
	ID               uuid.UUID  `json:"id"`
	Code             string     `json:"code"`
	Type             CouponType `json:"type"`
	Value            int64      `json:"value"` // percent for percentage, paise for fixed
	MinOrderPaise    int64      `json:"min_order_paise"`
	MaxDiscountPaise int64      `json:"max_discount_paise"` // 0 means uncapped
	Active           bool       `json:"active"`
	ValidFrom        time.Time  `json:"valid_from,omitzero"`
	ValidUntil       time.Time  `json:"valid_until,omitzero"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Offer is a storefront promotion applied automatically at checkout to
// matching products.
type Offer struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DiscountPercent int        `json:"discount_percent"`
	ProductID       *uuid.UUID `json:"product_id,omitempty"` // nil applies shop-wide
	Active          bool       `json:"active"`
	StartsAt        time.Time  `json:"starts_at,omitzero"`
	EndsAt          time.Time  `json:"ends_at,omitzero"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
