package models

import (
	"time"

	"github.com/google/uuid"
)

// Order totals are stored in paise. The invariant
// total = subtotal - discount + tax + shipping, total >= 0
// holds for every persisted order.
type Order struct {
	ID            uuid.UUID     `json:"id"`
	OrderNumber   string        `json:"order_number"`
	CustomerID    uuid.UUID     `json:"customer_id"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	CustomerPhone string        `json:"customer_phone"`
	Status        OrderStatus   `json:"order_status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod string        `json:"payment_method"`
	SubtotalPaise int64         `json:"subtotal_paise"`
	DiscountPaise int64         `json:"discount_paise"`
	TaxPaise      int64         `json:"tax_paise"`
	ShippingPaise int64         `json:"shipping_paise"`
	TotalPaise    int64         `json:"total_paise"`
	CouponCode    string        `json:"coupon_code,omitempty"`
	ShippingAddr  Address       `json:"shipping_address"`
	BillingAddr   Address       `json:"billing_address"`
	Items         []OrderItem   `json:"items,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	DeliveredAt   time.Time     `json:"delivered_at,omitzero"`
	CancelledAt   time.Time     `json:"cancelled_at,omitzero"`
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderItem is a point-in-time snapshot. Product and variant references are
// nullable for offer-only line items; names and prices never track the live
// catalog after creation.
type OrderItem struct {
	ID             uuid.UUID  `json:"id"`
	OrderID        uuid.UUID  `json:"order_id"`
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	ProductName    string     `json:"product_name"`
	VariantLabel   string     `json:"variant_label,omitempty"`
	Quantity       int        `json:"quantity"`
	UnitPricePaise int64      `json:"unit_price_paise"`
	SubtotalPaise  int64      `json:"subtotal_paise"`
}

// TotalsConsistent checks the order amount invariant.
func (o *Order) TotalsConsistent() bool {
	if o.SubtotalPaise < 0 || o.DiscountPaise < 0 || o.TaxPaise < 0 || o.ShippingPaise < 0 {
		return false
	}
	if o.TotalPaise < 0 {
		return false
	}
	return o.TotalPaise == o.SubtotalPaise-o.DiscountPaise+o.TaxPaise+o.ShippingPaise
}
