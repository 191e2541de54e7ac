package models

import (
	"time"

	"github.com/google/uuid"
)

// Return is a customer-initiated return request against a delivered order,
// advanced stepwise by an admin through the return status sequence.
type Return struct {
	ID           uuid.UUID    `json:"id"`
	OrderID      uuid.UUID    `json:"order_id"`
	CustomerID   uuid.UUID    `json:"customer_id"`
	Reason       string       `json:"reason"`
	RefundPaise  int64        `json:"refund_paise"`
	Status       ReturnStatus `json:"return_status"`
	RefundStatus RefundStatus `json:"refund_status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
