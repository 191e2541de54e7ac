package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentVerification is a customer's claim of having paid, pending admin
// confirmation. At most one pending record exists per order; rejected records
// may coexist with a later resubmission.
type PaymentVerification struct {
	ID              uuid.UUID          `json:"id"`
	OrderID         uuid.UUID          `json:"order_id"`
	TransactionID   string             `json:"transaction_id"`
	PaymentMethod   string             `json:"payment_method"`
	AmountPaise     int64              `json:"amount_paise"`
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email"`
	CustomerPhone   string             `json:"customer_phone"`
	Screenshot      string             `json:"screenshot"`
	Status          VerificationStatus `json:"verification_status"`
	AdminNotes      string             `json:"admin_notes,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	SubmittedAt     time.Time          `json:"submitted_at"`
	VerifiedAt      time.Time          `json:"verified_at,omitzero"`
	VerifiedBy      string             `json:"verified_by,omitempty"`
}
