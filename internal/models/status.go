package models

// Status enumerations and their allowed transitions. Terminal states have an
// empty transition set. The permissive mode used for legacy parity bypasses
// these tables at the service layer, never here.

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:    {OrderConfirmed: true, OrderCancelled: true},
	OrderConfirmed:  {OrderProcessing: true, OrderCancelled: true},
	OrderProcessing: {OrderShipped: true, OrderCancelled: true},
	OrderShipped:    {OrderDelivered: true},
	OrderDelivered:  {},
	OrderCancelled:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	allowed, ok := orderTransitions[s]
	return ok && allowed[next]
}

// Terminal reports whether no further order status change is allowed.
func (s OrderStatus) Terminal() bool {
	allowed, ok := orderTransitions[s]
	return ok && len(allowed) == 0
}

type PaymentStatus string

const (
	PaymentPendingVerification PaymentStatus = "pending_verification"
	PaymentPaid                PaymentStatus = "paid"
	PaymentFailed              PaymentStatus = "failed"
	PaymentRefunded            PaymentStatus = "refunded"
)

var paymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPendingVerification: {PaymentPaid: true, PaymentFailed: true},
	PaymentPaid:                {PaymentRefunded: true},
	PaymentFailed:              {PaymentPendingVerification: true},
	PaymentRefunded:            {},
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	allowed, ok := paymentTransitions[s]
	return ok && allowed[next]
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Verification records move out of pending exactly once and never back.
func (s VerificationStatus) CanTransition(next VerificationStatus) bool {
	return s == VerificationPending &&
		(next == VerificationVerified || next == VerificationRejected)
}

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

type ReturnStatus string

const (
	ReturnRequested ReturnStatus = "requested"
	ReturnApproved  ReturnStatus = "approved"
	ReturnRejected  ReturnStatus = "rejected"
	ReturnPickedUp  ReturnStatus = "picked_up"
	ReturnRefunded  ReturnStatus = "refunded"
	ReturnCompleted ReturnStatus = "completed"
)

var returnTransitions = map[ReturnStatus]map[ReturnStatus]bool{
	ReturnRequested: {ReturnApproved: true, ReturnRejected: true},
	ReturnApproved:  {ReturnPickedUp: true},
	ReturnPickedUp:  {ReturnRefunded: true},
	ReturnRefunded:  {ReturnCompleted: true},
	ReturnRejected:  {},
	ReturnCompleted: {},
}

func (s ReturnStatus) Valid() bool {
	_, ok := returnTransitions[s]
	return ok
}

func (s ReturnStatus) CanTransition(next ReturnStatus) bool {
	allowed, ok := returnTransitions[s]
	return ok && allowed[next]
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
	RefundCompleted RefundStatus = "completed"
	RefundRejected  RefundStatus = "rejected"
)

// RefundStatusFor derives the refund status that accompanies a return status.
func RefundStatusFor(s ReturnStatus) RefundStatus {
	switch s {
	case ReturnRejected:
		return RefundRejected
	case ReturnRefunded:
		return RefundProcessed
	case ReturnCompleted:
		return RefundCompleted
	default:
		return RefundPending
	}
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalExpired  ApprovalStatus = "expired"
)

// Terminal reports whether a poller observing this status should stop.
func (s ApprovalStatus) Terminal() bool {
	return s != ApprovalPending
}
