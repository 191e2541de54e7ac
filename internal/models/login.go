package models

import "time"

// LoginRequest is an admin login awaiting out-of-band approval. Requests live
// in a TTL store; a request that ages out without a decision is reported as
// expired to the poller.
type LoginRequest struct {
	Token       string         `json:"token"`
	DeviceLabel string         `json:"device_label,omitempty"`
	RemoteIP    string         `json:"remote_ip,omitempty"`
	Status      ApprovalStatus `json:"status"`
	RequestedAt time.Time      `json:"requested_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
	DecidedBy   string         `json:"decided_by,omitempty"`
	DecidedAt   time.Time      `json:"decided_at,omitzero"`
}

// Expired reports whether the request's TTL has elapsed without a decision.
func (r *LoginRequest) Expired(now time.Time) bool {
	return r.Status == ApprovalPending && now.After(r.ExpiresAt)
}
