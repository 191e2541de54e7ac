package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type adminCtxKey struct{}

// adminFromContext returns the identity RequireAdmin stored for the request.
func adminFromContext(ctx context.Context) string {
	if admin, ok := ctx.Value(adminCtxKey{}).(string); ok {
		return admin
	}
	return ""
}

// RequireAdmin guards the admin API. Two credentials are accepted: the
// bootstrap API key in X-Admin-Key, or a session JWT minted through the login
// approval flow as a bearer token.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := h.authenticate(r)
		if !ok {
			respondMessage(w, http.StatusUnauthorized, "admin credentials required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminCtxKey{}, admin)))
	})
}

func (h *Handlers) authenticate(r *http.Request) (string, bool) {
	if key := strings.TrimSpace(r.Header.Get("X-Admin-Key")); key != "" {
		if subtle.ConstantTimeCompare([]byte(key), []byte(h.config.AdminAPIKey)) == 1 {
			return "api-key", true
		}
		return "", false
	}

	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if token, ok := strings.CutPrefix(authz, "Bearer "); ok {
		admin, err := h.approval.ParseSession(strings.TrimSpace(token))
		if err != nil {
			h.loggerFromContext(r.Context()).Warn("rejected session token", "error", err)
			return "", false
		}
		return admin, true
	}
	return "", false
}

type loginRequestBody struct {
	DeviceLabel string `json:"device_label"`
}

// RequestLogin opens a login request that an existing admin must approve
// before a session is issued.
func (h *Handlers) RequestLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequestBody
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			respondError(w, err)
			return
		}
	}

	req, err := h.approval.RequestLogin(r.Context(), body.DeviceLabel, clientIP(r))
	if err != nil {
		h.fail(w, r, "create login request", err)
		return
	}
	respondData(w, http.StatusCreated, req)
}

// CheckLogin is the polling endpoint for a login request. Pending, approved,
// rejected, and expired are all 200 responses; the poller branches on the
// status field.
func (h *Handlers) CheckLogin(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	result, err := h.approval.Check(r.Context(), token)
	if err != nil {
		h.fail(w, r, "check login request", err)
		return
	}
	respondData(w, http.StatusOK, result)
}

// ListLoginRequests shows undecided login requests to an admin.
func (h *Handlers) ListLoginRequests(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.approval.PendingRequests(r.Context()))
}

func (h *Handlers) ApproveLogin(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	if err := h.approval.Approve(r.Context(), token, adminFromContext(r.Context())); err != nil {
		h.fail(w, r, "approve login request", err)
		return
	}
	respondMessage(w, http.StatusOK, "login request approved")
}

func (h *Handlers) RejectLogin(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	if err := h.approval.Reject(r.Context(), token, adminFromContext(r.Context())); err != nil {
		h.fail(w, r, "reject login request", err)
		return
	}
	respondMessage(w, http.StatusOK, "login request rejected")
}
