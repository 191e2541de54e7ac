package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequireAdminAPIKey(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	router := env.router()

	cases := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{name: "valid key", key: testAdminKey, wantStatus: http.StatusOK},
		{name: "wrong key", key: "wrong-key-wrong-key-wrong", wantStatus: http.StatusUnauthorized},
		{name: "missing key", key: "", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/verifications", nil)
			if tc.key != "" {
				req.Header.Set("X-Admin-Key", tc.key)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestLoginApprovalFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	router := env.router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"device_label":"laptop"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("request login status = %d, want 201: %s", rec.Code, rec.Body)
	}
	data := decodeEnvelope(t, rec.Body)["data"].(map[string]any)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("login request token is empty")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login/"+token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("check status = %d, want 200", rec.Code)
	}
	if status := decodeEnvelope(t, rec.Body)["data"].(map[string]any)["status"]; status != "pending" {
		t.Fatalf("status = %v, want pending", status)
	}

	rec = httptest.NewRecorder()
	approveReq := httptest.NewRequest(http.MethodPost, "/api/admin/login-requests/"+token+"/approve", nil)
	approveReq.Header.Set("X-Admin-Key", testAdminKey)
	router.ServeHTTP(rec, approveReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d, want 200: %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login/"+token, nil))
	result := decodeEnvelope(t, rec.Body)["data"].(map[string]any)
	if result["status"] != "approved" {
		t.Fatalf("status = %v, want approved", result["status"])
	}
	session, _ := result["session_token"].(string)
	if session == "" {
		t.Fatal("approved poll returned no session token")
	}

	// The minted session works as a bearer credential.
	rec = httptest.NewRecorder()
	adminReq := httptest.NewRequest(http.MethodGet, "/api/admin/verifications", nil)
	adminReq.Header.Set("Authorization", "Bearer "+session)
	router.ServeHTTP(rec, adminReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer status = %d, want 200: %s", rec.Code, rec.Body)
	}

	// The decision was consumed by the poll that observed it.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login/"+token, nil))
	if status := decodeEnvelope(t, rec.Body)["data"].(map[string]any)["status"]; status != "expired" {
		t.Fatalf("consumed token status = %v, want expired", status)
	}
}

func TestRejectedLoginNeverMintsSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	router := env.router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	token := decodeEnvelope(t, rec.Body)["data"].(map[string]any)["token"].(string)

	rec = httptest.NewRecorder()
	rejectReq := httptest.NewRequest(http.MethodPost, "/api/admin/login-requests/"+token+"/reject", nil)
	rejectReq.Header.Set("X-Admin-Key", testAdminKey)
	router.ServeHTTP(rec, rejectReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject status = %d, want 200: %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login/"+token, nil))
	result := decodeEnvelope(t, rec.Body)["data"].(map[string]any)
	if result["status"] != "rejected" {
		t.Fatalf("status = %v, want rejected", result["status"])
	}
	if session, _ := result["session_token"].(string); session != "" {
		t.Fatalf("rejected poll returned a session token: %q", session)
	}
}

func TestForgedBearerTokenRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	router := env.router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/verifications", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
