package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/upikart/upikart/internal/models"
)

func TestRespondErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation", err: models.Validationf("bad input"), wantStatus: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("%w: order", models.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "state conflict", err: fmt.Errorf("%w: already decided", models.ErrInvalidStateTransition), wantStatus: http.StatusConflict},
		{name: "upstream", err: fmt.Errorf("%w: email", models.ErrUpstream), wantStatus: http.StatusBadGateway},
		{name: "unclassified", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			respondError(rec, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			env := decodeEnvelope(t, rec.Body)
			if env["success"] != false {
				t.Fatalf("success = %v, want false", env["success"])
			}
			if tc.wantStatus == http.StatusInternalServerError {
				if msg := env["message"]; msg != "internal server error" {
					t.Fatalf("message = %v, leaked internal error detail", msg)
				}
			}
		})
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"paid","extra":true}`))
	rec := httptest.NewRecorder()

	var body orderStatusBody
	err := decodeJSON(rec, req, &body)
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestMaintenanceGateBlocksWrites(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.settings.values[models.SettingMaintenanceMode] = &models.Setting{
		Key:   models.SettingMaintenanceMode,
		Value: "true",
	}

	gated := env.handlers.MaintenanceGate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	gated.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("write status = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	gated.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("read status = %d, want 204", rec.Code)
	}
}
