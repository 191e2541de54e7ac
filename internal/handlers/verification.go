package handlers

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/upikart/upikart/internal/models"
	"github.com/upikart/upikart/internal/services"
)

// SubmitVerification accepts a customer's payment proof as a multipart form:
// order_number, transaction_id, optional contact fields, and a screenshot
// file. The upload is re-validated server-side regardless of what the client
// claims about it.
func (h *Handlers) SubmitVerification(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.config.MaxScreenshotBytes); err != nil {
		respondError(w, models.Validationf("invalid multipart form: %v", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	var screenshot io.Reader
	file, _, err := r.FormFile("screenshot")
	if err == nil {
		defer file.Close()
		screenshot = file
	}

	verification, err := h.verifications.Submit(r.Context(), services.SubmitVerificationInput{
		OrderNumber:   r.FormValue("order_number"),
		TransactionID: r.FormValue("transaction_id"),
		PaymentMethod: r.FormValue("payment_method"),
		CustomerName:  r.FormValue("customer_name"),
		CustomerEmail: r.FormValue("customer_email"),
		CustomerPhone: r.FormValue("customer_phone"),
		Screenshot:    screenshot,
	})
	if err != nil {
		h.fail(w, r, "submit payment verification", err)
		return
	}
	respondData(w, http.StatusCreated, verification)
}

// ListVerifications lists verification records, filtered by ?status=,
// defaulting to the pending review queue.
func (h *Handlers) ListVerifications(w http.ResponseWriter, r *http.Request) {
	status := models.VerificationStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.VerificationPending
	}

	records, err := h.verifications.ListByStatus(r.Context(), status)
	if err != nil {
		h.fail(w, r, "list verifications", err)
		return
	}
	respondData(w, http.StatusOK, records)
}

func (h *Handlers) GetVerification(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid verification id"))
		return
	}

	verification, err := h.verifications.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get verification", err)
		return
	}
	respondData(w, http.StatusOK, verification)
}

type verifyBody struct {
	Notes string `json:"notes"`
}

// VerifyPayment commits an admin's accept decision. A concurrent decision on
// the same record answers 409.
func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid verification id"))
		return
	}

	var body verifyBody
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			respondError(w, err)
			return
		}
	}

	decision, err := h.verifications.Verify(r.Context(), id, adminFromContext(r.Context()), body.Notes)
	if err != nil {
		h.fail(w, r, "verify payment", err)
		return
	}
	respondData(w, http.StatusOK, decision)
}

type rejectBody struct {
	Reason string `json:"reason"`
}

// RejectPayment commits an admin's reject decision with a mandatory reason.
func (h *Handlers) RejectPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid verification id"))
		return
	}

	var body rejectBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, err)
		return
	}

	decision, err := h.verifications.Reject(r.Context(), id, adminFromContext(r.Context()), body.Reason)
	if err != nil {
		h.fail(w, r, "reject payment", err)
		return
	}
	respondData(w, http.StatusOK, decision)
}

// VerificationScreenshot streams the stored payment screenshot to the
// reviewing admin.
func (h *Handlers) VerificationScreenshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid verification id"))
		return
	}

	verification, err := h.verifications.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get verification", err)
		return
	}

	file, contentType, err := h.screenshots.Open(verification.Screenshot)
	if err != nil {
		h.fail(w, r, "open screenshot", err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := io.Copy(w, file); err != nil {
		h.loggerFromContext(r.Context()).Warn("failed to stream screenshot", "error", err)
	}
}
