package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/upikart/upikart/internal/models"
)

type returnRequestBody struct {
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason"`
}

// RequestReturn opens a return for a delivered order.
func (h *Handlers) RequestReturn(w http.ResponseWriter, r *http.Request) {
	var body returnRequestBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, err)
		return
	}
	if body.OrderID == uuid.Nil {
		respondError(w, models.Validationf("order_id is required"))
		return
	}

	ret, err := h.returns.Request(r.Context(), body.OrderID, body.Reason)
	if err != nil {
		h.fail(w, r, "request return", err)
		return
	}
	respondData(w, http.StatusCreated, ret)
}

// ListReturns lists returns, optionally filtered by ?status=.
func (h *Handlers) ListReturns(w http.ResponseWriter, r *http.Request) {
	returns, err := h.returns.List(r.Context(), models.ReturnStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.fail(w, r, "list returns", err)
		return
	}
	respondData(w, http.StatusOK, returns)
}

func (h *Handlers) GetReturn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid return id"))
		return
	}

	ret, err := h.returns.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get return", err)
		return
	}
	respondData(w, http.StatusOK, ret)
}

type returnStatusBody struct {
	Status models.ReturnStatus `json:"status"`
}

// UpdateReturnStatus advances a return through the return sequence.
func (h *Handlers) UpdateReturnStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid return id"))
		return
	}

	var body returnStatusBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, err)
		return
	}

	ret, err := h.returns.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		h.fail(w, r, "update return status", err)
		return
	}
	respondData(w, http.StatusOK, ret)
}
