package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/upikart/upikart/internal/models"
)

// customerDirectory is the read side of the customer store. Customers are
// created implicitly at checkout; the admin API only browses them.
type customerDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, limit int) ([]*models.Customer, error)
}

const defaultCustomerLimit = 100

func (h *Handlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	limit := defaultCustomerLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, models.Validationf("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	customers, err := h.customers.List(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "list customers", err)
		return
	}
	respondData(w, http.StatusOK, customers)
}

func (h *Handlers) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid customer id"))
		return
	}

	customer, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get customer", err)
		return
	}
	respondData(w, http.StatusOK, customer)
}
