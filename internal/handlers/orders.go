package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/upikart/upikart/internal/db"
	"github.com/upikart/upikart/internal/models"
	"github.com/upikart/upikart/internal/services"
)

type checkoutBody struct {
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	CustomerPhone string         `json:"customer_phone"`
	ShippingAddr  models.Address `json:"shipping_address"`
	BillingAddr   models.Address `json:"billing_address"`
	CouponCode    string         `json:"coupon_code"`
	Items         []checkoutLine `json:"items"`
}

type checkoutLine struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity"`
}

// Checkout creates an order from a cart. All amounts are computed
// server-side; the response carries the order awaiting payment verification.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var body checkoutBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, err)
		return
	}

	input := services.CheckoutInput{
		CustomerName:  body.CustomerName,
		CustomerEmail: body.CustomerEmail,
		CustomerPhone: body.CustomerPhone,
		ShippingAddr:  body.ShippingAddr,
		BillingAddr:   body.BillingAddr,
		CouponCode:    body.CouponCode,
	}
	for _, line := range body.Items {
		input.Items = append(input.Items, services.CheckoutLine{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		})
	}

	order, err := h.orders.Checkout(r.Context(), input)
	if err != nil {
		h.fail(w, r, "create order", err)
		return
	}
	respondData(w, http.StatusCreated, order)
}

// TrackOrder is the public order lookup by order number.
func (h *Handlers) TrackOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetByNumber(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		h.fail(w, r, "track order", err)
		return
	}
	respondData(w, http.StatusOK, order)
}

// ListOrders is the admin order listing with optional status, payment_status,
// and limit filters.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := db.OrderFilter{
		Status:        models.OrderStatus(query.Get("status")),
		PaymentStatus: models.PaymentStatus(query.Get("payment_status")),
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondError(w, models.Validationf("limit must be a positive integer"))
			return
		}
		filter.Limit = limit
	}

	orders, err := h.orders.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list orders", err)
		return
	}
	respondData(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid order id"))
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get order", err)
		return
	}
	respondData(w, http.StatusOK, order)
}

type orderStatusBody struct {
	Status models.OrderStatus `json:"status"`
}

// UpdateOrderStatus moves an order through its lifecycle. Transition rules
// depend on the configured transition mode.
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid order id"))
		return
	}

	var body orderStatusBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		h.fail(w, r, "update order status", err)
		return
	}
	respondData(w, http.StatusOK, order)
}

type paymentStatusBody struct {
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

// UpdateOrderPaymentStatus is the manual payment correction endpoint. Paid and
// failed stay exclusive to the verification decisions in strict mode.
func (h *Handlers) UpdateOrderPaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid order id"))
		return
	}

	var body paymentStatusBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, err)
		return
	}

	order, err := h.orders.UpdatePaymentStatus(r.Context(), id, body.PaymentStatus)
	if err != nil {
		h.fail(w, r, "update order payment status", err)
		return
	}
	respondData(w, http.StatusOK, order)
}
