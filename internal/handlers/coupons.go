package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/upikart/upikart/internal/models"
)

type validateCouponBody struct {
	Code          string `json:"code"`
	SubtotalPaise int64  `json:"subtotal_paise"`
}

type validateCouponResponse struct {
	Coupon        *models.Coupon `json:"coupon"`
	DiscountPaise int64          `json:"discount_paise"`
}

// ValidateCoupon is the public pre-checkout coupon check. The discount shown
// here is advisory; checkout recomputes it.
func (h *Handlers) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var body validateCouponBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, err)
		return
	}

	coupon, discount, err := h.coupons.Validate(r.Context(), body.Code, body.SubtotalPaise)
	if err != nil {
		h.fail(w, r, "validate coupon", err)
		return
	}
	respondData(w, http.StatusOK, validateCouponResponse{Coupon: coupon, DiscountPaise: discount})
}

func (h *Handlers) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		h.fail(w, r, "list coupons", err)
		return
	}
	respondData(w, http.StatusOK, coupons)
}

func (h *Handlers) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var coupon models.Coupon
	if err := decodeJSON(w, r, &coupon); err != nil {
		respondError(w, err)
		return
	}

	if err := h.coupons.Create(r.Context(), &coupon); err != nil {
		h.fail(w, r, "create coupon", err)
		return
	}
	respondData(w, http.StatusCreated, coupon)
}

func (h *Handlers) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid coupon id"))
		return
	}

	var coupon models.Coupon
	if err := decodeJSON(w, r, &coupon); err != nil {
		respondError(w, err)
		return
	}
	coupon.ID = id

	if err := h.coupons.Update(r.Context(), &coupon); err != nil {
		h.fail(w, r, "update coupon", err)
		return
	}
	respondData(w, http.StatusOK, coupon)
}

func (h *Handlers) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid coupon id"))
		return
	}

	if err := h.coupons.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete coupon", err)
		return
	}
	respondMessage(w, http.StatusOK, "coupon deleted")
}
