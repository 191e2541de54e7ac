package handlers

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/upikart/upikart/internal/models"
)

// ListProducts serves the catalog. The public route forces active-only;
// admins see everything unless they filter with ?active=true.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	activeOnly := adminFromContext(r.Context()) == ""
	if r.URL.Query().Get("active") == "true" {
		activeOnly = true
	}

	products, err := h.catalog.Products(r.Context(), activeOnly)
	if err != nil {
		h.fail(w, r, "list products", err)
		return
	}
	respondData(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]

	var (
		product *models.Product
		err     error
	)
	if id, parseErr := uuid.Parse(raw); parseErr == nil {
		product, err = h.catalog.ProductByID(r.Context(), id)
	} else {
		product, err = h.catalog.ProductBySlug(r.Context(), raw)
	}
	if err != nil {
		h.fail(w, r, "get product", err)
		return
	}
	respondData(w, http.StatusOK, product)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := decodeJSON(w, r, &product); err != nil {
		respondError(w, err)
		return
	}

	if err := h.catalog.CreateProduct(r.Context(), &product); err != nil {
		h.fail(w, r, "create product", err)
		return
	}
	respondData(w, http.StatusCreated, product)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid product id"))
		return
	}

	var product models.Product
	if err := decodeJSON(w, r, &product); err != nil {
		respondError(w, err)
		return
	}
	product.ID = id

	if err := h.catalog.UpdateProduct(r.Context(), &product); err != nil {
		h.fail(w, r, "update product", err)
		return
	}
	respondData(w, http.StatusOK, product)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid product id"))
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, "delete product", err)
		return
	}
	respondMessage(w, http.StatusOK, "product deleted")
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.fail(w, r, "list categories", err)
		return
	}
	respondData(w, http.StatusOK, categories)
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var category models.Category
	if err := decodeJSON(w, r, &category); err != nil {
		respondError(w, err)
		return
	}

	if err := h.catalog.CreateCategory(r.Context(), &category); err != nil {
		h.fail(w, r, "create category", err)
		return
	}
	respondData(w, http.StatusCreated, category)
}

func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid category id"))
		return
	}

	var category models.Category
	if err := decodeJSON(w, r, &category); err != nil {
		respondError(w, err)
		return
	}
	category.ID = id

	if err := h.catalog.UpdateCategory(r.Context(), &category); err != nil {
		h.fail(w, r, "update category", err)
		return
	}
	respondData(w, http.StatusOK, category)
}

func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid category id"))
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		h.fail(w, r, "delete category", err)
		return
	}
	respondMessage(w, http.StatusOK, "category deleted")
}

// ListOffers serves offers; the public route only shows currently active ones.
func (h *Handlers) ListOffers(w http.ResponseWriter, r *http.Request) {
	activeOnly := adminFromContext(r.Context()) == ""
	if r.URL.Query().Get("active") == "true" {
		activeOnly = true
	}

	offers, err := h.catalog.Offers(r.Context(), activeOnly)
	if err != nil {
		h.fail(w, r, "list offers", err)
		return
	}
	respondData(w, http.StatusOK, offers)
}

func (h *Handlers) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var offer models.Offer
	if err := decodeJSON(w, r, &offer); err != nil {
		respondError(w, err)
		return
	}

	if err := h.catalog.CreateOffer(r.Context(), &offer); err != nil {
		h.fail(w, r, "create offer", err)
		return
	}
	respondData(w, http.StatusCreated, offer)
}

func (h *Handlers) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid offer id"))
		return
	}

	var offer models.Offer
	if err := decodeJSON(w, r, &offer); err != nil {
		respondError(w, err)
		return
	}
	offer.ID = id

	if err := h.catalog.UpdateOffer(r.Context(), &offer); err != nil {
		h.fail(w, r, "update offer", err)
		return
	}
	respondData(w, http.StatusOK, offer)
}

func (h *Handlers) DeleteOffer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, models.Validationf("invalid offer id"))
		return
	}

	if err := h.catalog.DeleteOffer(r.Context(), id); err != nil {
		h.fail(w, r, "delete offer", err)
		return
	}
	respondMessage(w, http.StatusOK, "offer deleted")
}

// ImportSeed loads a YAML seed document and upserts its catalog entries.
// Re-importing the same document is a no-op.
func (h *Handlers) ImportSeed(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		respondError(w, models.Validationf("failed to read seed document: %v", err))
		return
	}
	if len(content) == 0 {
		respondError(w, models.Validationf("seed document is empty"))
		return
	}

	stats, err := h.catalog.ImportSeed(r.Context(), content)
	if err != nil {
		h.fail(w, r, "import seed", err)
		return
	}
	respondData(w, http.StatusOK, stats)
}
