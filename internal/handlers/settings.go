package handlers

import (
	"net/http"

	"github.com/upikart/upikart/internal/models"
)

// ListSettings returns every system setting. Secret values are masked.
func (h *Handlers) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.All(r.Context())
	if err != nil {
		h.fail(w, r, "list settings", err)
		return
	}
	respondData(w, http.StatusOK, settings)
}

type putSettingBody struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Secret bool   `json:"secret"`
}

// PutSetting creates or replaces a system setting. Secret values are
// encrypted at rest.
func (h *Handlers) PutSetting(w http.ResponseWriter, r *http.Request) {
	var body putSettingBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, err)
		return
	}
	if body.Key == "" {
		respondError(w, models.Validationf("key is required"))
		return
	}

	if err := h.settings.Set(r.Context(), body.Key, body.Value, body.Secret); err != nil {
		h.fail(w, r, "update setting", err)
		return
	}
	respondMessage(w, http.StatusOK, "setting updated")
}
