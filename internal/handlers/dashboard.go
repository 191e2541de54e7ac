package handlers

import "net/http"

// DashboardStats returns the admin dashboard counters in a single response.
func (h *Handlers) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		h.fail(w, r, "load dashboard stats", err)
		return
	}
	respondData(w, http.StatusOK, stats)
}
