package handlers

import "net/http"

// MaintenanceGate refuses storefront writes while maintenance mode is on.
// Reads stay available so customers can still see the catalog and their
// orders.
func (h *Handlers) MaintenanceGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead &&
			h.settings.MaintenanceMode(r.Context()) {
			respondMessage(w, http.StatusServiceUnavailable, "store is under maintenance, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
