package handlers

import "net/http"

// CacheStats handles GET /v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}

// ClearCaches handles DELETE /v1/cache.
func (h *Handler) ClearCaches(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearCaches()
	w.WriteHeader(http.StatusNoContent)
}
