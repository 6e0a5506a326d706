package handlers

import "net/http"

// GetStats — GET /api/admin/stats. Сводка для dashboard.
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Get(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, statsJSON{
		TotalProducts:    stats.TotalProducts,
		FeaturedProducts: stats.FeaturedProducts,
		Categories:       stats.Categories,
	})
}
