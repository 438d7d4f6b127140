package handlers

import (
	"net/http"

	"github.com/mealmap/restaurantweek/internal/application/services"
)

// AdminHandler handles maintenance endpoints
type AdminHandler struct {
	sync         *services.IndexSyncService
	invalidation *services.CacheInvalidationService
}

// NewAdminHandler creates a new admin handler. invalidation may be nil
// when the deployment runs without a cache.
func NewAdminHandler(sync *services.IndexSyncService, invalidation *services.CacheInvalidationService) *AdminHandler {
	return &AdminHandler{sync: sync, invalidation: invalidation}
}

// Reindex handles POST /api/admin/reindex. Resyncs every restaurant into
// the spatial index; safe to run repeatedly.
func (h *AdminHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	synced, err := h.sync.SyncAll(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"synced": synced,
	})
}

// ReindexRestaurant handles POST /api/admin/reindex/{id}. Reconciles a
// single restaurant's index entry with its record.
func (h *AdminHandler) ReindexRestaurant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "restaurant ID is required")
		return
	}

	if err := h.sync.SyncByID(r.Context(), id); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"synced": id,
	})
}

// FlushQueryCache handles POST /api/admin/flush-query-cache. Clears all
// cached bounded query pages.
func (h *AdminHandler) FlushQueryCache(w http.ResponseWriter, r *http.Request) {
	if h.invalidation == nil {
		respondWithError(w, http.StatusServiceUnavailable, "no cache configured")
		return
	}

	if err := h.invalidation.InvalidateQueryCaches(r.Context()); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"flushed": true,
	})
}
