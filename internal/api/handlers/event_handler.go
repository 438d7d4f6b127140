package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mealmap/restaurantweek/internal/application/services"
)

// EventHandler handles restaurant week event requests
type EventHandler struct {
	events    *services.EventService
	ingestion *services.IngestionService
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *services.EventService, ingestion *services.IngestionService) *EventHandler {
	return &EventHandler{
		events:    events,
		ingestion: ingestion,
	}
}

// ListActiveEvents handles GET /api/events. A name query parameter
// switches to an exact-name lookup returning the single match.
func (h *EventHandler) ListActiveEvents(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		event, err := h.events.GetByName(r.Context(), name)
		if err != nil {
			respondWithAppError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, event)
		return
	}

	events, err := h.events.ListActive(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// GetEvent handles GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "event ID is required")
		return
	}

	event, err := h.events.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, event)
}

// GetEventRestaurants handles GET /api/events/{id}/restaurants
func (h *EventHandler) GetEventRestaurants(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "event ID is required")
		return
	}

	restaurants, err := h.events.RestaurantsForEvent(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"restaurants": restaurants,
		"count":       len(restaurants),
	})
}

// GetEventMenus handles GET /api/events/{id}/menus
func (h *EventHandler) GetEventMenus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "event ID is required")
		return
	}

	menus, err := h.events.MenusForEvent(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"menus": menus,
		"count": len(menus),
	})
}

// GetRestaurantMenus handles GET /api/restaurants/{id}/menus
func (h *EventHandler) GetRestaurantMenus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "restaurant ID is required")
		return
	}

	menus, err := h.events.MenusForRestaurant(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"menus": menus,
		"count": len(menus),
	})
}

// IngestScraped handles POST /api/events/{id}/scraped
func (h *EventHandler) IngestScraped(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "event ID is required")
		return
	}

	var scraped []services.ScrapedRestaurant
	if err := json.NewDecoder(r.Body).Decode(&scraped); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.ingestion.StoreScraped(r.Context(), id, scraped)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
