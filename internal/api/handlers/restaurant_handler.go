package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mealmap/restaurantweek/internal/application/services"
	"github.com/mealmap/restaurantweek/internal/domain/entities"
)

// RestaurantHandler handles restaurant CRUD and enrichment requests
type RestaurantHandler struct {
	restaurants *services.RestaurantService
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(restaurants *services.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{restaurants: restaurants}
}

// GetRestaurant handles GET /api/restaurants/{id}
func (h *RestaurantHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "restaurant ID is required")
		return
	}

	restaurant, err := h.restaurants.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, restaurant)
}

// ListRestaurants handles GET /api/restaurants
func (h *RestaurantHandler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.restaurants.List(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"restaurants": restaurants,
		"count":       len(restaurants),
	})
}

// CreateRestaurant handles POST /api/restaurants
func (h *RestaurantHandler) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	var restaurant entities.Restaurant
	if err := json.NewDecoder(r.Body).Decode(&restaurant); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.restaurants.Create(r.Context(), &restaurant); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, restaurant)
}

// UpdateRestaurant handles PUT /api/restaurants/{id}
func (h *RestaurantHandler) UpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "restaurant ID is required")
		return
	}

	var restaurant entities.Restaurant
	if err := json.NewDecoder(r.Body).Decode(&restaurant); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	restaurant.ID = id

	if err := h.restaurants.Update(r.Context(), &restaurant); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, restaurant)
}

// DeleteRestaurant handles DELETE /api/restaurants/{id}
func (h *RestaurantHandler) DeleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "restaurant ID is required")
		return
	}

	if err := h.restaurants.Delete(r.Context(), id); err != nil {
		respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// EnrichRestaurant handles PATCH /api/restaurants/{id}/enrichment.
// Only fields the restaurant is missing are filled in.
func (h *RestaurantHandler) EnrichRestaurant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "restaurant ID is required")
		return
	}

	var enrichment entities.RestaurantEnrichment
	if err := json.NewDecoder(r.Body).Decode(&enrichment); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	restaurant, err := h.restaurants.ApplyEnrichment(r.Context(), id, enrichment)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, restaurant)
}

// ListCategories handles GET /api/categories
func (h *RestaurantHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.restaurants.ListCategories(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}
