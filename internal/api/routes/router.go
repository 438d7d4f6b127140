package routes

import (
	"net/http"

	"github.com/mealmap/restaurantweek/internal/api/handlers"
	"github.com/mealmap/restaurantweek/internal/api/middleware"
	"github.com/mealmap/restaurantweek/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	restaurantHandler *handlers.RestaurantHandler
	geoQueryHandler   *handlers.GeoQueryHandler
	eventHandler      *handlers.EventHandler
	adminHandler      *handlers.AdminHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	restaurantHandler *handlers.RestaurantHandler,
	geoQueryHandler *handlers.GeoQueryHandler,
	eventHandler *handlers.EventHandler,
	adminHandler *handlers.AdminHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		restaurantHandler: restaurantHandler,
		geoQueryHandler:   geoQueryHandler,
		eventHandler:      eventHandler,
		adminHandler:      adminHandler,
		metrics:           metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Map query endpoints. Static segments before {id} so the mux does
	// not swallow them as path values.
	r.mux.HandleFunc("GET /api/restaurants/in-bounds", r.geoQueryHandler.QueryInBounds)
	r.mux.HandleFunc("GET /api/restaurants/nearest", r.geoQueryHandler.QueryNearest)

	// Restaurant endpoints
	r.mux.HandleFunc("GET /api/restaurants", r.restaurantHandler.ListRestaurants)
	r.mux.HandleFunc("POST /api/restaurants", r.restaurantHandler.CreateRestaurant)
	r.mux.HandleFunc("GET /api/restaurants/{id}", r.restaurantHandler.GetRestaurant)
	r.mux.HandleFunc("PUT /api/restaurants/{id}", r.restaurantHandler.UpdateRestaurant)
	r.mux.HandleFunc("DELETE /api/restaurants/{id}", r.restaurantHandler.DeleteRestaurant)
	r.mux.HandleFunc("PATCH /api/restaurants/{id}/enrichment", r.restaurantHandler.EnrichRestaurant)
	r.mux.HandleFunc("GET /api/restaurants/{id}/menus", r.eventHandler.GetRestaurantMenus)

	// Category endpoint
	r.mux.HandleFunc("GET /api/categories", r.restaurantHandler.ListCategories)

	// Event endpoints
	r.mux.HandleFunc("GET /api/events", r.eventHandler.ListActiveEvents)
	r.mux.HandleFunc("GET /api/events/{id}", r.eventHandler.GetEvent)
	r.mux.HandleFunc("GET /api/events/{id}/restaurants", r.eventHandler.GetEventRestaurants)
	r.mux.HandleFunc("GET /api/events/{id}/menus", r.eventHandler.GetEventMenus)
	r.mux.HandleFunc("POST /api/events/{id}/scraped", r.eventHandler.IngestScraped)

	// Admin endpoints
	r.mux.HandleFunc("POST /api/admin/reindex", r.adminHandler.Reindex)
	r.mux.HandleFunc("POST /api/admin/reindex/{id}", r.adminHandler.ReindexRestaurant)
	r.mux.HandleFunc("POST /api/admin/flush-query-cache", r.adminHandler.FlushQueryCache)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
