package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mealmap/restaurantweek/internal/application/services"
	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
)

// GeoQueryHandler handles bounded and nearest map queries
type GeoQueryHandler struct {
	geoQuery     *services.GeoQueryService
	defaultLimit int
}

// NewGeoQueryHandler creates a new geo query handler. defaultLimit caps
// pages when the caller omits a limit.
func NewGeoQueryHandler(geoQuery *services.GeoQueryService, defaultLimit int) *GeoQueryHandler {
	return &GeoQueryHandler{
		geoQuery:     geoQuery,
		defaultLimit: defaultLimit,
	}
}

// QueryInBounds handles GET /api/restaurants/in-bounds
//
// Bounds come from north/south/east/west. Price filters use
// min_<meal>_price / max_<meal>_price; categories is a comma-separated
// list. The authenticated customer, when present, arrives in the
// X-Customer-ID header set by the auth proxy.
func (h *GeoQueryHandler) QueryInBounds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rect, err := parseRectangle(q)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter, err := parseBoundsFilter(q)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := h.defaultLimit
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}

	result, err := h.geoQuery.QueryBounds(r.Context(), services.BoundsQuery{
		Rect:       rect,
		Filter:     filter,
		Limit:      limit,
		Cursor:     q.Get("cursor"),
		CustomerID: r.Header.Get("X-Customer-ID"),
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"restaurants": result.Restaurants,
		"count":       len(result.Restaurants),
		"next_cursor": result.NextCursor,
	})
}

// QueryNearest handles GET /api/restaurants/nearest
func (h *GeoQueryHandler) QueryNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := parseFloatParam(q.Get("lat"), "lat")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := parseFloatParam(q.Get("lon"), "lon")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	maxResults := 0
	if raw := q.Get("limit"); raw != "" {
		maxResults, err = strconv.Atoi(raw)
		if err != nil || maxResults < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}

	maxDistance := 0.0
	if raw := q.Get("max_distance_m"); raw != "" {
		maxDistance, err = parseFloatParam(raw, "max_distance_m")
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	nearby, err := h.geoQuery.QueryNearest(r.Context(), entities.Location{Latitude: lat, Longitude: lon}, maxResults, maxDistance)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"restaurants": nearby,
		"count":       len(nearby),
	})
}

func parseRectangle(q map[string][]string) (entities.Rectangle, error) {
	get := func(key string) string {
		if vals, ok := q[key]; ok && len(vals) > 0 {
			return vals[0]
		}
		return ""
	}

	north, err := parseFloatParam(get("north"), "north")
	if err != nil {
		return entities.Rectangle{}, err
	}
	south, err := parseFloatParam(get("south"), "south")
	if err != nil {
		return entities.Rectangle{}, err
	}
	east, err := parseFloatParam(get("east"), "east")
	if err != nil {
		return entities.Rectangle{}, err
	}
	west, err := parseFloatParam(get("west"), "west")
	if err != nil {
		return entities.Rectangle{}, err
	}

	return entities.Rectangle{North: north, South: south, East: east, West: west}, nil
}

func parseBoundsFilter(q map[string][]string) (repositories.BoundsFilter, error) {
	get := func(key string) string {
		if vals, ok := q[key]; ok && len(vals) > 0 {
			return vals[0]
		}
		return ""
	}

	filter := repositories.BoundsFilter{}

	bounds := []struct {
		param  string
		target **float64
	}{
		{"min_brunch_price", &filter.Brunch.Min},
		{"max_brunch_price", &filter.Brunch.Max},
		{"min_lunch_price", &filter.Lunch.Min},
		{"max_lunch_price", &filter.Lunch.Max},
		{"min_dinner_price", &filter.Dinner.Min},
		{"max_dinner_price", &filter.Dinner.Max},
	}
	for _, b := range bounds {
		raw := get(b.param)
		if raw == "" {
			continue
		}
		value, err := parseFloatParam(raw, b.param)
		if err != nil {
			return repositories.BoundsFilter{}, err
		}
		*b.target = &value
	}

	if raw := get("categories"); raw != "" {
		for _, category := range strings.Split(raw, ",") {
			category = strings.TrimSpace(category)
			if category != "" {
				filter.Categories = append(filter.Categories, category)
			}
		}
	}

	return filter, nil
}

func parseFloatParam(raw, name string) (float64, error) {
	if raw == "" {
		return 0, &paramError{name: name, reason: "is required"}
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &paramError{name: name, reason: "must be a number"}
	}
	return value, nil
}

type paramError struct {
	name   string
	reason string
}

func (e *paramError) Error() string {
	return e.name + " " + e.reason
}
