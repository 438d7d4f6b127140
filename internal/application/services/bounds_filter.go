package services

import (
	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
)

// Filter evaluation for bounded map queries.
//
// Price dimensions are disjunctive: a restaurant passes the price side if
// ANY active meal dimension accepts it. The category set is a single
// conjunctive dimension: when non-empty the restaurant must share at least
// one category with it. A filter with nothing active passes everything.
//
// A dimension whose min exceeds its max is still active; it just accepts
// nothing. That is the caller's contradiction to resolve, not an error.

// MatchesBounds reports whether the restaurant satisfies the filter
func MatchesBounds(r *entities.Restaurant, filter repositories.BoundsFilter) bool {
	return matchesPrice(r, filter) && matchesCategories(r, filter)
}

func matchesPrice(r *entities.Restaurant, filter repositories.BoundsFilter) bool {
	if filter.ActivePriceDimensions() == 0 {
		return true
	}

	for _, meal := range entities.MealTypes {
		bound := filter.PriceBoundFor(meal)
		if !bound.Set() {
			continue
		}
		if !r.OffersMeal(meal) {
			// Not offering the meal fails that dimension
			continue
		}
		price := r.Price(meal)
		if bound.Min != nil && *price < *bound.Min {
			continue
		}
		if bound.Max != nil && *price > *bound.Max {
			continue
		}
		return true
	}
	return false
}

func matchesCategories(r *entities.Restaurant, filter repositories.BoundsFilter) bool {
	if !filter.HasCategoryFilter() {
		return true
	}

	requested := make(map[string]struct{}, len(filter.Categories))
	for _, c := range filter.Categories {
		requested[c] = struct{}{}
	}
	for _, c := range r.Categories {
		if _, ok := requested[c]; ok {
			return true
		}
	}
	return false
}

// FilterDimensionCount counts the filter's active dimensions: one per meal
// price dimension with any bound set, plus one when the category set is
// non-empty. The whole category set is a single dimension regardless of
// its size.
func FilterDimensionCount(filter repositories.BoundsFilter) int {
	count := filter.ActivePriceDimensions()
	if filter.HasCategoryFilter() {
		count++
	}
	return count
}
