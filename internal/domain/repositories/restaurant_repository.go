package repositories

import (
	"context"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
)

// RestaurantRepository defines the interface for restaurant data operations
type RestaurantRepository interface {
	// Create creates a new restaurant
	Create(ctx context.Context, restaurant *entities.Restaurant) error

	// GetByID retrieves a restaurant by ID
	GetByID(ctx context.Context, id string) (*entities.Restaurant, error)

	// GetByIDs retrieves multiple restaurants by their IDs.
	// IDs that do not resolve are omitted from the result, not an error.
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Restaurant, error)

	// GetByScrapeKey retrieves a restaurant by its ingestion dedup key
	GetByScrapeKey(ctx context.Context, key string) (*entities.Restaurant, error)

	// Update replaces a restaurant record
	Update(ctx context.Context, restaurant *entities.Restaurant) error

	// Delete deletes a restaurant
	Delete(ctx context.Context, id string) error

	// List retrieves all restaurants
	List(ctx context.Context) ([]*entities.Restaurant, error)

	// ListCategories returns the sorted distinct union of all categories
	ListCategories(ctx context.Context) ([]string, error)
}

// PriceBound is an optional half-open constraint on one meal price dimension
type PriceBound struct {
	Min *float64
	Max *float64
}

// Set reports whether either bound is present, i.e. the dimension is active
func (b PriceBound) Set() bool {
	return b.Min != nil || b.Max != nil
}

// BoundsFilter carries the attribute constraints of a bounded map query.
// Price dimensions combine disjunctively among themselves and
// conjunctively with the category constraint.
type BoundsFilter struct {
	Brunch     PriceBound
	Lunch      PriceBound
	Dinner     PriceBound
	Categories []string
}

// PriceBoundFor returns the bound for the given meal dimension
func (f BoundsFilter) PriceBoundFor(meal entities.MealType) PriceBound {
	switch meal {
	case entities.MealBrunch:
		return f.Brunch
	case entities.MealLunch:
		return f.Lunch
	case entities.MealDinner:
		return f.Dinner
	}
	return PriceBound{}
}

// ActivePriceDimensions counts meal dimensions with at least one bound set
func (f BoundsFilter) ActivePriceDimensions() int {
	count := 0
	for _, meal := range entities.MealTypes {
		if f.PriceBoundFor(meal).Set() {
			count++
		}
	}
	return count
}

// HasCategoryFilter reports whether a non-empty category set is requested
func (f BoundsFilter) HasCategoryFilter() bool {
	return len(f.Categories) > 0
}
