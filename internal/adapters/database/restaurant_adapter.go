package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
	"github.com/mealmap/restaurantweek/internal/infrastructure/clients/postgres"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

var restaurantColumns = []interface{}{
	"id", "scrape_key", "name", "rating", "latitude", "longitude",
	"address", "website_url", "yelp_url", "opentable_url", "categories",
	"brunch_price", "lunch_price", "dinner_price", "created_at", "updated_at",
}

// RestaurantAdapter implements RestaurantRepository
type RestaurantAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRestaurantAdapter creates a new restaurant adapter
func NewRestaurantAdapter(client *postgres.Client) repositories.RestaurantRepository {
	return &RestaurantAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func restaurantRecord(r *entities.Restaurant) goqu.Record {
	categories := r.Categories
	if categories == nil {
		categories = []string{}
	}
	return goqu.Record{
		"id":            r.ID,
		"scrape_key":    sql.NullString{String: r.ScrapeKey, Valid: r.ScrapeKey != ""},
		"name":          r.Name,
		"rating":        nullFloat(r.Rating),
		"latitude":      nullFloat(r.Latitude),
		"longitude":     nullFloat(r.Longitude),
		"address":       sql.NullString{String: r.Address, Valid: r.Address != ""},
		"website_url":   sql.NullString{String: r.WebsiteURL, Valid: r.WebsiteURL != ""},
		"yelp_url":      sql.NullString{String: r.YelpURL, Valid: r.YelpURL != ""},
		"opentable_url": sql.NullString{String: r.OpenTableURL, Valid: r.OpenTableURL != ""},
		"categories":    pq.Array(categories),
		"brunch_price":  nullFloat(r.BrunchPrice),
		"lunch_price":   nullFloat(r.LunchPrice),
		"dinner_price":  nullFloat(r.DinnerPrice),
		"created_at":    r.CreatedAt,
		"updated_at":    r.UpdatedAt,
	}
}

// Create creates a new restaurant
func (a *RestaurantAdapter) Create(ctx context.Context, restaurant *entities.Restaurant) error {
	now := time.Now()
	if restaurant.CreatedAt.IsZero() {
		restaurant.CreatedAt = now
	}
	restaurant.UpdatedAt = now

	query, args, err := a.db.Insert("restaurants").Rows(restaurantRecord(restaurant)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create restaurant", err)
	}

	return nil
}

// GetByID retrieves a restaurant by ID
func (a *RestaurantAdapter) GetByID(ctx context.Context, id string) (*entities.Restaurant, error) {
	return a.getByField(ctx, "id", id)
}

// GetByScrapeKey retrieves a restaurant by its ingestion dedup key
func (a *RestaurantAdapter) GetByScrapeKey(ctx context.Context, key string) (*entities.Restaurant, error) {
	return a.getByField(ctx, "scrape_key", key)
}

func (a *RestaurantAdapter) getByField(ctx context.Context, field, value string) (*entities.Restaurant, error) {
	query, args, err := a.db.Select(restaurantColumns...).
		From("restaurants").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	row := a.client.DB().QueryRowContext(ctx, query, args...)
	restaurant, err := scanRestaurant(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("restaurant with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get restaurant", err)
	}

	return restaurant, nil
}

// GetByIDs retrieves multiple restaurants by their IDs. Missing IDs are
// omitted, not an error.
func (a *RestaurantAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Restaurant, error) {
	if len(ids) == 0 {
		return []*entities.Restaurant{}, nil
	}

	query, args, err := a.db.Select(restaurantColumns...).
		From("restaurants").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get restaurants by ids", err)
	}
	defer rows.Close()

	return collectRestaurants(rows)
}

// Update replaces a restaurant record
func (a *RestaurantAdapter) Update(ctx context.Context, restaurant *entities.Restaurant) error {
	restaurant.UpdatedAt = time.Now()

	record := restaurantRecord(restaurant)
	delete(record, "id")
	delete(record, "created_at")

	query, args, err := a.db.Update("restaurants").
		Set(record).
		Where(goqu.Ex{"id": restaurant.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update restaurant", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("restaurant with id %s not found", restaurant.ID))
	}

	return nil
}

// Delete deletes a restaurant
func (a *RestaurantAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("restaurants").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete restaurant", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("restaurant with id %s not found", id))
	}

	return nil
}

// List retrieves all restaurants
func (a *RestaurantAdapter) List(ctx context.Context) ([]*entities.Restaurant, error) {
	query, args, err := a.db.Select(restaurantColumns...).
		From("restaurants").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list restaurants", err)
	}
	defer rows.Close()

	return collectRestaurants(rows)
}

// ListCategories returns the sorted distinct union of all categories
func (a *RestaurantAdapter) ListCategories(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT unnest(categories) AS category FROM restaurants ORDER BY category`

	rows, err := a.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list categories", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, apperrors.NewInternalError("failed to scan category", err)
		}
		categories = append(categories, category)
	}

	return categories, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRestaurant(row rowScanner) (*entities.Restaurant, error) {
	restaurant := &entities.Restaurant{}
	var scrapeKey, address, websiteURL, yelpURL, openTableURL sql.NullString
	var rating, latitude, longitude, brunchPrice, lunchPrice, dinnerPrice sql.NullFloat64

	err := row.Scan(
		&restaurant.ID,
		&scrapeKey,
		&restaurant.Name,
		&rating,
		&latitude,
		&longitude,
		&address,
		&websiteURL,
		&yelpURL,
		&openTableURL,
		pq.Array(&restaurant.Categories),
		&brunchPrice,
		&lunchPrice,
		&dinnerPrice,
		&restaurant.CreatedAt,
		&restaurant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	restaurant.ScrapeKey = scrapeKey.String
	restaurant.Address = address.String
	restaurant.WebsiteURL = websiteURL.String
	restaurant.YelpURL = yelpURL.String
	restaurant.OpenTableURL = openTableURL.String
	restaurant.Rating = floatPtr(rating)
	restaurant.Latitude = floatPtr(latitude)
	restaurant.Longitude = floatPtr(longitude)
	restaurant.BrunchPrice = floatPtr(brunchPrice)
	restaurant.LunchPrice = floatPtr(lunchPrice)
	restaurant.DinnerPrice = floatPtr(dinnerPrice)

	return restaurant, nil
}

func collectRestaurants(rows *sql.Rows) ([]*entities.Restaurant, error) {
	restaurants := []*entities.Restaurant{}
	for rows.Next() {
		restaurant, err := scanRestaurant(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan restaurant", err)
		}
		restaurants = append(restaurants, restaurant)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate restaurants", err)
	}
	return restaurants, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
