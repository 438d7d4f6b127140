package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
	"github.com/mealmap/restaurantweek/internal/infrastructure/clients/postgres"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

var menuColumns = []interface{}{
	"id", "restaurant_id", "event_id", "meal", "price", "url", "sync_time",
}

// MenuAdapter implements MenuRepository.
//
// Uniqueness of the (restaurant, event, meal) triple is enforced by
// detecting the existing row and updating it in place.
type MenuAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMenuAdapter creates a new menu adapter
func NewMenuAdapter(client *postgres.Client) repositories.MenuRepository {
	return &MenuAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Upsert inserts the menu or updates the existing
// (restaurant, event, meal) row in place
func (a *MenuAdapter) Upsert(ctx context.Context, menu *entities.Menu) error {
	if !entities.ValidMealType(string(menu.Meal)) {
		return apperrors.NewValidationError("invalid meal type: " + string(menu.Meal))
	}

	existingID, err := a.findTriple(ctx, menu.RestaurantID, menu.EventID, menu.Meal)
	if err != nil {
		return err
	}

	if existingID != "" {
		record := goqu.Record{
			"price":     menu.Price,
			"sync_time": menu.SyncTime,
		}
		if menu.URL != "" {
			record["url"] = menu.URL
		}

		query, args, err := a.db.Update("menus").
			Set(record).
			Where(goqu.Ex{"id": existingID}).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build update query", err)
		}

		if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to update menu", err)
		}

		menu.ID = existingID
		return nil
	}

	if menu.ID == "" {
		menu.ID = uuid.NewString()
	}

	record := goqu.Record{
		"id":            menu.ID,
		"restaurant_id": menu.RestaurantID,
		"event_id":      menu.EventID,
		"meal":          string(menu.Meal),
		"price":         menu.Price,
		"url":           sql.NullString{String: menu.URL, Valid: menu.URL != ""},
		"sync_time":     menu.SyncTime,
	}

	query, args, err := a.db.Insert("menus").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create menu", err)
	}

	return nil
}

func (a *MenuAdapter) findTriple(ctx context.Context, restaurantID, eventID string, meal entities.MealType) (string, error) {
	query, args, err := a.db.Select("id").
		From("menus").
		Where(goqu.Ex{
			"restaurant_id": restaurantID,
			"event_id":      eventID,
			"meal":          string(meal),
		}).
		ToSQL()
	if err != nil {
		return "", apperrors.NewInternalError("failed to build query", err)
	}

	var id string
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", apperrors.NewInternalError("failed to look up menu", err)
	}

	return id, nil
}

// ListByEvent retrieves all menus for an event
func (a *MenuAdapter) ListByEvent(ctx context.Context, eventID string) ([]*entities.Menu, error) {
	return a.list(ctx, goqu.Ex{"event_id": eventID})
}

// ListByRestaurant retrieves all menus for a restaurant
func (a *MenuAdapter) ListByRestaurant(ctx context.Context, restaurantID string) ([]*entities.Menu, error) {
	return a.list(ctx, goqu.Ex{"restaurant_id": restaurantID})
}

func (a *MenuAdapter) list(ctx context.Context, where goqu.Ex) ([]*entities.Menu, error) {
	query, args, err := a.db.Select(menuColumns...).
		From("menus").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list menus", err)
	}
	defer rows.Close()

	menus := []*entities.Menu{}
	for rows.Next() {
		menu := &entities.Menu{}
		var url sql.NullString
		var meal string

		err := rows.Scan(
			&menu.ID,
			&menu.RestaurantID,
			&menu.EventID,
			&meal,
			&menu.Price,
			&url,
			&menu.SyncTime,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan menu", err)
		}

		menu.Meal = entities.MealType(meal)
		menu.URL = url.String
		menus = append(menus, menu)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate menus", err)
	}

	return menus, nil
}
