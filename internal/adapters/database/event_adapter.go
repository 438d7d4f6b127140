package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
	"github.com/mealmap/restaurantweek/internal/infrastructure/clients/postgres"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

var eventColumns = []interface{}{
	"id", "name", "start_date", "end_date", "latitude", "longitude",
	"website_url", "sync_time", "created_at",
}

// EventAdapter implements EventRepository
type EventAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewEventAdapter creates a new event adapter
func NewEventAdapter(client *postgres.Client) repositories.EventRepository {
	return &EventAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new event
func (a *EventAdapter) Create(ctx context.Context, event *entities.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	record := goqu.Record{
		"id":          event.ID,
		"name":        event.Name,
		"start_date":  event.StartDate,
		"end_date":    event.EndDate,
		"latitude":    event.Location.Latitude,
		"longitude":   event.Location.Longitude,
		"website_url": sql.NullString{String: event.WebsiteURL, Valid: event.WebsiteURL != ""},
		"sync_time":   event.SyncTime,
		"created_at":  event.CreatedAt,
	}

	query, args, err := a.db.Insert("events").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create event", err)
	}

	return nil
}

// GetByID retrieves an event by ID
func (a *EventAdapter) GetByID(ctx context.Context, id string) (*entities.Event, error) {
	return a.getByField(ctx, "id", id)
}

// GetByName retrieves an event by its exact name
func (a *EventAdapter) GetByName(ctx context.Context, name string) (*entities.Event, error) {
	return a.getByField(ctx, "name", name)
}

func (a *EventAdapter) getByField(ctx context.Context, field, value string) (*entities.Event, error) {
	query, args, err := a.db.Select(eventColumns...).
		From("events").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	row := a.client.DB().QueryRowContext(ctx, query, args...)
	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("event with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get event", err)
	}

	return event, nil
}

// ListEndingAfter retrieves events ending at or after the given instant,
// ordered by start date
func (a *EventAdapter) ListEndingAfter(ctx context.Context, nowISO string) ([]*entities.Event, error) {
	query, args, err := a.db.Select(eventColumns...).
		From("events").
		Where(goqu.C("end_date").Gte(nowISO)).
		Order(goqu.I("start_date").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list events", err)
	}
	defer rows.Close()

	events := []*entities.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan event", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate events", err)
	}

	return events, nil
}

// UpdateSyncTime stamps the event's last ingestion sync time
func (a *EventAdapter) UpdateSyncTime(ctx context.Context, id string, syncTime time.Time) error {
	query, args, err := a.db.Update("events").
		Set(goqu.Record{"sync_time": syncTime}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update event sync time", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("event with id %s not found", id))
	}

	return nil
}

func scanEvent(row rowScanner) (*entities.Event, error) {
	event := &entities.Event{}
	var websiteURL sql.NullString

	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.StartDate,
		&event.EndDate,
		&event.Location.Latitude,
		&event.Location.Longitude,
		&websiteURL,
		&event.SyncTime,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.WebsiteURL = websiteURL.String
	return event, nil
}
