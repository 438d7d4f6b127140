package geoindex

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
	tsclient "github.com/mealmap/restaurantweek/internal/infrastructure/clients/typesense"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

// TypesenseIndex implements the spatial index contract on a Typesense
// geopoint collection. The cursor wraps Typesense's page number; pages
// are ordered by rating descending, which Typesense keeps stable for
// unchanged data.
type TypesenseIndex struct {
	client *tsclient.Client
}

// Ensure TypesenseIndex implements SpatialIndex
var _ repositories.SpatialIndex = (*TypesenseIndex)(nil)

// NewTypesenseIndex creates a new Typesense-backed spatial index
func NewTypesenseIndex(client *tsclient.Client) *TypesenseIndex {
	return &TypesenseIndex{client: client}
}

// InitSchema ensures the restaurants geopoint collection exists
func (i *TypesenseIndex) InitSchema(ctx context.Context) error {
	_, err := i.client.Client().Collection(tsclient.RestaurantsCollection).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: tsclient.RestaurantsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "location", Type: "geopoint"},
			{Name: "categories", Type: "string[]", Facet: pointer.True()},
			{Name: "rating", Type: "float"},
		},
		DefaultSortingField: pointer.String("rating"),
	}

	_, err = i.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return apperrors.NewExternalError("failed to create typesense collection", err)
	}

	return nil
}

// Insert upserts an entry, replacing any existing document under the same key
func (i *TypesenseIndex) Insert(ctx context.Context, entry repositories.SpatialEntry) error {
	if entry.Key == "" {
		return apperrors.NewValidationError("spatial entry key is required")
	}
	if !entry.Location.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf(
			"invalid coordinates (%f, %f) for key %s",
			entry.Location.Latitude, entry.Location.Longitude, entry.Key,
		))
	}

	categories := entry.Categories
	if categories == nil {
		categories = []string{}
	}

	document := map[string]interface{}{
		"id":         entry.Key,
		"location":   []float64{entry.Location.Latitude, entry.Location.Longitude},
		"categories": categories,
		"rating":     entry.Rating,
	}

	_, err := i.client.Client().Collection(tsclient.RestaurantsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return apperrors.NewExternalError("failed to index restaurant location", err)
	}

	return nil
}

// Remove deletes the document if present and reports whether it was found
func (i *TypesenseIndex) Remove(ctx context.Context, key string) (bool, error) {
	_, err := i.client.Client().Collection(tsclient.RestaurantsCollection).Document(key).Delete(ctx)
	if err != nil {
		var httpErr *typesense.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == 404 {
			return false, nil
		}
		return false, apperrors.NewExternalError("failed to remove restaurant from index", err)
	}
	return true, nil
}

// Query returns documents inside the rectangle ordered by rating
// descending, paginated via a cursor wrapping the Typesense page number
func (i *TypesenseIndex) Query(ctx context.Context, rect entities.Rectangle, limit int, cursor string) (*repositories.SpatialPage, error) {
	if !rect.Valid() {
		return nil, apperrors.NewValidationError("invalid bounding rectangle")
	}
	if limit <= 0 {
		limit = repositories.DefaultSpatialPageLimit
	}

	page := 1
	if cursor != "" {
		decoded, err := decodePageCursor(cursor)
		if err != nil {
			return nil, err
		}
		page = decoded
	}

	// Axis-aligned rectangle as a geo polygon: NW, NE, SE, SW
	filter := fmt.Sprintf("location:(%f, %f, %f, %f, %f, %f, %f, %f)",
		rect.North, rect.West,
		rect.North, rect.East,
		rect.South, rect.East,
		rect.South, rect.West,
	)

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String("*"),
		QueryBy:  pointer.String("id"),
		FilterBy: pointer.String(filter),
		SortBy:   pointer.String("rating:desc"),
		Page:     pointer.Int(page),
		PerPage:  pointer.Int(limit),
	}

	result, err := i.client.Client().Collection(tsclient.RestaurantsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to query spatial index", err)
	}

	out := &repositories.SpatialPage{Results: make([]repositories.SpatialHit, 0)}
	if result.Hits != nil {
		for _, hit := range *result.Hits {
			key, location, ok := parseHit(hit)
			if !ok {
				continue
			}
			out.Results = append(out.Results, repositories.SpatialHit{Key: key, Location: location})
		}
	}

	if result.Found != nil && *result.Found > page*limit {
		out.NextCursor = encodePageCursor(page + 1)
	}

	return out, nil
}

// QueryNearest returns up to maxResults documents closest to point
func (i *TypesenseIndex) QueryNearest(ctx context.Context, point entities.Location, maxResults int, maxDistanceMeters float64) ([]repositories.NearbyHit, error) {
	if !point.Valid() {
		return nil, apperrors.NewValidationError("invalid query point")
	}
	if maxResults <= 0 {
		maxResults = repositories.DefaultSpatialPageLimit
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String("*"),
		QueryBy: pointer.String("id"),
		SortBy:  pointer.String(fmt.Sprintf("location(%f, %f):asc", point.Latitude, point.Longitude)),
		Page:    pointer.Int(1),
		PerPage: pointer.Int(maxResults),
	}
	if maxDistanceMeters > 0 {
		searchParams.FilterBy = pointer.String(fmt.Sprintf(
			"location:(%f, %f, %f km)",
			point.Latitude, point.Longitude, maxDistanceMeters/1000.0,
		))
	}

	result, err := i.client.Client().Collection(tsclient.RestaurantsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to query nearest restaurants", err)
	}

	hits := make([]repositories.NearbyHit, 0)
	if result.Hits != nil {
		for _, hit := range *result.Hits {
			key, location, ok := parseHit(hit)
			if !ok {
				continue
			}
			hits = append(hits, repositories.NearbyHit{
				Key:            key,
				Location:       location,
				DistanceMeters: entities.DistanceMeters(point, location),
			})
		}
	}

	return hits, nil
}

func parseHit(hit api.SearchResultHit) (string, entities.Location, bool) {
	if hit.Document == nil {
		return "", entities.Location{}, false
	}
	doc := *hit.Document

	key, ok := doc["id"].(string)
	if !ok {
		return "", entities.Location{}, false
	}

	locInterface, ok := doc["location"].([]interface{})
	if !ok || len(locInterface) != 2 {
		return "", entities.Location{}, false
	}
	lat, latOK := locInterface[0].(float64)
	lon, lonOK := locInterface[1].(float64)
	if !latOK || !lonOK {
		return "", entities.Location{}, false
	}

	return key, entities.Location{Latitude: lat, Longitude: lon}, true
}

func encodePageCursor(page int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(page)))
}

func decodePageCursor(cursor string) (int, error) {
	data, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, apperrors.NewValidationError("malformed pagination cursor")
	}
	page, err := strconv.Atoi(string(data))
	if err != nil || page < 1 {
		return 0, apperrors.NewValidationError("malformed pagination cursor")
	}
	return page, nil
}
