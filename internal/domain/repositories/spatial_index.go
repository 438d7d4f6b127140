package repositories

import (
	"context"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
)

// DefaultSpatialPageLimit caps a bounding box page when the caller does
// not provide a limit
const DefaultSpatialPageLimit = 100

// SpatialEntry is one indexed restaurant location. Derived data owned by
// the index; always reconstructable from the restaurant record.
type SpatialEntry struct {
	Key        string            `json:"key"`
	Location   entities.Location `json:"location"`
	Categories []string          `json:"categories"`
	Rating     float64           `json:"rating"`
}

// SpatialHit is one bounding box query result
type SpatialHit struct {
	Key      string            `json:"key"`
	Location entities.Location `json:"location"`
}

// SpatialPage is one page of bounding box results with a continuation cursor
type SpatialPage struct {
	Results    []SpatialHit `json:"results"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// NearbyHit is one nearest-neighbor result with its great-circle distance
type NearbyHit struct {
	Key            string            `json:"key"`
	Location       entities.Location `json:"location"`
	DistanceMeters float64           `json:"distance_meters"`
}

// SpatialIndex defines the contract of the geospatial index engine.
//
// Entries are keyed by restaurant ID. Bounding box pages are ordered by
// rating descending with key ascending as a stable tiebreak, and
// paginated by opaque cursor.
type SpatialIndex interface {
	// Insert upserts an entry. An existing entry under the same key is
	// replaced entirely. Idempotent. Entries with invalid coordinates
	// are rejected with a validation error.
	Insert(ctx context.Context, entry SpatialEntry) error

	// Remove deletes the entry if present and reports whether it was found.
	// Removing a missing key is not an error.
	Remove(ctx context.Context, key string) (bool, error)

	// Query returns entries inside the rectangle, paginated. A limit <= 0
	// falls back to DefaultSpatialPageLimit. An empty cursor starts from
	// the beginning.
	Query(ctx context.Context, rect entities.Rectangle, limit int, cursor string) (*SpatialPage, error)

	// QueryNearest returns up to maxResults entries closest to point,
	// nearest first. A maxDistanceMeters <= 0 means no distance cap.
	QueryNearest(ctx context.Context, point entities.Location, maxResults int, maxDistanceMeters float64) ([]NearbyHit, error)
}
