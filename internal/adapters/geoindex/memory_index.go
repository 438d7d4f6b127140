package geoindex

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

// MemoryIndex is an in-process reference implementation of the spatial
// index contract. It backs tests and deployments without a hosted geo
// engine. All state is held in a mutex-guarded map; every operation works
// on a snapshot, so pages stay stable while the data is unchanged.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]repositories.SpatialEntry
}

// Ensure MemoryIndex implements SpatialIndex
var _ repositories.SpatialIndex = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty in-memory spatial index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string]repositories.SpatialEntry),
	}
}

// Insert upserts an entry, replacing any existing entry under the same key
func (i *MemoryIndex) Insert(_ context.Context, entry repositories.SpatialEntry) error {
	if entry.Key == "" {
		return apperrors.NewValidationError("spatial entry key is required")
	}
	if !entry.Location.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf(
			"invalid coordinates (%f, %f) for key %s",
			entry.Location.Latitude, entry.Location.Longitude, entry.Key,
		))
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries[entry.Key] = entry
	return nil
}

// Remove deletes the entry if present and reports whether it was found
func (i *MemoryIndex) Remove(_ context.Context, key string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, found := i.entries[key]
	delete(i.entries, key)
	return found, nil
}

// pageCursor marks the position of the last returned entry in the
// (rating desc, key asc) ordering
type pageCursor struct {
	Rating float64 `json:"r"`
	Key    string  `json:"k"`
}

func encodeCursor(c pageCursor) string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeCursor(s string) (*pageCursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, apperrors.NewValidationError("malformed pagination cursor")
	}
	var c pageCursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, apperrors.NewValidationError("malformed pagination cursor")
	}
	return &c, nil
}

// after reports whether entry e sorts strictly after cursor position c
func (c *pageCursor) after(e repositories.SpatialEntry) bool {
	if e.Rating != c.Rating {
		return e.Rating < c.Rating
	}
	return e.Key > c.Key
}

// Query returns entries inside the rectangle ordered by rating descending
// (key ascending tiebreak), paginated via opaque cursor
func (i *MemoryIndex) Query(_ context.Context, rect entities.Rectangle, limit int, cursor string) (*repositories.SpatialPage, error) {
	if !rect.Valid() {
		return nil, apperrors.NewValidationError("invalid bounding rectangle")
	}
	if limit <= 0 {
		limit = repositories.DefaultSpatialPageLimit
	}

	var pos *pageCursor
	if cursor != "" {
		var err error
		pos, err = decodeCursor(cursor)
		if err != nil {
			return nil, err
		}
	}

	i.mu.RLock()
	matched := make([]repositories.SpatialEntry, 0)
	for _, entry := range i.entries {
		if rect.Contains(entry.Location) {
			matched = append(matched, entry)
		}
	}
	i.mu.RUnlock()

	sort.Slice(matched, func(a, b int) bool {
		if matched[a].Rating != matched[b].Rating {
			return matched[a].Rating > matched[b].Rating
		}
		return matched[a].Key < matched[b].Key
	})

	if pos != nil {
		start := sort.Search(len(matched), func(n int) bool {
			return pos.after(matched[n])
		})
		matched = matched[start:]
	}

	page := &repositories.SpatialPage{Results: make([]repositories.SpatialHit, 0, limit)}
	for n, entry := range matched {
		if n == limit {
			break
		}
		page.Results = append(page.Results, repositories.SpatialHit{
			Key:      entry.Key,
			Location: entry.Location,
		})
	}

	if len(matched) > limit {
		last := matched[limit-1]
		page.NextCursor = encodeCursor(pageCursor{Rating: last.Rating, Key: last.Key})
	}

	return page, nil
}

// QueryNearest returns up to maxResults entries closest to point
func (i *MemoryIndex) QueryNearest(_ context.Context, point entities.Location, maxResults int, maxDistanceMeters float64) ([]repositories.NearbyHit, error) {
	if !point.Valid() {
		return nil, apperrors.NewValidationError("invalid query point")
	}
	if maxResults <= 0 {
		maxResults = repositories.DefaultSpatialPageLimit
	}

	i.mu.RLock()
	hits := make([]repositories.NearbyHit, 0)
	for _, entry := range i.entries {
		distance := entities.DistanceMeters(point, entry.Location)
		if maxDistanceMeters > 0 && distance > maxDistanceMeters {
			continue
		}
		hits = append(hits, repositories.NearbyHit{
			Key:            entry.Key,
			Location:       entry.Location,
			DistanceMeters: distance,
		})
	}
	i.mu.RUnlock()

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].DistanceMeters != hits[b].DistanceMeters {
			return hits[a].DistanceMeters < hits[b].DistanceMeters
		}
		return hits[a].Key < hits[b].Key
	})

	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits, nil
}

// Len returns the number of indexed entries
func (i *MemoryIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}
