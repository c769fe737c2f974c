// Package store persists loaded datasets so they can be exported and compared
// across loads.
package store

import (
	"context"
	"time"

	"github.com/sells-group/ecomap/internal/dataset"
	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/status"
)

// Load describes one persisted dataset snapshot.
type Load struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	RowsRead    int             `json:"rows_read"`
	RowsDropped int             `json:"rows_dropped"`
	Records     int             `json:"records"`
	Columns     dataset.Columns `json:"columns"`
	LoadedAt    time.Time       `json:"loaded_at"`
}

// LocationFilter narrows a location listing.
type LocationFilter struct {
	Tier  status.Tier `json:"tier,omitempty"`
	Limit int         `json:"limit,omitempty"`
}

// Store defines the persistence interface for dataset snapshots.
type Store interface {
	SaveDataset(ctx context.Context, ds *dataset.Dataset) (*Load, error)
	GetLoad(ctx context.Context, id string) (*Load, error)
	ListLoads(ctx context.Context, limit int) ([]Load, error)
	Locations(ctx context.Context, loadID string, filter LocationFilter) ([]model.Location, error)
	TierCounts(ctx context.Context, loadID string) (map[status.Tier]int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
