package game

import (
	"context"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/event"
)

// Repository defines read access to the game catalog for the ingestion
// pipeline, plus the sync-status flag write.
type Repository interface {
	// FindByID retrieves a game by id, nil when absent.
	FindByID(ctx context.Context, id int64) (*Game, error)

	// ListSyncable retrieves games that are candidates for a bulk resync.
	ListSyncable(ctx context.Context, limit int) ([]*Game, error)

	// UpdateSyncStatus records the outcome of the last sync attempt.
	UpdateSyncStatus(ctx context.Context, id int64, status event.SyncStatus) error
}
