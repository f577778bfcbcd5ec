package event

import "context"

// Repository defines read access to event records plus the best-effort
// sync-status flag write. The event CRUD store itself is owned elsewhere;
// the ingestion pipeline only consumes it through this interface.
type Repository interface {
	// FindByID retrieves an event by id, nil when absent.
	FindByID(ctx context.Context, id int64) (*Event, error)

	// ListSyncable retrieves events that are candidates for a bulk resync.
	ListSyncable(ctx context.Context, limit int) ([]*Event, error)

	// UpdateSyncStatus records the outcome of the last sync attempt.
	UpdateSyncStatus(ctx context.Context, id int64, status SyncStatus) error
}
