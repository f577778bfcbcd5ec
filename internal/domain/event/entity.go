package event

import "time"

// EventStatus is the club-side lifecycle state of an event.
type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
	StatusDraft     EventStatus = "draft"
)

// SyncStatus is an operator-visibility flag only; end users are never blocked
// by ingestion failures.
type SyncStatus string

const (
	SyncUnknown SyncStatus = ""
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// Event is the club's domain record for a scheduled game night, tournament or
// other gathering. Date and time components are kept as the strings the club
// app stores them in; combining them is the mapper's job.
type Event struct {
	ID          int64
	Title       string
	Description string
	Status      EventStatus
	EventType   string // e.g. game-night, tournament, open-play

	Date      string // YYYY-MM-DD
	StartTime string // HH:MM, 24h
	EndTime   string // HH:MM, 24h
	Location  string
	Capacity  int

	RSVPYes      int
	RSVPNo       int
	RSVPMaybe    int
	RSVPWaitlist int

	// Denormalized game summary carried by the event record.
	GameID   int64
	GameName string

	ImageURLs []string

	SyncStatus SyncStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Visible reports whether the event should currently be visible on the
// partner site. Drafts stay internal until published.
func (e *Event) Visible() bool {
	return e.Status != StatusDraft
}
