package game

import (
	"time"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/event"
)

// Game is a catalog entry for a title the club owns or plays. It shares the
// domain status vocabulary with events so both feed the same status mapping
// table on the way to CLCA.
type Game struct {
	ID          int64
	Name        string
	Description string
	Status      event.EventStatus

	MinPlayers      int
	MaxPlayers      int
	PlayTimeMinutes int
	Complexity      string // light, medium, heavy
	BGGID           string
	Categories      []string

	ImageURL string

	SyncStatus event.SyncStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}
