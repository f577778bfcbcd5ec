package mapping

import (
	"strings"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
	"github.com/nuforge/ttg-clca-bridge/internal/domain/event"
)

// ContentStatus is the single source of truth for translating a domain status
// into the visibility status CLCA understands. Event and game mapping both go
// through this table; it must not be duplicated elsewhere.
func ContentStatus(status event.EventStatus) content.Status {
	switch event.EventStatus(strings.ToLower(strings.TrimSpace(string(status)))) {
	case event.StatusUpcoming:
		return content.StatusPublished
	case event.StatusCompleted:
		return content.StatusArchived
	case event.StatusCancelled:
		return content.StatusDeleted
	case event.StatusDraft:
		return content.StatusDraft
	default:
		return content.StatusPending
	}
}
