package content

// OwnerSystem identifies this club as the authoritative source for every
// document it pushes to CLCA.
const OwnerSystem = "ttg"

// Status governs visibility of a document at the receiving system.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusPending   Status = "pending"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)

// Versioned feature keys. Existing keys are never mutated in shape; a breaking
// change introduces a v2 key alongside v1.
const (
	FeatureEventV1 = "feat:event/v1"
	FeatureGameV1  = "feat:game/v1"
)

// Doc is the canonical cross-system content envelope shared with CLCA.
// The pair (OwnerSystem, OriginalID) is the idempotency key: the receiving
// system must never create two documents for the same pair. UpdatedAt is the
// conflict-resolution clock; the remote accepts an update only when it is
// strictly newer than what it has stored.
type Doc struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      Status         `json:"status"`
	Tags        []string       `json:"tags"`
	Features    map[string]any `json:"features"`
	RSVPSummary *RSVPSummary   `json:"rsvpSummary,omitempty"`
	Images      []Image        `json:"images,omitempty"`
	OwnerSystem string         `json:"ownerSystem"`
	OriginalID  string         `json:"originalId"`
	OwnerURL    string         `json:"ownerUrl"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
}

// RSVPSummary is a snapshot of aggregate attendance counts, not a live
// reference into the RSVP store.
type RSVPSummary struct {
	Yes      int `json:"yes"`
	No       int `json:"no"`
	Maybe    int `json:"maybe"`
	Waitlist int `json:"waitlist"`
	Capacity int `json:"capacity"`
}

// Image is a URL reference only; binary payloads never cross the wire.
type Image struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// EventFeature is the feat:event/v1 payload.
type EventFeature struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Location  string `json:"location"`
	GameID    string `json:"gameId,omitempty"`
	GameName  string `json:"gameName,omitempty"`
	Capacity  int    `json:"capacity,omitempty"`
}

// GameFeature is the feat:game/v1 payload.
type GameFeature struct {
	MinPlayers      int      `json:"minPlayers"`
	MaxPlayers      int      `json:"maxPlayers"`
	PlayTimeMinutes int      `json:"playTimeMinutes,omitempty"`
	Complexity      string   `json:"complexity,omitempty"`
	BGGID           string   `json:"bggId,omitempty"`
	Categories      []string `json:"categories,omitempty"`
}
