package mapping

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
)

const (
	contentTypeEvent = "event"
	contentTypeGame  = "game"

	// Substituted when an event carries a game reference but no usable name.
	unknownGameName = "Unknown Game"
)

// Mapper builds ContentDocs from club domain records. It is deterministic and
// side-effect free apart from logging parse anomalies; repeated calls for the
// same input yield identical ids, originalIds and tag ordering, which is what
// makes re-sends idempotent at the remote end.
type Mapper struct {
	siteURL string
	logger  *zap.Logger
	now     func() time.Time
}

func New(siteURL string, logger *zap.Logger) *Mapper {
	return &Mapper{
		siteURL: strings.TrimRight(siteURL, "/"),
		logger:  logger.Named("mapping"),
		now:     time.Now,
	}
}

// docID synthesizes the globally namespaced document id. It and originalID
// must stay consistent with each other for the same input.
func docID(contentType string, localID int64) string {
	return fmt.Sprintf("%s:%s:%d", content.OwnerSystem, contentType, localID)
}

func originalID(contentType string, localID int64) string {
	return fmt.Sprintf("%s:%d", contentType, localID)
}

// appendTag adds a namespace:value tag, filtering blank values. Tag order is
// stable: fixed prefix tags first, then optional field-derived tags.
func appendTag(tags []string, namespace, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return tags
	}
	return append(tags, namespace+":"+strings.ToLower(value))
}

// timestamp formats a stored time as the RFC3339 wire form.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// combineDateTime parses the club app's separate date and time-of-day strings
// into one RFC3339 timestamp. When the components fail to parse, the anomaly
// is logged and the current time is substituted as a best-effort default
// rather than failing the whole mapping.
func (m *Mapper) combineDateTime(sourceID, field, date, clock string) string {
	parsed, err := time.Parse("2006-01-02 15:04", strings.TrimSpace(date)+" "+strings.TrimSpace(clock))
	if err != nil {
		m.logger.Warn("unparseable_source_datetime",
			zap.String("source_id", sourceID),
			zap.String("field", field),
			zap.String("date", date),
			zap.String("time", clock),
		)
		return timestamp(m.now())
	}
	return timestamp(parsed)
}
