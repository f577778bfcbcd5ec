package mapping

import (
	"fmt"
	"strconv"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
	"github.com/nuforge/ttg-clca-bridge/internal/domain/event"
)

// EventDoc maps an event record into a fully populated ContentDoc. Required
// fields are never omitted; missing upstream data falls back to documented
// defaults instead.
func (m *Mapper) EventDoc(ev *event.Event) *content.Doc {
	sourceID := originalID(contentTypeEvent, ev.ID)

	feature := &content.EventFeature{
		StartTime: m.combineDateTime(sourceID, "startTime", ev.Date, ev.StartTime),
		EndTime:   m.combineDateTime(sourceID, "endTime", ev.Date, ev.EndTime),
		Location:  ev.Location,
		Capacity:  ev.Capacity,
	}
	if ev.GameID != 0 {
		feature.GameID = strconv.FormatInt(ev.GameID, 10)
		feature.GameName = ev.GameName
		if feature.GameName == "" {
			feature.GameName = unknownGameName
		}
	}

	tags := []string{
		"content-type:" + contentTypeEvent,
		"system:" + content.OwnerSystem,
	}
	tags = appendTag(tags, "event-type", ev.EventType)
	tags = appendTag(tags, "location", ev.Location)
	if ev.GameID != 0 {
		tags = appendTag(tags, "game", feature.GameName)
	}

	images := make([]content.Image, 0, len(ev.ImageURLs))
	for _, url := range ev.ImageURLs {
		if url == "" {
			continue
		}
		images = append(images, content.Image{URL: url})
	}

	return &content.Doc{
		ID:          docID(contentTypeEvent, ev.ID),
		Title:       ev.Title,
		Description: ev.Description,
		Status:      ContentStatus(ev.Status),
		Tags:        tags,
		Features: map[string]any{
			content.FeatureEventV1: feature,
		},
		RSVPSummary: &content.RSVPSummary{
			Yes:      ev.RSVPYes,
			No:       ev.RSVPNo,
			Maybe:    ev.RSVPMaybe,
			Waitlist: ev.RSVPWaitlist,
			Capacity: ev.Capacity,
		},
		Images:      images,
		OwnerSystem: content.OwnerSystem,
		OriginalID:  sourceID,
		OwnerURL:    fmt.Sprintf("%s/events/%d", m.siteURL, ev.ID),
		CreatedAt:   timestamp(ev.CreatedAt),
		UpdatedAt:   timestamp(ev.UpdatedAt),
	}
}
