package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/event"
)

// EventModel is the database DTO for club events.
type EventModel struct {
	ID           int64  `gorm:"primaryKey"`
	Title        string `gorm:"type:varchar(255);not null"`
	Description  string `gorm:"type:text"`
	Status       string `gorm:"type:varchar(50);index"`
	EventType    string `gorm:"type:varchar(100)"`
	Date         string `gorm:"type:varchar(10)"`
	StartTime    string `gorm:"type:varchar(5)"`
	EndTime      string `gorm:"type:varchar(5)"`
	Location     string `gorm:"type:varchar(255)"`
	Capacity     int
	RSVPYes      int    `gorm:"column:rsvp_yes"`
	RSVPNo       int    `gorm:"column:rsvp_no"`
	RSVPMaybe    int    `gorm:"column:rsvp_maybe"`
	RSVPWaitlist int    `gorm:"column:rsvp_waitlist"`
	GameID       int64
	GameName     string `gorm:"type:varchar(255)"`
	ImageURLs    string `gorm:"column:image_urls;type:text"`
	SyncStatus   string `gorm:"type:varchar(20)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (EventModel) TableName() string {
	return "events"
}

// EventRepository reads the club's event store for the ingestion pipeline.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) FindByID(ctx context.Context, id int64) (*event.Event, error) {
	var model EventModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toEvent(model), nil
}

func (r *EventRepository) ListSyncable(ctx context.Context, limit int) ([]*event.Event, error) {
	query := r.db.WithContext(ctx).
		Where("status <> ?", string(event.StatusDraft)).
		Order("updated_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []EventModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	items := make([]*event.Event, 0, len(models))
	for _, model := range models {
		items = append(items, toEvent(model))
	}
	return items, nil
}

func (r *EventRepository) UpdateSyncStatus(ctx context.Context, id int64, status event.SyncStatus) error {
	return r.db.WithContext(ctx).Model(&EventModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sync_status": string(status),
			"updated_at":  time.Now().UTC(),
		}).Error
}

func toEvent(m EventModel) *event.Event {
	return &event.Event{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Status:       event.EventStatus(m.Status),
		EventType:    m.EventType,
		Date:         m.Date,
		StartTime:    m.StartTime,
		EndTime:      m.EndTime,
		Location:     m.Location,
		Capacity:     m.Capacity,
		RSVPYes:      m.RSVPYes,
		RSVPNo:       m.RSVPNo,
		RSVPMaybe:    m.RSVPMaybe,
		RSVPWaitlist: m.RSVPWaitlist,
		GameID:       m.GameID,
		GameName:     m.GameName,
		ImageURLs:    splitList(m.ImageURLs),
		SyncStatus:   event.SyncStatus(m.SyncStatus),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// splitList unpacks a comma-separated column into a slice, dropping blanks.
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
