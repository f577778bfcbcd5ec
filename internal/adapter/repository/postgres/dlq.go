package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/nuforge/ttg-clca-bridge/internal/dlq"
	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
)

// DLQEntryModel is the database DTO for a pending retry entry.
type DLQEntryModel struct {
	ID            string    `gorm:"primaryKey;type:varchar(26)"`
	Payload       []byte    `gorm:"type:jsonb;not null"`
	ErrorMessage  string    `gorm:"type:text"`
	StatusCode    int
	RequestID     string    `gorm:"type:varchar(64)"`
	SourceID      string    `gorm:"type:varchar(255);index"`
	Attempt       int       `gorm:"not null"`
	MaxRetries    int       `gorm:"not null"`
	CreatedAt     time.Time
	RetryAfter    time.Time `gorm:"index"`
	LastAttemptAt time.Time
}

func (DLQEntryModel) TableName() string {
	return "clca_dlq_entries"
}

// FailedEntryModel is the database DTO for a permanent failure record.
type FailedEntryModel struct {
	ID            string    `gorm:"primaryKey;type:varchar(26)"`
	Payload       []byte    `gorm:"type:jsonb;not null"`
	ErrorMessage  string    `gorm:"type:text"`
	StatusCode    int
	RequestID     string    `gorm:"type:varchar(64)"`
	SourceID      string    `gorm:"type:varchar(255);index"`
	Attempt       int       `gorm:"not null"`
	MaxRetries    int       `gorm:"not null"`
	FailedAt      time.Time `gorm:"index"`
	FailureReason string    `gorm:"type:text"`
	OriginalDLQID string    `gorm:"type:varchar(26)"`
	CreatedAt     time.Time
}

func (FailedEntryModel) TableName() string {
	return "clca_failed_entries"
}

// DLQStore is the gorm-backed dead-letter store. Per-row updates are atomic
// at the database; no in-process locking is layered on top.
type DLQStore struct {
	db *gorm.DB
}

func NewDLQStore(db *gorm.DB) *DLQStore {
	return &DLQStore{db: db}
}

func (s *DLQStore) Add(ctx context.Context, entry *dlq.Entry) error {
	model, err := toEntryModel(entry)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(model).Error
}

func (s *DLQStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*dlq.Entry, error) {
	var models []DLQEntryModel
	err := s.db.WithContext(ctx).
		Where("retry_after <= ?", now).
		Order("retry_after asc").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toEntries(models)
}

func (s *DLQStore) Update(ctx context.Context, entry *dlq.Entry) error {
	return s.db.WithContext(ctx).Model(&DLQEntryModel{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"error_message":   entry.Error.Message,
			"status_code":     entry.Error.StatusCode,
			"request_id":      entry.Error.RequestID,
			"attempt":         entry.Context.Attempt,
			"retry_after":     entry.RetryAfter,
			"last_attempt_at": entry.LastAttemptAt,
		}).Error
}

func (s *DLQStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&DLQEntryModel{}, "id = ?", id).Error
}

func (s *DLQStore) MoveToFailed(ctx context.Context, failed *dlq.FailedEntry) error {
	payload, err := json.Marshal(failed.Doc)
	if err != nil {
		return fmt.Errorf("encode failed payload: %w", err)
	}

	model := FailedEntryModel{
		ID:            failed.ID,
		Payload:       payload,
		ErrorMessage:  failed.Error.Message,
		StatusCode:    failed.Error.StatusCode,
		RequestID:     failed.Error.RequestID,
		SourceID:      failed.Context.SourceID,
		Attempt:       failed.Context.Attempt,
		MaxRetries:    failed.Context.MaxRetries,
		FailedAt:      failed.FailedAt,
		FailureReason: failed.FailureReason,
		OriginalDLQID: failed.OriginalDLQID,
		CreatedAt:     failed.CreatedAt,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if failed.OriginalDLQID != "" {
			if err := tx.Delete(&DLQEntryModel{}, "id = ?", failed.OriginalDLQID).Error; err != nil {
				return err
			}
		}
		return tx.Create(&model).Error
	})
}

func (s *DLQStore) Stats(ctx context.Context, now time.Time) (*dlq.Stats, error) {
	stats := &dlq.Stats{}

	if err := s.db.WithContext(ctx).Model(&DLQEntryModel{}).Count(&stats.Pending).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&DLQEntryModel{}).
		Where("retry_after <= ?", now).
		Count(&stats.Due).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&FailedEntryModel{}).Count(&stats.Failed).Error; err != nil {
		return nil, err
	}

	var oldest DLQEntryModel
	err := s.db.WithContext(ctx).Order("retry_after asc").First(&oldest).Error
	if err == nil {
		t := oldest.RetryAfter
		stats.OldestRetryTime = &t
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	return stats, nil
}

func (s *DLQStore) Items(ctx context.Context, limit int) ([]*dlq.Entry, error) {
	var models []DLQEntryModel
	query := s.db.WithContext(ctx).Order("retry_after asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return toEntries(models)
}

func (s *DLQStore) FailedItems(ctx context.Context, limit int) ([]*dlq.FailedEntry, error) {
	var models []FailedEntryModel
	query := s.db.WithContext(ctx).Order("failed_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	items := make([]*dlq.FailedEntry, 0, len(models))
	for _, model := range models {
		item, err := toFailedEntry(model)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *DLQStore) Clear(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("1 = 1").Delete(&DLQEntryModel{})
	return result.RowsAffected, result.Error
}

// Mappers

func toEntryModel(entry *dlq.Entry) (*DLQEntryModel, error) {
	payload, err := json.Marshal(entry.Doc)
	if err != nil {
		return nil, fmt.Errorf("encode dlq payload: %w", err)
	}
	return &DLQEntryModel{
		ID:            entry.ID,
		Payload:       payload,
		ErrorMessage:  entry.Error.Message,
		StatusCode:    entry.Error.StatusCode,
		RequestID:     entry.Error.RequestID,
		SourceID:      entry.Context.SourceID,
		Attempt:       entry.Context.Attempt,
		MaxRetries:    entry.Context.MaxRetries,
		CreatedAt:     entry.CreatedAt,
		RetryAfter:    entry.RetryAfter,
		LastAttemptAt: entry.LastAttemptAt,
	}, nil
}

func toEntries(models []DLQEntryModel) ([]*dlq.Entry, error) {
	items := make([]*dlq.Entry, 0, len(models))
	for _, model := range models {
		var doc content.Doc
		if err := json.Unmarshal(model.Payload, &doc); err != nil {
			return nil, fmt.Errorf("decode dlq payload %s: %w", model.ID, err)
		}
		items = append(items, &dlq.Entry{
			ID:  model.ID,
			Doc: &doc,
			Error: dlq.ErrorSnapshot{
				Message:    model.ErrorMessage,
				StatusCode: model.StatusCode,
				RequestID:  model.RequestID,
			},
			Context: dlq.EntryContext{
				SourceID:   model.SourceID,
				Attempt:    model.Attempt,
				MaxRetries: model.MaxRetries,
			},
			CreatedAt:     model.CreatedAt,
			RetryAfter:    model.RetryAfter,
			LastAttemptAt: model.LastAttemptAt,
		})
	}
	return items, nil
}

func toFailedEntry(model FailedEntryModel) (*dlq.FailedEntry, error) {
	var doc content.Doc
	if err := json.Unmarshal(model.Payload, &doc); err != nil {
		return nil, fmt.Errorf("decode failed payload %s: %w", model.ID, err)
	}
	return &dlq.FailedEntry{
		ID:  model.ID,
		Doc: &doc,
		Error: dlq.ErrorSnapshot{
			Message:    model.ErrorMessage,
			StatusCode: model.StatusCode,
			RequestID:  model.RequestID,
		},
		Context: dlq.EntryContext{
			SourceID:   model.SourceID,
			Attempt:    model.Attempt,
			MaxRetries: model.MaxRetries,
		},
		FailedAt:      model.FailedAt,
		FailureReason: model.FailureReason,
		OriginalDLQID: model.OriginalDLQID,
		CreatedAt:     model.CreatedAt,
	}, nil
}
