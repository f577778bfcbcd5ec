package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/event"
	"github.com/nuforge/ttg-clca-bridge/internal/domain/game"
)

// GameModel is the database DTO for catalog games.
type GameModel struct {
	ID              int64  `gorm:"primaryKey"`
	Name            string `gorm:"type:varchar(255);not null"`
	Description     string `gorm:"type:text"`
	Status          string `gorm:"type:varchar(50);index"`
	MinPlayers      int
	MaxPlayers      int
	PlayTimeMinutes int
	Complexity      string `gorm:"type:varchar(50)"`
	BGGID           string `gorm:"column:bgg_id;type:varchar(50)"`
	Categories      string `gorm:"type:text"`
	ImageURL        string `gorm:"column:image_url;type:text"`
	SyncStatus      string `gorm:"type:varchar(20)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (GameModel) TableName() string {
	return "games"
}

// GameRepository reads the club's game catalog for the ingestion pipeline.
type GameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) FindByID(ctx context.Context, id int64) (*game.Game, error) {
	var model GameModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toGame(model), nil
}

func (r *GameRepository) ListSyncable(ctx context.Context, limit int) ([]*game.Game, error) {
	query := r.db.WithContext(ctx).
		Where("status <> ?", string(event.StatusDraft)).
		Order("updated_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []GameModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	items := make([]*game.Game, 0, len(models))
	for _, model := range models {
		items = append(items, toGame(model))
	}
	return items, nil
}

func (r *GameRepository) UpdateSyncStatus(ctx context.Context, id int64, status event.SyncStatus) error {
	return r.db.WithContext(ctx).Model(&GameModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sync_status": string(status),
			"updated_at":  time.Now().UTC(),
		}).Error
}

func toGame(m GameModel) *game.Game {
	return &game.Game{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		Status:          event.EventStatus(m.Status),
		MinPlayers:      m.MinPlayers,
		MaxPlayers:      m.MaxPlayers,
		PlayTimeMinutes: m.PlayTimeMinutes,
		Complexity:      m.Complexity,
		BGGID:           m.BGGID,
		Categories:      splitList(m.Categories),
		ImageURL:        m.ImageURL,
		SyncStatus:      event.SyncStatus(m.SyncStatus),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
