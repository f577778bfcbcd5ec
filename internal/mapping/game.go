package mapping

import (
	"fmt"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
	"github.com/nuforge/ttg-clca-bridge/internal/domain/game"
)

// GameDoc maps a catalog game into a ContentDoc. Status goes through the same
// table as events so the two mappers can never diverge on visibility.
func (m *Mapper) GameDoc(g *game.Game) *content.Doc {
	name := g.Name
	if name == "" {
		name = unknownGameName
	}

	tags := []string{
		"content-type:" + contentTypeGame,
		"system:" + content.OwnerSystem,
	}
	tags = appendTag(tags, "complexity", g.Complexity)
	for _, category := range g.Categories {
		tags = appendTag(tags, "category", category)
	}

	var images []content.Image
	if g.ImageURL != "" {
		images = []content.Image{{URL: g.ImageURL, Caption: name}}
	}

	return &content.Doc{
		ID:          docID(contentTypeGame, g.ID),
		Title:       name,
		Description: g.Description,
		Status:      ContentStatus(g.Status),
		Tags:        tags,
		Features: map[string]any{
			content.FeatureGameV1: &content.GameFeature{
				MinPlayers:      g.MinPlayers,
				MaxPlayers:      g.MaxPlayers,
				PlayTimeMinutes: g.PlayTimeMinutes,
				Complexity:      g.Complexity,
				BGGID:           g.BGGID,
				Categories:      g.Categories,
			},
		},
		Images:      images,
		OwnerSystem: content.OwnerSystem,
		OriginalID:  originalID(contentTypeGame, g.ID),
		OwnerURL:    fmt.Sprintf("%s/games/%d", m.siteURL, g.ID),
		CreatedAt:   timestamp(g.CreatedAt),
		UpdatedAt:   timestamp(g.UpdatedAt),
	}
}
