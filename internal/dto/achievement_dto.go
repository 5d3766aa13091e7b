package dto

import (
	"time"

	"github.com/streamnest/community-api/internal/achievements"
)

// AchievementResponse is one catalog entry for display.
type AchievementResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rarity      string `json:"rarity"`
	Icon        string `json:"icon"`
}

// UnlockedAchievementResponse is a catalog entry the user has earned.
type UnlockedAchievementResponse struct {
	AchievementResponse
	UnlockedAt time.Time `json:"unlocked_at"`
}

// UserAchievementsResponse partitions the catalog into unlocked and locked
// for the filterable achievements view. Progress is unlocked / total.
type UserAchievementsResponse struct {
	Unlocked []UnlockedAchievementResponse `json:"unlocked"`
	Locked   []AchievementResponse         `json:"locked"`
	Progress float64                       `json:"progress"`
	Total    int                           `json:"total"`
}

// NewAchievementResponse converts a catalog definition for display.
func NewAchievementResponse(definition achievements.Definition) AchievementResponse {
	return AchievementResponse{
		ID:          definition.ID,
		Name:        definition.Name,
		Description: definition.Description,
		Rarity:      definition.Rarity,
		Icon:        definition.Icon,
	}
}
