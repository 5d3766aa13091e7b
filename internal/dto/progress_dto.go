package dto

import (
	"time"

	"github.com/streamnest/community-api/internal/models"
)

// Award kinds accepted by the progression endpoint.
const (
	AwardKindXP           = "xp"
	AwardKindPoints       = "points"
	AwardKindWatchMinutes = "watch_minutes"
	AwardKindMessages     = "messages"
)

// AwardRequest is the payload for awarding progression counters.
type AwardRequest struct {
	Kind   string `json:"kind" validate:"required,oneof=xp points watch_minutes messages"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

// RecordLoginRequest marks a calendar-day login for streak accounting.
type RecordLoginRequest struct {
	Day string `json:"day" validate:"required,len=10"`
}

// ProgressResponse is the stats projection consumed by the profile page.
type ProgressResponse struct {
	UserID            uint      `json:"user_id"`
	XP                int64     `json:"xp"`
	Level             int       `json:"level"`
	LevelProgress     float64   `json:"level_progress"`
	XPIntoLevel       int64     `json:"xp_into_level"`
	XPForNextLevel    int64     `json:"xp_for_next_level"`
	Points            int64     `json:"points"`
	TotalPointsEarned int64     `json:"total_points_earned"`
	WatchTimeMinutes  int64     `json:"watch_time_minutes"`
	MessagesSent      int64     `json:"messages_sent"`
	LoginStreak       int       `json:"login_streak"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewProgressResponse converts the stored record plus derived level math
// into the display projection.
func NewProgressResponse(progress models.UserProgress, levelProgress float64, intoLevel, forNextLevel int64) ProgressResponse {
	return ProgressResponse{
		UserID:            progress.UserID,
		XP:                progress.XP,
		Level:             progress.Level,
		LevelProgress:     levelProgress,
		XPIntoLevel:       intoLevel,
		XPForNextLevel:    forNextLevel,
		Points:            progress.Points,
		TotalPointsEarned: progress.TotalPointsEarned,
		WatchTimeMinutes:  progress.WatchTimeMinutes,
		MessagesSent:      progress.MessagesSent,
		LoginStreak:       progress.LoginStreak,
		UpdatedAt:         progress.UpdatedAt,
	}
}
