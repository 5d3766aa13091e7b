package models

import "time"

// AchievementUnlock records that a user crossed an achievement's unlock
// condition. The composite unique index makes unlocking create-once: a
// duplicate delivery of the same progress transition hits the index instead
// of producing a second row.
type AchievementUnlock struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_unlock_user_achievement" json:"user_id"`
	AchievementID string    `gorm:"size:64;not null;uniqueIndex:idx_unlock_user_achievement" json:"achievement_id"`
	UnlockedAt    time.Time `gorm:"autoCreateTime" json:"unlocked_at"`
}
