package models

import "time"

// UserProgress tracks per-user engagement counters and the level derived from XP.
// All counters except Points are monotonically non-decreasing; Points may be
// spent down by the (external) redemption layer but never goes negative.
type UserProgress struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	XP                int64     `gorm:"not null;default:0" json:"xp"`
	Level             int       `gorm:"not null;default:1" json:"level"`
	Points            int64     `gorm:"not null;default:0" json:"points"`
	TotalPointsEarned int64     `gorm:"not null;default:0" json:"total_points_earned"`
	WatchTimeMinutes  int64     `gorm:"not null;default:0" json:"watch_time_minutes"`
	MessagesSent      int64     `gorm:"not null;default:0" json:"messages_sent"`
	LoginStreak       int       `gorm:"not null;default:0" json:"login_streak"`
	LastLoginDay      string    `gorm:"size:10" json:"last_login_day"`
	Version           int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
