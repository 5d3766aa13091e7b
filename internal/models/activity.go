package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity types that may appear in the feed.
const (
	ActivityAchievementUnlocked = "achievement_unlocked"
	ActivityLevelUp             = "level_up"
	ActivityFollowed            = "followed"
	ActivityStreamStarted       = "stream_started"
	ActivityBecamePartner       = "became_partner"
	ActivityBecameAffiliate     = "became_affiliate"
	ActivityJoined              = "joined"
)

// KnownActivityTypes maps every accepted activity type.
var KnownActivityTypes = map[string]struct{}{
	ActivityAchievementUnlocked: {},
	ActivityLevelUp:             {},
	ActivityFollowed:            {},
	ActivityStreamStarted:       {},
	ActivityBecamePartner:       {},
	ActivityBecameAffiliate:     {},
	ActivityJoined:              {},
}

// ActivityEvent is one append-only entry in a user's activity feed.
// Events are never mutated or deleted after creation; the feed read
// contract is created_at descending, ties broken newest-inserted-first.
type ActivityEvent struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	UserID       uint              `gorm:"not null;index" json:"user_id"`
	ActivityType string            `gorm:"size:32;not null" json:"activity_type"`
	ActivityText string            `gorm:"size:512;not null" json:"activity_text"`
	ActivityData datatypes.JSONMap `gorm:"type:json" json:"activity_data"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`
}
