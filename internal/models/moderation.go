package models

import "time"

// Moderation action types.
const (
	ModerationTimeout = "timeout"
	ModerationBan     = "ban"
)

// ModerationAction is one issued punishment for a (channel, target user)
// pair. At most one action per pair is active at a time; a newly issued
// action supersedes the prior one, and expiry or unban deactivates without
// creating a new record.
type ModerationAction struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ChannelName  string     `gorm:"size:64;not null;index:idx_moderation_pair" json:"channel_name"`
	TargetUserID uint       `gorm:"not null;index:idx_moderation_pair" json:"target_user_id"`
	ActionType   string     `gorm:"size:16;not null" json:"action_type"`
	Reason       string     `gorm:"size:512" json:"reason"`
	IssuedBy     uint       `gorm:"not null" json:"issued_by"`
	IssuedAt     time.Time  `gorm:"autoCreateTime" json:"issued_at"`
	ExpiresAt    *time.Time `gorm:"index" json:"expires_at,omitempty"`
	Active       bool       `gorm:"not null;default:true;index" json:"active"`
}
