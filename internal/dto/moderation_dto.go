package dto

import (
	"time"

	"github.com/streamnest/community-api/internal/models"
)

// Enforcement states returned to the chat delivery path.
const (
	EnforcementClear    = "clear"
	EnforcementTimedOut = "timed_out"
	EnforcementBanned   = "banned"
)

// TimeoutRequest issues a time-boxed mute for a channel/user pair.
type TimeoutRequest struct {
	Channel         string `json:"channel" validate:"required,max=64"`
	UserID          uint   `json:"user_id" validate:"required,gt=0"`
	DurationSeconds int64  `json:"duration_seconds" validate:"required,gt=0"`
	Reason          string `json:"reason" validate:"max=512"`
}

// BanRequest issues an indefinite ban for a channel/user pair.
type BanRequest struct {
	Channel string `json:"channel" validate:"required,max=64"`
	UserID  uint   `json:"user_id" validate:"required,gt=0"`
	Reason  string `json:"reason" validate:"max=512"`
}

// UnbanRequest lifts whatever action is active for a channel/user pair.
type UnbanRequest struct {
	Channel string `json:"channel" validate:"required,max=64"`
	UserID  uint   `json:"user_id" validate:"required,gt=0"`
}

// EnforcementResponse answers the "may this user chat here" query.
type EnforcementResponse struct {
	Channel          string     `json:"channel"`
	UserID           uint       `json:"user_id"`
	State            string     `json:"state"`
	RemainingSeconds int64      `json:"remaining_seconds,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	Reason           string     `json:"reason,omitempty"`
}

// ModerationActionResponse echoes an issued action.
type ModerationActionResponse struct {
	ID           uint       `json:"id"`
	ChannelName  string     `json:"channel_name"`
	TargetUserID uint       `json:"target_user_id"`
	ActionType   string     `json:"action_type"`
	Reason       string     `json:"reason,omitempty"`
	IssuedBy     uint       `json:"issued_by"`
	IssuedAt     time.Time  `json:"issued_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Active       bool       `json:"active"`
}

// NewModerationActionResponse converts a stored action for display.
func NewModerationActionResponse(action models.ModerationAction) ModerationActionResponse {
	return ModerationActionResponse{
		ID:           action.ID,
		ChannelName:  action.ChannelName,
		TargetUserID: action.TargetUserID,
		ActionType:   action.ActionType,
		Reason:       action.Reason,
		IssuedBy:     action.IssuedBy,
		IssuedAt:     action.IssuedAt,
		ExpiresAt:    action.ExpiresAt,
		Active:       action.Active,
	}
}
