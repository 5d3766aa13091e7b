package dto

import (
	"time"

	"github.com/streamnest/community-api/internal/models"
)

// RecordActivityRequest is the payload for external signal events entering
// the feed (follows, stream starts, partner status changes, joins).
type RecordActivityRequest struct {
	UserID uint                   `json:"user_id" validate:"required,gt=0"`
	Type   string                 `json:"type" validate:"required"`
	Text   string                 `json:"text" validate:"required,max=512"`
	Data   map[string]interface{} `json:"data"`
}

// ActivityEventResponse is one feed entry.
type ActivityEventResponse struct {
	ID           uint                   `json:"id"`
	UserID       uint                   `json:"user_id"`
	ActivityType string                 `json:"activity_type"`
	ActivityText string                 `json:"activity_text"`
	ActivityData map[string]interface{} `json:"activity_data,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// ActivityFeedResponse wraps a feed page.
type ActivityFeedResponse struct {
	Items    []ActivityEventResponse `json:"items"`
	CacheHit bool                    `json:"cache_hit"`
}

// NewActivityEventResponse converts a stored event for display.
func NewActivityEventResponse(event models.ActivityEvent) ActivityEventResponse {
	return ActivityEventResponse{
		ID:           event.ID,
		UserID:       event.UserID,
		ActivityType: event.ActivityType,
		ActivityText: event.ActivityText,
		ActivityData: map[string]interface{}(event.ActivityData),
		CreatedAt:    event.CreatedAt,
	}
}

// NewActivityEventResponseSlice converts a list of stored events.
func NewActivityEventResponseSlice(events []models.ActivityEvent) []ActivityEventResponse {
	responses := make([]ActivityEventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, NewActivityEventResponse(event))
	}
	return responses
}
