package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/streamnest/community-api/internal/dto"
	"github.com/streamnest/community-api/internal/models"
	"github.com/streamnest/community-api/internal/observability"
	"github.com/streamnest/community-api/internal/repository"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100

	globalFeedCacheKey = "activity:feed:global:v1"
)

// ActivityFeedService owns the append-only user-visible event log.
type ActivityFeedService interface {
	Record(ctx context.Context, userID uint, activityType, text string, data map[string]interface{}) (dto.ActivityEventResponse, error)
	FeedFor(ctx context.Context, userID uint, limit int) (dto.ActivityFeedResponse, error)
	GlobalFeed(ctx context.Context, limit int) (dto.ActivityFeedResponse, error)
}

type activityFeedService struct {
	repo        repository.ActivityEventRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	nats        *nats.Conn
	natsSubject string
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

type activityFanoutEvent struct {
	Event  dto.ActivityEventResponse `json:"event"`
	SentAt time.Time                 `json:"sent_at"`
}

// NewActivityFeedService builds the feed recorder. Redis and NATS are
// optional; with a nil client the cache or fan-out is simply skipped.
func NewActivityFeedService(repo repository.ActivityEventRepository, cache *redis.Client, cacheTTL time.Duration, natsConn *nats.Conn, natsSubject string, logger zerolog.Logger) ActivityFeedService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	return &activityFeedService{
		repo:        repo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		nats:        natsConn,
		natsSubject: natsSubject,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "activity_feed_service").Logger(),
	}
}

func (s *activityFeedService) Record(ctx context.Context, userID uint, activityType, text string, data map[string]interface{}) (dto.ActivityEventResponse, error) {
	if userID == 0 {
		return dto.ActivityEventResponse{}, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	if _, known := models.KnownActivityTypes[activityType]; !known {
		return dto.ActivityEventResponse{}, fmt.Errorf("%w: unknown activity type %q", ErrInvalidArgument, activityType)
	}

	cleanText := strings.TrimSpace(s.sanitizer.Sanitize(text))
	if cleanText == "" {
		return dto.ActivityEventResponse{}, fmt.Errorf("%w: activity text empty after sanitization", ErrInvalidArgument)
	}

	event := models.ActivityEvent{
		UserID:       userID,
		ActivityType: activityType,
		ActivityText: cleanText,
		ActivityData: datatypes.JSONMap(data),
	}

	if err := s.repo.Create(ctx, &event); err != nil {
		s.logger.Error().Err(err).Uint("user_id", userID).Str("type", activityType).Msg("failed to persist activity event")
		return dto.ActivityEventResponse{}, translateStorageError(err)
	}

	observability.ActivityEvents().WithLabelValues(activityType).Inc()

	response := dto.NewActivityEventResponse(event)
	s.invalidateGlobalCache(ctx)
	s.fanout(response)

	return response, nil
}

func (s *activityFeedService) FeedFor(ctx context.Context, userID uint, limit int) (dto.ActivityFeedResponse, error) {
	events, err := s.repo.ListByUser(ctx, userID, clampFeedLimit(limit))
	if err != nil {
		observability.FeedRequests().WithLabelValues("error").Inc()
		return dto.ActivityFeedResponse{}, translateStorageError(err)
	}

	observability.FeedRequests().WithLabelValues("miss").Inc()

	return dto.ActivityFeedResponse{Items: dto.NewActivityEventResponseSlice(events)}, nil
}

func (s *activityFeedService) GlobalFeed(ctx context.Context, limit int) (dto.ActivityFeedResponse, error) {
	limit = clampFeedLimit(limit)

	cacheKey := fmt.Sprintf("%s:%d", globalFeedCacheKey, limit)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var response dto.ActivityFeedResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				observability.FeedRequests().WithLabelValues("hit").Inc()
				return response, nil
			}
		}
	}

	events, err := s.repo.ListGlobal(ctx, limit)
	if err != nil {
		observability.FeedRequests().WithLabelValues("error").Inc()
		return dto.ActivityFeedResponse{}, translateStorageError(err)
	}

	response := dto.ActivityFeedResponse{Items: dto.NewActivityEventResponseSlice(events)}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to write global feed cache")
			}
		}
	}

	observability.FeedRequests().WithLabelValues("miss").Inc()

	return response, nil
}

func (s *activityFeedService) invalidateGlobalCache(ctx context.Context) {
	if s.cache == nil {
		return
	}

	iter := s.cache.Scan(ctx, 0, globalFeedCacheKey+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate feed cache entry")
		}
	}
	if err := iter.Err(); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn().Err(err).Msg("feed cache invalidation scan failed")
	}
}

func (s *activityFeedService) fanout(event dto.ActivityEventResponse) {
	if s.nats == nil || s.natsSubject == "" {
		return
	}

	payload, err := json.Marshal(activityFanoutEvent{Event: event, SentAt: time.Now().UTC()})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode activity fan-out event")
		return
	}

	if err := s.nats.Publish(s.natsSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish activity event to nats")
	}
}

func clampFeedLimit(limit int) int {
	if limit <= 0 {
		return defaultFeedLimit
	}
	if limit > maxFeedLimit {
		return maxFeedLimit
	}
	return limit
}
