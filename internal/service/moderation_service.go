package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/streamnest/community-api/internal/dto"
	"github.com/streamnest/community-api/internal/models"
	"github.com/streamnest/community-api/internal/observability"
	"github.com/streamnest/community-api/internal/repository"
)

// ModerationService owns the per-(channel, user) punishment lifecycle:
// issuing, enforcing and expiring timeouts and bans.
type ModerationService interface {
	IssueTimeout(ctx context.Context, req dto.TimeoutRequest, issuedBy uint) (dto.ModerationActionResponse, error)
	IssueBan(ctx context.Context, req dto.BanRequest, issuedBy uint) (dto.ModerationActionResponse, error)
	Unban(ctx context.Context, req dto.UnbanRequest) error
	// IsEnforced is the query the chat delivery path runs before accepting a
	// message. An expired timeout reads as clear even before the sweep runs.
	IsEnforced(ctx context.Context, channel string, userID uint) (dto.EnforcementResponse, error)
	// Sweep deactivates every timeout whose expiry has passed. Safe to run
	// concurrently with commands for the same pair.
	Sweep(ctx context.Context) (int, error)
	History(ctx context.Context, channel string, limit int) ([]dto.ModerationActionResponse, error)
}

type moderationService struct {
	repo      repository.ModerationActionRepository
	clock     Clock
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	locks     keyedMutex
}

// NewModerationService constructs the moderation action engine. A nil clock
// falls back to the wall clock.
func NewModerationService(repo repository.ModerationActionRepository, clock Clock, validate *validator.Validate, logger zerolog.Logger) ModerationService {
	if clock == nil {
		clock = SystemClock()
	}

	return &moderationService{
		repo:      repo,
		clock:     clock,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "moderation_service").Logger(),
		tracer:    otel.Tracer("github.com/streamnest/community-api/internal/service/moderation"),
	}
}

func (s *moderationService) IssueTimeout(ctx context.Context, req dto.TimeoutRequest, issuedBy uint) (dto.ModerationActionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ModerationActionResponse{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}
	if req.DurationSeconds <= 0 {
		return dto.ModerationActionResponse{}, fmt.Errorf("%w: timeout duration must be positive", ErrInvalidArgument)
	}

	channel := normalizeChannel(req.Channel)
	expiresAt := s.clock.Now().Add(time.Duration(req.DurationSeconds) * time.Second)

	action := models.ModerationAction{
		ChannelName:  channel,
		TargetUserID: req.UserID,
		ActionType:   models.ModerationTimeout,
		Reason:       s.cleanReason(req.Reason),
		IssuedBy:     issuedBy,
		ExpiresAt:    &expiresAt,
		Active:       true,
	}

	if err := s.issue(ctx, &action); err != nil {
		return dto.ModerationActionResponse{}, err
	}

	return dto.NewModerationActionResponse(action), nil
}

func (s *moderationService) IssueBan(ctx context.Context, req dto.BanRequest, issuedBy uint) (dto.ModerationActionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ModerationActionResponse{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}

	action := models.ModerationAction{
		ChannelName:  normalizeChannel(req.Channel),
		TargetUserID: req.UserID,
		ActionType:   models.ModerationBan,
		Reason:       s.cleanReason(req.Reason),
		IssuedBy:     issuedBy,
		Active:       true,
	}

	if err := s.issue(ctx, &action); err != nil {
		return dto.ModerationActionResponse{}, err
	}

	return dto.NewModerationActionResponse(action), nil
}

// issue supersedes whatever action is active for the pair and persists the
// new one, inside the pair's critical section.
func (s *moderationService) issue(ctx context.Context, action *models.ModerationAction) error {
	spanCtx, span := s.tracer.Start(ctx, "moderation.issue", trace.WithAttributes(
		attribute.String("moderation.channel", action.ChannelName),
		attribute.Int64("moderation.target_user_id", int64(action.TargetUserID)),
		attribute.String("moderation.action", action.ActionType),
	))
	defer span.End()

	unlock := s.locks.lock(pairLockKey(action.ChannelName, action.TargetUserID))
	defer unlock()

	current, err := s.repo.GetActive(spanCtx, action.ChannelName, action.TargetUserID)
	if err != nil {
		span.RecordError(err)
		return translateStorageError(err)
	}
	if current != nil {
		if _, err := s.repo.Deactivate(spanCtx, current.ID); err != nil {
			span.RecordError(err)
			return translateStorageError(err)
		}
	}

	if err := s.repo.Create(spanCtx, action); err != nil {
		span.RecordError(err)
		return translateStorageError(err)
	}

	observability.ModerationActions().WithLabelValues(action.ActionType).Inc()
	s.logger.Info().
		Str("channel", action.ChannelName).
		Uint("target_user_id", action.TargetUserID).
		Str("action", action.ActionType).
		Uint("issued_by", action.IssuedBy).
		Msg("moderation action issued")

	return nil
}

func (s *moderationService) Unban(ctx context.Context, req dto.UnbanRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}

	channel := normalizeChannel(req.Channel)

	unlock := s.locks.lock(pairLockKey(channel, req.UserID))
	defer unlock()

	current, err := s.repo.GetActive(ctx, channel, req.UserID)
	if err != nil {
		return translateStorageError(err)
	}
	if current == nil {
		// Already clear; unban is a no-op, not an error.
		return nil
	}

	if _, err := s.repo.Deactivate(ctx, current.ID); err != nil {
		return translateStorageError(err)
	}

	s.logger.Info().
		Str("channel", channel).
		Uint("target_user_id", req.UserID).
		Msg("moderation action lifted")

	return nil
}

func (s *moderationService) IsEnforced(ctx context.Context, channel string, userID uint) (dto.EnforcementResponse, error) {
	if strings.TrimSpace(channel) == "" || userID == 0 {
		return dto.EnforcementResponse{}, fmt.Errorf("%w: channel and user id are required", ErrInvalidArgument)
	}

	channel = normalizeChannel(channel)
	response := dto.EnforcementResponse{Channel: channel, UserID: userID, State: dto.EnforcementClear}

	current, err := s.repo.GetActive(ctx, channel, userID)
	if err != nil {
		observability.EnforcementChecks().WithLabelValues("error").Inc()
		return dto.EnforcementResponse{}, translateStorageError(err)
	}

	switch {
	case current == nil:
	case current.ActionType == models.ModerationBan:
		response.State = dto.EnforcementBanned
		response.Reason = current.Reason
	case current.ExpiresAt == nil || !current.ExpiresAt.After(s.clock.Now()):
		// Expired (a boundary hit at exactly now counts as expired): correct
		// the stored state lazily. The conditional update loses gracefully to
		// a concurrent command that already superseded this action.
		if _, err := s.repo.Deactivate(ctx, current.ID); err != nil {
			s.logger.Warn().Err(err).Uint("action_id", current.ID).Msg("lazy timeout expiry failed")
		}
	default:
		now := s.clock.Now()
		response.State = dto.EnforcementTimedOut
		response.RemainingSeconds = int64(math.Ceil(current.ExpiresAt.Sub(now).Seconds()))
		response.ExpiresAt = current.ExpiresAt
		response.Reason = current.Reason
	}

	observability.EnforcementChecks().WithLabelValues(response.State).Inc()

	return response, nil
}

func (s *moderationService) Sweep(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, translateStorageError(err)
	}

	swept := 0
	for _, action := range expired {
		deactivated, err := s.repo.Deactivate(ctx, action.ID)
		if err != nil {
			return swept, translateStorageError(err)
		}
		if deactivated {
			swept++
		}
	}

	if swept > 0 {
		observability.SweepDeactivations().Add(float64(swept))
		s.logger.Debug().Int("count", swept).Msg("expired timeouts swept")
	}

	return swept, nil
}

func (s *moderationService) History(ctx context.Context, channel string, limit int) ([]dto.ModerationActionResponse, error) {
	if strings.TrimSpace(channel) == "" {
		return nil, fmt.Errorf("%w: channel is required", ErrInvalidArgument)
	}

	actions, err := s.repo.ListByChannel(ctx, normalizeChannel(channel), clampFeedLimit(limit))
	if err != nil {
		return nil, translateStorageError(err)
	}

	responses := make([]dto.ModerationActionResponse, 0, len(actions))
	for _, action := range actions {
		responses = append(responses, dto.NewModerationActionResponse(action))
	}

	return responses, nil
}

func (s *moderationService) cleanReason(reason string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(reason))
}

func normalizeChannel(channel string) string {
	return strings.ToLower(strings.TrimSpace(channel))
}

func pairLockKey(channel string, userID uint) string {
	return fmt.Sprintf("%s:%d", channel, userID)
}
