package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/streamnest/community-api/internal/achievements"
	"github.com/streamnest/community-api/internal/dto"
	"github.com/streamnest/community-api/internal/models"
	"github.com/streamnest/community-api/internal/observability"
	"github.com/streamnest/community-api/internal/repository"
)

const (
	dayKeyLayout = "2006-01-02"

	// casRetryBudget bounds the in-process retry loop around optimistic
	// updates; exhaustion surfaces ErrConflict to the caller.
	casRetryBudget = 3
)

// ProgressService owns the per-user progression ledger: XP, level, channel
// points, watch time, message count and login streak.
type ProgressService interface {
	Award(ctx context.Context, userID uint, req dto.AwardRequest) (dto.ProgressResponse, error)
	RecordLogin(ctx context.Context, userID uint, req dto.RecordLoginRequest) (dto.ProgressResponse, error)
	Stats(ctx context.Context, userID uint) (dto.ProgressResponse, error)
}

type progressService struct {
	repo      repository.ProgressRepository
	evaluator AchievementService
	feed      ActivityFeedService
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	locks     keyedMutex
}

// NewProgressService constructs the progression ledger service.
func NewProgressService(repo repository.ProgressRepository, evaluator AchievementService, feed ActivityFeedService, validate *validator.Validate, logger zerolog.Logger) ProgressService {
	return &progressService{
		repo:      repo,
		evaluator: evaluator,
		feed:      feed,
		validator: validate,
		logger:    logger.With().Str("component", "progress_service").Logger(),
		tracer:    otel.Tracer("github.com/streamnest/community-api/internal/service/progress"),
	}
}

func (s *progressService) Award(ctx context.Context, userID uint, req dto.AwardRequest) (dto.ProgressResponse, error) {
	start := time.Now()
	defer func() {
		observability.AwardLatency().WithLabelValues(req.Kind).Observe(time.Since(start).Seconds())
	}()

	if userID == 0 {
		return dto.ProgressResponse{}, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ProgressResponse{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}

	spanCtx, span := s.tracer.Start(ctx, "progress.award", trace.WithAttributes(
		attribute.Int64("award.user_id", int64(userID)),
		attribute.String("award.kind", req.Kind),
		attribute.Int64("award.amount", req.Amount),
	))
	defer span.End()

	unlock := s.locks.lock(userLockKey(userID))
	defer unlock()

	progress, err := s.mutate(spanCtx, userID, func(p *models.UserProgress) error {
		switch req.Kind {
		case dto.AwardKindXP:
			p.XP += req.Amount
			p.Level = LevelForXP(p.XP)
		case dto.AwardKindPoints:
			p.Points += req.Amount
			p.TotalPointsEarned += req.Amount
		case dto.AwardKindWatchMinutes:
			p.WatchTimeMinutes += req.Amount
		case dto.AwardKindMessages:
			p.MessagesSent += req.Amount
		default:
			return fmt.Errorf("%w: unknown award kind %q", ErrInvalidArgument, req.Kind)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.ProgressResponse{}, err
	}

	observability.Awards().WithLabelValues(req.Kind).Inc()

	return newProgressResponse(progress.after), nil
}

func (s *progressService) RecordLogin(ctx context.Context, userID uint, req dto.RecordLoginRequest) (dto.ProgressResponse, error) {
	if userID == 0 {
		return dto.ProgressResponse{}, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ProgressResponse{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}

	day, err := time.Parse(dayKeyLayout, req.Day)
	if err != nil {
		return dto.ProgressResponse{}, fmt.Errorf("%w: malformed day key %q", ErrInvalidArgument, req.Day)
	}

	unlock := s.locks.lock(userLockKey(userID))
	defer unlock()

	progress, err := s.mutate(ctx, userID, func(p *models.UserProgress) error {
		if p.LastLoginDay == req.Day {
			// Idempotent per day.
			return nil
		}

		streak := 1
		if lastDay, parseErr := time.Parse(dayKeyLayout, p.LastLoginDay); parseErr == nil {
			if lastDay.AddDate(0, 0, 1).Equal(day) {
				streak = p.LoginStreak + 1
			}
		}

		p.LoginStreak = streak
		p.LastLoginDay = req.Day
		return nil
	})
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	return newProgressResponse(progress.after), nil
}

func (s *progressService) Stats(ctx context.Context, userID uint) (dto.ProgressResponse, error) {
	if userID == 0 {
		return dto.ProgressResponse{}, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}

	progress, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Absence is the initial state, not an error.
			return newProgressResponse(initialProgress(userID)), nil
		}
		return dto.ProgressResponse{}, translateStorageError(err)
	}

	return newProgressResponse(progress), nil
}

// mutation captures the before/after states of one applied ledger change.
type mutation struct {
	before models.UserProgress
	after  models.UserProgress
}

// mutate loads (or initialises) the user's record, applies fn and persists
// with an optimistic version check, retrying within the budget. Level-up
// events and achievement evaluation run synchronously after the write, so
// they complete before the caller's award returns.
func (s *progressService) mutate(ctx context.Context, userID uint, fn func(*models.UserProgress) error) (mutation, error) {
	var applied mutation

	for attempt := 0; attempt < casRetryBudget; attempt++ {
		fresh := false
		progress, err := s.repo.Get(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return mutation{}, translateStorageError(err)
			}
			progress = initialProgress(userID)
			fresh = true
		}

		before := progress
		if err := fn(&progress); err != nil {
			return mutation{}, err
		}

		if fresh {
			err = s.repo.Create(ctx, &progress)
		} else {
			err = s.repo.UpdateCAS(ctx, &progress)
		}
		if err != nil {
			if errors.Is(err, repository.ErrVersionConflict) || (fresh && isDuplicateKey(err)) {
				observability.ProgressConflicts().Inc()
				continue
			}
			return mutation{}, translateStorageError(err)
		}

		applied = mutation{before: before, after: progress}
		if err := s.emitTransitions(ctx, userID, applied); err != nil {
			return mutation{}, err
		}

		return applied, nil
	}

	s.logger.Warn().Uint("user_id", userID).Msg("progress update retry budget exhausted")
	return mutation{}, fmt.Errorf("%w: progress update lost %d races", ErrConflict, casRetryBudget)
}

func (s *progressService) emitTransitions(ctx context.Context, userID uint, applied mutation) error {
	for level := applied.before.Level + 1; level <= applied.after.Level; level++ {
		_, err := s.feed.Record(ctx, userID, models.ActivityLevelUp,
			fmt.Sprintf("Reached level %d", level),
			map[string]interface{}{"level": level})
		if err != nil {
			return err
		}
		observability.LevelUps().Inc()
	}

	return s.evaluator.OnProgressChanged(ctx, userID,
		snapshotOf(applied.before), snapshotOf(applied.after),
		achievements.Signals{}, achievements.Signals{})
}

func initialProgress(userID uint) models.UserProgress {
	return models.UserProgress{UserID: userID, Level: 1}
}

func snapshotOf(p models.UserProgress) achievements.Snapshot {
	return achievements.Snapshot{
		XP:                p.XP,
		Level:             p.Level,
		Points:            p.Points,
		TotalPointsEarned: p.TotalPointsEarned,
		WatchTimeMinutes:  p.WatchTimeMinutes,
		MessagesSent:      p.MessagesSent,
		LoginStreak:       p.LoginStreak,
	}
}

func newProgressResponse(p models.UserProgress) dto.ProgressResponse {
	level := LevelForXP(p.XP)
	floor := LevelThreshold(level - 1)
	ceil := LevelThreshold(level)
	p.Level = level

	return dto.NewProgressResponse(p, LevelProgress(p.XP), p.XP-floor, ceil-p.XP)
}

func userLockKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
