package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/streamnest/community-api/internal/achievements"
	"github.com/streamnest/community-api/internal/models"
	"github.com/streamnest/community-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// memoryProgressRepo mimics the versioned progress table, including the
// optimistic concurrency semantics of UpdateCAS.
type memoryProgressRepo struct {
	mu      sync.Mutex
	records map[uint]models.UserProgress

	// forceConflicts makes the next N UpdateCAS calls lose the race.
	forceConflicts int
}

func newMemoryProgressRepo() *memoryProgressRepo {
	return &memoryProgressRepo{records: make(map[uint]models.UserProgress)}
}

func (r *memoryProgressRepo) Get(_ context.Context, userID uint) (models.UserProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[userID]
	if !ok {
		return models.UserProgress{}, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (r *memoryProgressRepo) Create(_ context.Context, progress *models.UserProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[progress.UserID]; exists {
		return gorm.ErrDuplicatedKey
	}

	progress.ID = uint(len(r.records) + 1)
	progress.UpdatedAt = time.Now()
	r.records[progress.UserID] = *progress
	return nil
}

func (r *memoryProgressRepo) UpdateCAS(_ context.Context, progress *models.UserProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.forceConflicts > 0 {
		r.forceConflicts--
		return repository.ErrVersionConflict
	}

	current, ok := r.records[progress.UserID]
	if !ok || current.Version != progress.Version {
		return repository.ErrVersionConflict
	}

	progress.Version++
	progress.UpdatedAt = time.Now()
	r.records[progress.UserID] = *progress
	return nil
}

// memoryActivityRepo appends events in insertion order; reads return them
// newest first, matching the feed ordering contract.
type memoryActivityRepo struct {
	mu     sync.Mutex
	nextID uint
	events []models.ActivityEvent
}

func (r *memoryActivityRepo) Create(_ context.Context, event *models.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	event.ID = r.nextID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	r.events = append(r.events, *event)
	return nil
}

func (r *memoryActivityRepo) ListByUser(_ context.Context, userID uint, limit int) ([]models.ActivityEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ActivityEvent, 0)
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].UserID != userID {
			continue
		}
		out = append(out, r.events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryActivityRepo) ListGlobal(_ context.Context, limit int) ([]models.ActivityEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ActivityEvent, 0)
	for i := len(r.events) - 1; i >= 0; i-- {
		out = append(out, r.events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// byType returns matching events oldest first.
func (r *memoryActivityRepo) byType(activityType string) []models.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ActivityEvent, 0)
	for _, event := range r.events {
		if event.ActivityType == activityType {
			out = append(out, event)
		}
	}
	return out
}

// memoryUnlockRepo enforces the one-unlock-per-(user, achievement) rule the
// way the unique index does.
type memoryUnlockRepo struct {
	mu      sync.Mutex
	unlocks []models.AchievementUnlock
	seen    map[string]struct{}
}

func newMemoryUnlockRepo() *memoryUnlockRepo {
	return &memoryUnlockRepo{seen: make(map[string]struct{})}
}

func (r *memoryUnlockRepo) Create(_ context.Context, unlock *models.AchievementUnlock) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%d/%s", unlock.UserID, unlock.AchievementID)
	if _, exists := r.seen[key]; exists {
		return false, nil
	}

	r.seen[key] = struct{}{}
	unlock.ID = uint(len(r.unlocks) + 1)
	if unlock.UnlockedAt.IsZero() {
		unlock.UnlockedAt = time.Now()
	}
	r.unlocks = append(r.unlocks, *unlock)
	return true, nil
}

func (r *memoryUnlockRepo) ListByUser(_ context.Context, userID uint) ([]models.AchievementUnlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.AchievementUnlock, 0)
	for _, unlock := range r.unlocks {
		if unlock.UserID == userID {
			out = append(out, unlock)
		}
	}
	return out, nil
}

// memoryModerationRepo mirrors the conditional-deactivate semantics of the
// real repository.
type memoryModerationRepo struct {
	mu      sync.Mutex
	nextID  uint
	actions []models.ModerationAction
}

func (r *memoryModerationRepo) GetActive(_ context.Context, channel string, targetUserID uint) (*models.ModerationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.actions) - 1; i >= 0; i-- {
		action := r.actions[i]
		if action.ChannelName == channel && action.TargetUserID == targetUserID && action.Active {
			return &action, nil
		}
	}
	return nil, nil
}

func (r *memoryModerationRepo) Create(_ context.Context, action *models.ModerationAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	action.ID = r.nextID
	if action.IssuedAt.IsZero() {
		action.IssuedAt = time.Now()
	}
	r.actions = append(r.actions, *action)
	return nil
}

func (r *memoryModerationRepo) Deactivate(_ context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.actions {
		if r.actions[i].ID == id {
			if !r.actions[i].Active {
				return false, nil
			}
			r.actions[i].Active = false
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryModerationRepo) ListExpired(_ context.Context, now time.Time) ([]models.ModerationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ModerationAction, 0)
	for _, action := range r.actions {
		if action.Active && action.ActionType == models.ModerationTimeout &&
			action.ExpiresAt != nil && !action.ExpiresAt.After(now) {
			out = append(out, action)
		}
	}
	return out, nil
}

func (r *memoryModerationRepo) ListByChannel(_ context.Context, channel string, limit int) ([]models.ModerationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ModerationAction, 0)
	for i := len(r.actions) - 1; i >= 0; i-- {
		if r.actions[i].ChannelName != channel {
			continue
		}
		out = append(out, r.actions[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// fakeClock advances only when a test says so.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// progressFixture wires the progression stack onto in-memory storage with
// the real catalog, evaluator and feed recorder.
type progressFixture struct {
	service  ProgressService
	progress *memoryProgressRepo
	activity *memoryActivityRepo
	unlocks  *memoryUnlockRepo
}

func newProgressFixture(t *testing.T) *progressFixture {
	t.Helper()

	catalog, err := achievements.LoadDefault()
	require.NoError(t, err)

	progressRepo := newMemoryProgressRepo()
	activityRepo := &memoryActivityRepo{}
	unlockRepo := newMemoryUnlockRepo()

	feed := NewActivityFeedService(activityRepo, nil, time.Minute, nil, "", testLogger())
	evaluator := NewAchievementService(catalog, unlockRepo, feed, testLogger())
	svc := NewProgressService(progressRepo, evaluator, feed, testValidator(), testLogger())

	return &progressFixture{
		service:  svc,
		progress: progressRepo,
		activity: activityRepo,
		unlocks:  unlockRepo,
	}
}
