package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/streamnest/community-api/internal/dto"
	"github.com/streamnest/community-api/internal/models"
	"github.com/streamnest/community-api/internal/service"
	"github.com/streamnest/community-api/internal/utils"
)

// ActivityFeedHandler serves the activity feed endpoints and ingests
// external signal events (follows, stream starts, status changes).
type ActivityFeedHandler struct {
	feed         service.ActivityFeedService
	achievements service.AchievementService
	logger       zerolog.Logger
}

// NewActivityFeedHandler constructs the handler instance.
func NewActivityFeedHandler(feed service.ActivityFeedService, achievements service.AchievementService, logger zerolog.Logger) *ActivityFeedHandler {
	return &ActivityFeedHandler{
		feed:         feed,
		achievements: achievements,
		logger:       logger.With().Str("component", "activity_feed_handler").Logger(),
	}
}

// Register wires the activity feed routes; the record route sits behind the
// supplied auth middleware.
func (h *ActivityFeedHandler) Register(router fiber.Router, auth fiber.Handler) {
	router.Get("/", h.globalFeed)
	router.Get("/:userId", h.userFeed)
	router.Post("/", auth, h.record)
}

func (h *ActivityFeedHandler) globalFeed(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	result, err := h.feed.GlobalFeed(c.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch global feed")
		return utils.SendError(c, statusForError(err), messageForError(err))
	}

	if result.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}

	return utils.SendSuccess(c, "activity feed retrieved", result)
}

func (h *ActivityFeedHandler) userFeed(c *fiber.Ctx) error {
	userID, err := parseUserIDParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	result, err := h.feed.FeedFor(c.Context(), userID, limit)
	if err != nil {
		h.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to fetch user feed")
		return utils.SendError(c, statusForError(err), messageForError(err))
	}

	return utils.SendSuccess(c, "activity feed retrieved", result)
}

func (h *ActivityFeedHandler) record(c *fiber.Ctx) error {
	var req dto.RecordActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	event, err := h.feed.Record(c.Context(), req.UserID, req.Type, req.Text, req.Data)
	if err != nil {
		h.logger.Error().Err(err).Uint("user_id", req.UserID).Str("type", req.Type).Msg("failed to record activity")
		return utils.SendError(c, statusForError(err), messageForError(err))
	}

	// Partner/affiliate transitions can unlock signal-gated achievements.
	if req.Type == models.ActivityBecamePartner || req.Type == models.ActivityBecameAffiliate {
		if err := h.achievements.OnExternalSignal(c.Context(), req.UserID, req.Type); err != nil {
			h.logger.Error().Err(err).Uint("user_id", req.UserID).Str("signal", req.Type).Msg("failed to evaluate external signal")
			return utils.SendError(c, statusForError(err), messageForError(err))
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity recorded", event)
}
