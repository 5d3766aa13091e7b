package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/streamnest/community-api/internal/service"
	"github.com/streamnest/community-api/internal/utils"
)

// AchievementHandler serves the achievement catalog and per-user partition.
type AchievementHandler struct {
	service service.AchievementService
	logger  zerolog.Logger
}

// NewAchievementHandler constructs the handler instance.
func NewAchievementHandler(service service.AchievementService, logger zerolog.Logger) *AchievementHandler {
	return &AchievementHandler{
		service: service,
		logger:  logger.With().Str("component", "achievement_handler").Logger(),
	}
}

// Register wires the achievement routes.
func (h *AchievementHandler) Register(router fiber.Router) {
	router.Get("/", h.catalog)
	router.Get("/:userId", h.userAchievements)
}

func (h *AchievementHandler) catalog(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "achievement catalog retrieved", h.service.Definitions())
}

func (h *AchievementHandler) userAchievements(c *fiber.Ctx) error {
	userID, err := parseUserIDParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	result, err := h.service.UserAchievements(c.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to fetch user achievements")
		return utils.SendError(c, statusForError(err), messageForError(err))
	}

	return utils.SendSuccess(c, "achievements retrieved", result)
}
