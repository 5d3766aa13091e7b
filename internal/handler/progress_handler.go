package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/streamnest/community-api/internal/dto"
	"github.com/streamnest/community-api/internal/service"
	"github.com/streamnest/community-api/internal/utils"
)

// ProgressHandler serves the progression ledger endpoints.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler constructs the handler instance.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register wires the progression routes.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/:userId", h.stats)
	router.Post("/:userId/award", h.award)
	router.Post("/:userId/login", h.recordLogin)
}

func (h *ProgressHandler) stats(c *fiber.Ctx) error {
	userID, err := parseUserIDParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	result, err := h.service.Stats(c.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to fetch progress stats")
		return utils.SendError(c, statusForError(err), messageForError(err))
	}

	return utils.SendSuccess(c, "progress retrieved", result)
}

func (h *ProgressHandler) award(c *fiber.Ctx) error {
	userID, err := parseUserIDParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req dto.AwardRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Award(c.Context(), userID, req)
	if err != nil {
		h.logger.Error().Err(err).Uint("user_id", userID).Str("kind", req.Kind).Msg("failed to apply award")
		return utils.SendError(c, statusForError(err), messageForError(err))
	}

	return utils.SendSuccess(c, "award applied", result)
}

func (h *ProgressHandler) recordLogin(c *fiber.Ctx) error {
	userID, err := parseUserIDParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req dto.RecordLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.RecordLogin(c.Context(), userID, req)
	if err != nil {
		h.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to record login")
		return utils.SendError(c, statusForError(err), messageForError(err))
	}

	return utils.SendSuccess(c, "login recorded", result)
}
