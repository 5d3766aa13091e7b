package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/streamnest/community-api/internal/dto"
	"github.com/streamnest/community-api/internal/service"
	"github.com/streamnest/community-api/internal/utils"
)

// ModerationHandler serves the moderation API consumed by channel
// moderators and the enforcement query consumed by chat delivery.
type ModerationHandler struct {
	service service.ModerationService
	logger  zerolog.Logger
}

// NewModerationHandler constructs the handler instance.
func NewModerationHandler(service service.ModerationService, logger zerolog.Logger) *ModerationHandler {
	return &ModerationHandler{
		service: service,
		logger:  logger.With().Str("component", "moderation_handler").Logger(),
	}
}

// Register wires the moderation routes. Mutations and the audit view sit
// behind the supplied auth middleware plus the moderator role gate; the
// status query stays open for chat delivery.
func (h *ModerationHandler) Register(router fiber.Router, auth fiber.Handler, moderatorOnly fiber.Handler) {
	router.Get("/status", h.status)
	router.Post("/timeout", auth, moderatorOnly, h.timeout)
	router.Post("/ban", auth, moderatorOnly, h.ban)
	router.Post("/unban", auth, moderatorOnly, h.unban)
	router.Get("/history", auth, moderatorOnly, h.history)
}

func (h *ModerationHandler) timeout(c *fiber.Ctx) error {
	var req dto.TimeoutRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.IssueTimeout(c.Context(), req, issuerFromContext(c))
	if err != nil {
		h.logger.Error().Err(err).Str("channel", req.Channel).Uint("target", req.UserID).Msg("failed to issue timeout")
		return utils.SendError(c, statusForError(err), messageForError(err))
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "timeout issued", result)
}

func (h *ModerationHandler) ban(c *fiber.Ctx) error {
	var req dto.BanRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.IssueBan(c.Context(), req, issuerFromContext(c))
	if err != nil {
		h.logger.Error().Err(err).Str("channel", req.Channel).Uint("target", req.UserID).Msg("failed to issue ban")
		return utils.SendError(c, statusForError(err), messageForError(err))
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "ban issued", result)
}

func (h *ModerationHandler) unban(c *fiber.Ctx) error {
	var req dto.UnbanRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.Unban(c.Context(), req); err != nil {
		h.logger.Error().Err(err).Str("channel", req.Channel).Uint("target", req.UserID).Msg("failed to unban")
		return utils.SendError(c, statusForError(err), messageForError(err))
	}

	return utils.SendSuccess(c, "moderation action lifted", nil)
}

func (h *ModerationHandler) status(c *fiber.Ctx) error {
	channel := strings.TrimSpace(c.Query("channel"))
	userID, err := strconv.ParseUint(c.Query("userId"), 10, 64)
	if channel == "" || err != nil || userID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "channel and userId are required")
	}

	result, err := h.service.IsEnforced(c.Context(), channel, uint(userID))
	if err != nil {
		h.logger.Error().Err(err).Str("channel", channel).Uint64("target", userID).Msg("failed to query enforcement")
		return utils.SendError(c, statusForError(err), messageForError(err))
	}

	return utils.SendSuccess(c, "enforcement state retrieved", result)
}

func (h *ModerationHandler) history(c *fiber.Ctx) error {
	channel := strings.TrimSpace(c.Query("channel"))
	if channel == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "channel is required")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	result, err := h.service.History(c.Context(), channel, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("channel", channel).Msg("failed to fetch moderation history")
		return utils.SendError(c, statusForError(err), messageForError(err))
	}

	return utils.SendSuccess(c, "moderation history retrieved", result)
}
