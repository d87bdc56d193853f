package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voicedesk/escalation-service/internal/api/dto"
	"github.com/voicedesk/escalation-service/internal/service"
	"github.com/voicedesk/escalation-service/internal/voice"
	apperrors "github.com/voicedesk/escalation-service/pkg/util"
)

// VoiceHandler exposes the boundary used by the conversational agent.
type VoiceHandler struct {
	escalations *service.EscalationService
	tokens      *voice.TokenManager
}

// NewVoiceHandler constructs handler.
func NewVoiceHandler(escalationService *service.EscalationService, tokenManager *voice.TokenManager) *VoiceHandler {
	return &VoiceHandler{escalations: escalationService, tokens: tokenManager}
}

// RequestHelp POST /api/voice/request-help. The single tool callable by the
// voice agent. Outcomes, including failures, are in-band statuses: the agent
// phrases them for the caller rather than inspecting HTTP errors.
func (h *VoiceHandler) RequestHelp(c *fiber.Ctx) error {
	var req dto.RequestHelpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Question == "" || req.CustomerName == "" || req.CustomerPhone == "" {
		return apperrors.NewValidationError("question, customerName, customerPhone required", nil)
	}

	outcome, err := h.escalations.RequestHelp(c.Context(), req.Question, req.CustomerName, req.CustomerPhone)
	if err != nil {
		return err
	}
	return c.JSON(dto.RequestHelpResponse{
		Status:    string(outcome.Status),
		Answer:    outcome.Answer,
		RequestID: outcome.RequestID,
		Message:   outcome.Message,
	})
}

// RoomToken POST /api/voice/token.
func (h *VoiceHandler) RoomToken(c *fiber.Ctx) error {
	var req dto.RoomTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Identity == "" || req.Room == "" {
		return apperrors.NewValidationError("identity and room required", nil)
	}

	token, expiresAt, err := h.tokens.RoomToken(req.Identity, req.Room)
	if err != nil {
		return err
	}
	return c.JSON(dto.RoomTokenResponse{Token: token, ExpiresAt: expiresAt})
}
