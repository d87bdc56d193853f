package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/voicedesk/escalation-service/internal/api/dto"
	"github.com/voicedesk/escalation-service/internal/domain"
	"github.com/voicedesk/escalation-service/internal/service"
	apperrors "github.com/voicedesk/escalation-service/pkg/util"
)

// RequestsHandler manages help request endpoints.
type RequestsHandler struct {
	escalations *service.EscalationService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(escalationService *service.EscalationService) *RequestsHandler {
	return &RequestsHandler{escalations: escalationService}
}

// List GET /api/requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	requests, err := h.escalations.ListRequests(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.HelpRequestWithCustomerResponse, 0, len(requests))
	for i := range requests {
		items = append(items, requestWithCustomerResponse(&requests[i]))
	}
	return c.JSON(items)
}

// Get GET /api/requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	request, err := h.escalations.GetRequest(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(requestWithCustomerResponse(request))
}

// Create POST /api/requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateHelpRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CustomerID == 0 || req.Question == "" {
		return apperrors.NewValidationError("customerId and question required", nil)
	}

	request, err := h.escalations.CreateRequest(c.Context(), req.CustomerID, req.Question)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(requestResponse(request))
}

// SubmitAnswer PATCH /api/requests/:id/answer.
func (h *RequestsHandler) SubmitAnswer(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Answer == "" {
		return apperrors.NewValidationError("answer required", nil)
	}

	resolved, err := h.escalations.SubmitAnswer(c.Context(), id, req.Answer)
	if err != nil {
		return err
	}
	return c.JSON(requestWithCustomerResponse(resolved))
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": raw})
	}
	return id, nil
}

func requestResponse(request *domain.HelpRequest) dto.HelpRequestResponse {
	return dto.HelpRequestResponse{
		ID:         request.ID,
		CustomerID: request.CustomerID,
		Question:   request.Question,
		Status:     request.Status,
		Answer:     request.Answer,
		CreatedAt:  request.CreatedAt,
		ResolvedAt: request.ResolvedAt,
	}
}

func requestWithCustomerResponse(request *domain.HelpRequestWithCustomer) dto.HelpRequestWithCustomerResponse {
	return dto.HelpRequestWithCustomerResponse{
		HelpRequestResponse: requestResponse(&request.HelpRequest),
		Customer:            customerResponse(&request.Customer),
	}
}
