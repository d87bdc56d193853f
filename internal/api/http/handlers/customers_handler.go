package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/voicedesk/escalation-service/internal/api/dto"
	"github.com/voicedesk/escalation-service/internal/domain"
	"github.com/voicedesk/escalation-service/internal/service"
	apperrors "github.com/voicedesk/escalation-service/pkg/util"
)

// CustomersHandler manages caller identity endpoints.
type CustomersHandler struct {
	customers *service.CustomerService
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(customerService *service.CustomerService) *CustomersHandler {
	return &CustomersHandler{customers: customerService}
}

// Create POST /api/customers. Find-or-create keyed on phone: 201 when a new
// record was created, 200 with the stored record when the phone is known.
func (h *CustomersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Phone == "" {
		return apperrors.NewValidationError("name and phone required", nil)
	}

	customer, created, err := h.customers.FindOrCreate(c.Context(), req.Name, req.Phone)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(customerResponse(customer))
}

// GetByPhone GET /api/customers/phone/:phone.
func (h *CustomersHandler) GetByPhone(c *fiber.Ctx) error {
	customer, err := h.customers.GetByPhone(c.Context(), c.Params("phone"))
	if err != nil {
		return err
	}
	return c.JSON(customerResponse(customer))
}

func customerResponse(customer *domain.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:        customer.ID,
		Name:      customer.Name,
		Phone:     customer.Phone,
		CreatedAt: customer.CreatedAt,
	}
}
