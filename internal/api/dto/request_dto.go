package dto

import (
	"time"

	"github.com/voicedesk/escalation-service/internal/domain"
)

// CreateHelpRequestRequest payload.
type CreateHelpRequestRequest struct {
	CustomerID int64  `json:"customerId"`
	Question   string `json:"question"`
}

// SubmitAnswerRequest payload for the supervisor answer transition.
type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
}

// HelpRequestResponse wire representation of a help request.
type HelpRequestResponse struct {
	ID         int64                `json:"id"`
	CustomerID int64                `json:"customerId"`
	Question   string               `json:"question"`
	Status     domain.RequestStatus `json:"status"`
	Answer     *string              `json:"answer"`
	CreatedAt  time.Time            `json:"createdAt"`
	ResolvedAt *time.Time           `json:"resolvedAt"`
}

// HelpRequestWithCustomerResponse embeds the owning customer.
type HelpRequestWithCustomerResponse struct {
	HelpRequestResponse
	Customer CustomerResponse `json:"customer"`
}
