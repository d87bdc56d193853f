package domain

import "time"

// RequestStatus enumerates lifecycle states for a help request.
// Transitions are linear: pending -> processing -> resolved. A request never
// regresses from resolved and there is no cancellation or expiry path.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusResolved   RequestStatus = "resolved"
)

// HelpRequest is one escalation of a caller question to a human supervisor.
// Answer and ResolvedAt are set together when the request reaches resolved.
type HelpRequest struct {
	ID         int64
	CustomerID int64
	Question   string
	Status     RequestStatus
	Answer     *string
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// HelpRequestWithCustomer embeds the owning customer for read endpoints.
type HelpRequestWithCustomer struct {
	HelpRequest
	Customer Customer
}
