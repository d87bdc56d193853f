package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCustomerRegistered EventType = "customer_registered"
	EventEscalationCreated  EventType = "escalation_created"
	EventRequestResolved    EventType = "request_resolved"
	EventAnswerLearned      EventType = "answer_learned"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID int64       `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CustomerRegisteredPayload payload.
type CustomerRegisteredPayload struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

// EscalationCreatedPayload payload.
type EscalationCreatedPayload struct {
	CustomerID int64  `json:"customer_id"`
	Question   string `json:"question"`
}

// RequestResolvedPayload payload. Carries enough for the notification port to
// relay the answer back to the waiting caller.
type RequestResolvedPayload struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
}

// AnswerLearnedPayload payload.
type AnswerLearnedPayload struct {
	EntryID  int64  `json:"entry_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}
