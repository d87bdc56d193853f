package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voicedesk/escalation-service/internal/domain"
	"github.com/voicedesk/escalation-service/internal/events"
	"github.com/voicedesk/escalation-service/internal/repository"
	apperrors "github.com/voicedesk/escalation-service/pkg/util"
)

// OutcomeStatus tags the result of a help request from the voice agent's
// point of view. The agent speaks the result back to the caller; it does not
// interpret it further.
type OutcomeStatus string

const (
	OutcomeFoundInKnowledgeBase OutcomeStatus = "found_in_knowledge_base"
	OutcomeEscalated            OutcomeStatus = "escalated"
	OutcomeError                OutcomeStatus = "error"
)

// EscalationOutcome is the return value of the request_help capability.
type EscalationOutcome struct {
	Status    OutcomeStatus
	Answer    string
	RequestID int64
	Message   string
}

// EscalationService owns the help request lifecycle: creation, supervisor
// answer intake, resolution, and knowledge base absorption.
type EscalationService struct {
	requests   repository.HelpRequestRepository
	customers  *CustomerService
	knowledge  *KnowledgeService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// EscalationDependencies bundles collaborators for the coordinator.
type EscalationDependencies struct {
	RequestRepo repository.HelpRequestRepository
	Customers   *CustomerService
	Knowledge   *KnowledgeService
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewEscalationService constructs the coordinator.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	return &EscalationService{
		requests:   deps.RequestRepo,
		customers:  deps.Customers,
		knowledge:  deps.Knowledge,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// RequestHelp handles an unanswerable caller question. The knowledge base is
// consulted first; only when it has nothing is a customer resolved and a
// pending help request opened. A knowledge base hit never creates a request.
// Failures are reported in-band as an error outcome so the agent can phrase
// them for the caller.
func (s *EscalationService) RequestHelp(ctx context.Context, question, customerName, customerPhone string) (*EscalationOutcome, error) {
	question = strings.TrimSpace(question)
	if question == "" || strings.TrimSpace(customerName) == "" || strings.TrimSpace(customerPhone) == "" {
		return nil, apperrors.NewValidationError("question, customerName, customerPhone required", nil)
	}

	matches, err := s.knowledge.Search(ctx, question)
	if err != nil {
		s.logger.Warn("knowledge base search failed", zap.Error(err))
		return &EscalationOutcome{
			Status:  OutcomeError,
			Message: "failed to consult knowledge base",
		}, nil
	}
	if len(matches) > 0 {
		best := matches[0]
		s.logger.Info("answer found in knowledge base",
			zap.Int64("entry_id", best.ID),
			zap.String("question", question),
		)
		return &EscalationOutcome{
			Status: OutcomeFoundInKnowledgeBase,
			Answer: best.Answer,
		}, nil
	}

	customer, _, err := s.customers.FindOrCreate(ctx, customerName, customerPhone)
	if err != nil {
		s.logger.Warn("customer resolution failed", zap.Error(err))
		return &EscalationOutcome{
			Status:  OutcomeError,
			Message: "customer creation failed",
		}, nil
	}

	request := &domain.HelpRequest{
		CustomerID: customer.ID,
		Question:   question,
		Status:     domain.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		s.logger.Warn("help request creation failed", zap.Error(err))
		return &EscalationOutcome{
			Status:  OutcomeError,
			Message: "failed to escalate question",
		}, nil
	}

	s.logger.Info("new escalation",
		zap.Int64("request_id", request.ID),
		zap.Int64("customer_id", customer.ID),
		zap.String("question", question),
	)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventEscalationCreated,
		RequestID: request.ID,
		Payload: events.EscalationCreatedPayload{
			CustomerID: customer.ID,
			Question:   question,
		},
	})

	return &EscalationOutcome{
		Status:    OutcomeEscalated,
		RequestID: request.ID,
		Message:   "I've forwarded your question to my supervisor. They'll get back to you shortly.",
	}, nil
}

// CreateRequest opens a pending help request for a known customer. This is
// the raw supervisor-facing creation path; the customer must already exist.
func (s *EscalationService) CreateRequest(ctx context.Context, customerID int64, question string) (*domain.HelpRequest, error) {
	question = strings.TrimSpace(question)
	if customerID == 0 || question == "" {
		return nil, apperrors.NewValidationError("customerId and question required", nil)
	}

	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customerId": customerID})
		}
		return nil, err
	}

	request := &domain.HelpRequest{
		CustomerID: customerID,
		Question:   question,
		Status:     domain.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("new escalation",
		zap.Int64("request_id", request.ID),
		zap.Int64("customer_id", customerID),
		zap.String("question", question),
	)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventEscalationCreated,
		RequestID: request.ID,
		Payload: events.EscalationCreatedPayload{
			CustomerID: customerID,
			Question:   question,
		},
	})
	return request, nil
}

// SubmitAnswer runs the supervisor answer transition. The request is marked
// processing first as its own durable step, then resolved with the answer and
// resolution timestamp, then the pair is absorbed into the knowledge base.
// A duplicate question there means another escalation already taught it: the
// resolution stands and the learning side effect is skipped.
func (s *EscalationService) SubmitAnswer(ctx context.Context, requestID int64, answer string) (*domain.HelpRequestWithCustomer, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, apperrors.NewValidationError("answer required", nil)
	}

	request, err := s.requests.GetWithCustomer(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("request", map[string]any{"requestId": requestID})
		}
		return nil, err
	}

	if err := s.requests.MarkProcessing(ctx, requestID); err != nil {
		return nil, err
	}

	resolved, err := s.requests.Resolve(ctx, requestID, answer)
	if err != nil {
		return nil, err
	}

	s.logger.Info("callback to customer",
		zap.Int64("request_id", resolved.ID),
		zap.String("customer", request.Customer.Name),
		zap.String("phone", request.Customer.Phone),
		zap.String("answer", answer),
	)

	entry, err := s.knowledge.Learn(ctx, request.Question, answer, domain.CategorySupervisorTaught)
	switch {
	case errors.Is(err, repository.ErrDuplicateQuestion):
		s.logger.Info("question already learned; keeping first answer",
			zap.String("question", request.Question),
		)
	case err != nil:
		return nil, err
	default:
		s.publishEvent(ctx, events.Event{
			Type:      events.EventAnswerLearned,
			RequestID: resolved.ID,
			Payload: events.AnswerLearnedPayload{
				EntryID:  entry.ID,
				Question: entry.Question,
				Answer:   entry.Answer,
				Category: domain.CategorySupervisorTaught,
			},
		})
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestResolved,
		RequestID: resolved.ID,
		Payload: events.RequestResolvedPayload{
			CustomerName:  request.Customer.Name,
			CustomerPhone: request.Customer.Phone,
			Question:      request.Question,
			Answer:        answer,
		},
	})

	return &domain.HelpRequestWithCustomer{
		HelpRequest: *resolved,
		Customer:    request.Customer,
	}, nil
}

// GetRequest fetches one help request with its customer embedded.
func (s *EscalationService) GetRequest(ctx context.Context, requestID int64) (*domain.HelpRequestWithCustomer, error) {
	request, err := s.requests.GetWithCustomer(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("request", map[string]any{"requestId": requestID})
		}
		return nil, err
	}
	return request, nil
}

// ListRequests returns all help requests, newest-created first.
func (s *EscalationService) ListRequests(ctx context.Context) ([]domain.HelpRequestWithCustomer, error) {
	return s.requests.ListWithCustomer(ctx)
}

func (s *EscalationService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
