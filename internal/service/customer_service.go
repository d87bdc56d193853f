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

// CustomerService deduplicates callers by phone number.
type CustomerService struct {
	customers  repository.CustomerRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewCustomerService constructs the service.
func NewCustomerService(customerRepo repository.CustomerRepository, dispatcher events.Dispatcher, logger *zap.Logger) *CustomerService {
	return &CustomerService{customers: customerRepo, dispatcher: dispatcher, logger: logger}
}

// FindOrCreate resolves a caller identity by phone. An existing record is
// returned unchanged even when the supplied name differs; there is no
// update-on-conflict. Losing the insert race on the phone unique constraint
// means another writer won: their row is fetched and returned. The boolean
// reports whether a new record was created.
func (s *CustomerService) FindOrCreate(ctx context.Context, name, phone string) (*domain.Customer, bool, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, false, apperrors.NewValidationError("name and phone required", nil)
	}

	existing, err := s.customers.GetByPhone(ctx, phone)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	customer := &domain.Customer{Name: name, Phone: phone}
	err = s.customers.Create(ctx, customer)
	if errors.Is(err, repository.ErrDuplicatePhone) {
		winner, fetchErr := s.customers.GetByPhone(ctx, phone)
		if fetchErr != nil {
			return nil, false, fetchErr
		}
		return winner, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.publishEvent(ctx, events.Event{
		Type: events.EventCustomerRegistered,
		Payload: events.CustomerRegisteredPayload{
			CustomerID: customer.ID,
			Name:       customer.Name,
			Phone:      customer.Phone,
		},
	})
	return customer, true, nil
}

// GetByID looks up a customer by identifier.
func (s *CustomerService) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.customers.GetByID(ctx, id)
}

// GetByPhone looks up a customer by phone number.
func (s *CustomerService) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, apperrors.NewValidationError("phone required", nil)
	}
	return s.customers.GetByPhone(ctx, phone)
}

func (s *CustomerService) publishEvent(ctx context.Context, event events.Event) {
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
