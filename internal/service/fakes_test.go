package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/voicedesk/escalation-service/internal/domain"
	"github.com/voicedesk/escalation-service/internal/repository"
)

// In-memory repository implementations mirroring the Postgres contracts,
// including the unique-constraint sentinels.

type fakeCustomerRepo struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]domain.Customer
	byPhone map[string]int64

	createErr error
	getErr    error
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{
		byID:    make(map[int64]domain.Customer),
		byPhone: make(map[string]int64),
	}
}

func (f *fakeCustomerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.byPhone[customer.Phone]; exists {
		return repository.ErrDuplicatePhone
	}
	f.nextID++
	customer.ID = f.nextID
	customer.CreatedAt = time.Now()
	f.byID[customer.ID] = *customer
	f.byPhone[customer.Phone] = customer.ID
	return nil
}

func (f *fakeCustomerRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	customer, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &customer, nil
}

func (f *fakeCustomerRepo) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	id, ok := f.byPhone[phone]
	if !ok {
		return nil, repository.ErrNotFound
	}
	customer := f.byID[id]
	return &customer, nil
}

type fakeHelpRequestRepo struct {
	mu        sync.Mutex
	nextID    int64
	requests  map[int64]domain.HelpRequest
	order     []int64
	histories map[int64][]domain.RequestStatus
	customers *fakeCustomerRepo

	createErr error
}

func newFakeHelpRequestRepo(customers *fakeCustomerRepo) *fakeHelpRequestRepo {
	return &fakeHelpRequestRepo{
		requests:  make(map[int64]domain.HelpRequest),
		histories: make(map[int64][]domain.RequestStatus),
		customers: customers,
	}
}

func (f *fakeHelpRequestRepo) Create(ctx context.Context, request *domain.HelpRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	request.ID = f.nextID
	if request.Status == "" {
		request.Status = domain.RequestStatusPending
	}
	request.CreatedAt = time.Now()
	f.requests[request.ID] = *request
	f.order = append([]int64{request.ID}, f.order...)
	f.histories[request.ID] = []domain.RequestStatus{request.Status}
	return nil
}

func (f *fakeHelpRequestRepo) GetByID(ctx context.Context, id int64) (*domain.HelpRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &request, nil
}

func (f *fakeHelpRequestRepo) GetWithCustomer(ctx context.Context, id int64) (*domain.HelpRequestWithCustomer, error) {
	f.mu.Lock()
	request, ok := f.requests[id]
	f.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	customer, err := f.customers.GetByID(ctx, request.CustomerID)
	if err != nil {
		return nil, err
	}
	return &domain.HelpRequestWithCustomer{HelpRequest: request, Customer: *customer}, nil
}

func (f *fakeHelpRequestRepo) ListWithCustomer(ctx context.Context) ([]domain.HelpRequestWithCustomer, error) {
	f.mu.Lock()
	ids := append([]int64{}, f.order...)
	f.mu.Unlock()

	result := []domain.HelpRequestWithCustomer{}
	for _, id := range ids {
		item, err := f.GetWithCustomer(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, nil
}

func (f *fakeHelpRequestRepo) MarkProcessing(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	request.Status = domain.RequestStatusProcessing
	f.requests[id] = request
	f.histories[id] = append(f.histories[id], request.Status)
	return nil
}

func (f *fakeHelpRequestRepo) Resolve(ctx context.Context, id int64, answer string) (*domain.HelpRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	now := time.Now()
	request.Answer = &answer
	request.Status = domain.RequestStatusResolved
	request.ResolvedAt = &now
	f.requests[id] = request
	f.histories[id] = append(f.histories[id], request.Status)
	return &request, nil
}

func (f *fakeHelpRequestRepo) statusHistory(id int64) []domain.RequestStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RequestStatus{}, f.histories[id]...)
}

func (f *fakeHelpRequestRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeKnowledgeRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []domain.KnowledgeEntry

	incrementErr error
}

func newFakeKnowledgeRepo() *fakeKnowledgeRepo {
	return &fakeKnowledgeRepo{}
}

func (f *fakeKnowledgeRepo) Create(ctx context.Context, entry *domain.KnowledgeEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.entries {
		if existing.Question == entry.Question {
			return repository.ErrDuplicateQuestion
		}
	}
	f.nextID++
	entry.ID = f.nextID
	entry.LearnedAt = time.Now()
	// newest-learned first, matching the Postgres ordering
	f.entries = append([]domain.KnowledgeEntry{*entry}, f.entries...)
	return nil
}

func (f *fakeKnowledgeRepo) Search(ctx context.Context, query string) ([]domain.KnowledgeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []domain.KnowledgeEntry{}
	for _, entry := range f.entries {
		if strings.Contains(strings.ToLower(entry.Question), strings.ToLower(query)) {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (f *fakeKnowledgeRepo) ListAll(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.KnowledgeEntry{}, f.entries...), nil
}

func (f *fakeKnowledgeRepo) IncrementUsage(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrementErr != nil {
		return f.incrementErr
	}
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries[i].UsageCount++
			return nil
		}
	}
	return repository.ErrNotFound
}
