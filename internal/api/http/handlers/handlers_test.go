package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/voicedesk/escalation-service/internal/api/dto"
	httptransport "github.com/voicedesk/escalation-service/internal/api/http"
	"github.com/voicedesk/escalation-service/internal/api/http/handlers"
	"github.com/voicedesk/escalation-service/internal/domain"
	"github.com/voicedesk/escalation-service/internal/events"
	"github.com/voicedesk/escalation-service/internal/observability"
	"github.com/voicedesk/escalation-service/internal/repository"
	"github.com/voicedesk/escalation-service/internal/service"
	"github.com/voicedesk/escalation-service/internal/voice"
)

// Minimal in-memory repositories backing the full HTTP stack.

type memStore struct {
	customers    map[int64]domain.Customer
	customerSeq  int64
	requests     map[int64]domain.HelpRequest
	requestSeq   int64
	requestOrder []int64
	entries      []domain.KnowledgeEntry
	entrySeq     int64
}

func newMemStore() *memStore {
	return &memStore{
		customers: make(map[int64]domain.Customer),
		requests:  make(map[int64]domain.HelpRequest),
	}
}

type memCustomerRepo struct{ store *memStore }

func (r *memCustomerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	for _, existing := range r.store.customers {
		if existing.Phone == customer.Phone {
			return repository.ErrDuplicatePhone
		}
	}
	r.store.customerSeq++
	customer.ID = r.store.customerSeq
	customer.CreatedAt = time.Now()
	r.store.customers[customer.ID] = *customer
	return nil
}

func (r *memCustomerRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	customer, ok := r.store.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &customer, nil
}

func (r *memCustomerRepo) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	for _, customer := range r.store.customers {
		if customer.Phone == phone {
			c := customer
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memRequestRepo struct{ store *memStore }

func (r *memRequestRepo) Create(ctx context.Context, request *domain.HelpRequest) error {
	r.store.requestSeq++
	request.ID = r.store.requestSeq
	if request.Status == "" {
		request.Status = domain.RequestStatusPending
	}
	request.CreatedAt = time.Now()
	r.store.requests[request.ID] = *request
	r.store.requestOrder = append([]int64{request.ID}, r.store.requestOrder...)
	return nil
}

func (r *memRequestRepo) GetByID(ctx context.Context, id int64) (*domain.HelpRequest, error) {
	request, ok := r.store.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &request, nil
}

func (r *memRequestRepo) GetWithCustomer(ctx context.Context, id int64) (*domain.HelpRequestWithCustomer, error) {
	request, ok := r.store.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	customer := r.store.customers[request.CustomerID]
	return &domain.HelpRequestWithCustomer{HelpRequest: request, Customer: customer}, nil
}

func (r *memRequestRepo) ListWithCustomer(ctx context.Context) ([]domain.HelpRequestWithCustomer, error) {
	result := []domain.HelpRequestWithCustomer{}
	for _, id := range r.store.requestOrder {
		item, err := r.GetWithCustomer(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, nil
}

func (r *memRequestRepo) MarkProcessing(ctx context.Context, id int64) error {
	request, ok := r.store.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	request.Status = domain.RequestStatusProcessing
	r.store.requests[id] = request
	return nil
}

func (r *memRequestRepo) Resolve(ctx context.Context, id int64, answer string) (*domain.HelpRequest, error) {
	request, ok := r.store.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	now := time.Now()
	request.Answer = &answer
	request.Status = domain.RequestStatusResolved
	request.ResolvedAt = &now
	r.store.requests[id] = request
	return &request, nil
}

type memKnowledgeRepo struct{ store *memStore }

func (r *memKnowledgeRepo) Create(ctx context.Context, entry *domain.KnowledgeEntry) error {
	for _, existing := range r.store.entries {
		if existing.Question == entry.Question {
			return repository.ErrDuplicateQuestion
		}
	}
	r.store.entrySeq++
	entry.ID = r.store.entrySeq
	entry.LearnedAt = time.Now()
	r.store.entries = append([]domain.KnowledgeEntry{*entry}, r.store.entries...)
	return nil
}

func (r *memKnowledgeRepo) Search(ctx context.Context, query string) ([]domain.KnowledgeEntry, error) {
	result := []domain.KnowledgeEntry{}
	for _, entry := range r.store.entries {
		if strings.Contains(strings.ToLower(entry.Question), strings.ToLower(query)) {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *memKnowledgeRepo) ListAll(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	return append([]domain.KnowledgeEntry{}, r.store.entries...), nil
}

func (r *memKnowledgeRepo) IncrementUsage(ctx context.Context, id int64) error {
	for i := range r.store.entries {
		if r.store.entries[i].ID == id {
			r.store.entries[i].UsageCount++
			return nil
		}
	}
	return repository.ErrNotFound
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := zap.NewNop()
	store := newMemStore()
	dispatcher := events.NewInMemoryDispatcher()

	customerService := service.NewCustomerService(&memCustomerRepo{store}, dispatcher, logger)
	knowledgeService := service.NewKnowledgeService(&memKnowledgeRepo{store}, logger)
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		RequestRepo: &memRequestRepo{store},
		Customers:   customerService,
		Knowledge:   knowledgeService,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	tokenManager := voice.NewTokenManager("devkey", "dev-secret", 30)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler("test", "dev", nil, nil),
		Requests:  handlers.NewRequestsHandler(escalationService),
		Knowledge: handlers.NewKnowledgeHandler(knowledgeService),
		Customers: handlers.NewCustomersHandler(customerService),
		Voice:     handlers.NewVoiceHandler(escalationService, tokenManager),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return resp, buf.Bytes()
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decoding %s: %v", raw, err)
	}
	return out
}

func TestCustomers_FindOrCreateStatusCodes(t *testing.T) {
	app := newTestApp(t)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/customers", fiber.Map{"name": "Jane", "phone": "555-0100"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first create: status %d, body %s", resp.StatusCode, raw)
	}
	created := decode[dto.CustomerResponse](t, raw)
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	resp, raw = doJSON(t, app, http.MethodPost, "/api/customers", fiber.Map{"name": "Janet", "phone": "555-0100"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("repeat create: status %d", resp.StatusCode)
	}
	existing := decode[dto.CustomerResponse](t, raw)
	if existing.ID != created.ID {
		t.Errorf("expected same id, got %d and %d", created.ID, existing.ID)
	}
	if existing.Name != "Jane" {
		t.Errorf("stored name must win, got %q", existing.Name)
	}
}

func TestCustomers_Validation(t *testing.T) {
	app := newTestApp(t)
	resp, _ := doJSON(t, app, http.MethodPost, "/api/customers", fiber.Map{"name": "Jane"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing phone: status %d", resp.StatusCode)
	}
}

func TestCustomers_GetByPhone(t *testing.T) {
	app := newTestApp(t)
	doJSON(t, app, http.MethodPost, "/api/customers", fiber.Map{"name": "Jane", "phone": "555-0100"})

	resp, raw := doJSON(t, app, http.MethodGet, "/api/customers/phone/555-0100", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	customer := decode[dto.CustomerResponse](t, raw)
	if customer.Phone != "555-0100" {
		t.Errorf("phone %q", customer.Phone)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/customers/phone/555-9999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown phone: status %d", resp.StatusCode)
	}
}

func TestRequests_CreateLifecycle(t *testing.T) {
	app := newTestApp(t)

	_, raw := doJSON(t, app, http.MethodPost, "/api/customers", fiber.Map{"name": "Jane", "phone": "555-0100"})
	customer := decode[dto.CustomerResponse](t, raw)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/requests", fiber.Map{
		"customerId": customer.ID,
		"question":   "Do you do balayage?",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create request: status %d, body %s", resp.StatusCode, raw)
	}
	request := decode[dto.HelpRequestResponse](t, raw)
	if request.Status != domain.RequestStatusPending {
		t.Fatalf("new request status %s", request.Status)
	}
	if request.Answer != nil {
		t.Error("answer must be absent until resolved")
	}

	resp, raw = doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/requests/%d/answer", request.ID), fiber.Map{
		"answer": "Yes, $150.",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("answer: status %d, body %s", resp.StatusCode, raw)
	}
	resolved := decode[dto.HelpRequestWithCustomerResponse](t, raw)
	if resolved.Status != domain.RequestStatusResolved {
		t.Fatalf("status %s after answer", resolved.Status)
	}
	if resolved.Answer == nil || *resolved.Answer != "Yes, $150." {
		t.Error("answer not set")
	}
	if resolved.ResolvedAt == nil {
		t.Error("resolvedAt not set")
	}

	// the answer is absorbed into the knowledge base
	resp, raw = doJSON(t, app, http.MethodGet, "/api/knowledge/search?q=balayage", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: status %d", resp.StatusCode)
	}
	entries := decode[[]dto.KnowledgeEntryResponse](t, raw)
	if len(entries) != 1 || entries[0].Answer != "Yes, $150." {
		t.Fatalf("knowledge search after resolve: %+v", entries)
	}
}

func TestRequests_CreateValidation(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/requests", fiber.Map{"question": "q"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing customerId: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodPost, "/api/requests", fiber.Map{"customerId": 42, "question": "q"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown customer: status %d", resp.StatusCode)
	}
}

func TestRequests_AnswerValidation(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPatch, "/api/requests/1/answer", fiber.Map{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing answer: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodPatch, "/api/requests/999/answer", fiber.Map{"answer": "a"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown request: status %d", resp.StatusCode)
	}
}

func TestRequests_GetUnknownIs404(t *testing.T) {
	app := newTestApp(t)
	resp, _ := doJSON(t, app, http.MethodGet, "/api/requests/999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestRequests_ListEmbedsCustomerNewestFirst(t *testing.T) {
	app := newTestApp(t)

	_, raw := doJSON(t, app, http.MethodPost, "/api/customers", fiber.Map{"name": "Jane", "phone": "555-0100"})
	customer := decode[dto.CustomerResponse](t, raw)
	doJSON(t, app, http.MethodPost, "/api/requests", fiber.Map{"customerId": customer.ID, "question": "first"})
	doJSON(t, app, http.MethodPost, "/api/requests", fiber.Map{"customerId": customer.ID, "question": "second"})

	resp, raw := doJSON(t, app, http.MethodGet, "/api/requests", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	list := decode[[]dto.HelpRequestWithCustomerResponse](t, raw)
	if len(list) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(list))
	}
	if list[0].Question != "second" {
		t.Errorf("expected newest first, got %q", list[0].Question)
	}
	if list[0].Customer.Phone != "555-0100" {
		t.Errorf("embedded customer %+v", list[0].Customer)
	}
}

func TestKnowledge_SearchRequiresQuery(t *testing.T) {
	app := newTestApp(t)
	resp, _ := doJSON(t, app, http.MethodGet, "/api/knowledge/search", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestKnowledge_ListNewestFirst(t *testing.T) {
	app := newTestApp(t)

	_, raw := doJSON(t, app, http.MethodPost, "/api/customers", fiber.Map{"name": "Jane", "phone": "555-0100"})
	customer := decode[dto.CustomerResponse](t, raw)
	for i, q := range []string{"first question", "second question"} {
		_, raw = doJSON(t, app, http.MethodPost, "/api/requests", fiber.Map{"customerId": customer.ID, "question": q})
		request := decode[dto.HelpRequestResponse](t, raw)
		doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/requests/%d/answer", request.ID), fiber.Map{
			"answer": fmt.Sprintf("answer %d", i+1),
		})
	}

	resp, raw := doJSON(t, app, http.MethodGet, "/api/knowledge", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	entries := decode[[]dto.KnowledgeEntryResponse](t, raw)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Question != "second question" {
		t.Errorf("expected newest-learned first, got %q", entries[0].Question)
	}
	if entries[0].Category == nil || *entries[0].Category != domain.CategorySupervisorTaught {
		t.Error("escalation-taught entries must carry the supervisor-taught category")
	}
}

func TestVoice_RequestHelpEscalatesThenAnswersFromKnowledge(t *testing.T) {
	app := newTestApp(t)

	body := fiber.Map{
		"question":      "Do you sell gift cards?",
		"customerName":  "Jane",
		"customerPhone": "555-0100",
	}
	resp, raw := doJSON(t, app, http.MethodPost, "/api/voice/request-help", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, body %s", resp.StatusCode, raw)
	}
	outcome := decode[dto.RequestHelpResponse](t, raw)
	if outcome.Status != "escalated" {
		t.Fatalf("expected escalated, got %q", outcome.Status)
	}
	if outcome.RequestID == 0 {
		t.Fatal("expected request id")
	}

	doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/requests/%d/answer", outcome.RequestID), fiber.Map{
		"answer": "Yes, in $25 and $50.",
	})

	resp, raw = doJSON(t, app, http.MethodPost, "/api/voice/request-help", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	outcome = decode[dto.RequestHelpResponse](t, raw)
	if outcome.Status != "found_in_knowledge_base" {
		t.Fatalf("expected knowledge base hit, got %q", outcome.Status)
	}
	if outcome.Answer != "Yes, in $25 and $50." {
		t.Errorf("answer %q", outcome.Answer)
	}
}

func TestVoice_RequestHelpValidation(t *testing.T) {
	app := newTestApp(t)
	resp, _ := doJSON(t, app, http.MethodPost, "/api/voice/request-help", fiber.Map{"question": "q"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestVoice_RoomToken(t *testing.T) {
	app := newTestApp(t)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/voice/token", fiber.Map{
		"identity": "caller-1",
		"room":     "front-desk",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, body %s", resp.StatusCode, raw)
	}
	token := decode[dto.RoomTokenResponse](t, raw)
	if token.Token == "" {
		t.Error("empty token")
	}
	if !token.ExpiresAt.After(time.Now()) {
		t.Error("token already expired")
	}

	resp, _ = doJSON(t, app, http.MethodPost, "/api/voice/token", fiber.Map{"identity": "caller-1"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing room: status %d", resp.StatusCode)
	}
}

func TestHealth_Live(t *testing.T) {
	app := newTestApp(t)
	resp, raw := doJSON(t, app, http.MethodGet, "/health/live", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, raw)
	if body["status"] != "alive" || body["service"] != "test" {
		t.Errorf("body %v", body)
	}
}
