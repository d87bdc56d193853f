package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voicedesk/escalation-service/internal/domain"
)

// HelpRequestRepository encapsulates help request persistence.
//
// MarkProcessing and Resolve are separate statements: the processing state
// must be durably visible before the resolved state is written.
type HelpRequestRepository interface {
	Create(ctx context.Context, request *domain.HelpRequest) error
	GetByID(ctx context.Context, id int64) (*domain.HelpRequest, error)
	GetWithCustomer(ctx context.Context, id int64) (*domain.HelpRequestWithCustomer, error)
	ListWithCustomer(ctx context.Context) ([]domain.HelpRequestWithCustomer, error)
	MarkProcessing(ctx context.Context, id int64) error
	Resolve(ctx context.Context, id int64, answer string) (*domain.HelpRequest, error)
}

type helpRequestRepository struct {
	pool *pgxpool.Pool
}

// NewHelpRequestRepository instantiates repository.
func NewHelpRequestRepository(pool *pgxpool.Pool) HelpRequestRepository {
	return &helpRequestRepository{pool: pool}
}

func (r *helpRequestRepository) Create(ctx context.Context, request *domain.HelpRequest) error {
	const query = `
        INSERT INTO help_requests (customer_id, question, status)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	if request.Status == "" {
		request.Status = domain.RequestStatusPending
	}
	return r.pool.QueryRow(ctx, query,
		request.CustomerID,
		request.Question,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt)
}

func (r *helpRequestRepository) GetByID(ctx context.Context, id int64) (*domain.HelpRequest, error) {
	const query = `
        SELECT id, customer_id, question, status, answer, created_at, resolved_at
        FROM help_requests WHERE id=$1`

	var request domain.HelpRequest
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&request.ID,
		&request.CustomerID,
		&request.Question,
		&request.Status,
		&request.Answer,
		&request.CreatedAt,
		&request.ResolvedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *helpRequestRepository) GetWithCustomer(ctx context.Context, id int64) (*domain.HelpRequestWithCustomer, error) {
	const query = `
        SELECT hr.id, hr.customer_id, hr.question, hr.status, hr.answer, hr.created_at, hr.resolved_at,
               c.id, c.name, c.phone, c.created_at
        FROM help_requests hr
        JOIN customers c ON hr.customer_id = c.id
        WHERE hr.id=$1`

	var result domain.HelpRequestWithCustomer
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&result.ID,
		&result.CustomerID,
		&result.Question,
		&result.Status,
		&result.Answer,
		&result.CreatedAt,
		&result.ResolvedAt,
		&result.Customer.ID,
		&result.Customer.Name,
		&result.Customer.Phone,
		&result.Customer.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *helpRequestRepository) ListWithCustomer(ctx context.Context) ([]domain.HelpRequestWithCustomer, error) {
	const query = `
        SELECT hr.id, hr.customer_id, hr.question, hr.status, hr.answer, hr.created_at, hr.resolved_at,
               c.id, c.name, c.phone, c.created_at
        FROM help_requests hr
        JOIN customers c ON hr.customer_id = c.id
        ORDER BY hr.created_at DESC, hr.id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.HelpRequestWithCustomer{}
	for rows.Next() {
		var item domain.HelpRequestWithCustomer
		if err := rows.Scan(
			&item.ID,
			&item.CustomerID,
			&item.Question,
			&item.Status,
			&item.Answer,
			&item.CreatedAt,
			&item.ResolvedAt,
			&item.Customer.ID,
			&item.Customer.Name,
			&item.Customer.Phone,
			&item.Customer.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *helpRequestRepository) MarkProcessing(ctx context.Context, id int64) error {
	const query = `UPDATE help_requests SET status=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, domain.RequestStatusProcessing, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *helpRequestRepository) Resolve(ctx context.Context, id int64, answer string) (*domain.HelpRequest, error) {
	const query = `
        UPDATE help_requests
        SET answer=$1, status=$2, resolved_at=NOW()
        WHERE id=$3
        RETURNING id, customer_id, question, status, answer, created_at, resolved_at`

	var request domain.HelpRequest
	if err := r.pool.QueryRow(ctx, query, answer, domain.RequestStatusResolved, id).Scan(
		&request.ID,
		&request.CustomerID,
		&request.Question,
		&request.Status,
		&request.Answer,
		&request.CreatedAt,
		&request.ResolvedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}
