package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voicedesk/escalation-service/internal/domain"
)

// KnowledgeRepository stores learned question/answer pairs.
type KnowledgeRepository interface {
	Create(ctx context.Context, entry *domain.KnowledgeEntry) error
	Search(ctx context.Context, query string) ([]domain.KnowledgeEntry, error)
	ListAll(ctx context.Context) ([]domain.KnowledgeEntry, error)
	IncrementUsage(ctx context.Context, id int64) error
}

type knowledgeRepository struct {
	pool *pgxpool.Pool
}

// NewKnowledgeRepository builds repository.
func NewKnowledgeRepository(pool *pgxpool.Pool) KnowledgeRepository {
	return &knowledgeRepository{pool: pool}
}

func (r *knowledgeRepository) Create(ctx context.Context, entry *domain.KnowledgeEntry) error {
	const query = `
        INSERT INTO knowledge_base (question, answer, category)
        VALUES ($1, $2, $3)
        RETURNING id, learned_at, usage_count`

	err := r.pool.QueryRow(ctx, query,
		entry.Question,
		entry.Answer,
		entry.Category,
	).Scan(&entry.ID, &entry.LearnedAt, &entry.UsageCount)
	if isUniqueViolation(err) {
		return ErrDuplicateQuestion
	}
	return err
}

// Search matches the query as a case-insensitive substring of the question,
// newest-learned first. The query is always live; no cache sits in front.
func (r *knowledgeRepository) Search(ctx context.Context, query string) ([]domain.KnowledgeEntry, error) {
	const stmt = `
        SELECT id, question, answer, category, learned_at, usage_count
        FROM knowledge_base
        WHERE question ILIKE '%' || $1 || '%'
        ORDER BY learned_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, stmt, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *knowledgeRepository) ListAll(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	const stmt = `
        SELECT id, question, answer, category, learned_at, usage_count
        FROM knowledge_base
        ORDER BY learned_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *knowledgeRepository) IncrementUsage(ctx context.Context, id int64) error {
	const stmt = `UPDATE knowledge_base SET usage_count = usage_count + 1 WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, stmt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEntries(rows pgx.Rows) ([]domain.KnowledgeEntry, error) {
	result := []domain.KnowledgeEntry{}
	for rows.Next() {
		var entry domain.KnowledgeEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Question,
			&entry.Answer,
			&entry.Category,
			&entry.LearnedAt,
			&entry.UsageCount,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
