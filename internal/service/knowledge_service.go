package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/voicedesk/escalation-service/internal/domain"
	"github.com/voicedesk/escalation-service/internal/repository"
	apperrors "github.com/voicedesk/escalation-service/pkg/util"
)

// KnowledgeService owns the learned question/answer store.
type KnowledgeService struct {
	entries repository.KnowledgeRepository
	logger  *zap.Logger
}

// NewKnowledgeService constructs the service.
func NewKnowledgeService(entryRepo repository.KnowledgeRepository, logger *zap.Logger) *KnowledgeService {
	return &KnowledgeService{entries: entryRepo, logger: logger}
}

// Search returns entries whose question contains the query as a
// case-insensitive substring, newest-learned first. An empty query is a
// validation error; zero matches is an empty result, not an error.
func (s *KnowledgeService) Search(ctx context.Context, query string) ([]domain.KnowledgeEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query parameter 'q' is required", nil)
	}
	return s.entries.Search(ctx, query)
}

// Learn records a new question/answer pair. An entry with the identical
// question text already present surfaces repository.ErrDuplicateQuestion;
// the store never overwrites. Handling the conflict is the caller's call.
func (s *KnowledgeService) Learn(ctx context.Context, question, answer, category string) (*domain.KnowledgeEntry, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return nil, apperrors.NewValidationError("question and answer required", nil)
	}

	entry := &domain.KnowledgeEntry{
		Question: question,
		Answer:   answer,
	}
	if category != "" {
		entry.Category = &category
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("knowledge base updated",
		zap.Int64("entry_id", entry.ID),
		zap.String("question", entry.Question),
	)
	return entry, nil
}

// ListAll returns every entry, newest-learned first.
func (s *KnowledgeService) ListAll(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	return s.entries.ListAll(ctx)
}

// RecordUsage bumps the usage counter after a lookup was consumed to answer a
// live question. Best-effort: failures are logged, never propagated.
func (s *KnowledgeService) RecordUsage(ctx context.Context, entryID int64) {
	if err := s.entries.IncrementUsage(ctx, entryID); err != nil {
		s.logger.Warn("failed to record knowledge usage",
			zap.Int64("entry_id", entryID),
			zap.Error(err),
		)
	}
}
