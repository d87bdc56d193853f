package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voicedesk/escalation-service/internal/api/dto"
	"github.com/voicedesk/escalation-service/internal/domain"
	"github.com/voicedesk/escalation-service/internal/service"
)

// KnowledgeHandler exposes the learned question/answer store.
type KnowledgeHandler struct {
	knowledge *service.KnowledgeService
}

// NewKnowledgeHandler constructs handler.
func NewKnowledgeHandler(knowledgeService *service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledgeService}
}

// List GET /api/knowledge.
func (h *KnowledgeHandler) List(c *fiber.Ctx) error {
	entries, err := h.knowledge.ListAll(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(entryResponses(entries))
}

// Search GET /api/knowledge/search?q=.
func (h *KnowledgeHandler) Search(c *fiber.Ctx) error {
	entries, err := h.knowledge.Search(c.Context(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(entryResponses(entries))
}

func entryResponses(entries []domain.KnowledgeEntry) []dto.KnowledgeEntryResponse {
	items := make([]dto.KnowledgeEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.KnowledgeEntryResponse{
			ID:         entry.ID,
			Question:   entry.Question,
			Answer:     entry.Answer,
			Category:   entry.Category,
			LearnedAt:  entry.LearnedAt,
			UsageCount: entry.UsageCount,
		})
	}
	return items
}
