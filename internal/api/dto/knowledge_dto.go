package dto

import "time"

// KnowledgeEntryResponse wire representation of a knowledge base entry.
type KnowledgeEntryResponse struct {
	ID         int64     `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Category   *string   `json:"category"`
	LearnedAt  time.Time `json:"learnedAt"`
	UsageCount int       `json:"usageCount"`
}
