package domain

import "time"

// CategorySupervisorTaught tags entries learned through the escalation path.
const CategorySupervisorTaught = "supervisor-taught"

// KnowledgeEntry is a learned question/answer pair. Question text is unique;
// an entry is never overwritten once learned, only its usage counter moves.
type KnowledgeEntry struct {
	ID         int64
	Question   string
	Answer     string
	Category   *string
	LearnedAt  time.Time
	UsageCount int
}
