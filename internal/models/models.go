package models

import (
	"time"

	"github.com/google/uuid"
)

// Memory is the per-concept scheduling state. It is mutated only by the
// review scheduler; archive/delete/restore move the concept out of the due
// universe without touching it.
type Memory struct {
	Stability      float64    `json:"stability"`
	Difficulty     float64    `json:"difficulty"`
	State          State      `json:"state"`
	Step           int        `json:"step"` // consecutive correct answers in the learning/relearning track
	Reps           int        `json:"reps"`
	Lapses         int        `json:"lapses"`
	ElapsedDays    *float64   `json:"elapsed_days,omitempty"`
	ScheduledDays  *float64   `json:"scheduled_days,omitempty"`
	LastReviewAt   *time.Time `json:"last_review_at,omitempty"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	Retrievability *float64   `json:"retrievability,omitempty"`
}

// Concept is a unit of knowledge under review.
type Concept struct {
	ID                  uuid.UUID  `json:"id"`
	UserID              uuid.UUID  `json:"user_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	Memory              Memory     `json:"memory"`
	PhrasingCount       int        `json:"phrasing_count"`
	CanonicalPhrasingID *uuid.UUID `json:"canonical_phrasing_id,omitempty"`
	ArchivedAt          *time.Time `json:"archived_at,omitempty"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Active reports whether the concept is neither archived nor soft-deleted.
func (c *Concept) Active() bool {
	return c.ArchivedAt == nil && c.DeletedAt == nil
}

// Phrasing is one concrete question/answer wording of a concept. A phrasing
// belongs to exactly one concept; its ConceptID never changes after creation.
type Phrasing struct {
	ID              uuid.UUID  `json:"id"`
	ConceptID       uuid.UUID  `json:"concept_id"`
	UserID          uuid.UUID  `json:"user_id"`
	Question        string     `json:"question"`
	Options         []string   `json:"options,omitempty"`
	CorrectAnswer   string     `json:"correct_answer"`
	Explanation     string     `json:"explanation,omitempty"`
	AttemptCount    int        `json:"attempt_count"`
	CorrectCount    int        `json:"correct_count"`
	LastAttemptedAt *time.Time `json:"last_attempted_at,omitempty"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Active reports whether the phrasing is neither archived nor soft-deleted.
func (p *Phrasing) Active() bool {
	return p.ArchivedAt == nil && p.DeletedAt == nil
}

// InteractionContext snapshots the scheduling decision taken when an
// interaction was graded. It is an audit trail and is never mutated.
type InteractionContext struct {
	ScheduledDays float64   `json:"scheduled_days"`
	NextReview    time.Time `json:"next_review"`
	State         State     `json:"state"`
}

// Interaction is an immutable record of one graded attempt.
type Interaction struct {
	ID          uuid.UUID          `json:"id"`
	UserID      uuid.UUID          `json:"user_id"`
	ConceptID   uuid.UUID          `json:"concept_id"`
	PhrasingID  uuid.UUID          `json:"phrasing_id"`
	UserAnswer  string             `json:"user_answer"`
	IsCorrect   bool               `json:"is_correct"`
	AttemptedAt time.Time          `json:"attempted_at"`
	TimeSpentMs *int               `json:"time_spent_ms,omitempty"`
	Context     InteractionContext `json:"context"`
}

// ReviewSummary is the result returned to callers of recordInteraction.
type ReviewSummary struct {
	NextReview    time.Time `json:"next_review"`
	ScheduledDays float64   `json:"scheduled_days"`
	NewState      State     `json:"new_state"`
	IsCorrect     bool      `json:"is_correct"`
}

// DueConcept is the result of a due lookup: the chosen concept, the phrasing
// to present, and diagnostic selection metadata.
type DueConcept struct {
	Concept            *Concept      `json:"concept"`
	Phrasing           *Phrasing     `json:"phrasing"`
	SelectionReason    string        `json:"selection_reason"`
	PhrasingPosition   int           `json:"phrasing_position"` // 1-based
	PhrasingTotal      int           `json:"phrasing_total"`
	Retrievability     float64       `json:"retrievability"`
	RecentInteractions []Interaction `json:"recent_interactions,omitempty"`
}

// DueCount is a read-only cardinality check for UI badges.
type DueCount struct {
	ConceptsDue         int `json:"concepts_due"`
	OrphanedLegacyItems int `json:"orphaned_legacy_items"`
}
