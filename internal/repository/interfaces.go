package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/misty-step/scry-sub000/internal/models"
)

// Txer runs a function inside a single database transaction. Repositories
// joined to the transaction via WithTx see and produce a consistent snapshot;
// the interaction recorder relies on this for its all-or-nothing contract.
type Txer interface {
	Tx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// ConceptRepository handles concept data access. All lookups are scoped to a
// user; a concept owned by someone else behaves exactly like a missing one.
type ConceptRepository interface {
	Insert(ctx context.Context, c models.Concept) error
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Concept, error)
	Page(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Concept, error)

	// DueCandidates returns non-archived, non-deleted concepts with
	// next_review_at <= now, most overdue first, capped at limit.
	DueCandidates(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]models.Concept, error)

	// NewCandidates returns non-archived, non-deleted concepts still in the
	// New state, oldest first, capped at limit.
	NewCandidates(ctx context.Context, userID uuid.UUID, limit int) ([]models.Concept, error)

	// CountDue returns the number of due concepts and how many of those have
	// no active phrasing left (orphaned legacy items).
	CountDue(ctx context.Context, userID uuid.UUID, now time.Time) (due, orphaned int, err error)

	UpdateMemory(ctx context.Context, userID, id uuid.UUID, memory models.Memory) error
	SetArchived(ctx context.Context, userID, id uuid.UUID, at *time.Time) error
	SetDeleted(ctx context.Context, userID, id uuid.UUID, at *time.Time) error
	SetCanonicalPhrasing(ctx context.Context, userID, id uuid.UUID, phrasingID *uuid.UUID) error
	AdjustPhrasingCount(ctx context.Context, id uuid.UUID, delta int) error

	// EarliestNextReview returns the soonest next_review_at among the user's
	// active concepts, or nil when none exist.
	EarliestNextReview(ctx context.Context, userID uuid.UUID) (*time.Time, error)

	WithTx(tx *sql.Tx) ConceptRepository
}

// PhrasingRepository handles phrasing data access.
type PhrasingRepository interface {
	Insert(ctx context.Context, p models.Phrasing) error
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Phrasing, error)

	// ActiveByConcept returns the non-archived, non-deleted phrasings of a
	// concept, capped at limit.
	ActiveByConcept(ctx context.Context, conceptID uuid.UUID, limit int) ([]models.Phrasing, error)

	// RecordAttempt increments attempt counters and stamps last_attempted_at.
	RecordAttempt(ctx context.Context, id uuid.UUID, correct bool, at time.Time) error

	WithTx(tx *sql.Tx) PhrasingRepository
}

// InteractionRepository handles the immutable interaction audit trail.
type InteractionRepository interface {
	Insert(ctx context.Context, in models.Interaction) error
	RecentByConcept(ctx context.Context, conceptID uuid.UUID, limit int) ([]models.Interaction, error)
	WithTx(tx *sql.Tx) InteractionRepository
}

// StatsRepository handles the per-user aggregate row.
type StatsRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.UserStats, error)

	// ApplyDelta applies a signed delta to the user's stats row, creating it
	// if absent. Counts are clamped at zero; a clamp is logged as it
	// indicates a caller bug.
	ApplyDelta(ctx context.Context, userID uuid.UUID, delta models.StatsDelta) error

	// Rebuild recomputes the stats row from a full scan. Offline repair
	// only; never called on the hot path.
	Rebuild(ctx context.Context, userID uuid.UUID) (*models.UserStats, error)

	WithTx(tx *sql.Tx) StatsRepository
}
