package models

import (
	"time"

	"github.com/google/uuid"
)

// UserStats is the per-user aggregate row. Invariant:
// NewCount + LearningCount + MatureCount == TotalCards at all times.
// Maintained by applying signed deltas, never by online rescans.
type UserStats struct {
	UserID         uuid.UUID  `json:"user_id"`
	TotalCards     int        `json:"total_cards"`
	NewCount       int        `json:"new_count"`
	LearningCount  int        `json:"learning_count"`
	MatureCount    int        `json:"mature_count"`
	NextReviewTime *time.Time `json:"next_review_time,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// StatsDelta is a signed adjustment to UserStats, computed from one state
// transition. The zero value is a no-op.
type StatsDelta struct {
	TotalCards    int
	NewCount      int
	LearningCount int
	MatureCount   int

	// NextReviewCandidate, when non-nil, is a due time that may become the
	// new earliest next-review. RecomputeNextReview forces the earliest
	// next-review to be re-derived (the concept that held it changed).
	NextReviewCandidate *time.Time
	RecomputeNextReview bool
}

// IsZero reports whether applying the delta would change nothing.
func (d StatsDelta) IsZero() bool {
	return d.TotalCards == 0 && d.NewCount == 0 && d.LearningCount == 0 &&
		d.MatureCount == 0 && d.NextReviewCandidate == nil && !d.RecomputeNextReview
}

// Apply applies the count portion of a delta in place, clamping each counter
// at zero. It returns true when a clamp fired, which indicates a bug in the
// caller's transition bookkeeping.
func (s *UserStats) Apply(d StatsDelta) bool {
	clamped := false
	bump := func(v *int, delta int) {
		*v += delta
		if *v < 0 {
			*v = 0
			clamped = true
		}
	}
	bump(&s.TotalCards, d.TotalCards)
	bump(&s.NewCount, d.NewCount)
	bump(&s.LearningCount, d.LearningCount)
	bump(&s.MatureCount, d.MatureCount)
	return clamped
}

// statsBucket maps a memory state to its aggregate bucket. New concepts count
// as new, Learning and Relearning as learning, Review as mature.
func statsBucket(s State) (newC, learningC, matureC int) {
	switch s {
	case StateNew:
		return 1, 0, 0
	case StateLearning, StateRelearning:
		return 0, 1, 0
	case StateReview:
		return 0, 0, 1
	}
	return 0, 0, 0
}

// DeltaForTransition computes the signed stats delta for a state transition.
// A nil old state means the concept entered the due universe (creation,
// restore, unarchive); a nil new state means it left (archive, delete).
func DeltaForTransition(oldState, newState *State, newNextReview *time.Time) StatsDelta {
	var d StatsDelta
	if oldState != nil {
		n, l, m := statsBucket(*oldState)
		d.NewCount -= n
		d.LearningCount -= l
		d.MatureCount -= m
		d.TotalCards--
	}
	if newState != nil {
		n, l, m := statsBucket(*newState)
		d.NewCount += n
		d.LearningCount += l
		d.MatureCount += m
		d.TotalCards++
	}
	if newState != nil && newNextReview != nil {
		d.NextReviewCandidate = newNextReview
	}
	// Whenever a concept leaves the pool or its schedule moves, the tracked
	// earliest next-review may belong to it and must be re-derived.
	if oldState != nil {
		d.RecomputeNextReview = true
	}
	return d
}
