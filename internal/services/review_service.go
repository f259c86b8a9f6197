package services

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/misty-step/scry-sub000/internal/errors"
	"github.com/misty-step/scry-sub000/internal/logger"
	"github.com/misty-step/scry-sub000/internal/models"
	"github.com/misty-step/scry-sub000/internal/repository"
	"github.com/misty-step/scry-sub000/internal/srs"
)

// ReviewService records graded attempts: the only writer of a concept's
// memory state. Every call executes as one transaction; callers never see a
// partially-updated concept/phrasing/stats triple.
type ReviewService interface {
	RecordInteraction(ctx context.Context, userID, conceptID, phrasingID uuid.UUID, userAnswer string, timeSpentMs *int) (*models.ReviewSummary, error)
}

type reviewService struct {
	txer         repository.Txer
	concepts     repository.ConceptRepository
	phrasings    repository.PhrasingRepository
	interactions repository.InteractionRepository
	stats        repository.StatsRepository
	scheduler    *srs.Scheduler
	now          func() time.Time
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	txer repository.Txer,
	concepts repository.ConceptRepository,
	phrasings repository.PhrasingRepository,
	interactions repository.InteractionRepository,
	stats repository.StatsRepository,
	scheduler *srs.Scheduler,
) ReviewService {
	return &reviewService{
		txer:         txer,
		concepts:     concepts,
		phrasings:    phrasings,
		interactions: interactions,
		stats:        stats,
		scheduler:    scheduler,
		now:          time.Now,
	}
}

func (s *reviewService) RecordInteraction(ctx context.Context, userID, conceptID, phrasingID uuid.UUID, userAnswer string, timeSpentMs *int) (*models.ReviewSummary, error) {
	log := logger.FromContext(ctx)
	log.Debug("recording interaction: concept_id=%s, phrasing_id=%s", conceptID, phrasingID)

	now := s.now()
	var summary *models.ReviewSummary

	err := s.txer.Tx(ctx, func(tx *sql.Tx) error {
		concepts := s.concepts.WithTx(tx)
		phrasings := s.phrasings.WithTx(tx)
		interactions := s.interactions.WithTx(tx)
		stats := s.stats.WithTx(tx)

		concept, err := concepts.Get(ctx, userID, conceptID)
		if err != nil {
			return errors.NewInternalError(err)
		}
		if concept == nil {
			return errors.NewNotFoundError("concept", conceptID)
		}

		phrasing, err := phrasings.Get(ctx, userID, phrasingID)
		if err != nil {
			return errors.NewInternalError(err)
		}
		if phrasing == nil || phrasing.ConceptID != concept.ID {
			// A phrasing attached to a different concept is indistinguishable
			// from a missing one to the caller.
			return errors.NewNotFoundError("phrasing", phrasingID)
		}

		if err := validateMemory(concept.Memory); err != nil {
			return err
		}

		isCorrect := gradeAnswer(userAnswer, phrasing.CorrectAnswer)
		oldState := concept.Memory.State

		updated := s.scheduler.ApplyReview(concept.Memory, isCorrect, now)
		log.Debug("review applied: state=%s->%s, scheduled_days=%.0f",
			oldState, updated.State, *updated.ScheduledDays)

		interaction := models.Interaction{
			ID:          uuid.New(),
			UserID:      userID,
			ConceptID:   concept.ID,
			PhrasingID:  phrasing.ID,
			UserAnswer:  userAnswer,
			IsCorrect:   isCorrect,
			AttemptedAt: now,
			TimeSpentMs: timeSpentMs,
			Context: models.InteractionContext{
				ScheduledDays: *updated.ScheduledDays,
				NextReview:    updated.NextReviewAt,
				State:         updated.State,
			},
		}
		if err := interactions.Insert(ctx, interaction); err != nil {
			return errors.NewInternalError(err)
		}

		if err := phrasings.RecordAttempt(ctx, phrasing.ID, isCorrect, now); err != nil {
			return errors.NewInternalError(err)
		}

		if err := concepts.UpdateMemory(ctx, userID, concept.ID, updated); err != nil {
			return errors.NewInternalError(err)
		}

		delta := models.DeltaForTransition(&oldState, &updated.State, &updated.NextReviewAt)
		if err := stats.ApplyDelta(ctx, userID, delta); err != nil {
			return errors.NewInternalError(err)
		}

		summary = &models.ReviewSummary{
			NextReview:    updated.NextReviewAt,
			ScheduledDays: *updated.ScheduledDays,
			NewState:      updated.State,
			IsCorrect:     isCorrect,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("interaction recorded: concept_id=%s, correct=%t, next_review=%s",
		conceptID, summary.IsCorrect, summary.NextReview.Format(time.RFC3339))
	return summary, nil
}

// gradeAnswer compares answers with exact case-insensitive, whitespace-trimmed
// equality. Deterministic grading for structured multiple-choice/true-false
// content; free-text partial credit is intentionally unsupported.
func gradeAnswer(userAnswer, correctAnswer string) bool {
	return strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(correctAnswer))
}

// validateMemory rejects malformed memory state before it reaches the
// scheduler. This is a programming-error assertion, not a user-facing branch.
func validateMemory(m models.Memory) error {
	if m.Stability <= 0 || math.IsNaN(m.Stability) || math.IsNaN(m.Difficulty) {
		return errors.NewValidationError("memory", "malformed scheduling state")
	}
	if !m.State.IsValid() {
		return errors.NewValidationError("memory", "invalid state")
	}
	return nil
}
