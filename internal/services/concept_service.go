package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/misty-step/scry-sub000/internal/errors"
	"github.com/misty-step/scry-sub000/internal/logger"
	"github.com/misty-step/scry-sub000/internal/models"
	"github.com/misty-step/scry-sub000/internal/repository"
	"github.com/misty-step/scry-sub000/internal/srs"
)

// ConceptService handles concept and phrasing lifecycle: the entry points the
// generation pipeline and the archival subsystem use. Lifecycle operations
// never touch a concept's memory state; they only move it in or out of the
// due universe and keep the stats aggregate in step.
type ConceptService interface {
	Create(ctx context.Context, userID uuid.UUID, title, description string) (*models.Concept, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Concept, error)
	List(ctx context.Context, userID uuid.UUID, view models.ConceptView, limit, offset int) ([]models.Concept, error)
	Archive(ctx context.Context, userID, id uuid.UUID) error
	Unarchive(ctx context.Context, userID, id uuid.UUID) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Restore(ctx context.Context, userID, id uuid.UUID) error
	AddPhrasing(ctx context.Context, userID, conceptID uuid.UUID, p NewPhrasing) (*models.Phrasing, error)
	SetCanonicalPhrasing(ctx context.Context, userID, conceptID, phrasingID uuid.UUID) error
}

// NewPhrasing is the input for creating a phrasing.
type NewPhrasing struct {
	Question      string
	Options       []string
	CorrectAnswer string
	Explanation   string
}

type conceptService struct {
	txer      repository.Txer
	concepts  repository.ConceptRepository
	phrasings repository.PhrasingRepository
	stats     repository.StatsRepository
	scheduler *srs.Scheduler
	now       func() time.Time
}

// NewConceptService creates a new ConceptService
func NewConceptService(
	txer repository.Txer,
	concepts repository.ConceptRepository,
	phrasings repository.PhrasingRepository,
	stats repository.StatsRepository,
	scheduler *srs.Scheduler,
) ConceptService {
	return &conceptService{
		txer:      txer,
		concepts:  concepts,
		phrasings: phrasings,
		stats:     stats,
		scheduler: scheduler,
		now:       time.Now,
	}
}

func (s *conceptService) Create(ctx context.Context, userID uuid.UUID, title, description string) (*models.Concept, error) {
	log := logger.FromContext(ctx)

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.NewValidationError("title", "must not be empty")
	}

	now := s.now()
	concept := &models.Concept{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Memory:      s.scheduler.InitializeMemory(now),
		CreatedAt:   now,
	}

	err := s.txer.Tx(ctx, func(tx *sql.Tx) error {
		if err := s.concepts.WithTx(tx).Insert(ctx, *concept); err != nil {
			return err
		}
		state := concept.Memory.State
		delta := models.DeltaForTransition(nil, &state, &concept.Memory.NextReviewAt)
		return s.stats.WithTx(tx).ApplyDelta(ctx, userID, delta)
	})
	if err != nil {
		log.Error("failed to create concept: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("concept created: id=%s, title=%q", concept.ID, concept.Title)
	return concept, nil
}

func (s *conceptService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Concept, error) {
	concept, err := s.concepts.Get(ctx, userID, id)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if concept == nil {
		return nil, errors.NewNotFoundError("concept", id)
	}
	return concept, nil
}

func (s *conceptService) List(ctx context.Context, userID uuid.UUID, view models.ConceptView, limit, offset int) ([]models.Concept, error) {
	page, err := s.concepts.Page(ctx, userID, limit, offset)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	// The view predicate is evaluated in memory over the page.
	now := s.now()
	filtered := make([]models.Concept, 0, len(page))
	for i := range page {
		if view.Matches(&page[i], now) {
			filtered = append(filtered, page[i])
		}
	}
	return filtered, nil
}

// Archive removes a concept from the due universe without touching memory.
func (s *conceptService) Archive(ctx context.Context, userID, id uuid.UUID) error {
	now := s.now()
	return s.setLifecycle(ctx, userID, id, func(c *models.Concept, tx *sql.Tx) error {
		if c.ArchivedAt != nil {
			return nil
		}
		wasActive := c.Active()
		if err := s.concepts.WithTx(tx).SetArchived(ctx, userID, id, &now); err != nil {
			return err
		}
		if wasActive {
			state := c.Memory.State
			return s.stats.WithTx(tx).ApplyDelta(ctx, userID, models.DeltaForTransition(&state, nil, nil))
		}
		return nil
	})
}

func (s *conceptService) Unarchive(ctx context.Context, userID, id uuid.UUID) error {
	return s.setLifecycle(ctx, userID, id, func(c *models.Concept, tx *sql.Tx) error {
		if c.ArchivedAt == nil {
			return nil
		}
		if err := s.concepts.WithTx(tx).SetArchived(ctx, userID, id, nil); err != nil {
			return err
		}
		if c.DeletedAt == nil {
			state := c.Memory.State
			return s.stats.WithTx(tx).ApplyDelta(ctx, userID,
				models.DeltaForTransition(nil, &state, &c.Memory.NextReviewAt))
		}
		return nil
	})
}

func (s *conceptService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	now := s.now()
	return s.setLifecycle(ctx, userID, id, func(c *models.Concept, tx *sql.Tx) error {
		if c.DeletedAt != nil {
			return nil
		}
		wasActive := c.Active()
		if err := s.concepts.WithTx(tx).SetDeleted(ctx, userID, id, &now); err != nil {
			return err
		}
		if wasActive {
			state := c.Memory.State
			return s.stats.WithTx(tx).ApplyDelta(ctx, userID, models.DeltaForTransition(&state, nil, nil))
		}
		return nil
	})
}

func (s *conceptService) Restore(ctx context.Context, userID, id uuid.UUID) error {
	return s.setLifecycle(ctx, userID, id, func(c *models.Concept, tx *sql.Tx) error {
		if c.DeletedAt == nil {
			return nil
		}
		if err := s.concepts.WithTx(tx).SetDeleted(ctx, userID, id, nil); err != nil {
			return err
		}
		if c.ArchivedAt == nil {
			state := c.Memory.State
			return s.stats.WithTx(tx).ApplyDelta(ctx, userID,
				models.DeltaForTransition(nil, &state, &c.Memory.NextReviewAt))
		}
		return nil
	})
}

// setLifecycle loads the concept and runs the lifecycle mutation in one
// transaction so the stats delta cannot drift from the flag change.
func (s *conceptService) setLifecycle(ctx context.Context, userID, id uuid.UUID, fn func(*models.Concept, *sql.Tx) error) error {
	log := logger.FromContext(ctx)
	err := s.txer.Tx(ctx, func(tx *sql.Tx) error {
		concept, err := s.concepts.WithTx(tx).Get(ctx, userID, id)
		if err != nil {
			return errors.NewInternalError(err)
		}
		if concept == nil {
			return errors.NewNotFoundError("concept", id)
		}
		return fn(concept, tx)
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return err
		}
		log.Error("lifecycle update failed: concept_id=%s: %v", id, err)
		return errors.NewInternalError(err)
	}
	return nil
}

func (s *conceptService) AddPhrasing(ctx context.Context, userID, conceptID uuid.UUID, in NewPhrasing) (*models.Phrasing, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(in.Question) == "" {
		return nil, errors.NewValidationError("question", "must not be empty")
	}
	if strings.TrimSpace(in.CorrectAnswer) == "" {
		return nil, errors.NewValidationError("correct_answer", "must not be empty")
	}

	phrasing := &models.Phrasing{
		ID:            uuid.New(),
		ConceptID:     conceptID,
		UserID:        userID,
		Question:      strings.TrimSpace(in.Question),
		Options:       in.Options,
		CorrectAnswer: in.CorrectAnswer,
		Explanation:   in.Explanation,
		CreatedAt:     s.now(),
	}

	err := s.txer.Tx(ctx, func(tx *sql.Tx) error {
		concepts := s.concepts.WithTx(tx)
		concept, err := concepts.Get(ctx, userID, conceptID)
		if err != nil {
			return errors.NewInternalError(err)
		}
		if concept == nil {
			return errors.NewNotFoundError("concept", conceptID)
		}
		if err := s.phrasings.WithTx(tx).Insert(ctx, *phrasing); err != nil {
			return errors.NewInternalError(err)
		}
		if err := concepts.AdjustPhrasingCount(ctx, conceptID, 1); err != nil {
			return errors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("phrasing added: id=%s, concept_id=%s", phrasing.ID, conceptID)
	return phrasing, nil
}

func (s *conceptService) SetCanonicalPhrasing(ctx context.Context, userID, conceptID, phrasingID uuid.UUID) error {
	log := logger.FromContext(ctx)

	phrasing, err := s.phrasings.Get(ctx, userID, phrasingID)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if phrasing == nil || phrasing.ConceptID != conceptID {
		return errors.NewNotFoundError("phrasing", phrasingID)
	}

	if err := s.concepts.SetCanonicalPhrasing(ctx, userID, conceptID, &phrasingID); err != nil {
		log.Error("failed to set canonical phrasing: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}
