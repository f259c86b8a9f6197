package services

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/misty-step/scry-sub000/internal/errors"
	"github.com/misty-step/scry-sub000/internal/logger"
	"github.com/misty-step/scry-sub000/internal/models"
	"github.com/misty-step/scry-sub000/internal/repository"
	"github.com/misty-step/scry-sub000/internal/selection"
	"github.com/misty-step/scry-sub000/internal/srs"
)

// QueueService picks which concept and which phrasing to present next.
// Both operations are read-only; an empty queue is a nil result, not an
// error.
type QueueService interface {
	GetDue(ctx context.Context, userID uuid.UUID) (*models.DueConcept, error)
	GetDueCount(ctx context.Context, userID uuid.UUID) (*models.DueCount, error)
}

// QueueConfig bounds the due-selection queries and the urgency tie-break.
type QueueConfig struct {
	CandidateLimit    int     // zero -> 25
	PhrasingLimit     int     // zero -> 50
	UrgencyDelta      float64 // zero -> 0.05
	RecentInteraction int     // zero -> 5
	Rand              *rand.Rand
}

type queueService struct {
	concepts     repository.ConceptRepository
	phrasings    repository.PhrasingRepository
	interactions repository.InteractionRepository
	scheduler    *srs.Scheduler
	cfg          QueueConfig
	now          func() time.Time
}

// NewQueueService creates a new QueueService
func NewQueueService(
	concepts repository.ConceptRepository,
	phrasings repository.PhrasingRepository,
	interactions repository.InteractionRepository,
	scheduler *srs.Scheduler,
	cfg QueueConfig,
) QueueService {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 25
	}
	if cfg.PhrasingLimit <= 0 {
		cfg.PhrasingLimit = 50
	}
	if cfg.UrgencyDelta <= 0 {
		cfg.UrgencyDelta = 0.05
	}
	if cfg.RecentInteraction <= 0 {
		cfg.RecentInteraction = 5
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &queueService{
		concepts:     concepts,
		phrasings:    phrasings,
		interactions: interactions,
		scheduler:    scheduler,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *queueService) GetDue(ctx context.Context, userID uuid.UUID) (*models.DueConcept, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	concepts, err := s.concepts.DueCandidates(ctx, userID, now, s.cfg.CandidateLimit)
	if err != nil {
		log.Error("failed to query due candidates: %v", err)
		return nil, errors.NewInternalError(err)
	}

	if len(concepts) == 0 {
		// Nothing due: fall back to never-reviewed concepts.
		concepts, err = s.concepts.NewCandidates(ctx, userID, s.cfg.CandidateLimit)
		if err != nil {
			log.Error("failed to query new candidates: %v", err)
			return nil, errors.NewInternalError(err)
		}
	}
	if len(concepts) == 0 {
		log.Debug("no due or new concepts for user %s", userID)
		return nil, nil
	}

	candidates := make([]selection.Candidate, 0, len(concepts))
	for i := range concepts {
		c := &concepts[i]
		if c.PhrasingCount == 0 {
			// Fast pre-filter; the live phrasing check below still guards
			// against stale counts for the rest.
			continue
		}
		candidates = append(candidates, selection.Candidate{
			Concept:        c,
			Retrievability: s.scheduler.ResolveRetrievability(c.Memory, now),
		})
	}

	selection.RankByUrgency(candidates)
	selection.ShuffleUrgencyTier(candidates, s.cfg.UrgencyDelta, s.cfg.Rand)

	for _, cand := range candidates {
		phrasings, err := s.phrasings.ActiveByConcept(ctx, cand.Concept.ID, s.cfg.PhrasingLimit)
		if err != nil {
			log.Error("failed to load phrasings for concept %s: %v", cand.Concept.ID, err)
			return nil, errors.NewInternalError(err)
		}
		choice := selection.ChoosePhrasing(cand.Concept, phrasings)
		if choice == nil {
			// Stale phrasing count; skip this candidate for this call.
			log.Debug("concept %s has no active phrasing, skipping", cand.Concept.ID)
			continue
		}

		recent, err := s.interactions.RecentByConcept(ctx, cand.Concept.ID, s.cfg.RecentInteraction)
		if err != nil {
			log.Error("failed to load recent interactions: %v", err)
			return nil, errors.NewInternalError(err)
		}

		log.Debug("due concept selected: id=%s, retrievability=%.3f, reason=%s",
			cand.Concept.ID, cand.Retrievability, choice.Reason)
		return &models.DueConcept{
			Concept:            cand.Concept,
			Phrasing:           choice.Phrasing,
			SelectionReason:    choice.Reason,
			PhrasingPosition:   choice.Position,
			PhrasingTotal:      choice.Total,
			Retrievability:     cand.Retrievability,
			RecentInteractions: recent,
		}, nil
	}

	log.Debug("all candidates exhausted without a valid phrasing")
	return nil, nil
}

func (s *queueService) GetDueCount(ctx context.Context, userID uuid.UUID) (*models.DueCount, error) {
	log := logger.FromContext(ctx)

	due, orphaned, err := s.concepts.CountDue(ctx, userID, s.now())
	if err != nil {
		log.Error("failed to count due concepts: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &models.DueCount{ConceptsDue: due, OrphanedLegacyItems: orphaned}, nil
}
