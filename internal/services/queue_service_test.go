package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misty-step/scry-sub000/internal/models"
	"github.com/misty-step/scry-sub000/internal/selection"
	"github.com/misty-step/scry-sub000/internal/services"
)

func TestGetDue_EmptyQueue(t *testing.T) {
	f := newFixture(t)

	due, err := f.queueService.GetDue(context.Background(), uuid.New())
	require.NoError(t, err, "an empty queue is not an error")
	assert.Nil(t, due)
}

func TestGetDue_ReturnsDueConcept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	concept, phrasing := f.seed(t, userID)

	due, err := f.queueService.GetDue(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, due)

	assert.Equal(t, concept.ID, due.Concept.ID)
	assert.Equal(t, phrasing.ID, due.Phrasing.ID)
	assert.Equal(t, selection.ReasonOnly, due.SelectionReason)
	assert.Equal(t, 1, due.PhrasingPosition)
	assert.Equal(t, 1, due.PhrasingTotal)
	assert.Equal(t, 1.0, due.Retrievability, "a never-reviewed concept reports full retrievability")
	assert.Empty(t, due.RecentInteractions)
}

func TestGetDue_SkipsConceptsWithoutPhrasings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	// A concept with no phrasings is due but unpresentable.
	_, err := f.conceptService.Create(ctx, userID, "Orphaned", "")
	require.NoError(t, err)

	due, err := f.queueService.GetDue(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, due)

	withPhrasing, phrasing := f.seed(t, userID)
	due, err = f.queueService.GetDue(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, withPhrasing.ID, due.Concept.ID)
	assert.Equal(t, phrasing.ID, due.Phrasing.ID)
}

func TestGetDue_FallsBackToNewConcepts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	// A new concept scheduled in the future is not in the due window, but the
	// queue still surfaces it rather than going empty.
	c := models.Concept{
		ID:     uuid.New(),
		UserID: userID,
		Title:  "Scheduled ahead",
		Memory: models.Memory{
			Stability:    0.5,
			Difficulty:   5,
			State:        models.StateNew,
			NextReviewAt: time.Now().Add(24 * time.Hour),
		},
		PhrasingCount: 1,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, f.concepts.Insert(ctx, c))
	require.NoError(t, f.phrasings.Insert(ctx, models.Phrasing{
		ID:            uuid.New(),
		ConceptID:     c.ID,
		UserID:        userID,
		Question:      "q",
		CorrectAnswer: "a",
		CreatedAt:     time.Now(),
	}))

	due, err := f.queueService.GetDue(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, c.ID, due.Concept.ID)
}

func TestGetDue_PrefersLowestRetrievability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	// Two overdue reviewed concepts far apart in recall strength. The weaker
	// one is outside the urgency tier of the stronger one, so the pick is
	// deterministic despite the tie-break shuffle.
	weakReview := now.Add(-30 * 24 * time.Hour)
	strongReview := now.Add(-1 * time.Hour)

	weak := models.Concept{
		ID: uuid.New(), UserID: userID, Title: "weak",
		Memory: models.Memory{
			Stability: 2, Difficulty: 5, State: models.StateReview,
			LastReviewAt: &weakReview, NextReviewAt: now.Add(-28 * 24 * time.Hour),
		},
		PhrasingCount: 1, CreatedAt: now,
	}
	strong := models.Concept{
		ID: uuid.New(), UserID: userID, Title: "strong",
		Memory: models.Memory{
			Stability: 100, Difficulty: 5, State: models.StateReview,
			LastReviewAt: &strongReview, NextReviewAt: now.Add(-time.Minute),
		},
		PhrasingCount: 1, CreatedAt: now,
	}

	for _, c := range []models.Concept{strong, weak} {
		require.NoError(t, f.concepts.Insert(ctx, c))
		require.NoError(t, f.phrasings.Insert(ctx, models.Phrasing{
			ID: uuid.New(), ConceptID: c.ID, UserID: userID,
			Question: "q", CorrectAnswer: "a", CreatedAt: now,
		}))
	}

	due, err := f.queueService.GetDue(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, weak.ID, due.Concept.ID, "the weakest memory is served first")
	assert.Less(t, due.Retrievability, 0.5)
}

func TestGetDueCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	count, err := f.queueService.GetDueCount(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count.ConceptsDue)
	assert.Zero(t, count.OrphanedLegacyItems)

	f.seed(t, userID)
	_, err = f.conceptService.Create(ctx, userID, "No phrasings yet", "")
	require.NoError(t, err)

	count, err = f.queueService.GetDueCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count.ConceptsDue)
	assert.Equal(t, 1, count.OrphanedLegacyItems)
}

func TestGetDue_UsesCanonicalPhrasing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	concept, _ := f.seed(t, userID)

	second, err := f.conceptService.AddPhrasing(ctx, userID, concept.ID, services.NewPhrasing{
		Question:      "Which city hosts the French government?",
		CorrectAnswer: "Paris",
	})
	require.NoError(t, err)
	require.NoError(t, f.conceptService.SetCanonicalPhrasing(ctx, userID, concept.ID, second.ID))

	due, err := f.queueService.GetDue(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, second.ID, due.Phrasing.ID)
	assert.Equal(t, selection.ReasonCanonical, due.SelectionReason)
	assert.Equal(t, 2, due.PhrasingTotal)
}
