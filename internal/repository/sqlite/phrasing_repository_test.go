package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misty-step/scry-sub000/internal/models"
	"github.com/misty-step/scry-sub000/internal/repository"
	"github.com/misty-step/scry-sub000/internal/repository/sqlite"
	"github.com/misty-step/scry-sub000/internal/testutil"
)

func newPhrasing(userID, conceptID uuid.UUID) models.Phrasing {
	return models.Phrasing{
		ID:            uuid.New(),
		ConceptID:     conceptID,
		UserID:        userID,
		Question:      "What is the capital of France?",
		Options:       []string{"Paris", "Lyon", "Marseille"},
		CorrectAnswer: "Paris",
		Explanation:   "Paris has been the capital since 987.",
		CreatedAt:     time.Now().UTC(),
	}
}

func seedConcept(t *testing.T, concepts repository.ConceptRepository, userID uuid.UUID) uuid.UUID {
	t.Helper()
	c := newConcept(userID, models.StateNew, time.Now().UTC())
	require.NoError(t, concepts.Insert(context.Background(), c))
	return c.ID
}

func TestPhrasingRepository_InsertGet(t *testing.T) {
	database := testutil.NewDB(t)
	concepts := sqlite.NewConceptRepository(database.DB)
	repo := sqlite.NewPhrasingRepository(database.DB)
	ctx := context.Background()

	userID := uuid.New()
	conceptID := seedConcept(t, concepts, userID)

	p := newPhrasing(userID, conceptID)
	require.NoError(t, repo.Insert(ctx, p))

	got, err := repo.Get(ctx, userID, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.ConceptID, got.ConceptID)
	assert.Equal(t, p.Question, got.Question)
	assert.Equal(t, p.Options, got.Options)
	assert.Equal(t, p.CorrectAnswer, got.CorrectAnswer)
	assert.Equal(t, p.Explanation, got.Explanation)
	assert.Zero(t, got.AttemptCount)
	assert.Nil(t, got.LastAttemptedAt)
}

func TestPhrasingRepository_GetWrongUser(t *testing.T) {
	database := testutil.NewDB(t)
	concepts := sqlite.NewConceptRepository(database.DB)
	repo := sqlite.NewPhrasingRepository(database.DB)
	ctx := context.Background()

	userID := uuid.New()
	conceptID := seedConcept(t, concepts, userID)
	p := newPhrasing(userID, conceptID)
	require.NoError(t, repo.Insert(ctx, p))

	got, err := repo.Get(ctx, uuid.New(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPhrasingRepository_ActiveByConcept(t *testing.T) {
	database := testutil.NewDB(t)
	concepts := sqlite.NewConceptRepository(database.DB)
	repo := sqlite.NewPhrasingRepository(database.DB)
	ctx := context.Background()

	userID := uuid.New()
	conceptID := seedConcept(t, concepts, userID)
	now := time.Now().UTC()

	first := newPhrasing(userID, conceptID)
	first.CreatedAt = now.Add(-2 * time.Hour)
	second := newPhrasing(userID, conceptID)
	second.CreatedAt = now.Add(-time.Hour)
	archived := newPhrasing(userID, conceptID)
	archived.ArchivedAt = &now
	deleted := newPhrasing(userID, conceptID)
	deleted.DeletedAt = &now

	for _, p := range []models.Phrasing{second, first, archived, deleted} {
		require.NoError(t, repo.Insert(ctx, p))
	}

	got, err := repo.ActiveByConcept(ctx, conceptID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2, "archived and deleted phrasings are excluded")
	assert.Equal(t, first.ID, got[0].ID, "ordered by creation time")
	assert.Equal(t, second.ID, got[1].ID)
}

func TestPhrasingRepository_RecordAttempt(t *testing.T) {
	database := testutil.NewDB(t)
	concepts := sqlite.NewConceptRepository(database.DB)
	repo := sqlite.NewPhrasingRepository(database.DB)
	ctx := context.Background()

	userID := uuid.New()
	conceptID := seedConcept(t, concepts, userID)
	p := newPhrasing(userID, conceptID)
	require.NoError(t, repo.Insert(ctx, p))

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.RecordAttempt(ctx, p.ID, true, now))
	require.NoError(t, repo.RecordAttempt(ctx, p.ID, false, now.Add(time.Minute)))

	got, err := repo.Get(ctx, userID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AttemptCount)
	assert.Equal(t, 1, got.CorrectCount)
	require.NotNil(t, got.LastAttemptedAt)
	assert.WithinDuration(t, now.Add(time.Minute), *got.LastAttemptedAt, time.Second)
}

func TestPhrasingRepository_RecordAttemptMissing(t *testing.T) {
	database := testutil.NewDB(t)
	repo := sqlite.NewPhrasingRepository(database.DB)

	err := repo.RecordAttempt(context.Background(), uuid.New(), true, time.Now())
	assert.Error(t, err)
}
