package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misty-step/scry-sub000/internal/models"
	"github.com/misty-step/scry-sub000/internal/repository/sqlite"
	"github.com/misty-step/scry-sub000/internal/testutil"
)

func TestStatsRepository_GetAbsentRow(t *testing.T) {
	database := testutil.NewDB(t)
	repo := sqlite.NewStatsRepository(database.DB)

	userID := uuid.New()
	got, err := repo.Get(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, userID, got.UserID)
	assert.Zero(t, got.TotalCards, "an absent stats row reads as zeroes")
	assert.Nil(t, got.NextReviewTime)
}

func TestStatsRepository_ApplyDelta(t *testing.T) {
	database := testutil.NewDB(t)
	repo := sqlite.NewStatsRepository(database.DB)
	ctx := context.Background()

	userID := uuid.New()
	next := time.Now().UTC().Truncate(time.Second).Add(24 * time.Hour)

	require.NoError(t, repo.ApplyDelta(ctx, userID, models.StatsDelta{
		TotalCards: 1, NewCount: 1, NextReviewCandidate: &next,
	}))
	require.NoError(t, repo.ApplyDelta(ctx, userID, models.StatsDelta{
		TotalCards: 1, NewCount: 1,
	}))

	got, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalCards)
	assert.Equal(t, 2, got.NewCount)
	require.NotNil(t, got.NextReviewTime)
	assert.WithinDuration(t, next, *got.NextReviewTime, time.Second)
}

func TestStatsRepository_ApplyDelta_EarlierCandidateWins(t *testing.T) {
	database := testutil.NewDB(t)
	repo := sqlite.NewStatsRepository(database.DB)
	ctx := context.Background()

	userID := uuid.New()
	later := time.Now().UTC().Truncate(time.Second).Add(48 * time.Hour)
	sooner := later.Add(-24 * time.Hour)

	require.NoError(t, repo.ApplyDelta(ctx, userID, models.StatsDelta{
		TotalCards: 1, NewCount: 1, NextReviewCandidate: &later,
	}))
	require.NoError(t, repo.ApplyDelta(ctx, userID, models.StatsDelta{
		TotalCards: 1, NewCount: 1, NextReviewCandidate: &sooner,
	}))

	got, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got.NextReviewTime)
	assert.WithinDuration(t, sooner, *got.NextReviewTime, time.Second)

	// A later candidate must not replace the tracked earlier one.
	require.NoError(t, repo.ApplyDelta(ctx, userID, models.StatsDelta{
		TotalCards: 1, NewCount: 1, NextReviewCandidate: &later,
	}))
	got, err = repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.WithinDuration(t, sooner, *got.NextReviewTime, time.Second)
}

func TestStatsRepository_ApplyDelta_Recompute(t *testing.T) {
	database := testutil.NewDB(t)
	concepts := sqlite.NewConceptRepository(database.DB)
	repo := sqlite.NewStatsRepository(database.DB)
	ctx := context.Background()

	userID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	c := newConcept(userID, models.StateReview, now.Add(72*time.Hour))
	require.NoError(t, concepts.Insert(ctx, c))

	// Seed a stale next-review pointing at a concept that no longer holds it.
	stale := now.Add(time.Hour)
	require.NoError(t, repo.ApplyDelta(ctx, userID, models.StatsDelta{
		TotalCards: 1, MatureCount: 1, NextReviewCandidate: &stale,
	}))

	require.NoError(t, repo.ApplyDelta(ctx, userID, models.StatsDelta{
		RecomputeNextReview: true,
	}))

	got, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got.NextReviewTime)
	assert.WithinDuration(t, c.Memory.NextReviewAt, *got.NextReviewTime, time.Second,
		"recompute must re-derive the earliest next review from concepts")
}

func TestStatsRepository_ApplyDelta_ZeroIsNoop(t *testing.T) {
	database := testutil.NewDB(t)
	repo := sqlite.NewStatsRepository(database.DB)
	ctx := context.Background()

	userID := uuid.New()
	require.NoError(t, repo.ApplyDelta(ctx, userID, models.StatsDelta{}))

	got, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalCards)
}

func TestStatsRepository_Rebuild(t *testing.T) {
	database := testutil.NewDB(t)
	concepts := sqlite.NewConceptRepository(database.DB)
	repo := sqlite.NewStatsRepository(database.DB)
	ctx := context.Background()

	userID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	fresh := newConcept(userID, models.StateNew, now.Add(time.Hour))
	learning := newConcept(userID, models.StateLearning, now.Add(24*time.Hour))
	relearning := newConcept(userID, models.StateRelearning, now.Add(2*time.Hour))
	mature := newConcept(userID, models.StateReview, now.Add(48*time.Hour))
	archived := newConcept(userID, models.StateReview, now)
	archived.ArchivedAt = &now

	for _, c := range []models.Concept{fresh, learning, relearning, mature, archived} {
		require.NoError(t, concepts.Insert(ctx, c))
	}

	// Corrupt the stats row, then repair it.
	wrong := now.Add(200 * time.Hour)
	require.NoError(t, repo.ApplyDelta(ctx, userID, models.StatsDelta{
		TotalCards: 40, NewCount: 40, NextReviewCandidate: &wrong,
	}))

	got, err := repo.Rebuild(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.TotalCards)
	assert.Equal(t, 1, got.NewCount)
	assert.Equal(t, 2, got.LearningCount, "learning and relearning share a bucket")
	assert.Equal(t, 1, got.MatureCount)
	require.NotNil(t, got.NextReviewTime)
	assert.WithinDuration(t, fresh.Memory.NextReviewAt, *got.NextReviewTime, time.Second)

	// The repaired row is what subsequent reads see.
	stored, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, got.TotalCards, stored.TotalCards)
}
