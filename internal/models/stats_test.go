package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misty-step/scry-sub000/internal/models"
)

func statePtr(s models.State) *models.State { return &s }

func checkInvariant(t *testing.T, stats models.UserStats) {
	t.Helper()
	assert.Equal(t, stats.TotalCards, stats.NewCount+stats.LearningCount+stats.MatureCount,
		"bucket counts must always sum to total cards")
}

func TestDeltaForTransition_Creation(t *testing.T) {
	next := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := models.DeltaForTransition(nil, statePtr(models.StateNew), &next)

	assert.Equal(t, 1, d.TotalCards)
	assert.Equal(t, 1, d.NewCount)
	assert.Zero(t, d.LearningCount)
	assert.Zero(t, d.MatureCount)
	require.NotNil(t, d.NextReviewCandidate)
	assert.Equal(t, next, *d.NextReviewCandidate)
	assert.False(t, d.RecomputeNextReview, "a pure insert cannot displace the tracked earliest review")
}

func TestDeltaForTransition_StateChange(t *testing.T) {
	next := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	d := models.DeltaForTransition(statePtr(models.StateNew), statePtr(models.StateLearning), &next)

	assert.Zero(t, d.TotalCards, "a state change keeps the card count")
	assert.Equal(t, -1, d.NewCount)
	assert.Equal(t, 1, d.LearningCount)
	assert.True(t, d.RecomputeNextReview, "the reviewed concept may have held the earliest due time")
}

func TestDeltaForTransition_Removal(t *testing.T) {
	d := models.DeltaForTransition(statePtr(models.StateReview), nil, nil)

	assert.Equal(t, -1, d.TotalCards)
	assert.Equal(t, -1, d.MatureCount)
	assert.Nil(t, d.NextReviewCandidate)
	assert.True(t, d.RecomputeNextReview)
}

func TestDeltaForTransition_RelearningCountsAsLearning(t *testing.T) {
	d := models.DeltaForTransition(nil, statePtr(models.StateRelearning), nil)
	assert.Equal(t, 1, d.LearningCount)
	assert.Zero(t, d.MatureCount)
}

func TestUserStats_InvariantAcrossTransitions(t *testing.T) {
	var stats models.UserStats
	next := time.Now()

	// Create three concepts, review one through to mature, archive another.
	transitions := []models.StatsDelta{
		models.DeltaForTransition(nil, statePtr(models.StateNew), &next),
		models.DeltaForTransition(nil, statePtr(models.StateNew), &next),
		models.DeltaForTransition(nil, statePtr(models.StateNew), &next),
		models.DeltaForTransition(statePtr(models.StateNew), statePtr(models.StateLearning), &next),
		models.DeltaForTransition(statePtr(models.StateLearning), statePtr(models.StateReview), &next),
		models.DeltaForTransition(statePtr(models.StateNew), nil, nil),
		models.DeltaForTransition(statePtr(models.StateReview), statePtr(models.StateRelearning), &next),
	}

	for _, d := range transitions {
		clamped := stats.Apply(d)
		assert.False(t, clamped, "well-formed transition sequences never clamp")
		checkInvariant(t, stats)
	}

	assert.Equal(t, 2, stats.TotalCards)
	assert.Equal(t, 1, stats.NewCount)
	assert.Equal(t, 1, stats.LearningCount)
	assert.Zero(t, stats.MatureCount)
}

func TestUserStats_ApplyClampsAtZero(t *testing.T) {
	var stats models.UserStats

	clamped := stats.Apply(models.StatsDelta{TotalCards: -1, MatureCount: -1})

	assert.True(t, clamped, "decrementing empty stats must report the clamp")
	assert.Zero(t, stats.TotalCards)
	assert.Zero(t, stats.MatureCount)
}

func TestStatsDelta_IsZero(t *testing.T) {
	assert.True(t, models.StatsDelta{}.IsZero())
	assert.False(t, models.StatsDelta{TotalCards: 1}.IsZero())
	assert.False(t, models.StatsDelta{RecomputeNextReview: true}.IsZero())

	next := time.Now()
	assert.False(t, models.StatsDelta{NextReviewCandidate: &next}.IsZero())
}
