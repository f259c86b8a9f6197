package srs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misty-step/scry-sub000/internal/models"
	"github.com/misty-step/scry-sub000/internal/srs"
)

func newScheduler(t *testing.T, cfg srs.Config) *srs.Scheduler {
	t.Helper()
	s, err := srs.NewScheduler(cfg)
	require.NoError(t, err)
	return s
}

func TestNewScheduler_Defaults(t *testing.T) {
	s, err := srs.NewScheduler(srs.Config{})
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestNewScheduler_InvalidRetention(t *testing.T) {
	_, err := srs.NewScheduler(srs.Config{DesiredRetention: 1.5})
	assert.Error(t, err)

	_, err = srs.NewScheduler(srs.Config{DesiredRetention: -0.1})
	assert.Error(t, err)
}

func TestNewScheduler_InvalidClamp(t *testing.T) {
	_, err := srs.NewScheduler(srs.Config{MinIntervalDays: 30, MaxIntervalDays: 7})
	assert.Error(t, err)
}

func TestInitializeMemory(t *testing.T) {
	s := newScheduler(t, srs.Config{})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := s.InitializeMemory(now)

	assert.Equal(t, models.StateNew, m.State)
	assert.Greater(t, m.Stability, 0.0, "initial stability must be positive")
	assert.GreaterOrEqual(t, m.Difficulty, 1.0)
	assert.LessOrEqual(t, m.Difficulty, 10.0)
	assert.Equal(t, now, m.NextReviewAt, "new concepts are immediately reviewable")
	assert.Nil(t, m.LastReviewAt)
	assert.Zero(t, m.Reps)
	assert.Zero(t, m.Lapses)
}

func TestRetrievability_Properties(t *testing.T) {
	s := newScheduler(t, srs.Config{})

	assert.InDelta(t, 1.0, s.Retrievability(0, 10), 1e-12, "R(0, S) must be 1")

	// Strictly decreasing in elapsed time.
	prev := 1.0
	for _, days := range []float64{0.5, 1, 3, 10, 30, 100} {
		r := s.Retrievability(days, 10)
		assert.Less(t, r, prev, "retrievability must decay at t=%g", days)
		prev = r
	}

	// Higher stability retains more.
	assert.Greater(t, s.Retrievability(10, 20), s.Retrievability(10, 5))

	// Calibration point: after S days recall sits at 90%.
	assert.InDelta(t, 0.9, s.Retrievability(10, 10), 1e-9)

	// Negative elapsed clamps to zero rather than extrapolating.
	assert.InDelta(t, 1.0, s.Retrievability(-3, 10), 1e-12)
}

func TestApplyReview_NewCorrect(t *testing.T) {
	s := newScheduler(t, srs.Config{DisableFuzz: true})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := s.InitializeMemory(now)
	updated := s.ApplyReview(m, true, now)

	assert.Equal(t, models.StateLearning, updated.State, "one correct answer is not enough to graduate")
	assert.Equal(t, 1, updated.Reps)
	assert.Zero(t, updated.Lapses)
	assert.GreaterOrEqual(t, updated.Stability, m.Stability, "success must not shrink stability")
	require.NotNil(t, updated.LastReviewAt)
	assert.Equal(t, now, *updated.LastReviewAt)
	assert.Nil(t, updated.ElapsedDays, "no prior review, so no elapsed days")
	require.NotNil(t, updated.ScheduledDays)
	assert.Equal(t, 1.0, *updated.ScheduledDays)
	assert.Equal(t, now.Add(24*time.Hour), updated.NextReviewAt)
	require.NotNil(t, updated.Retrievability)
	assert.Equal(t, 1.0, *updated.Retrievability)
}

func TestApplyReview_GraduatesAfterConsecutiveCorrect(t *testing.T) {
	s := newScheduler(t, srs.Config{DisableFuzz: true})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := s.InitializeMemory(now)
	m = s.ApplyReview(m, true, now)
	require.Equal(t, models.StateLearning, m.State)

	m = s.ApplyReview(m, true, m.NextReviewAt)
	assert.Equal(t, models.StateReview, m.State, "second consecutive correct graduates")
	assert.Equal(t, 2, m.Reps)
	require.NotNil(t, m.ScheduledDays)
	assert.GreaterOrEqual(t, *m.ScheduledDays, 1.0)
}

func TestApplyReview_IncorrectResetsLearningProgress(t *testing.T) {
	s := newScheduler(t, srs.Config{DisableFuzz: true})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := s.InitializeMemory(now)
	m = s.ApplyReview(m, true, now)
	m = s.ApplyReview(m, false, m.NextReviewAt)

	assert.Equal(t, models.StateLearning, m.State)
	assert.Equal(t, 1, m.Lapses)

	// The reset step means one correct answer no longer graduates.
	m = s.ApplyReview(m, true, m.NextReviewAt)
	assert.Equal(t, models.StateLearning, m.State, "lapse must reset graduation progress")
}

func TestApplyReview_ReviewIncorrect(t *testing.T) {
	s := newScheduler(t, srs.Config{})
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	lastReview := now.Add(-10 * 24 * time.Hour)

	m := models.Memory{
		Stability:    10,
		Difficulty:   5,
		State:        models.StateReview,
		Reps:         4,
		LastReviewAt: &lastReview,
		NextReviewAt: now,
	}

	updated := s.ApplyReview(m, false, now)

	assert.Equal(t, models.StateRelearning, updated.State)
	assert.Equal(t, 1, updated.Lapses)
	assert.Equal(t, 4, updated.Reps, "reps only count successful reviews")
	assert.Less(t, updated.Stability, m.Stability, "a lapse must shrink stability")
	assert.Greater(t, updated.Stability, 0.0)
	assert.Greater(t, updated.Difficulty, m.Difficulty, "a lapse must raise difficulty")

	// The relearn window is exact even with fuzzing enabled.
	require.NotNil(t, updated.ScheduledDays)
	assert.Equal(t, 1.0, *updated.ScheduledDays)
	assert.Equal(t, now.Add(24*time.Hour), updated.NextReviewAt)
}

func TestApplyReview_RelearningGraduatesQuickly(t *testing.T) {
	s := newScheduler(t, srs.Config{DisableFuzz: true})
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	lastReview := now.Add(-10 * 24 * time.Hour)

	m := models.Memory{
		Stability:    10,
		Difficulty:   5,
		State:        models.StateReview,
		Reps:         4,
		LastReviewAt: &lastReview,
		NextReviewAt: now,
	}

	m = s.ApplyReview(m, false, now)
	require.Equal(t, models.StateRelearning, m.State)

	m = s.ApplyReview(m, true, m.NextReviewAt)
	assert.Equal(t, models.StateReview, m.State, "one correct answer leaves relearning")
}

func TestApplyReview_ReviewCorrectGrowsInterval(t *testing.T) {
	s := newScheduler(t, srs.Config{DisableFuzz: true})
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	lastReview := now.Add(-10 * 24 * time.Hour)

	m := models.Memory{
		Stability:    10,
		Difficulty:   5,
		State:        models.StateReview,
		Reps:         4,
		LastReviewAt: &lastReview,
		NextReviewAt: now,
	}

	updated := s.ApplyReview(m, true, now)

	assert.Equal(t, models.StateReview, updated.State)
	assert.Equal(t, 5, updated.Reps)
	assert.Greater(t, updated.Stability, m.Stability)
	require.NotNil(t, updated.ElapsedDays)
	assert.InDelta(t, 10.0, *updated.ElapsedDays, 1e-9)
	require.NotNil(t, updated.ScheduledDays)
	assert.Greater(t, *updated.ScheduledDays, 1.0, "a matured memory earns a longer interval")
}

func TestApplyReview_IntervalClamped(t *testing.T) {
	s := newScheduler(t, srs.Config{MaxIntervalDays: 30, DisableFuzz: true})
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	lastReview := now.Add(-100 * 24 * time.Hour)

	m := models.Memory{
		Stability:    5000,
		Difficulty:   2,
		State:        models.StateReview,
		LastReviewAt: &lastReview,
		NextReviewAt: now,
	}

	updated := s.ApplyReview(m, true, now)

	require.NotNil(t, updated.ScheduledDays)
	assert.Equal(t, 30.0, *updated.ScheduledDays, "interval must respect the maximum clamp")
}

func TestApplyReview_InputNotMutated(t *testing.T) {
	s := newScheduler(t, srs.Config{DisableFuzz: true})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := s.InitializeMemory(now)
	snapshot := m

	_ = s.ApplyReview(m, true, now)

	assert.Equal(t, snapshot, m, "ApplyReview must not mutate its input")
}

func TestApplyReview_FutureLastReviewClampsElapsed(t *testing.T) {
	s := newScheduler(t, srs.Config{DisableFuzz: true})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lastReview := now.Add(24 * time.Hour) // clock skew

	m := models.Memory{
		Stability:    5,
		Difficulty:   5,
		State:        models.StateReview,
		LastReviewAt: &lastReview,
		NextReviewAt: now,
	}

	updated := s.ApplyReview(m, true, now)

	require.NotNil(t, updated.ElapsedDays)
	assert.Equal(t, 0.0, *updated.ElapsedDays, "negative elapsed time clamps to zero")
}

func TestResolveRetrievability(t *testing.T) {
	s := newScheduler(t, srs.Config{})
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

	t.Run("never reviewed", func(t *testing.T) {
		m := models.Memory{State: models.StateNew}
		assert.Equal(t, 1.0, s.ResolveRetrievability(m, now))
	})

	t.Run("decays from last review", func(t *testing.T) {
		lastReview := now.Add(-10 * 24 * time.Hour)
		m := models.Memory{Stability: 10, State: models.StateReview, LastReviewAt: &lastReview}
		assert.InDelta(t, 0.9, s.ResolveRetrievability(m, now), 1e-9)
	})

	t.Run("cached value as fallback", func(t *testing.T) {
		cached := 0.7
		m := models.Memory{State: models.StateReview, Retrievability: &cached}
		assert.Equal(t, 0.7, s.ResolveRetrievability(m, now))
	})
}
