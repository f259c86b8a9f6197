package srs

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/misty-step/scry-sub000/internal/models"
)

// Config configures a Scheduler. Zero values produce sensible defaults;
// see field comments.
type Config struct {
	Weights             Weights // zero -> DefaultWeights
	DesiredRetention    float64 // zero -> 0.9
	MinIntervalDays     int     // zero -> 1
	MaxIntervalDays     int     // zero -> 365
	RelearnIntervalDays int     // zero -> 1; the short window after a lapse
	GraduatingReps      int     // zero -> 2; consecutive correct to leave Learning
	RelearnGraduateReps int     // zero -> 1; consecutive correct to leave Relearning
	DisableFuzz         bool    // zero false -> fuzz enabled
	Rand                *rand.Rand
}

// Scheduler applies review outcomes to a concept's memory state. ApplyReview
// is a pure function of (memory, isCorrect, now) apart from interval fuzzing,
// which is confined to correct-answer Review intervals and can be disabled.
type Scheduler struct {
	algo                algo
	desiredRetention    float64
	minIntervalDays     int
	maxIntervalDays     int
	relearnIntervalDays int
	graduatingReps      int
	relearnGraduateReps int
	disableFuzz         bool
	rng                 *rand.Rand
}

// NewScheduler creates a Scheduler from the given config.
// Zero-value fields are filled with defaults; invalid values return an error.
func NewScheduler(cfg Config) (*Scheduler, error) {
	w := cfg.Weights
	if w == (Weights{}) {
		w = DefaultWeights
	}
	if err := ValidateWeights(w); err != nil {
		return nil, err
	}

	dr := cfg.DesiredRetention
	if dr == 0 {
		dr = 0.9
	}
	if dr <= 0 || dr >= 1 {
		return nil, fmt.Errorf("srs: desired retention %f out of range (0, 1)", dr)
	}

	minIvl := cfg.MinIntervalDays
	if minIvl == 0 {
		minIvl = 1
	}
	maxIvl := cfg.MaxIntervalDays
	if maxIvl == 0 {
		maxIvl = 365
	}
	if minIvl < 1 || maxIvl < minIvl {
		return nil, fmt.Errorf("srs: invalid interval clamp [%d, %d]", minIvl, maxIvl)
	}

	relearn := cfg.RelearnIntervalDays
	if relearn == 0 {
		relearn = 1
	}
	gradReps := cfg.GraduatingReps
	if gradReps == 0 {
		gradReps = 2
	}
	relearnReps := cfg.RelearnGraduateReps
	if relearnReps == 0 {
		relearnReps = 1
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Scheduler{
		algo:                algo{w: w},
		desiredRetention:    dr,
		minIntervalDays:     minIvl,
		maxIntervalDays:     maxIvl,
		relearnIntervalDays: relearn,
		graduatingReps:      gradReps,
		relearnGraduateReps: relearnReps,
		disableFuzz:         cfg.DisableFuzz,
		rng:                 rng,
	}, nil
}

// InitializeMemory returns the memory state for a freshly created concept:
// state New, conservative initial stability, immediately reviewable.
func (s *Scheduler) InitializeMemory(now time.Time) models.Memory {
	return models.Memory{
		Stability:    s.algo.initStability(gradeAgain),
		Difficulty:   s.algo.initDifficulty(gradeGood, true),
		State:        models.StateNew,
		NextReviewAt: now,
	}
}

// Retrievability computes R(t, S) for the given elapsed days and stability.
func (s *Scheduler) Retrievability(elapsedDays, stability float64) float64 {
	return s.algo.retrievability(elapsedDays, stability)
}

// ResolveRetrievability returns the current recall probability for a memory
// state. Reviewed concepts decay from their last review; never-reviewed
// concepts report 1.0 so they are not falsely treated as most urgent.
func (s *Scheduler) ResolveRetrievability(m models.Memory, now time.Time) float64 {
	if m.LastReviewAt != nil && m.Stability > 0 {
		elapsed := now.Sub(*m.LastReviewAt).Hours() / 24.0
		return s.algo.retrievability(elapsed, m.Stability)
	}
	if m.Retrievability != nil {
		return *m.Retrievability
	}
	return 1.0
}

// ApplyReview applies one review outcome to a memory state and returns the
// updated state. The input is not mutated. Malformed memory (negative
// stability, NaN) is a caller precondition, not checked here.
func (s *Scheduler) ApplyReview(m models.Memory, isCorrect bool, now time.Time) models.Memory {
	out := m

	firstReview := m.LastReviewAt == nil
	var elapsed float64
	if !firstReview {
		elapsed = now.Sub(*m.LastReviewAt).Hours() / 24.0
		if elapsed < 0 {
			elapsed = 0
		}
	}

	s.updateStrength(&out, isCorrect, elapsed)

	var intervalDays int
	if isCorrect {
		out.Reps++
		intervalDays = s.advance(&out)
	} else {
		out.Lapses++
		intervalDays = s.lapse(&out)
	}

	if firstReview {
		out.ElapsedDays = nil
	} else {
		e := elapsed
		out.ElapsedDays = &e
	}
	reviewedAt := now
	out.LastReviewAt = &reviewedAt
	scheduled := float64(intervalDays)
	out.ScheduledDays = &scheduled
	out.NextReviewAt = now.Add(time.Duration(intervalDays) * 24 * time.Hour)
	r := 1.0
	out.Retrievability = &r

	return out
}

// updateStrength recomputes stability and difficulty for the outcome.
func (s *Scheduler) updateStrength(m *models.Memory, isCorrect bool, elapsed float64) {
	if m.State == models.StateNew {
		if isCorrect {
			// Success must not shrink a pre-seeded stability.
			init := s.algo.initStability(gradeGood)
			if init > m.Stability {
				m.Stability = init
			}
			m.Difficulty = s.algo.initDifficulty(gradeGood, true)
		} else {
			m.Stability = s.algo.initStability(gradeAgain)
			m.Difficulty = s.algo.initDifficulty(gradeAgain, true)
		}
		return
	}

	r := s.algo.retrievability(elapsed, m.Stability)
	if isCorrect {
		m.Stability = s.algo.nextRecallStability(m.Difficulty, m.Stability, r)
		m.Difficulty = s.algo.nextDifficulty(m.Difficulty, gradeGood)
	} else {
		m.Stability = s.algo.nextForgetStability(m.Difficulty, m.Stability, r)
		m.Difficulty = s.algo.nextDifficulty(m.Difficulty, gradeAgain)
	}
}

// advance moves the state machine forward after a correct answer and returns
// the interval in days.
func (s *Scheduler) advance(m *models.Memory) int {
	switch m.State {
	case models.StateNew:
		m.Step = 1
		if m.Step >= s.graduatingReps {
			return s.graduate(m)
		}
		m.State = models.StateLearning
		return s.minIntervalDays

	case models.StateLearning:
		m.Step++
		if m.Step >= s.graduatingReps {
			return s.graduate(m)
		}
		return s.minIntervalDays

	case models.StateRelearning:
		m.Step++
		if m.Step >= s.relearnGraduateReps {
			return s.graduate(m)
		}
		return s.minIntervalDays

	default: // StateReview
		return s.reviewInterval(m)
	}
}

// lapse handles an incorrect answer: Review drops to Relearning, the learning
// track resets its step, and the next attempt comes after the fixed relearn
// window (never fuzzed, so the window is exact).
func (s *Scheduler) lapse(m *models.Memory) int {
	m.Step = 0
	switch m.State {
	case models.StateReview:
		m.State = models.StateRelearning
	case models.StateNew:
		m.State = models.StateLearning
	}
	return clampInterval(s.relearnIntervalDays, s.minIntervalDays, s.maxIntervalDays)
}

// graduate promotes the memory to Review and computes a stability-derived
// interval.
func (s *Scheduler) graduate(m *models.Memory) int {
	m.State = models.StateReview
	m.Step = 0
	return s.reviewInterval(m)
}

// reviewInterval derives the interval from stability and desired retention,
// clamps it, and fuzzes it unless fuzzing is disabled.
func (s *Scheduler) reviewInterval(m *models.Memory) int {
	ivl := clampInterval(s.algo.intervalDays(m.Stability, s.desiredRetention), s.minIntervalDays, s.maxIntervalDays)
	if !s.disableFuzz {
		ivl = applyFuzz(ivl, s.minIntervalDays, s.maxIntervalDays, s.rng)
	}
	return ivl
}

func clampInterval(ivl, minIvl, maxIvl int) int {
	if ivl < minIvl {
		return minIvl
	}
	if ivl > maxIvl {
		return maxIvl
	}
	return ivl
}
