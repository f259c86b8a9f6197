package srs

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyFuzz_ShortIntervalsUnchanged(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, ivl := range []int{1, 2} {
		assert.Equal(t, ivl, applyFuzz(ivl, 1, 365, rng), "intervals under 2.5 days must not be fuzzed")
	}
}

func TestApplyFuzz_StaysWithinWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, ivl := range []int{3, 7, 15, 30, 100, 365} {
		delta := fuzzDelta(float64(ivl))
		for i := 0; i < 200; i++ {
			got := applyFuzz(ivl, 1, 365, rng)
			assert.GreaterOrEqual(t, float64(got), float64(ivl)-delta-0.5, "interval %d fuzzed too low", ivl)
			assert.LessOrEqual(t, float64(got), float64(ivl)+delta+0.5, "interval %d fuzzed too high", ivl)
			assert.GreaterOrEqual(t, got, 2)
			assert.LessOrEqual(t, got, 365)
		}
	}
}

func TestApplyFuzz_RespectsMaxInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		got := applyFuzz(30, 1, 30, rng)
		assert.LessOrEqual(t, got, 30, "fuzz must not exceed the maximum interval")
	}
}

func TestFuzzDelta_GrowsWithInterval(t *testing.T) {
	assert.Equal(t, 1.0, fuzzDelta(2.0), "no band applies under 2.5 days")
	assert.Less(t, fuzzDelta(5), fuzzDelta(15))
	assert.Less(t, fuzzDelta(15), fuzzDelta(60))
}
