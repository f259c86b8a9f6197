package srs

import (
	"math"
	"math/rand"
)

type fuzzRange struct {
	start, end float64
	factor     float64
}

// Graduated fuzz bands: longer intervals tolerate proportionally less jitter.
var fuzzRanges = []fuzzRange{
	{2.5, 7.0, 0.15},
	{7.0, 20.0, 0.10},
	{20.0, math.Inf(1), 0.05},
}

// fuzzDelta computes the half-width of the fuzz window for an interval:
// delta = 1.0 + sum(factor * max(min(interval, end) - start, 0)).
func fuzzDelta(interval float64) float64 {
	delta := 1.0
	for _, r := range fuzzRanges {
		delta += r.factor * math.Max(math.Min(interval, r.end)-r.start, 0)
	}
	return delta
}

// applyFuzz randomizes a Review interval to prevent review clumping.
// Intervals under 2.5 days are returned unchanged; the result stays within
// [minIvl, maxIvl].
func applyFuzz(interval, minIvl, maxIvl int, rng *rand.Rand) int {
	if float64(interval) < 2.5 {
		return interval
	}

	ivl := float64(interval)
	delta := fuzzDelta(ivl)

	lo := int(math.Round(ivl - delta))
	if lo < 2 {
		lo = 2
	}
	if lo < minIvl {
		lo = minIvl
	}
	hi := int(math.Round(ivl + delta))
	if hi > maxIvl {
		hi = maxIvl
	}
	if lo > hi {
		lo = hi
	}

	return lo + rng.Intn(hi-lo+1)
}
