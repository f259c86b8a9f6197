package srs

import "math"

// Power-law forgetting curve constants (FSRS-4.5). With these values
// R(S, S) = 0.9: after S days the recall probability has decayed to 90%.
const (
	decay  = -0.5
	factor = 19.0 / 81.0
)

// grade is the internal FSRS rating scale. The core exposes only binary
// outcomes; correct maps to gradeGood, incorrect to gradeAgain.
type grade int

const (
	gradeAgain grade = 1
	gradeGood  grade = 3
	gradeEasy  grade = 4
)

const (
	minStability  = 0.001
	minDifficulty = 1.0
	maxDifficulty = 10.0
)

// algo evaluates the FSRS-4.5 formulas over a weight vector.
type algo struct {
	w Weights
}

// retrievability computes R(t, S) = (1 + FACTOR * t / S) ^ DECAY.
// R(0, S) = 1, strictly decreasing in t, non-decreasing in S.
func (a *algo) retrievability(elapsedDays, stability float64) float64 {
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	return math.Pow(1+factor*elapsedDays/stability, decay)
}

// initStability returns the initial stability S0(G) = clamp_s(w[G-1]).
func (a *algo) initStability(g grade) float64 {
	return clampS(a.w[g-1])
}

// initDifficulty returns the initial difficulty
// D0(G) = w[4] - w[5] * (G - 3), clamped to [1, 10] when clamp is set.
func (a *algo) initDifficulty(g grade, clamp bool) float64 {
	d := a.w[4] - a.w[5]*float64(g-3)
	if clamp {
		return clampD(d)
	}
	return d
}

// intervalDays computes the target interval for the desired retention:
// I(r, S) = (S / FACTOR) * (r^(1/DECAY) - 1), rounded to whole days.
func (a *algo) intervalDays(stability, desiredRetention float64) int {
	ivl := stability / factor * (math.Pow(desiredRetention, 1.0/decay) - 1)
	return int(math.Round(ivl))
}

// nextRecallStability computes stability after a successful recall.
// S' = S * (1 + e^w[8] * (11-D) * S^(-w[9]) * (e^((1-R)*w[10]) - 1)).
// The multiplier is >= 1 for R in [0, 1], so success never shrinks stability.
func (a *algo) nextRecallStability(d, s, r float64) float64 {
	return clampS(s * (1 + math.Exp(a.w[8])*
		(11-d)*
		math.Pow(s, -a.w[9])*
		(math.Exp((1-r)*a.w[10])-1)))
}

// nextForgetStability computes stability after a lapse:
// S' = w[11] * D^(-w[12]) * ((S+1)^w[13] - 1) * e^((1-R)*w[14]),
// capped at the prior stability and floored so it cannot collapse to zero.
func (a *algo) nextForgetStability(d, s, r float64) float64 {
	next := a.w[11] *
		math.Pow(d, -a.w[12]) *
		(math.Pow(s+1, a.w[13]) - 1) *
		math.Exp((1-r)*a.w[14])
	return clampS(math.Min(next, s))
}

// nextDifficulty computes the updated difficulty after a review:
// D' = D - w[6] * (G - 3), mean-reverted toward D0(Easy) by weight w[7]
// and clamped to [1, 10]. A correct answer nudges difficulty down toward
// the easy baseline; a lapse pushes it up.
func (a *algo) nextDifficulty(d float64, g grade) float64 {
	next := d - a.w[6]*(float64(g)-3)
	target := a.initDifficulty(gradeEasy, false)
	return clampD(a.w[7]*target + (1-a.w[7])*next)
}

func clampS(s float64) float64 {
	return math.Max(s, minStability)
}

func clampD(d float64) float64 {
	return math.Min(math.Max(d, minDifficulty), maxDifficulty)
}
