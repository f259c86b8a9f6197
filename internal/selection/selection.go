// Package selection holds the pure ranking and choice policies of the due
// queue: urgency ordering by retrievability, the bounded randomized tie-break,
// and the phrasing selection policy. Everything here is deterministic given
// an injected RNG, so tests can assert exact orderings.
package selection

import (
	"hash/fnv"
	"math/rand"
	"sort"
	"time"

	"github.com/misty-step/scry-sub000/internal/models"
)

// Candidate pairs a concept with its resolved retrievability.
type Candidate struct {
	Concept        *models.Concept
	Retrievability float64
}

// RankByUrgency sorts candidates ascending by retrievability (lowest recall
// strength first). The sort is stable so equal candidates keep query order.
func RankByUrgency(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Retrievability < candidates[j].Retrievability
	})
}

// ShuffleUrgencyTier permutes only the urgency tier of an already-sorted
// candidate list: the prefix whose retrievability lies within delta of the
// minimum. The remainder keeps its exact order. The permutation is uniform
// over the tier.
func ShuffleUrgencyTier(sorted []Candidate, delta float64, rng *rand.Rand) {
	if len(sorted) < 2 {
		return
	}
	tier := 1
	for tier < len(sorted) && sorted[tier].Retrievability-sorted[0].Retrievability <= delta {
		tier++
	}
	rng.Shuffle(tier, func(i, j int) {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	})
}

// Phrasing selection reasons.
const (
	ReasonCanonical   = "canonical"
	ReasonLeastRecent = "least_recent"
	ReasonOnly        = "only_phrasing"
)

// PhrasingChoice is the outcome of the phrasing selection policy. Position is
// 1-based within the active set; Total is the active count. Both are
// diagnostic metadata, not ranking inputs.
type PhrasingChoice struct {
	Phrasing *models.Phrasing
	Reason   string
	Position int
	Total    int
}

// ChoosePhrasing picks which active phrasing of a concept to present.
// The canonical phrasing wins when set and still active; otherwise the least
// recently attempted phrasing is chosen, never-attempted ones first, with a
// stable hash-based tie-break so the choice does not flap between calls.
// Returns nil if the active set is empty.
func ChoosePhrasing(concept *models.Concept, phrasings []models.Phrasing) *PhrasingChoice {
	active := make([]*models.Phrasing, 0, len(phrasings))
	for i := range phrasings {
		if phrasings[i].Active() {
			active = append(active, &phrasings[i])
		}
	}
	if len(active) == 0 {
		return nil
	}

	if concept.CanonicalPhrasingID != nil {
		for i, p := range active {
			if p.ID == *concept.CanonicalPhrasingID {
				return &PhrasingChoice{
					Phrasing: p,
					Reason:   ReasonCanonical,
					Position: i + 1,
					Total:    len(active),
				}
			}
		}
	}

	if len(active) == 1 {
		return &PhrasingChoice{
			Phrasing: active[0],
			Reason:   ReasonOnly,
			Position: 1,
			Total:    len(active),
		}
	}

	best := 0
	for i := 1; i < len(active); i++ {
		if lessRecent(active[i], active[best]) {
			best = i
		}
	}
	return &PhrasingChoice{
		Phrasing: active[best],
		Reason:   ReasonLeastRecent,
		Position: best + 1,
		Total:    len(active),
	}
}

// lessRecent orders phrasings by attempt recency: never-attempted first, then
// older attempts, then a deterministic hash of the phrasing ID.
func lessRecent(a, b *models.Phrasing) bool {
	at, bt := attemptTime(a), attemptTime(b)
	if !at.Equal(bt) {
		return at.Before(bt)
	}
	return idHash(a) < idHash(b)
}

func attemptTime(p *models.Phrasing) time.Time {
	if p.LastAttemptedAt == nil {
		return time.Time{}
	}
	return *p.LastAttemptedAt
}

func idHash(p *models.Phrasing) uint64 {
	h := fnv.New64a()
	h.Write(p.ID[:])
	return h.Sum64()
}
