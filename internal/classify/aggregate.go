package classify

import (
	"cmp"
	"math"
	"slices"

	"github.com/Veraticus/spicecat/internal/model"
)

const (
	maxScore           = 1.0
	fallbackConfidence = 0.5
	noSignalsReason    = "No strong signals"
)

type tally struct {
	reasons []string
	score   float64
}

// accumulator sums signal weights per category and remembers the order in
// which categories were first seen.
type accumulator struct {
	tallies map[string]*tally
	order   []string
}

func newAccumulator() *accumulator {
	return &accumulator{tallies: make(map[string]*tally)}
}

func (a *accumulator) add(s Signal) {
	t, ok := a.tallies[s.Category]
	if !ok {
		t = &tally{}
		a.tallies[s.Category] = t
		a.order = append(a.order, s.Category)
	}
	t.score += s.Weight
	t.reasons = append(t.reasons, s.Reason)
}

// Aggregate folds signals into a result. Each category score is capped at
// 1.0. The highest capped score wins and ties go to the category seen first.
// Alternatives are listed by descending score, ties in first-seen order.
// Without any signal the result is the Uncategorized fallback.
func Aggregate(transactionID string, signals []Signal) *model.ClassificationResult {
	if len(signals) == 0 {
		return &model.ClassificationResult{
			TransactionID: transactionID,
			Category:      model.Uncategorized,
			Confidence:    fallbackConfidence,
			Why:           []string{noSignalsReason},
			Alternatives:  []model.Alternative{},
		}
	}

	acc := newAccumulator()
	for _, s := range signals {
		acc.add(s)
	}
	return acc.result(transactionID)
}

func (a *accumulator) result(transactionID string) *model.ClassificationResult {
	winner := a.order[0]
	for _, category := range a.order[1:] {
		if capScore(a.tallies[category].score) > capScore(a.tallies[winner].score) {
			winner = category
		}
	}

	type scored struct {
		category string
		score    float64
	}
	others := make([]scored, 0, len(a.order)-1)
	for _, category := range a.order {
		if category != winner {
			others = append(others, scored{category, capScore(a.tallies[category].score)})
		}
	}
	slices.SortStableFunc(others, func(x, y scored) int {
		return cmp.Compare(y.score, x.score)
	})

	alternatives := make([]model.Alternative, 0, len(others))
	for _, o := range others {
		alternatives = append(alternatives, model.Alternative{
			Category:   o.category,
			Confidence: round2(o.score),
		})
	}

	return &model.ClassificationResult{
		TransactionID: transactionID,
		Category:      winner,
		Confidence:    round2(capScore(a.tallies[winner].score)),
		Why:           slices.Clone(a.tallies[winner].reasons),
		Alternatives:  alternatives,
	}
}

func capScore(score float64) float64 {
	return math.Min(score, maxScore)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
