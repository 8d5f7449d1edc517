package match

import (
	"go.uber.org/zap"

	"github.com/hfmatch/internal/similarity"
)

// Matcher performs greedy one-to-one assignment of query keys onto a
// candidate pool, scored by token set ratio.
//
// The assignment is deliberately greedy, not optimal: queries are
// processed in input order, each takes its single best candidate if
// still free, and a query whose best candidate was already claimed is
// left unmatched without falling back to a second-best. Collisions
// therefore always resolve in favor of the earlier query. Callers that
// need a globally optimal pairing need a different engine; this one
// reproduces the established behavior.
type Matcher struct {
	thresholds Thresholds
	log        *zap.Logger
}

// NewMatcher returns a Matcher with the given thresholds. A nil logger
// disables debug output.
func NewMatcher(t Thresholds, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{thresholds: t, log: log}
}

// Match assigns each left key to at most one right key and partitions
// both sides: every left index lands in exactly one of Pairs or
// UnmatchedLeft, every right index in exactly one of Pairs or
// UnmatchedRight. An empty right pool is reported through EmptyPool
// with everything on the left unmatched.
func (m *Matcher) Match(leftKeys, rightKeys []string) Result {
	res := Result{
		Pairs:          []Pair{},
		UnmatchedLeft:  []int{},
		UnmatchedRight: []int{},
	}

	if len(rightKeys) == 0 {
		res.EmptyPool = true
		for i := range leftKeys {
			res.UnmatchedLeft = append(res.UnmatchedLeft, i)
		}
		m.log.Debug("candidate pool empty, no pairs possible",
			zap.Int("queries", len(leftKeys)))
		return res
	}

	claimed := make(map[int]bool, len(rightKeys))
	for li, lk := range leftKeys {
		// Best over the full pool, claimed entries included. Strictly
		// greater keeps the earliest index on ties.
		bestIdx, bestScore := -1, -1
		for ri, rk := range rightKeys {
			if score := similarity.TokenSetRatio(lk, rk); score > bestScore {
				bestIdx, bestScore = ri, score
			}
		}

		switch {
		case bestScore < m.thresholds.Primary:
			res.UnmatchedLeft = append(res.UnmatchedLeft, li)
			m.log.Debug("no candidate above threshold",
				zap.Int("left_index", li),
				zap.Int("closest_right_index", bestIdx),
				zap.Int("score", bestScore),
				zap.Int("threshold", m.thresholds.Primary))
		case claimed[bestIdx]:
			// The winner is taken; the query loses outright. No
			// re-search for a second-best.
			res.UnmatchedLeft = append(res.UnmatchedLeft, li)
			m.log.Debug("best candidate already claimed",
				zap.Int("left_index", li),
				zap.Int("right_index", bestIdx),
				zap.Int("score", bestScore))
		default:
			claimed[bestIdx] = true
			res.Pairs = append(res.Pairs, Pair{LeftIndex: li, RightIndex: bestIdx, Score: bestScore})
			feats := Explain(lk, rightKeys[bestIdx])
			m.log.Debug("pair accepted",
				zap.Int("left_index", li),
				zap.Int("right_index", bestIdx),
				zap.Int("score", bestScore),
				zap.Int("plain_ratio", feats.PlainRatio),
				zap.Float64("jaro_winkler", feats.JaroWinkler),
				zap.Ints("field_scores", feats.FieldScores))
		}
	}

	for ri := range rightKeys {
		if !claimed[ri] {
			res.UnmatchedRight = append(res.UnmatchedRight, ri)
		}
	}
	return res
}
