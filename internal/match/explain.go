package match

import (
	"strings"

	"github.com/hfmatch/internal/similarity"
)

// Features breaks one candidate comparison down for explainability:
// the deciding token-set score next to the plain character ratio, the
// Jaro-Winkler similarity, and per-field token-set scores over the key
// segments. Only TokenSet ever drives a match decision.
type Features struct {
	TokenSet    int     `json:"token_set"`
	PlainRatio  int     `json:"plain_ratio"`
	JaroWinkler float64 `json:"jaro_winkler"`
	// FieldScores holds one token-set score per key segment, in field
	// order. Nil when the two keys disagree on segment count.
	FieldScores []int `json:"field_scores,omitempty"`
}

// Explain scores a key pair under every lens at once. Keys built by
// BuildKey always carry the same segment count on both sides, so
// FieldScores lines up with the configured field order.
func Explain(leftKey, rightKey string) Features {
	f := Features{
		TokenSet:    similarity.TokenSetRatio(leftKey, rightKey),
		PlainRatio:  similarity.Ratio(leftKey, rightKey),
		JaroWinkler: similarity.JaroWinkler(leftKey, rightKey),
	}

	ls := strings.Split(leftKey, KeyDelimiter)
	rs := strings.Split(rightKey, KeyDelimiter)
	if len(ls) == len(rs) {
		f.FieldScores = make([]int, len(ls))
		for i := range ls {
			f.FieldScores[i] = similarity.TokenSetRatio(ls[i], rs[i])
		}
	}
	return f
}
