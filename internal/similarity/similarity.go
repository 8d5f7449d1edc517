// Package similarity scores string pairs on the 0-100 integer scale used
// throughout the matching pipeline.
package similarity

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"

	"github.com/hfmatch/internal/normalize"
)

// Ratio returns the plain character similarity of two strings: the
// normalized Levenshtein ratio rounded to an integer percentage. Equal
// strings (including two empties) score 100, a compare against a single
// empty string scores 0. Distance is computed over runes, not bytes.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	dist := levenshtein.ComputeDistance(a, b)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}

	return int(math.Round(100 * float64(maxLen-dist) / float64(maxLen)))
}

// TokenSetRatio scores two strings with token-set semantics: word order
// and token repetition are ignored, so "showa north" and "North Showa"
// score 100. Each side is normalized and reduced to its sorted unique
// token set; the score is the best of comparing the shared tokens against
// each side's full token set and the two full sets against each other.
//
// A side that normalizes to nothing scores 0 against anything, including
// another blank: blank keys are valid but never match.
func TokenSetRatio(a, b string) int {
	setA := normalize.TokenSet(a)
	setB := normalize.TokenSet(b)

	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	inA := make(map[string]bool, len(setA))
	for _, tok := range setA {
		inA[tok] = true
	}
	inB := make(map[string]bool, len(setB))
	for _, tok := range setB {
		inB[tok] = true
	}

	var shared, onlyA, onlyB []string
	for _, tok := range setA {
		if inB[tok] {
			shared = append(shared, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for _, tok := range setB {
		if !inA[tok] {
			onlyB = append(onlyB, tok)
		}
	}

	base := strings.Join(shared, " ")
	full1 := joinParts(base, onlyA)
	full2 := joinParts(base, onlyB)

	score := Ratio(base, full1)
	if s := Ratio(base, full2); s > score {
		score = s
	}
	if s := Ratio(full1, full2); s > score {
		score = s
	}
	return score
}

// JaroWinkler exposes the Jaro-Winkler similarity in [0,1]. It is carried
// in match candidate features for explainability; matching decisions use
// TokenSetRatio only.
func JaroWinkler(a, b string) float64 {
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

func joinParts(base string, rest []string) string {
	if len(rest) == 0 {
		return base
	}
	joined := strings.Join(rest, " ")
	if base == "" {
		return joined
	}
	return base + " " + joined
}
