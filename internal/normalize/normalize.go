package normalize

import (
	"sort"
	"strings"
	"unicode"
)

// Value canonicalizes a cell value for key building and scoring.
// Lowercases, trims, maps punctuation to spaces and collapses whitespace
// runs. Letters and digits from any script are kept, so Amharic place
// names survive intact. Idempotent.
func Value(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Header canonicalizes a column header for fuzzy header comparison.
// Underscores and hyphens fall out as word separators, so "Health_Facilities"
// and "health facilities" canonicalize identically.
func Header(raw string) string {
	return Value(raw)
}

// Tokens splits a value into normalized tokens, empties dropped.
func Tokens(raw string) []string {
	norm := Value(raw)
	if norm == "" {
		return nil
	}
	return strings.Split(norm, " ")
}

// IsBlank reports whether a value is empty once normalized.
func IsBlank(raw string) bool {
	return Value(raw) == ""
}

// TokenSet returns the sorted unique tokens of a value.
func TokenSet(raw string) []string {
	toks := Tokens(raw)
	if len(toks) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(toks))
	set := make([]string, 0, len(toks))
	for _, tok := range toks {
		if !seen[tok] {
			seen[tok] = true
			set = append(set, tok)
		}
	}

	sort.Strings(set)
	return set
}
