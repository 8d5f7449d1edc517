package match

import (
	"strings"

	"github.com/hfmatch/internal/normalize"
	"github.com/hfmatch/internal/schema"
	"github.com/hfmatch/internal/table"
)

// KeyDelimiter joins the field segments of a comparison key. The token
// set scorer treats it as a word break, so segment boundaries do not
// influence scores.
const KeyDelimiter = "_"

// BuildKey derives the comparison key for one record: the normalized
// values of the given logical fields joined in field order. Blank
// values keep their slot so both sides of a comparison stay aligned.
// Field order must be identical on the query and candidate sides; the
// builder cannot check that for the caller.
func BuildKey(rec table.Record, m schema.Mapping, fields []schema.LogicalField) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		col, _ := m.Column(f)
		parts[i] = normalize.Value(rec.Get(col))
	}
	return strings.Join(parts, KeyDelimiter)
}

// BuildKeys derives the comparison key for every row of a table, in row
// order.
func BuildKeys(t *table.Table, m schema.Mapping, fields []schema.LogicalField) []string {
	keys := make([]string, t.Len())
	for i, rec := range t.Rows {
		keys[i] = BuildKey(rec, m, fields)
	}
	return keys
}

// KeyFromValues joins raw field values into a comparison key without a
// column mapping. The correction stages use it where values are picked
// directly rather than through a table lookup.
func KeyFromValues(values ...string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = normalize.Value(v)
	}
	return strings.Join(parts, KeyDelimiter)
}
