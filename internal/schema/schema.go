// Package schema binds the logical fields the engine understands to the
// literal column headers of an uploaded table.
package schema

import (
	"fmt"

	"github.com/hfmatch/internal/normalize"
	"github.com/hfmatch/internal/similarity"
)

// LogicalField names a field role independent of how any particular
// source table spells its header.
type LogicalField string

const (
	FieldRegion   LogicalField = "region"
	FieldZone     LogicalField = "zone"
	FieldWoreda   LogicalField = "woreda"
	FieldFacility LogicalField = "health_facilities"
)

// DefaultColumnThreshold is the minimum header similarity for a binding.
// Deliberately stricter than the row threshold: headers are short, and a
// loose bound risks tying two different fields together.
const DefaultColumnThreshold = 85

// DefaultKeyColumns is the composite key field order for merge mode.
func DefaultKeyColumns() []LogicalField {
	return []LogicalField{FieldRegion, FieldZone, FieldWoreda, FieldFacility}
}

// CorrectionFields is the field order for correction mode; the facility
// column takes no part in either correction stage.
func CorrectionFields() []LogicalField {
	return []LogicalField{FieldRegion, FieldZone, FieldWoreda}
}

// Binding records which physical column a logical field resolved to and
// how confidently.
type Binding struct {
	Field  LogicalField `json:"field"`
	Column string       `json:"column"`
	Score  int          `json:"score"`
}

// Mapping is the per-table result of column resolution.
type Mapping struct {
	Dataset  string    `json:"dataset"`
	Bindings []Binding `json:"bindings"`
}

// Column returns the physical column bound to a logical field.
func (m Mapping) Column(field LogicalField) (string, bool) {
	for _, b := range m.Bindings {
		if b.Field == field {
			return b.Column, true
		}
	}
	return "", false
}

// MissingFieldError reports a logical field no header could satisfy. It
// carries the best rejected header so the caller can say how close the
// table came.
type MissingFieldError struct {
	Field     LogicalField
	Dataset   string
	BestGuess string
	BestScore int
	Threshold int
}

func (e *MissingFieldError) Error() string {
	if e.BestGuess == "" {
		return fmt.Sprintf("%s: no header matches required column %q", e.Dataset, e.Field)
	}
	return fmt.Sprintf("%s: no header matches required column %q (closest %q scored %d, need %d)",
		e.Dataset, e.Field, e.BestGuess, e.BestScore, e.Threshold)
}

// ResolverConfig carries the header-matching threshold and per-field
// synonym lists.
type ResolverConfig struct {
	Threshold int
	Synonyms  map[LogicalField][]string
}

// DefaultResolverConfig returns the stock resolver settings. Synonyms
// cover the header spellings seen across partner exports.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Threshold: DefaultColumnThreshold,
		Synonyms: map[LogicalField][]string{
			FieldRegion:   {"region_name"},
			FieldZone:     {"zone_name"},
			FieldWoreda:   {"woreda_name", "district"},
			FieldFacility: {"health_facility", "facility", "facility_name", "hf_name"},
		},
	}
}

// Resolver maps logical fields onto table headers by fuzzy comparison.
type Resolver struct {
	cfg ResolverConfig
}

// NewResolver creates a resolver; zero threshold falls back to the default.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultColumnThreshold
	}
	return &Resolver{cfg: cfg}
}

// Resolve binds every requested field to a header or fails with a
// MissingFieldError naming the first field that cannot be satisfied.
// Partial mappings are never returned: a table either resolves completely
// before matching begins or is rejected.
//
// Scoring uses the plain character ratio, not token-set comparison, on
// normalized header text. Ties go to the earliest header in table order.
func (r *Resolver) Resolve(dataset string, headers []string, fields []LogicalField) (Mapping, error) {
	mapping := Mapping{Dataset: dataset}

	normHeaders := make([]string, len(headers))
	for i, h := range headers {
		normHeaders[i] = normalize.Header(h)
	}

	for _, field := range fields {
		names := append([]string{string(field)}, r.cfg.Synonyms[field]...)

		bestScore := -1
		bestIdx := -1
		for i, normHeader := range normHeaders {
			score := 0
			for _, name := range names {
				if s := similarity.Ratio(normalize.Header(name), normHeader); s > score {
					score = s
				}
			}
			// Strictly greater keeps the first occurrence on ties.
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx < 0 || bestScore < r.cfg.Threshold {
			err := &MissingFieldError{Field: field, Dataset: dataset, Threshold: r.cfg.Threshold}
			if bestIdx >= 0 {
				err.BestGuess = headers[bestIdx]
				err.BestScore = bestScore
			}
			return Mapping{}, err
		}

		mapping.Bindings = append(mapping.Bindings, Binding{
			Field:  field,
			Column: headers[bestIdx],
			Score:  bestScore,
		})
	}

	return mapping, nil
}
