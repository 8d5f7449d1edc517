// Package match implements the record linkage engine: composite key
// building, greedy one-to-one assignment, two-stage hierarchical
// correction, threshold tuning, and output assembly.
package match

// Thresholds holds the score cutoffs used across the engine. Scores are
// integer percentages in [0,100], so a threshold of 80 accepts a pair
// scoring 80 or above.
type Thresholds struct {
	// Primary gates whole-key merge matches and the woreda stage of
	// hierarchical correction.
	Primary int `json:"threshold" yaml:"threshold"`
	// MultiLevel gates the region+zone stage of hierarchical correction.
	MultiLevel int `json:"multi_level_threshold" yaml:"multi_level_threshold"`
	// Column gates fuzzy header resolution.
	Column int `json:"column_threshold" yaml:"column_threshold"`
}

// DefaultThresholds returns the stock cutoffs: 80 for record matching,
// 90 for the stricter region+zone stage, 85 for header resolution.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Primary:    80,
		MultiLevel: 90,
		Column:     85,
	}
}

// Pair is one accepted merge match between a left record and a right
// record, by row index.
type Pair struct {
	LeftIndex  int `json:"left_index"`
	RightIndex int `json:"right_index"`
	Score      int `json:"score"`
}

// Result is the outcome of a greedy merge run. Every left index appears
// exactly once across Pairs and UnmatchedLeft; every right index appears
// exactly once across Pairs and UnmatchedRight.
type Result struct {
	Pairs          []Pair `json:"pairs"`
	UnmatchedLeft  []int  `json:"unmatched_left"`
	UnmatchedRight []int  `json:"unmatched_right"`
	// EmptyPool is set when the right dataset had no rows. Everything
	// on the left is unmatched, which is an answer, not an error.
	EmptyPool bool `json:"empty_pool"`
}

// Correction is the per-row outcome of hierarchical correction. On
// failure at either stage every Std field is empty and the scores for
// the stages that did not run (or did not pass) are zero.
type Correction struct {
	InputIndex int  `json:"input_index"`
	Matched    bool `json:"matched"`

	StdRegion string `json:"std_region,omitempty"`
	StdZone   string `json:"std_zone,omitempty"`
	StdWoreda string `json:"std_woreda,omitempty"`

	RegionZoneScore int `json:"region_zone_score,omitempty"`
	WoredaScore     int `json:"woreda_score,omitempty"`
}

// CorrectionResult is the outcome of a hierarchical correction run over
// a full input table. Corrections holds one entry per input row, in
// input order.
type CorrectionResult struct {
	Corrections []Correction `json:"corrections"`
	Matched     int          `json:"matched"`
	Unmatched   int          `json:"unmatched"`
	// EmptyPool is set when the reference list had no usable rows, in
	// which case every input row is unmatched.
	EmptyPool bool `json:"empty_pool"`
}
