package match

import (
	"fmt"
	"strconv"

	"github.com/hfmatch/internal/table"
)

// Annotation columns added to the merged output.
const (
	ColMatchScore = "match_score"
	ColLeftKey    = "left_key"
	ColRightKey   = "right_key"
)

// Standardized columns added to the correction output.
const (
	ColStdRegion       = "std_region"
	ColStdZone         = "std_zone"
	ColStdWoreda       = "std_woreda"
	ColRegionZoneScore = "region_zone_score"
	ColWoredaScore     = "woreda_score"
)

// DefaultRightPrefix namespaces right-side columns in the merged table
// so they cannot collide with left-side names.
const DefaultRightPrefix = "ds2_"

// MergeOutput holds the three tables a merge run produces. Every left
// row appears in exactly one of Merged or UnmatchedLeft, every right
// row in exactly one of Merged or UnmatchedRight.
type MergeOutput struct {
	Merged         *table.Table
	UnmatchedLeft  *table.Table
	UnmatchedRight *table.Table
}

// CorrectionOutput holds the corrected table, one row per input row,
// and the subset of rows that could not be standardized.
type CorrectionOutput struct {
	Corrected *table.Table
	Unmatched *table.Table
}

// AssembleMerge combines accepted pairs into merged rows and partitions
// the residue. Merged rows carry the left columns in original order,
// every right column under rightPrefix, then the match score and both
// comparison keys. Unmatched tables keep their side's original columns
// only. The partition counts are recounted before returning; a mismatch
// means the matcher produced an inconsistent result.
func AssembleMerge(left, right *table.Table, leftKeys, rightKeys []string, res Result, rightPrefix string) (MergeOutput, error) {
	if rightPrefix == "" {
		rightPrefix = DefaultRightPrefix
	}

	if got, want := len(res.Pairs)+len(res.UnmatchedLeft), left.Len(); got != want {
		return MergeOutput{}, fmt.Errorf("merge partition broken on left side: %d pairs + %d unmatched != %d rows",
			len(res.Pairs), len(res.UnmatchedLeft), want)
	}
	if got, want := len(res.Pairs)+len(res.UnmatchedRight), right.Len(); got != want {
		return MergeOutput{}, fmt.Errorf("merge partition broken on right side: %d pairs + %d unmatched != %d rows",
			len(res.Pairs), len(res.UnmatchedRight), want)
	}

	mergedHeaders := make([]string, 0, len(left.Headers)+len(right.Headers)+3)
	mergedHeaders = append(mergedHeaders, left.Headers...)
	for _, h := range right.Headers {
		mergedHeaders = append(mergedHeaders, rightPrefix+h)
	}
	mergedHeaders = append(mergedHeaders, ColMatchScore, ColLeftKey, ColRightKey)

	merged := table.New(mergedHeaders...)
	for _, p := range res.Pairs {
		values := make([]string, 0, len(mergedHeaders))
		values = append(values, left.Rows[p.LeftIndex].Values(left.Headers)...)
		values = append(values, right.Rows[p.RightIndex].Values(right.Headers)...)
		values = append(values, strconv.Itoa(p.Score), leftKeys[p.LeftIndex], rightKeys[p.RightIndex])
		merged.Append(values)
	}

	unmatchedLeft := table.New(left.Headers...)
	for _, li := range res.UnmatchedLeft {
		unmatchedLeft.Append(left.Rows[li].Values(left.Headers))
	}

	unmatchedRight := table.New(right.Headers...)
	for _, ri := range res.UnmatchedRight {
		unmatchedRight.Append(right.Rows[ri].Values(right.Headers))
	}

	return MergeOutput{
		Merged:         merged,
		UnmatchedLeft:  unmatchedLeft,
		UnmatchedRight: unmatchedRight,
	}, nil
}

// AssembleCorrection annotates every input row with its correction
// outcome and collects the failures into a separate table. Corrected
// rows keep all original columns plus the standardized fields and stage
// scores; failed rows leave all five annotation columns blank. The
// unmatched table keeps the original columns only.
func AssembleCorrection(input *table.Table, res CorrectionResult) (CorrectionOutput, error) {
	if len(res.Corrections) != input.Len() {
		return CorrectionOutput{}, fmt.Errorf("correction partition broken: %d outcomes for %d rows",
			len(res.Corrections), input.Len())
	}

	headers := make([]string, 0, len(input.Headers)+5)
	headers = append(headers, input.Headers...)
	headers = append(headers, ColStdRegion, ColStdZone, ColStdWoreda, ColRegionZoneScore, ColWoredaScore)

	corrected := table.New(headers...)
	unmatched := table.New(input.Headers...)

	for i, rec := range input.Rows {
		cor := res.Corrections[i]
		values := make([]string, 0, len(headers))
		values = append(values, rec.Values(input.Headers)...)
		if cor.Matched {
			values = append(values, cor.StdRegion, cor.StdZone, cor.StdWoreda,
				strconv.Itoa(cor.RegionZoneScore), strconv.Itoa(cor.WoredaScore))
		} else {
			values = append(values, "", "", "", "", "")
			unmatched.Append(rec.Values(input.Headers))
		}
		corrected.Append(values)
	}

	return CorrectionOutput{Corrected: corrected, Unmatched: unmatched}, nil
}
