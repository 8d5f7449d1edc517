package match

import (
	"go.uber.org/zap"

	"github.com/hfmatch/internal/schema"
	"github.com/hfmatch/internal/similarity"
	"github.com/hfmatch/internal/table"
)

// refPair is one distinct (region, zone) pair from the reference list,
// kept with its comparison key and the reference rows carrying it.
// Identity is the raw pair of reference values, so spelling variants in
// the reference itself stay separate candidates.
type refPair struct {
	region string
	zone   string
	key    string
	rows   []int
}

// Corrector standardizes free-text region/zone/woreda values against a
// canonical reference list. Woreda names repeat across zones, so the
// woreda is never matched on its own: a strict region+zone stage first
// narrows the reference to one administrative area, then the woreda is
// matched only inside that area at the looser primary threshold.
//
// There is no claimed set here. Correction is not a merge, and any
// number of input rows may standardize onto the same reference row.
type Corrector struct {
	thresholds Thresholds
	log        *zap.Logger
}

// NewCorrector returns a Corrector with the given thresholds. A nil
// logger disables debug output.
func NewCorrector(t Thresholds, log *zap.Logger) *Corrector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Corrector{thresholds: t, log: log}
}

// Correct runs the two-stage correction for every input row and returns
// one Correction per row in input order. A failure at either stage
// leaves all standardized fields of that row empty; a stage-1 win never
// carries over into a row that failed stage 2.
func (c *Corrector) Correct(input *table.Table, inputMap schema.Mapping, ref *table.Table, refMap schema.Mapping) CorrectionResult {
	pairs := collectPairs(ref, refMap)

	res := CorrectionResult{Corrections: make([]Correction, 0, input.Len())}
	if len(pairs) == 0 {
		res.EmptyPool = true
		c.log.Debug("reference list empty, no corrections possible",
			zap.Int("input_rows", input.Len()))
	}

	inRegion, _ := inputMap.Column(schema.FieldRegion)
	inZone, _ := inputMap.Column(schema.FieldZone)
	inWoreda, _ := inputMap.Column(schema.FieldWoreda)
	refWoreda, _ := refMap.Column(schema.FieldWoreda)

	for _, rec := range input.Rows {
		cor := Correction{InputIndex: rec.Index}
		qKey := KeyFromValues(rec.Get(inRegion), rec.Get(inZone))

		// Stage 1: region+zone against the deduplicated pair pool.
		// Strictly greater keeps the earliest pair on ties.
		bestPair, pairScore := -1, -1
		for pi, p := range pairs {
			if s := similarity.TokenSetRatio(qKey, p.key); s > pairScore {
				bestPair, pairScore = pi, s
			}
		}
		if bestPair < 0 || pairScore < c.thresholds.MultiLevel {
			res.Corrections = append(res.Corrections, cor)
			res.Unmatched++
			c.log.Debug("region+zone stage failed",
				zap.Int("input_index", rec.Index),
				zap.String("query_key", qKey),
				zap.Int("score", pairScore),
				zap.Int("threshold", c.thresholds.MultiLevel))
			continue
		}

		// Stage 2: woreda, restricted to reference rows whose raw
		// (region, zone) equals the stage-1 winner exactly.
		p := pairs[bestPair]
		qWoreda := rec.Get(inWoreda)
		bestRow, worScore := -1, -1
		for _, ri := range p.rows {
			if s := similarity.TokenSetRatio(qWoreda, ref.Rows[ri].Get(refWoreda)); s > worScore {
				bestRow, worScore = ri, s
			}
		}
		if bestRow < 0 || worScore < c.thresholds.Primary {
			res.Corrections = append(res.Corrections, cor)
			res.Unmatched++
			c.log.Debug("woreda stage failed",
				zap.Int("input_index", rec.Index),
				zap.String("region", p.region),
				zap.String("zone", p.zone),
				zap.Int("score", worScore),
				zap.Int("threshold", c.thresholds.Primary))
			continue
		}

		cor.Matched = true
		cor.StdRegion = p.region
		cor.StdZone = p.zone
		cor.StdWoreda = ref.Rows[bestRow].Get(refWoreda)
		cor.RegionZoneScore = pairScore
		cor.WoredaScore = worScore
		res.Corrections = append(res.Corrections, cor)
		res.Matched++
		c.log.Debug("row standardized",
			zap.Int("input_index", rec.Index),
			zap.String("std_region", cor.StdRegion),
			zap.String("std_zone", cor.StdZone),
			zap.String("std_woreda", cor.StdWoreda),
			zap.Int("region_zone_score", pairScore),
			zap.Int("woreda_score", worScore))
	}

	return res
}

// collectPairs deduplicates the reference's (region, zone) pairs in
// first-seen order and groups reference row positions under each pair.
func collectPairs(ref *table.Table, refMap schema.Mapping) []refPair {
	regionCol, _ := refMap.Column(schema.FieldRegion)
	zoneCol, _ := refMap.Column(schema.FieldZone)

	index := make(map[[2]string]int)
	var pairs []refPair
	for i, rec := range ref.Rows {
		region, zone := rec.Get(regionCol), rec.Get(zoneCol)
		id := [2]string{region, zone}
		pi, ok := index[id]
		if !ok {
			pi = len(pairs)
			index[id] = pi
			pairs = append(pairs, refPair{
				region: region,
				zone:   zone,
				key:    KeyFromValues(region, zone),
			})
		}
		pairs[pi].rows = append(pairs[pi].rows, i)
	}
	return pairs
}
