package match

import (
	"time"

	"go.uber.org/zap"
)

// TuningPoint is the outcome of one merge pass at one primary
// threshold setting.
type TuningPoint struct {
	Threshold      int           `json:"threshold"`
	Matched        int           `json:"matched"`
	UnmatchedLeft  int           `json:"unmatched_left"`
	UnmatchedRight int           `json:"unmatched_right"`
	MatchRate      float64       `json:"match_rate"`
	MeanScore      float64       `json:"mean_score"`
	Duration       time.Duration `json:"duration"`
}

// Tuner sweeps the primary threshold over a fixed dataset pair so an
// operator can pick an operating point. There is no ground truth to
// score against, so the sweep reports match counts and score averages
// rather than precision or recall.
type Tuner struct {
	Min  int
	Max  int
	Step int

	log *zap.Logger
}

// NewTuner returns a Tuner covering thresholds 50 through 100 in steps
// of 5. A nil logger disables debug output.
func NewTuner(log *zap.Logger) *Tuner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tuner{Min: 50, Max: 100, Step: 5, log: log}
}

// Sweep runs one full greedy pass per threshold setting, reusing base
// for everything but the primary threshold. Match counts are
// non-increasing as the threshold rises; a sweep that shows otherwise
// indicates a scorer bug.
func (t *Tuner) Sweep(leftKeys, rightKeys []string, base Thresholds) []TuningPoint {
	step := t.Step
	if step <= 0 {
		step = 5
	}
	log := t.log
	if log == nil {
		log = zap.NewNop()
	}

	var points []TuningPoint
	for th := t.Min; th <= t.Max; th += step {
		start := time.Now()

		cfg := base
		cfg.Primary = th
		res := NewMatcher(cfg, log).Match(leftKeys, rightKeys)

		point := TuningPoint{
			Threshold:      th,
			Matched:        len(res.Pairs),
			UnmatchedLeft:  len(res.UnmatchedLeft),
			UnmatchedRight: len(res.UnmatchedRight),
			Duration:       time.Since(start),
		}
		if len(leftKeys) > 0 {
			point.MatchRate = float64(len(res.Pairs)) / float64(len(leftKeys))
		}
		if len(res.Pairs) > 0 {
			var sum int
			for _, p := range res.Pairs {
				sum += p.Score
			}
			point.MeanScore = float64(sum) / float64(len(res.Pairs))
		}

		points = append(points, point)
		log.Debug("threshold tested",
			zap.Int("threshold", th),
			zap.Int("matched", point.Matched),
			zap.Float64("match_rate", point.MatchRate),
			zap.Duration("duration", point.Duration))
	}
	return points
}
