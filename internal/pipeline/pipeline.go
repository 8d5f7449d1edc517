// Package pipeline wires the engine stages into the two run modes:
// cross-dataset merge and reference correction.
package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hfmatch/internal/config"
	"github.com/hfmatch/internal/match"
	"github.com/hfmatch/internal/schema"
	"github.com/hfmatch/internal/table"
)

// Stats summarizes one run. For correction runs the left side is the
// input table, the right side the reference list, and UnmatchedRight
// stays zero.
type Stats struct {
	LeftRows       int              `json:"left_rows"`
	RightRows      int              `json:"right_rows"`
	Matched        int              `json:"matched"`
	UnmatchedLeft  int              `json:"unmatched_left"`
	UnmatchedRight int              `json:"unmatched_right"`
	Thresholds     match.Thresholds `json:"thresholds"`
	EmptyPool      bool             `json:"empty_pool"`
	Duration       time.Duration    `json:"duration"`
}

// MergeRun is the full outcome of a merge: the three output tables, the
// column bindings both datasets resolved to, and run statistics.
type MergeRun struct {
	Output       match.MergeOutput
	LeftMapping  schema.Mapping
	RightMapping schema.Mapping
	Stats        Stats
}

// CorrectionRun is the full outcome of a correction pass.
type CorrectionRun struct {
	Output       match.CorrectionOutput
	InputMapping schema.Mapping
	RefMapping   schema.Mapping
	Stats        Stats
}

// Engine runs merges and corrections under one configuration.
type Engine struct {
	cfg *config.Config
	log *zap.Logger
}

// New creates an engine. A nil logger disables logging.
func New(cfg *config.Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, log: log}
}

func (e *Engine) thresholds() match.Thresholds {
	return match.Thresholds{
		Primary:    e.cfg.Matching.Threshold,
		MultiLevel: e.cfg.Matching.MultiLevelThreshold,
		Column:     e.cfg.Matching.ColumnThreshold,
	}
}

func (e *Engine) resolver() *schema.Resolver {
	rc := schema.DefaultResolverConfig()
	rc.Threshold = e.cfg.Matching.ColumnThreshold
	return schema.NewResolver(rc)
}

// Merge links two datasets on the configured key columns and partitions
// both into merged and unmatched outputs.
func (e *Engine) Merge(left, right *table.Table) (*MergeRun, error) {
	start := time.Now()

	fields, err := e.cfg.KeyFields()
	if err != nil {
		return nil, err
	}

	resolver := e.resolver()
	leftMap, err := resolver.Resolve("dataset1", left.Headers, fields)
	if err != nil {
		return nil, fmt.Errorf("resolve dataset1 columns: %w", err)
	}
	rightMap, err := resolver.Resolve("dataset2", right.Headers, fields)
	if err != nil {
		return nil, fmt.Errorf("resolve dataset2 columns: %w", err)
	}

	leftKeys := match.BuildKeys(left, leftMap, fields)
	rightKeys := match.BuildKeys(right, rightMap, fields)

	th := e.thresholds()
	res := match.NewMatcher(th, e.log).Match(leftKeys, rightKeys)

	out, err := match.AssembleMerge(left, right, leftKeys, rightKeys, res, "")
	if err != nil {
		return nil, err
	}

	run := &MergeRun{
		Output:       out,
		LeftMapping:  leftMap,
		RightMapping: rightMap,
		Stats: Stats{
			LeftRows:       left.Len(),
			RightRows:      right.Len(),
			Matched:        len(res.Pairs),
			UnmatchedLeft:  len(res.UnmatchedLeft),
			UnmatchedRight: len(res.UnmatchedRight),
			Thresholds:     th,
			EmptyPool:      res.EmptyPool,
			Duration:       time.Since(start),
		},
	}

	e.log.Info("merge complete",
		zap.Int("dataset1_rows", left.Len()),
		zap.Int("dataset2_rows", right.Len()),
		zap.Int("matched", run.Stats.Matched),
		zap.Int("unmatched_dataset1", run.Stats.UnmatchedLeft),
		zap.Int("unmatched_dataset2", run.Stats.UnmatchedRight),
		zap.Int("threshold", th.Primary),
		zap.Duration("duration", run.Stats.Duration))
	return run, nil
}

// Correct standardizes every input row against a reference list. The
// reference can come from a second file or from the facility registry;
// either way it must expose region, zone, and woreda columns.
func (e *Engine) Correct(input, ref *table.Table) (*CorrectionRun, error) {
	start := time.Now()

	fields := schema.CorrectionFields()
	resolver := e.resolver()

	inputMap, err := resolver.Resolve("input", input.Headers, fields)
	if err != nil {
		return nil, fmt.Errorf("resolve input columns: %w", err)
	}
	refMap, err := resolver.Resolve("reference", ref.Headers, fields)
	if err != nil {
		return nil, fmt.Errorf("resolve reference columns: %w", err)
	}

	th := e.thresholds()
	res := match.NewCorrector(th, e.log).Correct(input, inputMap, ref, refMap)

	out, err := match.AssembleCorrection(input, res)
	if err != nil {
		return nil, err
	}

	run := &CorrectionRun{
		Output:       out,
		InputMapping: inputMap,
		RefMapping:   refMap,
		Stats: Stats{
			LeftRows:      input.Len(),
			RightRows:     ref.Len(),
			Matched:       res.Matched,
			UnmatchedLeft: res.Unmatched,
			Thresholds:    th,
			EmptyPool:     res.EmptyPool,
			Duration:      time.Since(start),
		},
	}

	e.log.Info("correction complete",
		zap.Int("input_rows", input.Len()),
		zap.Int("reference_rows", ref.Len()),
		zap.Int("standardized", res.Matched),
		zap.Int("unmatched", res.Unmatched),
		zap.Int("multi_level_threshold", th.MultiLevel),
		zap.Int("threshold", th.Primary),
		zap.Duration("duration", run.Stats.Duration))
	return run, nil
}

// Tune resolves both datasets once and sweeps the primary threshold.
// A nil tuner sweeps the default 50 to 100 range in steps of 5.
func (e *Engine) Tune(left, right *table.Table, tuner *match.Tuner) ([]match.TuningPoint, error) {
	fields, err := e.cfg.KeyFields()
	if err != nil {
		return nil, err
	}

	resolver := e.resolver()
	leftMap, err := resolver.Resolve("dataset1", left.Headers, fields)
	if err != nil {
		return nil, fmt.Errorf("resolve dataset1 columns: %w", err)
	}
	rightMap, err := resolver.Resolve("dataset2", right.Headers, fields)
	if err != nil {
		return nil, fmt.Errorf("resolve dataset2 columns: %w", err)
	}

	leftKeys := match.BuildKeys(left, leftMap, fields)
	rightKeys := match.BuildKeys(right, rightMap, fields)

	if tuner == nil {
		tuner = match.NewTuner(e.log)
	}
	return tuner.Sweep(leftKeys, rightKeys, e.thresholds()), nil
}
