package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hfmatch/internal/config"
	"github.com/hfmatch/internal/pipeline"
)

// MergeHandler runs cross-dataset merges from multipart uploads.
type MergeHandler struct {
	Cfg  *config.Config
	Log  *zap.Logger
	Jobs *JobStore
}

// Merge accepts dataset1 and dataset2 CSV uploads with an optional
// threshold field, runs the pipeline, and answers with a run ID plus
// the run's stats. Results stay in the job store for download.
func (h *MergeHandler) Merge(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(h.Cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "parse upload: " + err.Error()})
		return
	}

	left, ok := uploadTable(w, r, h.Log, "dataset1")
	if !ok {
		return
	}
	right, ok := uploadTable(w, r, h.Log, "dataset2")
	if !ok {
		return
	}

	cfg := *h.Cfg
	threshold, err := thresholdOverride(r, "threshold", cfg.Matching.Threshold)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	cfg.Matching.Threshold = threshold

	run, err := pipeline.New(&cfg, h.Log).Merge(left, right)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	id := h.Jobs.Add(&Job{Kind: JobMerge, Merge: run})
	writeJSON(w, http.StatusOK, runResponse{
		RunID: id,
		Kind:  JobMerge,
		Stats: runStats{
			Matched:        run.Stats.Matched,
			UnmatchedLeft:  run.Stats.UnmatchedLeft,
			UnmatchedRight: run.Stats.UnmatchedRight,
			Threshold:      run.Stats.Thresholds.Primary,
			EmptyPool:      run.Stats.EmptyPool,
		},
	})
}
