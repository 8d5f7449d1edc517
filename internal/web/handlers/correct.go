package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/hfmatch/internal/config"
	"github.com/hfmatch/internal/pipeline"
	"github.com/hfmatch/internal/table"
)

// RegistrySource supplies the canonical reference list when a request
// asks for registry-backed correction.
type RegistrySource interface {
	FetchAll(ctx context.Context) (*table.Table, error)
}

// CorrectHandler standardizes an uploaded dataset against a reference
// upload or the facility registry.
type CorrectHandler struct {
	Cfg  *config.Config
	Log  *zap.Logger
	Jobs *JobStore
	// Registry is nil when the server runs without a database; such a
	// server still serves corrections against uploaded references.
	Registry RegistrySource
}

// Correct accepts a dataset CSV plus either a reference CSV or
// use_registry=true, with optional threshold and multi_level_threshold
// fields.
func (h *CorrectHandler) Correct(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(h.Cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "parse upload: " + err.Error()})
		return
	}

	input, ok := uploadTable(w, r, h.Log, "dataset")
	if !ok {
		return
	}

	var ref *table.Table
	if r.FormValue("use_registry") == "true" {
		if h.Registry == nil {
			writeJSON(w, http.StatusBadRequest, errorBody{
				Error: "registry correction requested but no registry is configured",
			})
			return
		}
		fetched, err := h.Registry.FetchAll(r.Context())
		if err != nil {
			writeError(w, h.Log, err)
			return
		}
		ref = fetched
	} else {
		ref, ok = uploadTable(w, r, h.Log, "reference")
		if !ok {
			return
		}
	}

	cfg := *h.Cfg
	threshold, err := thresholdOverride(r, "threshold", cfg.Matching.Threshold)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	multiLevel, err := thresholdOverride(r, "multi_level_threshold", cfg.Matching.MultiLevelThreshold)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	cfg.Matching.Threshold = threshold
	cfg.Matching.MultiLevelThreshold = multiLevel

	run, err := pipeline.New(&cfg, h.Log).Correct(input, ref)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	id := h.Jobs.Add(&Job{Kind: JobCorrect, Correction: run})
	writeJSON(w, http.StatusOK, runResponse{
		RunID: id,
		Kind:  JobCorrect,
		Stats: runStats{
			Matched:             run.Stats.Matched,
			UnmatchedLeft:       run.Stats.UnmatchedLeft,
			Threshold:           run.Stats.Thresholds.Primary,
			MultiLevelThreshold: run.Stats.Thresholds.MultiLevel,
			EmptyPool:           run.Stats.EmptyPool,
		},
	})
}
