package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hfmatch/internal/table"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RunsHandler serves stats and downloads for finished runs.
type RunsHandler struct {
	Log  *zap.Logger
	Jobs *JobStore
}

type runInfo struct {
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Stats     runStats  `json:"stats"`
}

func jobStats(job *Job) runStats {
	switch job.Kind {
	case JobMerge:
		return runStats{
			Matched:        job.Merge.Stats.Matched,
			UnmatchedLeft:  job.Merge.Stats.UnmatchedLeft,
			UnmatchedRight: job.Merge.Stats.UnmatchedRight,
			Threshold:      job.Merge.Stats.Thresholds.Primary,
			EmptyPool:      job.Merge.Stats.EmptyPool,
		}
	default:
		return runStats{
			Matched:             job.Correction.Stats.Matched,
			UnmatchedLeft:       job.Correction.Stats.UnmatchedLeft,
			Threshold:           job.Correction.Stats.Thresholds.Primary,
			MultiLevelThreshold: job.Correction.Stats.Thresholds.MultiLevel,
			EmptyPool:           job.Correction.Stats.EmptyPool,
		}
	}
}

// GetRun reports a finished run's stats.
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	job, ok := h.Jobs.Get(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown run"})
		return
	}

	writeJSON(w, http.StatusOK, runInfo{
		RunID:     job.ID,
		Kind:      job.Kind,
		CreatedAt: job.CreatedAt,
		Stats:     jobStats(job),
	})
}

// Download streams a run's results. format selects csv (default, with
// part choosing the table) or xlsx (the whole workbook).
func (h *RunsHandler) Download(w http.ResponseWriter, r *http.Request) {
	job, ok := h.Jobs.Get(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown run"})
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	part := r.URL.Query().Get("part")

	switch format {
	case "xlsx":
		h.sendWorkbook(w, job)
	case "csv":
		h.sendCSV(w, job, part)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: fmt.Sprintf("unknown format %q, want csv or xlsx", format),
		})
	}
}

func (h *RunsHandler) sendWorkbook(w http.ResponseWriter, job *Job) {
	var sheets []table.Sheet
	var filename string

	switch job.Kind {
	case JobMerge:
		sheets = []table.Sheet{
			{Name: "Merged Data", Table: job.Merge.Output.Merged},
			{Name: "Unmatched (Dataset 1)", Table: job.Merge.Output.UnmatchedLeft},
			{Name: "Unmatched (Dataset 2)", Table: job.Merge.Output.UnmatchedRight},
		}
		filename = "merged_data.xlsx"
	default:
		sheets = []table.Sheet{
			{Name: "Corrected Data", Table: job.Correction.Output.Corrected},
			{Name: "Unmatched Rows", Table: job.Correction.Output.Unmatched},
		}
		filename = "corrected_data.xlsx"
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := table.WriteExcel(w, sheets); err != nil {
		h.Log.Error("workbook download failed", zap.String("run_id", job.ID), zap.Error(err))
	}
}

func (h *RunsHandler) sendCSV(w http.ResponseWriter, job *Job, part string) {
	var tbl *table.Table
	var filename string

	switch job.Kind {
	case JobMerge:
		switch part {
		case "", "merged":
			tbl, filename = job.Merge.Output.Merged, "merged_data.csv"
		case "unmatched1":
			tbl, filename = job.Merge.Output.UnmatchedLeft, "unmatched_dataset1.csv"
		case "unmatched2":
			tbl, filename = job.Merge.Output.UnmatchedRight, "unmatched_dataset2.csv"
		}
	default:
		switch part {
		case "", "corrected":
			tbl, filename = job.Correction.Output.Corrected, "corrected_data.csv"
		case "unmatched":
			tbl, filename = job.Correction.Output.Unmatched, "unmatched_rows.csv"
		}
	}

	if tbl == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: fmt.Sprintf("unknown part %q for a %s run", part, job.Kind),
		})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := table.WriteCSV(w, tbl); err != nil {
		h.Log.Error("csv download failed", zap.String("run_id", job.ID), zap.Error(err))
	}
}
