// Package handlers implements the API endpoints: merge and correction
// uploads, run stats, and result downloads.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hfmatch/internal/schema"
	"github.com/hfmatch/internal/table"
)

type errorBody struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Dataset   string `json:"dataset,omitempty"`
	BestGuess string `json:"best_guess,omitempty"`
	BestScore int    `json:"best_score,omitempty"`
	Line      int    `json:"line,omitempty"`
}

// runStats is the JSON stats block for both run kinds. Matched counts
// merged pairs or standardized rows depending on the kind.
type runStats struct {
	Matched             int  `json:"merged"`
	UnmatchedLeft       int  `json:"unmatched_left"`
	UnmatchedRight      int  `json:"unmatched_right"`
	Threshold           int  `json:"threshold"`
	MultiLevelThreshold int  `json:"multi_level_threshold,omitempty"`
	EmptyPool           bool `json:"empty_pool"`
}

type runResponse struct {
	RunID string   `json:"run_id"`
	Kind  string   `json:"kind"`
	Stats runStats `json:"stats"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine errors onto status codes: malformed uploads
// 400, unresolvable columns 422, everything else 500.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var mfe *schema.MissingFieldError
	var mie *table.MalformedInputError

	switch {
	case errors.As(err, &mfe):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:     mfe.Error(),
			Field:     string(mfe.Field),
			Dataset:   mfe.Dataset,
			BestGuess: mfe.BestGuess,
			BestScore: mfe.BestScore,
		})
	case errors.As(err, &mie):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: mie.Error(), Line: mie.Line})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// uploadTable reads one multipart CSV upload. On failure it writes the
// error response itself and reports false.
func uploadTable(w http.ResponseWriter, r *http.Request, log *zap.Logger, field string) (*table.Table, bool) {
	f, _, err := r.FormFile(field)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: fmt.Sprintf("missing upload %q", field),
		})
		return nil, false
	}
	defer f.Close()

	tbl, err := table.ReadCSV(f)
	if err != nil {
		writeError(w, log, err)
		return nil, false
	}
	return tbl, true
}

// thresholdOverride applies an optional form field on top of the
// configured value.
func thresholdOverride(r *http.Request, field string, current int) (int, error) {
	v := r.FormValue(field)
	if v == "" {
		return current, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 100 {
		return 0, fmt.Errorf("%s %q must be an integer 0-100", field, v)
	}
	return n, nil
}
