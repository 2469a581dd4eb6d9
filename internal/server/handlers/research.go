package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/canvashq/canvas/internal/core"
	apperrors "github.com/canvashq/canvas/internal/errors"
	"github.com/canvashq/canvas/internal/metrics"
	"github.com/canvashq/canvas/internal/research"
)

// NewResearchHandler serves POST /research against the supplied engine.
func NewResearchHandler(engine *research.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			respondWithError(w, r, apperrors.NewInternalError("research engine not configured"))
			return
		}

		var req core.ResearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, r, apperrors.NewInvalidInputError("invalid request body: "+err.Error()))
			return
		}
		if req.Doctor == "" {
			respondWithError(w, r, apperrors.NewInvalidInputError("doctor is required"))
			return
		}
		if req.Depth == "" {
			req.Depth = core.DepthInstant
		}

		start := time.Now()
		result, err := engine.Run(r.Context(), req)
		if err != nil {
			metrics.RecordResearch(string(req.Depth), "error", false, time.Since(start))
			respondWithError(w, r, apperrors.Classify(err))
			return
		}

		metrics.RecordResearch(string(req.Depth), statusLabel(result.Status), result.Provenance.FromCache, time.Since(start))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(result)
	}
}

func statusLabel(status core.ResearchStatus) string {
	switch status {
	case core.StatusComplete:
		return "complete"
	case core.StatusPartial:
		return "partial"
	case core.StatusError:
		return "error"
	default:
		return "unknown"
	}
}
