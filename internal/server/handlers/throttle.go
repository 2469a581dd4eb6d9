package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/canvashq/canvas/internal/core/cache"
	"github.com/canvashq/canvas/internal/core/throttle"
	apperrors "github.com/canvashq/canvas/internal/errors"
	"github.com/canvashq/canvas/internal/metrics"
)

// ThrottleStatsResponse is the body served by GET /throttle/stats.
type ThrottleStatsResponse struct {
	APIs  []throttle.Stats `json:"apis"`
	Cache cache.Stats      `json:"cache"`
}

// NewThrottleStatsHandler serves a snapshot of every throttle bucket plus the
// response cache counters, and refreshes the corresponding gauges.
func NewThrottleStatsHandler(registry *throttle.Registry, responseCache *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if registry == nil {
			respondWithError(w, r, apperrors.NewInternalError("throttle registry not configured"))
			return
		}

		stats := registry.StatsAll()
		for _, s := range stats {
			metrics.SetThrottleGauges(s.APIName, s.QueueLength, float64(s.UtilizationPercent))
		}

		response := ThrottleStatsResponse{
			APIs:  stats,
			Cache: responseCache.Stats(),
		}
		if response.APIs == nil {
			response.APIs = []throttle.Stats{}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
