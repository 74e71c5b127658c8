// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
)

// SeedsHandler handles seed cluster materialization requests.
type SeedsHandler struct {
	deps Dependencies
}

// NewSeedsHandler creates a new seeds handler.
func NewSeedsHandler(deps Dependencies) *SeedsHandler {
	return &SeedsHandler{deps: deps}
}

// HandleGetSeeds handles GET /seeds?min_stars=N&limit=M requests.
// min_stars omitted or zero falls back to the configured threshold;
// an explicit non-positive value is a parameter error.
func (h *SeedsHandler) HandleGetSeeds(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_seeds"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	minStars := 0
	if raw := r.URL.Query().Get("min_stars"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		minStars = v
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = v
	}

	clusters, err := h.deps.Seeds(r.Context(), minStars, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, clusters)
}
