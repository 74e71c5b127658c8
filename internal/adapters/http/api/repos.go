// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/starseed/internal/adapters/repository"
)

// ReposHandler handles per-repository aggregate lookups.
type ReposHandler struct {
	deps Dependencies
}

// NewReposHandler creates a new repos handler.
func NewReposHandler(deps Dependencies) *ReposHandler {
	return &ReposHandler{deps: deps}
}

// repoResponse mirrors the aggregate read shape.
type repoResponse struct {
	RepoName   string  `json:"repo_name"`
	NStars     int     `json:"n_stars"`
	RepoCenter float64 `json:"repo_center"`
}

// HandleGetRepo handles GET /repos/{owner}/{name} requests. Repo names
// contain a slash, so everything after the prefix is the name.
func (h *ReposHandler) HandleGetRepo(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_repo"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	repoName := strings.Trim(strings.TrimPrefix(r.URL.Path, "/repos/"), "/")
	if repoName == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	agg, err := h.deps.RepoAggregate(r.Context(), repoName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, repoResponse{
		RepoName:   agg.RepoName,
		NStars:     agg.NStars,
		RepoCenter: agg.RepoCenter,
	})
}
