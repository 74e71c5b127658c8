// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/starseed/internal/domain/dedupe"
	"github.com/okian/starseed/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a star event for async aggregation. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, e model.StarEvent) bool

	// Seeds materializes seed clusters from the current aggregate state.
	// A minStars of zero uses the configured default threshold.
	Seeds(ctx context.Context, minStars, limit int) ([]model.SeedCluster, error)

	// RepoAggregate returns the running aggregate for one repository.
	RepoAggregate(ctx context.Context, repoName string) (model.RepoAggregate, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	eventsHandler *EventsHandler
	seedsHandler  *SeedsHandler
	reposHandler  *ReposHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		eventsHandler: NewEventsHandler(deps),
		seedsHandler:  NewSeedsHandler(deps),
		reposHandler:  NewReposHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/seeds", MetricsMiddleware(s.seedsHandler.HandleGetSeeds, "seeds"))
	mux.HandleFunc("/repos/", MetricsMiddleware(s.reposHandler.HandleGetRepo, "repos"))
}

// eventRequest mirrors the JSON schema for POST /events.
type eventRequest struct {
	DeliveryID string `json:"delivery_id"`
	Actor      string `json:"actor"`
	RepoName   string `json:"repo_name"`
	StarredAt  string `json:"starred_at"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.Actor) == "":
		return errors.New("missing actor")
	case strings.TrimSpace(e.RepoName) == "":
		return errors.New("missing repo_name")
	case strings.TrimSpace(e.StarredAt) == "":
		return errors.New("missing starred_at")
	}
	if _, err := time.Parse(time.RFC3339, e.StarredAt); err != nil {
		return errors.New("invalid starred_at; must be RFC3339")
	}
	return nil
}

// event converts the request to the domain shape. validate must have
// passed already.
func (e eventRequest) event() model.StarEvent {
	ts, _ := time.Parse(time.RFC3339, e.StarredAt)
	return model.StarEvent{
		DeliveryID: e.DeliveryID,
		Actor:      e.Actor,
		RepoName:   e.RepoName,
		StarredAt:  ts,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
