// Package model contains domain models passed between layers.
package model

import "time"

// StarEvent represents one starring action read from the event log.
// Field names mirror the stargazer export schema.
type StarEvent struct {
	DeliveryID string    // ingest idempotency key; assigned when missing
	Actor      string    // account that starred
	RepoName   string    // repository that was starred, "owner/name"
	StarredAt  time.Time // when the star happened
}

// RepoAggregate summarizes the starring activity of one repository
// inside the active window.
type RepoAggregate struct {
	RepoName   string
	NStars     int     // number of contributing events, duplicates included
	RepoCenter float64 // mean of StarredAt as epoch seconds
}

// SeedCluster is the per-repository starting unit handed to the
// downstream clustering stage. This stage always emits singletons:
// Centers holds exactly the repository's own center and Clusters
// exactly its own name. The clusterer grows both as it merges.
type SeedCluster struct {
	RepoName   string             `json:"repo_name"`
	NStars     int                `json:"n_stars"`
	RepoCenter float64            `json:"repo_center"`
	Centers    map[string]float64 `json:"centers"`
	Clusters   []string           `json:"clusters"`
}
