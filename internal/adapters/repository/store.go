// Package repository defines the aggregate store interface and errors.
//
// The store keeps one running (sum, count) accumulator per repository.
// Aggregation is embarrassingly parallel: repositories are partitioned
// across shards by name, and no state is shared between shards.
package repository

import (
	"context"

	"github.com/okian/starseed/internal/domain/model"
)

// Store provides read/write access to the per-repository accumulators.
type Store interface {
	// Apply folds one star event into its repository's accumulator.
	Apply(ctx context.Context, e model.StarEvent) error

	// Get returns the current aggregate for a repository.
	// Returns ErrNotFound if the repository has no recorded events.
	Get(ctx context.Context, repoName string) (model.RepoAggregate, error)

	// Snapshot materializes the current aggregate for every repository.
	Snapshot(ctx context.Context) []model.RepoAggregate

	// TopByStars returns the n most-starred repositories, star count desc.
	TopByStars(ctx context.Context, n int) ([]model.RepoAggregate, error)

	// Count returns the number of distinct repositories tracked.
	Count(ctx context.Context) int
}
