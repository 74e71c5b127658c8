// Package seed computes the initial cluster set for coordinated-behavior
// detection: one singleton cluster per repository whose star count inside
// the window meets the activity threshold.
//
// The computation is a pure, order-independent aggregation. Re-running it
// over the same events and window yields identical output.
package seed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/starseed/internal/domain/model"
	"github.com/okian/starseed/internal/domain/window"
)

// Accumulator keeps the running (sum, count) pair for one repository.
// The mean is finalized by a single division, so aggregation needs
// neither sorted input nor a second pass.
type Accumulator struct {
	Sum   float64
	Count int
}

// Observe folds one event timestamp into the accumulator.
func (a *Accumulator) Observe(t time.Time) {
	a.Sum += EpochSeconds(t)
	a.Count++
}

// Merge folds another accumulator into this one. Used when shards
// aggregate partitions independently.
func (a *Accumulator) Merge(other Accumulator) {
	a.Sum += other.Sum
	a.Count += other.Count
}

// Aggregate finalizes the accumulator for a repository. The center is
// only defined once at least one event contributed.
func (a Accumulator) Aggregate(repoName string) model.RepoAggregate {
	agg := model.RepoAggregate{RepoName: repoName, NStars: a.Count}
	if a.Count > 0 {
		agg.RepoCenter = a.Sum / float64(a.Count)
	}
	return agg
}

// EpochSeconds converts a timestamp to floating-point seconds since the
// Unix epoch, the unit repo centers are expressed in.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Validate checks that an event carries the fields aggregation depends
// on. Malformed records are surfaced to the caller, never dropped.
func Validate(e model.StarEvent) error {
	switch {
	case e.RepoName == "":
		return fmt.Errorf("%w: missing repo_name", ErrMalformedEvent)
	case e.Actor == "":
		return fmt.Errorf("%w: missing actor (repo %s)", ErrMalformedEvent, e.RepoName)
	case e.StarredAt.IsZero():
		return fmt.Errorf("%w: missing starred_at (repo %s)", ErrMalformedEvent, e.RepoName)
	}
	return nil
}

// Generate aggregates events by repository, drops repositories with
// fewer than minStars events inside w, and packages the survivors as
// singleton seed clusters. Events outside w are ignored; a minStars of
// one or less degenerates to no filtering. Output is sorted by repo
// name so identical inputs yield byte-identical output.
func Generate(ctx context.Context, events []model.StarEvent, w window.Window, minStars int) ([]model.SeedCluster, error) {
	groups := make(map[string]*Accumulator)
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("seed generation cancelled: %w", err)
		}
		if err := Validate(e); err != nil {
			return nil, err
		}
		if !w.Contains(e.StarredAt) {
			continue
		}
		acc := groups[e.RepoName]
		if acc == nil {
			acc = &Accumulator{}
			groups[e.RepoName] = acc
		}
		acc.Observe(e.StarredAt)
	}

	aggregates := make([]model.RepoAggregate, 0, len(groups))
	for repo, acc := range groups {
		aggregates = append(aggregates, acc.Aggregate(repo))
	}
	return Materialize(aggregates, minStars), nil
}

// Materialize applies the threshold filter and packages each surviving
// aggregate as a singleton cluster, sorted by repo name.
func Materialize(aggregates []model.RepoAggregate, minStars int) []model.SeedCluster {
	clusters := make([]model.SeedCluster, 0, len(aggregates))
	for _, agg := range aggregates {
		if agg.NStars < minStars {
			continue
		}
		clusters = append(clusters, Singleton(agg))
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].RepoName < clusters[j].RepoName
	})
	return clusters
}

// Singleton packages one aggregate as a seed cluster referencing only
// its own repository.
func Singleton(agg model.RepoAggregate) model.SeedCluster {
	return model.SeedCluster{
		RepoName:   agg.RepoName,
		NStars:     agg.NStars,
		RepoCenter: agg.RepoCenter,
		Centers:    map[string]float64{agg.RepoName: agg.RepoCenter},
		Clusters:   []string{agg.RepoName},
	}
}
