package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/okian/starseed/internal/domain/model"
	"github.com/okian/starseed/internal/domain/seed"
	"github.com/okian/starseed/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultShardCount = 8
)

// shard holds the accumulators for one partition of the repo-name space.
type shard struct {
	mu   sync.RWMutex
	accs map[string]*seed.Accumulator
}

// ShardedStore implements Store with fnv-partitioned in-memory shards.
type ShardedStore struct {
	shards []*shard
}

// NewShardedStore creates an empty sharded store with configuration options.
func NewShardedStore(ctx context.Context, opts ...Option) *ShardedStore {
	cfg := storeConfig{shardCount: defaultShardCount}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &ShardedStore{shards: make([]*shard, cfg.shardCount)}
	for i := range s.shards {
		s.shards[i] = &shard{accs: make(map[string]*seed.Accumulator)}
	}

	metrics.UpdateStoreShardCount(cfg.shardCount)
	metrics.UpdateStoreReposTotal(0)
	return s
}

func (s *ShardedStore) shardFor(repoName string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(repoName))
	return s.shards[int(h.Sum32())%len(s.shards)]
}

// Apply folds one star event into its repository's accumulator.
func (s *ShardedStore) Apply(ctx context.Context, e model.StarEvent) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreApplyLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := seed.Validate(e); err != nil {
		return err
	}

	sh := s.shardFor(e.RepoName)
	sh.mu.Lock()
	acc := sh.accs[e.RepoName]
	if acc == nil {
		acc = &seed.Accumulator{}
		sh.accs[e.RepoName] = acc
	}
	acc.Observe(e.StarredAt)
	sh.mu.Unlock()
	return nil
}

// Get returns the current aggregate for a repository.
func (s *ShardedStore) Get(ctx context.Context, repoName string) (model.RepoAggregate, error) {
	sh := s.shardFor(repoName)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	acc, ok := sh.accs[repoName]
	if !ok {
		return model.RepoAggregate{}, ErrNotFound
	}
	return acc.Aggregate(repoName), nil
}

// Snapshot materializes the current aggregate for every repository.
// Each shard is locked independently; the snapshot is consistent per
// repository, not across repositories.
func (s *ShardedStore) Snapshot(ctx context.Context) []model.RepoAggregate {
	out := make([]model.RepoAggregate, 0, s.Count(ctx))
	for i, sh := range s.shards {
		sh.mu.RLock()
		for repo, acc := range sh.accs {
			out = append(out, acc.Aggregate(repo))
		}
		metrics.UpdateStoreReposPerShard(strconv.Itoa(i), len(sh.accs))
		sh.mu.RUnlock()
	}
	metrics.UpdateStoreReposTotal(len(out))
	return out
}

// TopByStars returns the n most-starred repositories, star count desc,
// ties broken by repo name for determinism.
func (s *ShardedStore) TopByStars(ctx context.Context, n int) ([]model.RepoAggregate, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	aggs := s.Snapshot(ctx)
	sort.Slice(aggs, func(i, j int) bool {
		if aggs[i].NStars != aggs[j].NStars {
			return aggs[i].NStars > aggs[j].NStars
		}
		return aggs[i].RepoName < aggs[j].RepoName
	})
	if len(aggs) > n {
		aggs = aggs[:n]
	}
	return aggs, nil
}

// Count returns the number of distinct repositories tracked.
func (s *ShardedStore) Count(ctx context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.accs)
		sh.mu.RUnlock()
	}
	return total
}
