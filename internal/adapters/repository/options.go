package repository

// storeConfig captures construction-time settings for the sharded store.
type storeConfig struct {
	shardCount int
}

// Option applies a configuration option to the ShardedStore.
type Option func(*storeConfig)

// WithShardCount sets the number of shards the repo-name space is
// partitioned into.
func WithShardCount(count int) Option {
	return func(c *storeConfig) {
		if count > 0 {
			c.shardCount = count
		}
	}
}
