package partition

import "github.com/cespare/xxhash/v2"

// DefaultCount is the number of shards used when none is configured.
const DefaultCount = 16

// For returns the shard for a record key, in [0, count).
// Stable and deterministic: same key always maps to the same shard for a
// given count. A non-positive count is treated as a single shard.
func For(key string, count int) int {
	if count <= 1 {
		return 0
	}
	return int(xxhash.Sum64String(key) % uint64(count))
}
