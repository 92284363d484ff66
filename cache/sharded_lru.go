package cache

import (
	"context"
	"encoding/binary"
	"hash/maphash"
	"sync"

	"github.com/hupe1980/poster/resource"
)

const numShards = 64

// ShardedLRU is a sharded LRU cache for high-concurrency workloads such as
// a parallel site build. It distributes entries across 64 shards to reduce
// lock contention.
//
// Each shard gets capacity/64 bytes, so a text larger than that is never
// admitted.
type ShardedLRU struct {
	shards [numShards]*LRU
	seed   maphash.Seed
}

var _ TextCache = (*ShardedLRU)(nil)

// NewShardedLRU creates a new sharded LRU cache.
// The capacity is divided evenly across all shards.
func NewShardedLRU(capacity int64, rc *resource.Controller) *ShardedLRU {
	shardCapacity := max(capacity/numShards, 1)

	s := &ShardedLRU{
		seed: maphash.MakeSeed(),
	}
	for i := range numShards {
		s.shards[i] = NewLRU(shardCapacity, rc)
	}
	return s
}

func (s *ShardedLRU) shard(key Key) *LRU {
	var buf [9]byte
	buf[0] = byte(key.Kind)
	binary.LittleEndian.PutUint64(buf[1:], key.ID)
	return s.shards[maphash.Bytes(s.seed, buf[:])%numShards]
}

// Get returns a cached text.
func (s *ShardedLRU) Get(ctx context.Context, key Key) (string, bool) {
	return s.shard(key).Get(ctx, key)
}

// Set caches a text.
func (s *ShardedLRU) Set(ctx context.Context, key Key, v string) bool {
	return s.shard(key).Set(ctx, key, v)
}

// Delete removes key if present.
func (s *ShardedLRU) Delete(key Key) {
	s.shard(key).Delete(key)
}

// Invalidate removes entries matching the predicate.
// This iterates all shards, which is expensive but rare.
func (s *ShardedLRU) Invalidate(predicate func(key Key) bool) {
	var wg sync.WaitGroup
	wg.Add(numShards)

	for i := range numShards {
		go func(shard *LRU) {
			defer wg.Done()
			shard.Invalidate(predicate)
		}(s.shards[i])
	}

	wg.Wait()
}

// Close closes all shards.
func (s *ShardedLRU) Close() error {
	for i := range numShards {
		if err := s.shards[i].Close(); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns aggregated statistics.
func (s *ShardedLRU) Stats() Stats {
	var total Stats
	for i := range numShards {
		st := s.shards[i].Stats()
		total.Hits += st.Hits
		total.Misses += st.Misses
		total.Evictions += st.Evictions
		total.Rejected += st.Rejected
	}
	return total
}

// Size returns the total size across all shards.
func (s *ShardedLRU) Size() int64 {
	var total int64
	for i := range numShards {
		total += s.shards[i].Size()
	}
	return total
}

// ShardStats provides per-shard statistics for debugging.
type ShardStats struct {
	ShardID int
	Size    int64
	Stats
}

// ShardStats returns per-shard statistics.
func (s *ShardedLRU) ShardStats() []ShardStats {
	stats := make([]ShardStats, numShards)
	for i := range numShards {
		stats[i] = ShardStats{
			ShardID: i,
			Size:    s.shards[i].Size(),
			Stats:   s.shards[i].Stats(),
		}
	}
	return stats
}
