package security

import (
	"hash/fnv"
	"sync"
	"time"
)

// slidingLimiter keeps a per-user sliding window of request timestamps.
// Users are sharded so concurrent requests for unrelated users never
// contend on one lock; entries within a shard share that shard's mutex.
// Expired timestamps are purged lazily on each check.
type slidingLimiter struct {
	window      time.Duration
	maxRequests int
	now         func() time.Time
	shards      []*limiterShard
}

type limiterShard struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

func newSlidingLimiter(window time.Duration, maxRequests, shardCount int, now func() time.Time) *slidingLimiter {
	if shardCount <= 0 {
		shardCount = 32
	}
	if now == nil {
		now = time.Now
	}
	shards := make([]*limiterShard, shardCount)
	for i := range shards {
		shards[i] = &limiterShard{windows: make(map[string][]time.Time)}
	}
	return &slidingLimiter{
		window:      window,
		maxRequests: maxRequests,
		now:         now,
		shards:      shards,
	}
}

// Allow purges the user's expired timestamps, rejects when the window
// is full, and records the new timestamp otherwise.
func (l *slidingLimiter) Allow(userID string) bool {
	shard := l.shard(userID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	timestamps := shard.windows[userID]
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.maxRequests {
		shard.windows[userID] = kept
		return false
	}

	shard.windows[userID] = append(kept, now)
	return true
}

func (l *slidingLimiter) shard(userID string) *limiterShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return l.shards[int(h.Sum32())%len(l.shards)]
}
