package cache

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// DurableStore is the shared, network-backed cache tier. It enforces its own
// expiry: Get never returns an expired entry.
type DurableStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	SetWithExpiry(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// ExpiredPurger is implemented by durable stores that keep expired rows
// around until explicitly deleted.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Recorder receives cache hit/miss events. Implemented by the metrics
// package; a nil Recorder disables recording.
type Recorder interface {
	CacheHit(tier string)
	CacheMiss()
}

// TieredCache layers the bounded in-process tier over an optional durable
// store. Every durable-store fault is absorbed here: a failed read is a miss,
// a failed write is a no-op. Cache trouble only costs speed, never a request.
type TieredCache struct {
	fast     *fastTier
	durable  DurableStore
	recorder Recorder
}

// NewTieredCache builds a cache with the given fast-tier capacity and TTL.
// durable and recorder may be nil.
func NewTieredCache(durable DurableStore, fastCapacity int, ttl time.Duration, recorder Recorder) *TieredCache {
	return &TieredCache{
		fast:     newFastTier(fastCapacity, ttl),
		durable:  durable,
		recorder: recorder,
	}
}

// Get probes the durable tier first, then the fast tier. A durable hit is
// authoritative; the fast tier additionally checks its locally recorded
// timestamp and drops expired entries.
func (t *TieredCache) Get(ctx context.Context, key string) ([]float32, bool) {
	if t.durable != nil {
		data, ok, err := t.durable.Get(ctx, key)
		if err != nil {
			logutil.GetLogger(ctx).Warn("durable cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			values, err := DecodeVector(data)
			if err != nil {
				logutil.GetLogger(ctx).Warn("durable cache entry corrupt", zap.String("key", key), zap.Error(err))
			} else {
				t.recordHit("durable")
				return values, true
			}
		}
	}
	if values, ok := t.fast.get(key); ok {
		t.recordHit("fast")
		return values, true
	}
	t.recordMiss()
	return nil, false
}

// Put writes the vector to the durable tier with the given TTL and offers it
// to the fast tier. The fast-tier write may be dropped at capacity; the
// durable write always proceeds.
func (t *TieredCache) Put(ctx context.Context, key string, values []float32, ttl time.Duration) {
	if t.durable != nil {
		if err := t.durable.SetWithExpiry(ctx, key, EncodeVector(values), ttl); err != nil {
			logutil.GetLogger(ctx).Warn("durable cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	t.fast.put(key, values)
}

// FastLen reports current fast-tier occupancy.
func (t *TieredCache) FastLen() int {
	return t.fast.len()
}

// DurableEnabled reports whether a durable store is configured.
func (t *TieredCache) DurableEnabled() bool {
	return t.durable != nil
}

// Durable exposes the configured durable store, or nil.
func (t *TieredCache) Durable() DurableStore {
	return t.durable
}

// Sweep removes expired fast-tier entries and, when the durable store keeps
// expired rows, purges those too. Durable errors are logged and swallowed.
func (t *TieredCache) Sweep(ctx context.Context) (fastRemoved int, durableRemoved int64) {
	fastRemoved = t.fast.sweepExpired()
	if purger, ok := t.durable.(ExpiredPurger); ok {
		removed, err := purger.PurgeExpired(ctx)
		if err != nil {
			logutil.GetLogger(ctx).Warn("durable cache purge failed", zap.Error(err))
		} else {
			durableRemoved = removed
		}
	}
	return fastRemoved, durableRemoved
}

func (t *TieredCache) recordHit(tier string) {
	if t.recorder != nil {
		t.recorder.CacheHit(tier)
	}
}

func (t *TieredCache) recordMiss() {
	if t.recorder != nil {
		t.recorder.CacheMiss()
	}
}
