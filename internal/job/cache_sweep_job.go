package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/clipserve/clipserve/internal/cache"
)

// CacheSweepJob periodically drops expired fast-tier entries so they stop
// pinning capacity, and purges expired durable rows for stores that keep
// them around. It never touches live entries.
type CacheSweepJob struct {
	cache *cache.TieredCache
}

func NewCacheSweepJob(c *cache.TieredCache) *CacheSweepJob {
	return &CacheSweepJob{cache: c}
}

func (j *CacheSweepJob) Name() string {
	return "embedding_cache_sweep"
}

func (j *CacheSweepJob) Run(ctx context.Context) error {
	if j.cache == nil {
		return nil
	}
	fastRemoved, durableRemoved := j.cache.Sweep(ctx)
	if fastRemoved > 0 || durableRemoved > 0 {
		logutil.GetLogger(ctx).Info("cache sweep",
			zap.Int("fast_removed", fastRemoved),
			zap.Int64("durable_removed", durableRemoved),
		)
	}
	return nil
}
