package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clipserve/clipserve/internal/cache"
)

func TestCacheSweepJobRemovesExpiredEntries(t *testing.T) {
	tc := cache.NewTieredCache(nil, 10, time.Nanosecond, nil)
	tc.Put(context.Background(), "k", []float32{1}, time.Nanosecond)
	time.Sleep(time.Millisecond)

	j := NewCacheSweepJob(tc)
	require.Equal(t, "embedding_cache_sweep", j.Name())
	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, 0, tc.FastLen())
}

func TestCacheSweepJobNilCache(t *testing.T) {
	j := NewCacheSweepJob(nil)
	require.NoError(t, j.Run(context.Background()))
}
