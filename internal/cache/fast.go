package cache

import (
	"sync"
	"time"
)

type fastEntry struct {
	values   []float32
	storedAt time.Time
}

// fastTier is the bounded in-process cache. Admission policy: a new key is
// accepted only while occupancy is below capacity; at capacity the write is
// dropped. Nothing is evicted except entries found expired on read or during
// a sweep. An LRU would change these semantics, so none is used.
type fastTier struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]fastEntry
	now      func() time.Time
}

func newFastTier(capacity int, ttl time.Duration) *fastTier {
	return &fastTier{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]fastEntry),
		now:      time.Now,
	}
}

func (f *fastTier) get(key string) ([]float32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key]
	if !ok {
		return nil, false
	}
	if f.ttl > 0 && f.now().Sub(entry.storedAt) >= f.ttl {
		delete(f.entries, key)
		return nil, false
	}
	return cloneValues(entry.values), true
}

func (f *fastTier) put(key string, values []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[key]; !ok && len(f.entries) >= f.capacity {
		return
	}
	f.entries[key] = fastEntry{values: cloneValues(values), storedAt: f.now()}
}

func (f *fastTier) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// sweepExpired removes entries past their TTL so dead entries do not pin
// capacity until someone happens to read them.
func (f *fastTier) sweepExpired() int {
	if f.ttl <= 0 {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	removed := 0
	for key, entry := range f.entries {
		if now.Sub(entry.storedAt) >= f.ttl {
			delete(f.entries, key)
			removed++
		}
	}
	return removed
}

func cloneValues(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
