package lifecycle

import (
	"sync"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/models"
)

type prefetchKey struct {
	role   models.Role
	userID string
}

// Snapshot is what a dashboard renders first.
type Snapshot struct {
	SellerItems []models.Item
	Available   *models.AvailableItems
	Accepted    []models.Item
	FetchedAt   time.Time

	// fence tickets issued when the snapshot's requests went out
	tickets map[viewKind]uint64
}

type prefetchEntry struct {
	snap    Snapshot
	expires time.Time
}

// PrefetchCache holds at most one snapshot per (role, user). Take removes
// what it returns, so a snapshot is consumed once.
type PrefetchCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	gen     uint64
	entries map[prefetchKey]prefetchEntry
}

func NewPrefetchCache(ttl time.Duration) *PrefetchCache {
	return &PrefetchCache{ttl: ttl, now: time.Now, entries: make(map[prefetchKey]prefetchEntry)}
}

func (c *PrefetchCache) Put(role models.Role, userID string, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[prefetchKey{role, userID}] = prefetchEntry{snap: snap, expires: c.now().Add(c.ttl)}
}

// Generation changes on every Clear.
func (c *PrefetchCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// PutIfCurrent stores snap only if no Clear happened since gen was read.
// A fetch that outlives a logout must not repopulate the cache.
func (c *PrefetchCache) PutIfCurrent(gen uint64, role models.Role, userID string, snap Snapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.entries[prefetchKey{role, userID}] = prefetchEntry{snap: snap, expires: c.now().Add(c.ttl)}
	return true
}

// Take returns and invalidates the snapshot. Expired snapshots are
// discarded and reported as missing.
func (c *PrefetchCache) Take(role models.Role, userID string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := prefetchKey{role, userID}
	e, ok := c.entries[k]
	if !ok {
		return Snapshot{}, false
	}
	delete(c.entries, k)
	if c.now().After(e.expires) {
		return Snapshot{}, false
	}
	return e.snap, true
}

// Clear drops every snapshot.
func (c *PrefetchCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = make(map[prefetchKey]prefetchEntry)
}

func (c *PrefetchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
