package client

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/appdir/internal/domain"
)

// State of the snapshot cache.
type State string

const (
	StateEmpty State = "EMPTY" // nothing fetched yet
	StateFresh State = "FRESH" // fetched within the TTL
	StateStale State = "STALE" // older than the TTL, or invalidated
	StateError State = "ERROR" // the first fetch failed
)

// DefaultTTL is how long a fetched list is served without refetching.
const DefaultTTL = 5 * time.Minute

// Cache holds the last list fetched from the server. Staleness is computed
// on read; nothing runs in the background.
type Cache struct {
	mu          sync.RWMutex
	ttl         time.Duration
	now         func() time.Time
	apps        []domain.App
	has         bool
	fetchedAt   time.Time
	invalidated bool
	failed      bool
}

func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now}
}

// Snapshot returns a copy of the cached list and the current state. ok is
// false when there is no snapshot.
func (c *Cache) Snapshot() (apps []domain.App, state State, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.has {
		return nil, c.stateLocked(), false
	}
	return domain.CloneAll(c.apps), c.stateLocked(), true
}

// State evaluates the cache state now.
func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateLocked()
}

func (c *Cache) stateLocked() State {
	switch {
	case !c.has && c.failed:
		return StateError
	case !c.has:
		return StateEmpty
	case c.invalidated || c.now().Sub(c.fetchedAt) >= c.ttl:
		return StateStale
	default:
		return StateFresh
	}
}

// Age returns how old the snapshot is, zero without one.
func (c *Cache) Age() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.has {
		return 0
	}
	return c.now().Sub(c.fetchedAt)
}

// Store replaces the snapshot; the cache becomes FRESH.
func (c *Cache) Store(apps []domain.App) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apps = domain.CloneAll(apps)
	c.has = true
	c.fetchedAt = c.now()
	c.invalidated = false
	c.failed = false
}

// Fail records a failed fetch. An existing snapshot keeps its state.
func (c *Cache) Fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = true
}

// Invalidate forces the next read to refetch. The snapshot stays available
// as a fallback.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = true
}
