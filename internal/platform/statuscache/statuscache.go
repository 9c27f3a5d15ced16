// Package statuscache keeps the latest status transition of each analysis
// job in memory with a TTL, so status polls are served without a database
// round trip while the job is live.
package statuscache

import (
	"sync"
	"time"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
)

// Entry is one cached job status snapshot.
type Entry struct {
	Status    domain.JobStatus
	Progress  float64
	Message   string
	UpdatedAt time.Time
}

type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	Entry
	expiresAt time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewAt pins the cache clock, for tests.
func NewAt(ttl time.Duration, now func() time.Time) *Cache {
	c := New(ttl)
	c.now = now

	return c
}

// Put records a job's latest status, refreshing its TTL.
func (c *Cache) Put(jobID string, status domain.JobStatus, progress float64, message string) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[jobID] = entry{
		Entry: Entry{
			Status:    status,
			Progress:  progress,
			Message:   message,
			UpdatedAt: now,
		},
		expiresAt: now.Add(c.ttl),
	}
}

// Get returns the cached snapshot for a job. Expired entries are treated
// as missing and evicted lazily.
func (c *Cache) Get(jobID string) (Entry, bool) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[jobID]
	c.mu.RUnlock()

	if !ok {
		return Entry{}, false
	}

	if !e.expiresAt.After(now) {
		c.mu.Lock()
		if cur, still := c.entries[jobID]; still && !cur.expiresAt.After(now) {
			delete(c.entries, jobID)
		}
		c.mu.Unlock()

		return Entry{}, false
	}

	return e.Entry, true
}

// Delete removes a job from the cache.
func (c *Cache) Delete(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, jobID)
}

// Len reports the number of live entries, evicting expired ones first.
func (c *Cache) Len() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.entries {
		if !e.expiresAt.After(now) {
			delete(c.entries, id)
		}
	}

	return len(c.entries)
}
