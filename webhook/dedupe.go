package webhook

import (
	"sync"
	"time"
)

// dedupeSet remembers recently seen event ids. VK redelivers Callback
// API events until it gets an "ok", so replays within the TTL window
// must be dropped.
type dedupeSet struct {
	mu    sync.Mutex
	ttl   time.Duration
	seen  map[string]time.Time
	now   func() time.Time
	sweep int
}

func newDedupeSet(ttl time.Duration) *dedupeSet {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &dedupeSet{
		ttl:  ttl,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Add records id and reports whether it was new within the TTL window.
func (d *dedupeSet) Add(id string) bool {
	if id == "" {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.sweep++
	if d.sweep >= 256 {
		d.sweep = 0
		for k, at := range d.seen {
			if now.Sub(at) > d.ttl {
				delete(d.seen, k)
			}
		}
	}

	if at, ok := d.seen[id]; ok && now.Sub(at) <= d.ttl {
		return false
	}
	d.seen[id] = now
	return true
}
