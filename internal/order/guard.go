package order

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultDuplicateWindow = 15 * time.Second
	DefaultGuardSize       = 10000
)

// Guard remembers recently accepted cart fingerprints for a short window.
// It is process-local and best-effort: entries do not survive a restart and
// are not shared between instances. When full, the least recently seen
// fingerprint is evicted.
type Guard struct {
	mu     sync.Mutex
	seen   *lru.Cache[string, time.Time]
	window time.Duration
	now    func() time.Time
}

func NewGuard(size int, window time.Duration, now func() time.Time) (*Guard, error) {
	if size <= 0 {
		size = DefaultGuardSize
	}
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	if now == nil {
		now = time.Now
	}

	cache, err := lru.New[string, time.Time](size)
	if err != nil {
		return nil, err
	}
	return &Guard{seen: cache, window: window, now: now}, nil
}

// CheckAndRegister returns false when fingerprint was accepted less than
// one window ago. Otherwise it records fingerprint and returns true.
func (g *Guard) CheckAndRegister(fingerprint string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if first, ok := g.seen.Peek(fingerprint); ok && now.Sub(first) < g.window {
		return false
	}
	g.seen.Add(fingerprint, now)
	return true
}

// Release forgets fingerprint so an order that failed can be resubmitted.
func (g *Guard) Release(fingerprint string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen.Remove(fingerprint)
}

// Sweep drops expired fingerprints and returns how many were removed.
func (g *Guard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for _, key := range g.seen.Keys() {
		if first, ok := g.seen.Peek(key); ok && now.Sub(first) >= g.window {
			g.seen.Remove(key)
			removed++
		}
	}
	return removed
}

func (g *Guard) Len() int {
	return g.seen.Len()
}

// Run sweeps once per window until ctx is done.
func (g *Guard) Run(ctx context.Context) {
	ticker := time.NewTicker(g.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Sweep()
		}
	}
}
