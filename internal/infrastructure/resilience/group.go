package resilience

import (
	"sync"
	"time"
)

// Group hands out one breaker per key, typically a remote host
type Group struct {
	settings Settings
	now      func() time.Time

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewGroup creates an empty group sharing settings across its breakers
func NewGroup(settings Settings) *Group {
	return &Group{
		settings: settings,
		now:      time.Now,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for key, creating it on first use
func (g *Group) Get(key string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.breakers[key]
	if !ok {
		b = newBreaker(key, g.settings, g.now)
		g.breakers[key] = b
	}
	return b
}

// Do runs fn through the breaker for key
func (g *Group) Do(key string, fn func() error) error {
	return g.Get(key).Do(fn)
}

// States reports the state of every known breaker
func (g *Group) States() map[string]State {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]State, len(g.breakers))
	for k, b := range g.breakers {
		out[k] = b.State()
	}
	return out
}
