package session

import "sync"

// Guard grants exclusive access to a shared value.
type Guard[T any] struct {
	mu sync.Mutex
	v  T
}

// NewGuard wraps v.
func NewGuard[T any](v T) *Guard[T] {
	return &Guard[T]{v: v}
}

// Do runs fn while holding the guard. The guard is released even if fn panics.
func (g *Guard[T]) Do(fn func(T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.v)
}

// Replace swaps the guarded value and returns the previous one.
func (g *Guard[T]) Replace(v T) T {
	g.mu.Lock()
	defer g.mu.Unlock()
	old := g.v
	g.v = v
	return old
}
