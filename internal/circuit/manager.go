// Package circuit provides a per-venue circuit breaker manager built on
// sony/gobreaker, generalizing infra/breakers/breakers.go's single-breaker
// wrapper into a keyed Manager in the style of
// internal/net/circuit/circuit.go's multi-provider Manager.
package circuit

import (
	"context"
	"sync"

	"github.com/sony/gobreaker"
)

// Manager owns one gobreaker.CircuitBreaker per named venue, lazily created
// on first use so callers never need an explicit registration step.
type Manager struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewManager returns an empty breaker manager.
func NewManager() *Manager {
	return &Manager{breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

func (m *Manager) breakerFor(name string) *gobreaker.CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.breakers[name]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.3)
		},
	})
	m.breakers[name] = b
	return b
}

// Call routes fn through the named venue's breaker. A tripped breaker
// returns gobreaker.ErrOpenState without invoking fn, which the scheduler
// treats the same as any other connector failure.
func (m *Manager) Call(ctx context.Context, venue string, fn func(ctx context.Context) error) error {
	b := m.breakerFor(venue)
	_, err := b.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}

// State returns the current state of the named venue's breaker, "closed" if
// it has never been used.
func (m *Manager) State(venue string) gobreaker.State {
	m.mu.Lock()
	b, ok := m.breakers[venue]
	m.mu.Unlock()
	if !ok {
		return gobreaker.StateClosed
	}
	return b.State()
}
