package gate

import (
	"context"
	"sync"
	"time"
)

// Registry hands out one Gate per client so that last-route-wins
// tracking, cached session, and state never cross principals: one
// admin's navigation must not supersede another's in-flight evaluation.
// Clients are keyed by their raw credential; gates idle past maxIdle
// are dropped on the next access.
type Registry struct {
	resolver SessionSource
	opts     []Option
	maxIdle  time.Duration

	mu    sync.Mutex
	gates map[string]*registryEntry
}

type registryEntry struct {
	gate     *Gate
	lastSeen time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxIdle overrides how long an untouched client gate is kept.
func WithMaxIdle(d time.Duration) RegistryOption {
	return func(r *Registry) { r.maxIdle = d }
}

// NewRegistry creates a per-client gate registry. The gate options are
// applied to every gate it creates.
func NewRegistry(resolver SessionSource, gateOpts []Option, opts ...RegistryOption) *Registry {
	r := &Registry{
		resolver: resolver,
		opts:     gateOpts,
		maxIdle:  time.Hour,
		gates:    make(map[string]*registryEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// For returns the client's gate, creating it on first use.
func (r *Registry) For(client string) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for k, e := range r.gates {
		if now.Sub(e.lastSeen) > r.maxIdle {
			delete(r.gates, k)
		}
	}

	e, ok := r.gates[client]
	if !ok {
		e = &registryEntry{gate: New(r.resolver, r.opts...)}
		r.gates[client] = e
	}
	e.lastSeen = now
	return e.gate
}

// Evaluate runs the navigation on the client's own gate. An anonymous
// caller carries no navigation state to supersede, so each of its
// requests stands alone.
func (r *Registry) Evaluate(ctx context.Context, client, route string) (Evaluation, error) {
	if client == "" {
		return New(r.resolver, r.opts...).Evaluate(ctx, route)
	}
	return r.For(client).Evaluate(ctx, route)
}
