package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/lending/journal"
)

// DefaultHookTimeout bounds a single hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onLended            []OnLended
	onDurationIncreased []OnDurationIncreased
	onBorrowed          []OnBorrowed
	onReleased          []OnReleased
	onRewardDeposited   []OnRewardDeposited
	onRewardClaimed     []OnRewardClaimed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnLended); ok {
		r.onLended = append(r.onLended, v)
		hooks = append(hooks, "OnLended")
	}
	if v, ok := p.(OnDurationIncreased); ok {
		r.onDurationIncreased = append(r.onDurationIncreased, v)
		hooks = append(hooks, "OnDurationIncreased")
	}
	if v, ok := p.(OnBorrowed); ok {
		r.onBorrowed = append(r.onBorrowed, v)
		hooks = append(hooks, "OnBorrowed")
	}
	if v, ok := p.(OnReleased); ok {
		r.onReleased = append(r.onReleased, v)
		hooks = append(hooks, "OnReleased")
	}
	if v, ok := p.(OnRewardDeposited); ok {
		r.onRewardDeposited = append(r.onRewardDeposited, v)
		hooks = append(hooks, "OnRewardDeposited")
	}
	if v, ok := p.(OnRewardClaimed); ok {
		r.onRewardClaimed = append(r.onRewardClaimed, v)
		hooks = append(hooks, "OnRewardClaimed")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, l any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	dispatch(ctx, r, "OnInit", plugins, func(p OnInit) error { return p.OnInit(ctx, l) })
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	dispatch(ctx, r, "OnShutdown", plugins, func(p OnShutdown) error { return p.OnShutdown(ctx) })
}

// EmitEntry routes a committed journal entry to the hooks of its kind.
func (r *Registry) EmitEntry(ctx context.Context, e *journal.Entry) {
	r.mu.RLock()
	var (
		lended    = r.onLended
		increased = r.onDurationIncreased
		borrowed  = r.onBorrowed
		released  = r.onReleased
		deposited = r.onRewardDeposited
		claimed   = r.onRewardClaimed
	)
	r.mu.RUnlock()

	switch e.Kind {
	case journal.KindLended:
		dispatch(ctx, r, "OnLended", lended, func(p OnLended) error { return p.OnLended(ctx, e) })
	case journal.KindDurationIncreased:
		dispatch(ctx, r, "OnDurationIncreased", increased, func(p OnDurationIncreased) error { return p.OnDurationIncreased(ctx, e) })
	case journal.KindBorrowed:
		dispatch(ctx, r, "OnBorrowed", borrowed, func(p OnBorrowed) error { return p.OnBorrowed(ctx, e) })
	case journal.KindReleased:
		dispatch(ctx, r, "OnReleased", released, func(p OnReleased) error { return p.OnReleased(ctx, e) })
	case journal.KindRewardDeposited:
		dispatch(ctx, r, "OnRewardDeposited", deposited, func(p OnRewardDeposited) error { return p.OnRewardDeposited(ctx, e) })
	case journal.KindRewardClaimed:
		dispatch(ctx, r, "OnRewardClaimed", claimed, func(p OnRewardClaimed) error { return p.OnRewardClaimed(ctx, e) })
	default:
		r.logger.Warn("plugin: unknown journal kind", "kind", e.Kind)
	}
}

// EmitEntries emits each entry in order.
func (r *Registry) EmitEntries(ctx context.Context, entries []*journal.Entry) {
	for _, e := range entries {
		r.EmitEntry(ctx, e)
	}
}

// dispatch calls hook on each plugin. Failures are logged, never returned:
// hooks must not affect a committed operation.
func dispatch[P Plugin](ctx context.Context, r *Registry, hook string, plugins []P, call func(P) error) {
	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return call(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the lending pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
