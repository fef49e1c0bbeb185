// Package strategy holds the built-in trading strategies and their parameter
// schemas. A strategy and its schema register together, so the schema registry
// can never drift from the implementations.
package strategy

import (
	"sync"

	"github.com/tradeview-lab/tradeview/internal/schema"
	"github.com/tradeview-lab/tradeview/internal/types"
	"github.com/tradeview-lab/tradeview/pkg/errors"
)

// Strategy is a stateful trading decision procedure. Feed it bars in order
// via OnBar; after each bar, Signal reports the action for that bar.
// Implementations are not safe for concurrent use; build one instance per run.
type Strategy interface {
	// Name returns the registered strategy name.
	Name() string
	// OnBar consumes the next bar.
	OnBar(bar types.MarketData) error
	// Signal returns the signal produced by the most recent bar.
	Signal() types.Signal
	// Indicators returns the current indicator values, for display.
	Indicators() map[string]float64
	// Reset clears all bar-derived state so the instance can be reused.
	Reset()
}

// Factory builds a strategy instance from an effective parameter mapping.
// The mapping always covers every schema key, so factories read values
// without re-validating.
type Factory func(params schema.EffectiveParams) Strategy

// Registry binds strategy names to factories and parameter schemas. It embeds
// a schema.Registry, so it satisfies schema.Provider for the config store and
// the resolver.
type Registry struct {
	*schema.Registry

	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{
		Registry:  schema.NewRegistry(),
		factories: make(map[string]Factory),
	}
}

// Register adds a strategy with its parameter schema and factory.
func (r *Registry) Register(name, description string, specs []schema.ParamSpec, factory Factory) error {
	if err := r.Registry.Register(name, description, specs); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory

	return nil
}

// Build creates a strategy instance from resolved effective parameters.
func (r *Registry) Build(name string, params schema.EffectiveParams) (Strategy, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "strategy %q is not registered", name)
	}

	return factory(params), nil
}

// NewDefaultRegistry returns a registry with all built-in strategies.
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()

	// Registration of built-ins cannot fail: names and keys are unique and
	// defaults are in bounds. Panic loudly if a refactor breaks that.
	mustRegister(registry, registerMACross)
	mustRegister(registry, registerRSIReversal)

	return registry
}

func mustRegister(registry *Registry, register func(*Registry) error) {
	if err := register(registry); err != nil {
		panic(err)
	}
}
