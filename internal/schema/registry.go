package schema

import (
	"sort"
	"sync"

	"github.com/tradeview-lab/tradeview/pkg/errors"
)

// Provider is the read side of the schema registry. ConfigStore and
// ConfigResolver depend on this interface rather than the registry itself.
type Provider interface {
	// Describe returns the parameter specs of a registered strategy.
	Describe(strategy string) ([]ParamSpec, error)
	// Validate checks a sparse override mapping against the strategy's specs
	// and returns the mapping with every value in its canonical kind.
	Validate(strategy string, params Params) (Params, error)
	// List returns all registered strategy names in lexical order.
	List() []string
}

type entry struct {
	specs       []ParamSpec
	description string
}

// Registry manages the parameter schemas of all registered strategies.
type Registry struct {
	strategies map[string]entry
	mu         sync.RWMutex
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]entry),
	}
}

// Register adds a strategy's parameter specs to the registry. The spec set
// must be non-empty, key-unique and carry defaults that pass their own
// validation.
func (r *Registry) Register(strategy, description string, specs []ParamSpec) error {
	if len(specs) == 0 {
		return errors.Newf(errors.ErrCodeEmptySchema, "strategy %q declares no parameters", strategy)
	}

	seen := make(map[string]struct{}, len(specs))

	for _, spec := range specs {
		if _, dup := seen[spec.Key]; dup {
			return errors.Newf(errors.ErrCodeValidation,
				"strategy %q declares parameter %q twice", strategy, spec.Key)
		}

		seen[spec.Key] = struct{}{}

		if _, err := spec.Validate(spec.Default); err != nil {
			return errors.Wrapf(errors.ErrCodeValidation, err,
				"strategy %q has an invalid default for %q", strategy, spec.Key)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[strategy]; exists {
		return errors.Newf(errors.ErrCodeValidation, "strategy %q already registered", strategy)
	}

	r.strategies[strategy] = entry{specs: specs, description: description}

	return nil
}

// Describe implements Provider.
func (r *Registry) Describe(strategy string) ([]ParamSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.strategies[strategy]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "strategy %q is not registered", strategy)
	}

	specs := make([]ParamSpec, len(e.specs))
	copy(specs, e.specs)

	return specs, nil
}

// Description returns the human-readable description of a strategy.
func (r *Registry) Description(strategy string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.strategies[strategy]
	if !exists {
		return "", errors.Newf(errors.ErrCodeUnknownStrategy, "strategy %q is not registered", strategy)
	}

	return e.description, nil
}

// Validate implements Provider. Unknown keys and out-of-range values are
// rejected, never silently dropped.
func (r *Registry) Validate(strategy string, params Params) (Params, error) {
	specs, err := r.Describe(strategy)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]ParamSpec, len(specs))
	for _, spec := range specs {
		byKey[spec.Key] = spec
	}

	validated := make(Params, len(params))

	for key, value := range params {
		spec, known := byKey[key]
		if !known {
			return nil, errors.Newf(errors.ErrCodeUnknownParameter,
				"strategy %q has no parameter %q", strategy, key)
		}

		normalized, err := spec.Validate(value)
		if err != nil {
			return nil, err
		}

		validated[key] = normalized
	}

	return validated, nil
}

// List implements Provider.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
