// Package resolver computes effective parameters for a strategy and an
// optional config id: explicit overrides merged onto schema defaults.
package resolver

import (
	"github.com/tradeview-lab/tradeview/internal/configstore"
	"github.com/tradeview-lab/tradeview/internal/logger"
	"github.com/tradeview-lab/tradeview/internal/schema"
	"github.com/tradeview-lab/tradeview/pkg/errors"
	"go.uber.org/zap"
)

// Resolver merges ConfigRecord overrides onto ParameterSchema defaults.
// Resolution is read-only and safe for any number of concurrent callers.
type Resolver struct {
	schema schema.Provider
	store  configstore.Store
	logger *logger.Logger
}

// NewResolver creates a resolver over the given schema provider and store.
func NewResolver(schemaProvider schema.Provider, store configstore.Store, logger *logger.Logger) *Resolver {
	return &Resolver{
		schema: schemaProvider,
		store:  store,
		logger: logger,
	}
}

// Resolve returns the effective parameter mapping for the strategy. An empty
// configID yields the schema defaults verbatim. Keys stored in the config but
// absent from the current schema are dropped with a warning: strategies
// evolve, and pinned configs must keep resolving. Do not turn the drop into
// an error without confirming nobody relies on old configs.
func (r *Resolver) Resolve(strategy, configID string) (schema.EffectiveParams, error) {
	specs, err := r.schema.Describe(strategy)
	if err != nil {
		return nil, err
	}

	effective := schema.Defaults(specs)

	if configID == "" {
		return effective, nil
	}

	record, err := r.store.Get(configID)
	if err != nil {
		return nil, err
	}

	if record.Strategy != strategy {
		return nil, errors.Newf(errors.ErrCodeStrategyMismatch,
			"config %s belongs to strategy %q, not %q", configID, record.Strategy, strategy)
	}

	for key, value := range record.Params {
		if _, known := effective[key]; !known {
			r.logger.Warn("dropping stale parameter key during resolution",
				zap.String("strategy", strategy),
				zap.String("config_id", configID),
				zap.String("key", key))

			continue
		}

		effective[key] = value
	}

	return effective, nil
}
