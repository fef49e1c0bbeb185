package configstore

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/tradeview-lab/tradeview/internal/schema"
)

// ConfigRecord is a saved, strategy-scoped, optionally symbol-bound named
// parameter override set.
type ConfigRecord struct {
	// ID is an opaque unique identifier, assigned at creation, never reused.
	ID string `json:"id"`
	// Strategy the record is scoped to. Immutable after creation.
	Strategy string `json:"strategy"`
	// Name is a display string. Uniqueness is not enforced; lookup is by id only.
	Name string `json:"name"`
	// Params holds only the keys the user explicitly overrode.
	Params schema.Params `json:"params"`
	// Symbol optionally binds the record to an instrument for UI convenience.
	// Binding does not restrict resolver use.
	Symbol optional.Option[string] `json:"symbol,omitempty"`
	// Description is an optional free-form note.
	Description optional.Option[string] `json:"description,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// Store persists named configuration records.
type Store interface {
	// Create validates params against the strategy's schema, assigns a fresh
	// id, sets timestamps and persists the record.
	Create(strategy, name string, params schema.Params, symbol, description optional.Option[string]) (ConfigRecord, error)
	// Get returns the record with the given id, or NotFound.
	Get(id string) (ConfigRecord, error)
	// List returns records in insertion order, oldest first, optionally
	// filtered by strategy.
	List(strategy optional.Option[string]) ([]ConfigRecord, error)
	// Update replaces name, params, symbol and description of an existing
	// record. The strategy is not updatable.
	Update(id, name string, params schema.Params, symbol, description optional.Option[string]) (ConfigRecord, error)
	// Duplicate copies an existing record under a fresh id. When newName is
	// absent the copy is named after the original with a " (copy)" suffix.
	Duplicate(id string, newName optional.Option[string]) (ConfigRecord, error)
	// Delete removes a record permanently. Absent ids surface NotFound.
	Delete(id string) error
	// Export serializes a record without its id and timestamps.
	Export(id string) (string, error)
	// Import re-validates a serialized record and persists it under a new id.
	Import(serialized string) (ConfigRecord, error)
	// Close releases the underlying storage.
	Close() error
}
