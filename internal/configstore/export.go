package configstore

import (
	"encoding/json"

	"github.com/moznion/go-optional"
	"github.com/tradeview-lab/tradeview/internal/schema"
	"github.com/tradeview-lab/tradeview/internal/version"
	"github.com/tradeview-lab/tradeview/pkg/errors"
)

// ExportEnvelope is the self-contained serialized form of a config. It
// deliberately excludes the id and timestamps: importing always mints a new
// record and never collides with an existing one.
type ExportEnvelope struct {
	FormatVersion string                  `json:"format_version"`
	Strategy      string                  `json:"strategy"`
	Name          string                  `json:"name"`
	Params        schema.Params           `json:"params"`
	Symbol        optional.Option[string] `json:"symbol,omitempty"`
	Description   optional.Option[string] `json:"description,omitempty"`
}

// Export implements Store.
func (s *DuckDBStore) Export(id string) (string, error) {
	record, err := s.Get(id)
	if err != nil {
		return "", err
	}

	envelope := ExportEnvelope{
		FormatVersion: version.ExportFormatVersion,
		Strategy:      record.Strategy,
		Name:          record.Name,
		Params:        record.Params,
		Symbol:        record.Symbol,
		Description:   record.Description,
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to encode export envelope", err)
	}

	return string(data), nil
}

// Import implements Store. The envelope is re-validated exactly as Create
// does; any id or timestamps embedded in the payload are ignored.
func (s *DuckDBStore) Import(serialized string) (ConfigRecord, error) {
	var envelope ExportEnvelope
	if err := json.Unmarshal([]byte(serialized), &envelope); err != nil {
		return ConfigRecord{}, errors.Wrap(errors.ErrCodeImportFailed, "invalid config JSON", err)
	}

	if envelope.Strategy == "" {
		return ConfigRecord{}, errors.New(errors.ErrCodeImportFailed, "serialized config is missing the strategy field")
	}

	if envelope.Params == nil {
		return ConfigRecord{}, errors.New(errors.ErrCodeImportFailed, "serialized config is missing the params field")
	}

	if err := version.CheckFormatCompatibility(envelope.FormatVersion); err != nil {
		return ConfigRecord{}, errors.Wrap(errors.ErrCodeFormatIncompatible, "unsupported export format", err)
	}

	return s.Create(envelope.Strategy, envelope.Name, envelope.Params, envelope.Symbol, envelope.Description)
}
