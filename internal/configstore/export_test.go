package configstore

import (
	"encoding/json"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"github.com/tradeview-lab/tradeview/internal/logger"
	"github.com/tradeview-lab/tradeview/internal/schema"
	"github.com/tradeview-lab/tradeview/internal/version"
	"github.com/tradeview-lab/tradeview/pkg/errors"
)

type ExportTestSuite struct {
	suite.Suite
	store *DuckDBStore
}

func TestExportSuite(t *testing.T) {
	suite.Run(t, new(ExportTestSuite))
}

func (suite *ExportTestSuite) SetupTest() {
	registry := schema.NewRegistry()
	err := registry.Register("ema_cross", "EMA crossover", []schema.ParamSpec{
		{Key: "fast", Type: schema.ParamTypeInt, Default: schema.IntValue(12), Min: optional.Some(2.0), Max: optional.Some(50.0)},
		{Key: "slow", Type: schema.ParamTypeInt, Default: schema.IntValue(26), Min: optional.Some(5.0), Max: optional.Some(200.0)},
	})
	suite.Require().NoError(err)

	suite.store, err = NewDuckDBStore(":memory:", registry, logger.NewNopLogger())
	suite.Require().NoError(err)
}

func (suite *ExportTestSuite) TearDownTest() {
	if suite.store != nil {
		suite.store.Close()
	}
}

func (suite *ExportTestSuite) TestExportExcludesIDAndTimestamps() {
	created, err := suite.store.Create("ema_cross", "tight",
		schema.Params{"fast": schema.IntValue(5)}, optional.Some("AAPL"), optional.Some("scalp"))
	suite.Require().NoError(err)

	serialized, err := suite.store.Export(created.ID)
	suite.NoError(err)

	var raw map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(serialized), &raw))
	suite.NotContains(raw, "id")
	suite.NotContains(raw, "created_at")
	suite.NotContains(raw, "updated_at")
	suite.Equal("ema_cross", raw["strategy"])
	suite.Equal(version.ExportFormatVersion, raw["format_version"])
}

func (suite *ExportTestSuite) TestExportNotFound() {
	_, err := suite.store.Export("missing")
	suite.True(errors.HasCode(err, errors.ErrCodeNotFound))
}

func (suite *ExportTestSuite) TestRoundTripProducesFreshID() {
	created, err := suite.store.Create("ema_cross", "tight",
		schema.Params{"fast": schema.IntValue(5)}, optional.Some("AAPL"), optional.Some("scalp"))
	suite.Require().NoError(err)

	serialized, err := suite.store.Export(created.ID)
	suite.Require().NoError(err)

	imported, err := suite.store.Import(serialized)
	suite.NoError(err)
	suite.NotEqual(created.ID, imported.ID)
	suite.Equal(created.Strategy, imported.Strategy)
	suite.Equal(created.Name, imported.Name)
	suite.Equal("AAPL", imported.Symbol.Unwrap())
	suite.Equal("scalp", imported.Description.Unwrap())
	suite.True(imported.Params["fast"].Equal(schema.IntValue(5)))

	// Both records exist independently afterwards.
	records, err := suite.store.List(optional.Some("ema_cross"))
	suite.NoError(err)
	suite.Len(records, 2)
}

func (suite *ExportTestSuite) TestImportIgnoresEmbeddedID() {
	payload := `{
		"format_version": "1.0.0",
		"id": "looks-like-an-id",
		"strategy": "ema_cross",
		"name": "from-elsewhere",
		"params": {"fast": 9}
	}`

	imported, err := suite.store.Import(payload)
	suite.NoError(err)
	suite.NotEqual("looks-like-an-id", imported.ID)
	suite.True(imported.Params["fast"].Equal(schema.IntValue(9)))
}

func (suite *ExportTestSuite) TestImportLegacyEnvelopeWithoutVersion() {
	payload := `{"strategy": "ema_cross", "name": "legacy", "params": {"slow": 40}}`

	imported, err := suite.store.Import(payload)
	suite.NoError(err)
	suite.True(imported.Params["slow"].Equal(schema.IntValue(40)))
}

func (suite *ExportTestSuite) TestImportRevalidates() {
	payload := `{"strategy": "ema_cross", "name": "bad", "params": {"fast": 9999}}`

	_, err := suite.store.Import(payload)
	suite.True(errors.HasCode(err, errors.ErrCodeOutOfBounds))
}

func (suite *ExportTestSuite) TestImportUnknownStrategy() {
	payload := `{"strategy": "ghost", "name": "x", "params": {}}`

	_, err := suite.store.Import(payload)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownStrategy))
}

func (suite *ExportTestSuite) TestImportMissingFields() {
	_, err := suite.store.Import(`{"name": "x", "params": {}}`)
	suite.True(errors.HasCode(err, errors.ErrCodeImportFailed))

	_, err = suite.store.Import(`{"strategy": "ema_cross", "name": "x"}`)
	suite.True(errors.HasCode(err, errors.ErrCodeImportFailed))
}

func (suite *ExportTestSuite) TestImportMalformedJSON() {
	_, err := suite.store.Import(`{not json`)
	suite.True(errors.HasCode(err, errors.ErrCodeImportFailed))
}

func (suite *ExportTestSuite) TestImportIncompatibleFormat() {
	payload := `{"format_version": "2.0.0", "strategy": "ema_cross", "name": "x", "params": {}}`

	_, err := suite.store.Import(payload)
	suite.True(errors.HasCode(err, errors.ErrCodeFormatIncompatible))
}
