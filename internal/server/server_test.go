package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/tradeview-lab/tradeview/internal/configstore"
	"github.com/tradeview-lab/tradeview/internal/logger"
	"github.com/tradeview-lab/tradeview/internal/resolver"
	"github.com/tradeview-lab/tradeview/internal/strategy"
)

type ServerTestSuite struct {
	suite.Suite

	store  configstore.Store
	server *Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	log := logger.NewNopLogger()
	registry := strategy.NewDefaultRegistry()

	store, err := configstore.NewDuckDBStore(":memory:", registry, log)
	suite.Require().NoError(err)
	suite.store = store

	res := resolver.NewResolver(registry, store, log)
	suite.server = NewServer(registry, store, res, log)
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.store.Close()
}

func (suite *ServerTestSuite) do(method, path string, body any) (*httptest.ResponseRecorder, Response) {
	var reader *bytes.Reader

	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()
	suite.server.Router().ServeHTTP(recorder, req)

	var resp Response
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &resp))

	return recorder, resp
}

func (suite *ServerTestSuite) createConfig(params map[string]any) string {
	recorder, resp := suite.do(http.MethodPost, "/api/configs", map[string]any{
		"strategy": strategy.MACrossName,
		"name":     "tight cross",
		"params":   params,
	})

	suite.Require().Equal(http.StatusCreated, recorder.Code)
	suite.Require().True(resp.Success)

	record := suite.decodeRecord(resp)

	return record.ID
}

func (suite *ServerTestSuite) decodeRecord(resp Response) configstore.ConfigRecord {
	raw, err := json.Marshal(resp.Data)
	suite.Require().NoError(err)

	var record configstore.ConfigRecord
	suite.Require().NoError(json.Unmarshal(raw, &record))

	return record
}

func (suite *ServerTestSuite) TestListStrategies() {
	recorder, resp := suite.do(http.MethodGet, "/api/strategies", nil)

	suite.Equal(http.StatusOK, recorder.Code)
	suite.True(resp.Success)

	raw, err := json.Marshal(resp.Data)
	suite.Require().NoError(err)

	var infos []strategyInfo
	suite.Require().NoError(json.Unmarshal(raw, &infos))

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
		suite.NotEmpty(info.Params)
	}

	suite.Contains(names, strategy.MACrossName)
	suite.Contains(names, strategy.RSIReversalName)
}

func (suite *ServerTestSuite) TestGetUnknownStrategy() {
	recorder, resp := suite.do(http.MethodGet, "/api/strategies/momentum", nil)

	suite.Equal(http.StatusNotFound, recorder.Code)
	suite.False(resp.Success)
	suite.NotEmpty(resp.Message)
}

func (suite *ServerTestSuite) TestCreateAndGetConfig() {
	id := suite.createConfig(map[string]any{"fast_period": 3})

	recorder, resp := suite.do(http.MethodGet, "/api/configs/"+id, nil)

	suite.Equal(http.StatusOK, recorder.Code)
	record := suite.decodeRecord(resp)
	suite.Equal(id, record.ID)
	suite.Equal(strategy.MACrossName, record.Strategy)
}

func (suite *ServerTestSuite) TestCreateRejectsBadParams() {
	recorder, resp := suite.do(http.MethodPost, "/api/configs", map[string]any{
		"strategy": strategy.MACrossName,
		"name":     "broken",
		"params":   map[string]any{"fast_period": 9999},
	})

	suite.Equal(http.StatusBadRequest, recorder.Code)
	suite.False(resp.Success)
}

func (suite *ServerTestSuite) TestCreateUnknownStrategyIs404() {
	recorder, _ := suite.do(http.MethodPost, "/api/configs", map[string]any{
		"strategy": "momentum",
		"name":     "x",
		"params":   map[string]any{},
	})

	suite.Equal(http.StatusNotFound, recorder.Code)
}

func (suite *ServerTestSuite) TestSaveWithIDUpdates() {
	id := suite.createConfig(map[string]any{"fast_period": 3})

	recorder, resp := suite.do(http.MethodPost, "/api/configs", map[string]any{
		"id":       id,
		"strategy": strategy.MACrossName,
		"name":     "renamed",
		"params":   map[string]any{"fast_period": 4},
	})

	suite.Equal(http.StatusOK, recorder.Code)
	record := suite.decodeRecord(resp)
	suite.Equal(id, record.ID)
	suite.Equal("renamed", record.Name)
}

func (suite *ServerTestSuite) TestSaveWithMismatchedStrategyIs409() {
	id := suite.createConfig(map[string]any{"fast_period": 3})

	recorder, resp := suite.do(http.MethodPost, "/api/configs", map[string]any{
		"id":       id,
		"strategy": strategy.RSIReversalName,
		"name":     "wrong",
		"params":   map[string]any{},
	})

	suite.Equal(http.StatusConflict, recorder.Code)
	suite.False(resp.Success)
}

func (suite *ServerTestSuite) TestDeleteConfig() {
	id := suite.createConfig(map[string]any{"fast_period": 3})

	recorder, _ := suite.do(http.MethodDelete, "/api/configs/"+id, nil)
	suite.Equal(http.StatusOK, recorder.Code)

	recorder, _ = suite.do(http.MethodGet, "/api/configs/"+id, nil)
	suite.Equal(http.StatusNotFound, recorder.Code)
}

func (suite *ServerTestSuite) TestListConfigsFilteredByStrategy() {
	suite.createConfig(map[string]any{"fast_period": 3})

	recorder, resp := suite.do(http.MethodGet, "/api/configs?strategy="+strategy.RSIReversalName, nil)

	suite.Equal(http.StatusOK, recorder.Code)
	suite.True(resp.Success)
	suite.Nil(resp.Data)
}

func (suite *ServerTestSuite) TestExportThenImportMintsNewID() {
	id := suite.createConfig(map[string]any{"fast_period": 3})

	recorder, resp := suite.do(http.MethodGet, "/api/configs/"+id+"/export", nil)
	suite.Equal(http.StatusOK, recorder.Code)

	exported, err := json.Marshal(resp.Data)
	suite.Require().NoError(err)
	suite.NotContains(string(exported), id)

	recorder, resp = suite.do(http.MethodPost, "/api/configs/import", string(exported))
	suite.Equal(http.StatusCreated, recorder.Code)

	record := suite.decodeRecord(resp)
	suite.NotEmpty(record.ID)
	suite.NotEqual(id, record.ID)
}

func (suite *ServerTestSuite) TestImportGarbageIs400() {
	recorder, resp := suite.do(http.MethodPost, "/api/configs/import", "not json at all")

	suite.Equal(http.StatusBadRequest, recorder.Code)
	suite.False(resp.Success)
}

func (suite *ServerTestSuite) TestResolveParamsPreview() {
	id := suite.createConfig(map[string]any{"fast_period": 3})

	recorder, resp := suite.do(http.MethodGet, "/api/strategies/"+strategy.MACrossName+"/params?config_id="+id, nil)

	suite.Equal(http.StatusOK, recorder.Code)

	raw, err := json.Marshal(resp.Data)
	suite.Require().NoError(err)

	var params map[string]any
	suite.Require().NoError(json.Unmarshal(raw, &params))

	suite.EqualValues(3, params["fast_period"])
	suite.EqualValues(20, params["slow_period"])
	suite.Equal("SMA", params["ma_type"])
}

func (suite *ServerTestSuite) TestResolveWithWrongStrategyIs409() {
	id := suite.createConfig(map[string]any{"fast_period": 3})

	recorder, _ := suite.do(http.MethodGet, "/api/strategies/"+strategy.RSIReversalName+"/params?config_id="+id, nil)

	suite.Equal(http.StatusConflict, recorder.Code)
}

func (suite *ServerTestSuite) TestResolveMissingConfigIs404() {
	recorder, _ := suite.do(http.MethodGet, "/api/strategies/"+strategy.MACrossName+"/params?config_id=nope", nil)

	suite.Equal(http.StatusNotFound, recorder.Code)
}

func (suite *ServerTestSuite) TestBacktestRequiresStrategyAndData() {
	recorder, resp := suite.do(http.MethodPost, "/api/backtest", map[string]any{
		"initial_capital": 10000,
	})

	suite.Equal(http.StatusBadRequest, recorder.Code)
	suite.False(resp.Success)
}

func (suite *ServerTestSuite) TestBacktestRunsOverCSV() {
	id := suite.createConfig(map[string]any{"fast_period": 2, "slow_period": 3})

	csv := `time,symbol,open,high,low,close,volume
2024-01-01 00:00:00,AAPL,10,10,10,10,1000
2024-01-01 01:00:00,AAPL,9,9,9,9,1000
2024-01-01 02:00:00,AAPL,8,8,8,8,1000
2024-01-01 03:00:00,AAPL,12,12,12,12,1000
2024-01-01 04:00:00,AAPL,5,5,5,5,1000
2024-01-01 05:00:00,AAPL,4,4,4,4,1000
`

	path := filepath.Join(suite.T().TempDir(), "bars.csv")
	suite.Require().NoError(os.WriteFile(path, []byte(csv), 0644))

	recorder, resp := suite.do(http.MethodPost, "/api/backtest", map[string]any{
		"strategy":        strategy.MACrossName,
		"config_id":       id,
		"data_path":       path,
		"initial_capital": 10000,
	})

	suite.Require().Equal(http.StatusOK, recorder.Code)
	suite.True(resp.Success)

	raw, err := json.Marshal(resp.Data)
	suite.Require().NoError(err)

	var result backtestResponse
	suite.Require().NoError(json.Unmarshal(raw, &result))

	suite.Equal("AAPL", result.Stats.Symbol)
	suite.Equal(id, result.Stats.Strategy.ConfigID)
	suite.Len(result.Trades, 2)
	suite.Len(result.EquityCurve, 6)
}

func (suite *ServerTestSuite) TestListConfigsUnfiltered() {
	first := suite.createConfig(map[string]any{"fast_period": 3})
	second := suite.createConfig(map[string]any{"fast_period": 4})

	recorder, resp := suite.do(http.MethodGet, "/api/configs", nil)
	suite.Equal(http.StatusOK, recorder.Code)

	raw, err := json.Marshal(resp.Data)
	suite.Require().NoError(err)

	var records []configstore.ConfigRecord
	suite.Require().NoError(json.Unmarshal(raw, &records))

	suite.Require().Len(records, 2)
	suite.Equal(first, records[0].ID)
	suite.Equal(second, records[1].ID)
}

func (suite *ServerTestSuite) TestDuplicateConfig() {
	id := suite.createConfig(map[string]any{"fast_period": 3})

	recorder, resp := suite.do(http.MethodPost, "/api/configs/"+id+"/duplicate", nil)

	suite.Equal(http.StatusCreated, recorder.Code)
	suite.True(resp.Success)

	record := suite.decodeRecord(resp)
	suite.NotEqual(id, record.ID)
	suite.Equal("tight cross (copy)", record.Name)
	suite.Equal(strategy.MACrossName, record.Strategy)

	listRecorder, listResp := suite.do(http.MethodGet, "/api/configs", nil)
	suite.Equal(http.StatusOK, listRecorder.Code)

	raw, err := json.Marshal(listResp.Data)
	suite.Require().NoError(err)

	var records []configstore.ConfigRecord
	suite.Require().NoError(json.Unmarshal(raw, &records))
	suite.Len(records, 2)
}

func (suite *ServerTestSuite) TestDuplicateConfigWithName() {
	id := suite.createConfig(map[string]any{"fast_period": 3})

	recorder, resp := suite.do(http.MethodPost, "/api/configs/"+id+"/duplicate?name=wider+cross", nil)

	suite.Equal(http.StatusCreated, recorder.Code)

	record := suite.decodeRecord(resp)
	suite.Equal("wider cross", record.Name)
}

func (suite *ServerTestSuite) TestDuplicateMissingConfig() {
	recorder, resp := suite.do(http.MethodPost, "/api/configs/no-such-id/duplicate", nil)

	suite.Equal(http.StatusNotFound, recorder.Code)
	suite.False(resp.Success)
}
