package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/moznion/go-optional"
	"github.com/tradeview-lab/tradeview/internal/backtest"
	"github.com/tradeview-lab/tradeview/internal/backtest/datasource"
	"github.com/tradeview-lab/tradeview/internal/schema"
	"github.com/tradeview-lab/tradeview/internal/types"
	"github.com/tradeview-lab/tradeview/pkg/errors"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; config documents are small.
const maxBodyBytes = 1 << 20

type strategyInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Params      []schema.ParamSpec `json:"params"`
}

func (s *Server) describeStrategy(name string) (strategyInfo, error) {
	specs, err := s.registry.Describe(name)
	if err != nil {
		return strategyInfo{}, err
	}

	description, err := s.registry.Description(name)
	if err != nil {
		return strategyInfo{}, err
	}

	return strategyInfo{Name: name, Description: description, Params: specs}, nil
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	names := s.registry.List()
	infos := make([]strategyInfo, 0, len(names))

	for _, name := range names {
		info, err := s.describeStrategy(name)
		if err != nil {
			writeError(w, err)

			return
		}

		infos = append(infos, info)
	}

	writeData(w, http.StatusOK, infos)
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	info, err := s.describeStrategy(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)

		return
	}

	writeData(w, http.StatusOK, info)
}

// handleResolveParams previews the effective parameters a run would use:
// schema defaults merged with the overrides of an optional stored config.
func (s *Server) handleResolveParams(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	configID := r.URL.Query().Get("config_id")

	params, err := s.resolver.Resolve(name, configID)
	if err != nil {
		writeError(w, err)

		return
	}

	writeData(w, http.StatusOK, params)
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	filter := optional.None[string]()
	if name := r.URL.Query().Get("strategy"); name != "" {
		filter = optional.Some(name)
	}

	records, err := s.store.List(filter)
	if err != nil {
		writeError(w, err)

		return
	}

	writeData(w, http.StatusOK, records)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)

		return
	}

	writeData(w, http.StatusOK, record)
}

type saveConfigRequest struct {
	// ID distinguishes update (present) from create (absent).
	ID          string        `json:"id,omitempty"`
	Strategy    string        `json:"strategy"`
	Name        string        `json:"name"`
	Params      schema.Params `json:"params"`
	Symbol      *string       `json:"symbol,omitempty"`
	Description *string       `json:"description,omitempty"`
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var req saveConfigRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)

		return
	}

	symbol := optional.FromNillable(req.Symbol)
	description := optional.FromNillable(req.Description)

	if req.ID == "" {
		record, err := s.store.Create(req.Strategy, req.Name, req.Params, symbol, description)
		if err != nil {
			writeError(w, err)

			return
		}

		writeData(w, http.StatusCreated, record)

		return
	}

	existing, err := s.store.Get(req.ID)
	if err != nil {
		writeError(w, err)

		return
	}

	if req.Strategy != "" && req.Strategy != existing.Strategy {
		writeError(w, errors.Newf(errors.ErrCodeStrategyMismatch,
			"config %s belongs to strategy %q, not %q", req.ID, existing.Strategy, req.Strategy))

		return
	}

	record, err := s.store.Update(req.ID, req.Name, req.Params, symbol, description)
	if err != nil {
		writeError(w, err)

		return
	}

	writeData(w, http.StatusOK, record)
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.store.Delete(id); err != nil {
		writeError(w, err)

		return
	}

	writeMessage(w, http.StatusOK, "config deleted")
}

// handleDuplicateConfig copies a stored config under a fresh id. An optional
// "name" query parameter overrides the default "<original> (copy)" name.
func (s *Server) handleDuplicateConfig(w http.ResponseWriter, r *http.Request) {
	newName := optional.None[string]()
	if name := r.URL.Query().Get("name"); name != "" {
		newName = optional.Some(name)
	}

	record, err := s.store.Duplicate(mux.Vars(r)["id"], newName)
	if err != nil {
		writeError(w, err)

		return
	}

	writeData(w, http.StatusCreated, record)
}

func (s *Server) handleExportConfig(w http.ResponseWriter, r *http.Request) {
	serialized, err := s.store.Export(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)

		return
	}

	writeData(w, http.StatusOK, json.RawMessage(serialized))
}

// handleImportConfig takes a previously exported document as the request body
// and persists it under a fresh id.
func (s *Server) handleImportConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to read request body", err))

		return
	}

	record, err := s.store.Import(string(body))
	if err != nil {
		writeError(w, err)

		return
	}

	writeData(w, http.StatusCreated, record)
}

type backtestRequest struct {
	Strategy       string     `json:"strategy"`
	ConfigID       string     `json:"config_id,omitempty"`
	DataPath       string     `json:"data_path"`
	InitialCapital float64    `json:"initial_capital"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
}

type backtestResponse struct {
	Stats       types.TradeStats    `json:"stats"`
	Trades      []types.Trade       `json:"trades"`
	EquityCurve []types.EquityPoint `json:"equity_curve"`
}

func (s *Server) handleRunBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)

		return
	}

	if req.Strategy == "" || req.DataPath == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidRequest, "strategy and data_path are required"))

		return
	}

	params, err := s.resolver.Resolve(req.Strategy, req.ConfigID)
	if err != nil {
		writeError(w, err)

		return
	}

	strat, err := s.registry.Build(req.Strategy, params)
	if err != nil {
		writeError(w, err)

		return
	}

	source, err := datasource.NewDuckDBDataSource(s.logger)
	if err != nil {
		writeError(w, err)

		return
	}
	defer source.Close()

	if err := source.Load(req.DataPath); err != nil {
		writeError(w, err)

		return
	}

	config := backtest.Config{
		InitialCapital: req.InitialCapital,
		StartTime:      optional.FromNillable(req.StartTime),
		EndTime:        optional.FromNillable(req.EndTime),
	}

	engine, err := backtest.NewEngine(config, s.logger)
	if err != nil {
		writeError(w, err)

		return
	}
	defer engine.Close()

	result, err := engine.Run(r.Context(), strat, source, req.ConfigID)
	if err != nil {
		writeError(w, err)

		return
	}

	s.logger.Info("Backtest finished",
		zap.String("strategy", req.Strategy),
		zap.String("symbol", result.Stats.Symbol),
		zap.Float64("final_equity", result.Stats.FinalEquity),
	)

	writeData(w, http.StatusOK, backtestResponse{
		Stats:       result.Stats,
		Trades:      result.Trades,
		EquityCurve: result.EquityCurve,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	if err := decoder.Decode(dst); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "failed to decode request body", err)
	}

	return nil
}
