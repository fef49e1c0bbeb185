// Package backtest replays historical bars through a strategy and records the
// resulting fills and statistics.
package backtest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeview-lab/tradeview/internal/backtest/datasource"
	"github.com/tradeview-lab/tradeview/internal/logger"
	"github.com/tradeview-lab/tradeview/internal/strategy"
	"github.com/tradeview-lab/tradeview/internal/types"
	"github.com/tradeview-lab/tradeview/pkg/errors"
	"go.uber.org/zap"
)

// buyFraction is the share of available cash committed on a buy signal. The
// remainder stays in cash so a fill at the bar close can never overdraw.
const buyFraction = 0.95

// ProgressCallback reports bars processed out of the total, for display.
type ProgressCallback func(done, total int)

// Result holds everything a finished run produced.
type Result struct {
	Stats       types.TradeStats
	Trades      []types.Trade
	EquityCurve []types.EquityPoint
}

// Engine runs one strategy over one data source. It is single-use per Run;
// the ledger resets between runs.
type Engine struct {
	config   Config
	state    *State
	logger   *logger.Logger
	progress ProgressCallback
}

// NewEngine creates an engine with a fresh ledger.
func NewEngine(config Config, logger *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	state, err := NewState(logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config: config,
		state:  state,
		logger: logger,
	}, nil
}

// SetProgressCallback registers a per-bar progress hook.
func (e *Engine) SetProgressCallback(callback ProgressCallback) {
	e.progress = callback
}

// Close releases the ledger.
func (e *Engine) Close() error {
	return e.state.Close()
}

// Run replays all bars in the configured time range through the strategy.
// Buys commit a fixed fraction of cash, sells close the whole position, and
// any position still open when the data ends is liquidated at the last close.
// The configID tags the result with the configuration the strategy was
// resolved from; it is empty for default-parameter runs.
func (e *Engine) Run(ctx context.Context, strat strategy.Strategy, source datasource.DataSource, configID string) (*Result, error) {
	if err := e.state.Cleanup(); err != nil {
		return nil, err
	}

	total, err := source.Count(e.config.StartTime, e.config.EndTime)
	if err != nil {
		return nil, err
	}

	if total == 0 {
		return nil, errors.New(errors.ErrCodeBacktestNoData, "no bars in the configured time range")
	}

	strat.Reset()

	var (
		cash       = e.config.InitialCapital
		qty        float64
		symbol     string
		firstClose float64
		lastBar    types.MarketData
		done       int
		curve      = make([]types.EquityPoint, 0, total)
		peak       = e.config.InitialCapital
		drawdown   float64
		iterErr    error
	)

	source.ReadAll(e.config.StartTime, e.config.EndTime)(func(bar types.MarketData, err error) bool {
		if err != nil {
			iterErr = err

			return false
		}

		if err := ctx.Err(); err != nil {
			iterErr = err

			return false
		}

		if symbol == "" {
			symbol = bar.Symbol
			firstClose = bar.Close
		} else if bar.Symbol != symbol {
			iterErr = errors.Newf(errors.ErrCodeBacktestRun,
				"data feed mixes symbols %q and %q; one symbol per run", symbol, bar.Symbol)

			return false
		}

		if err := strat.OnBar(bar); err != nil {
			iterErr = errors.Wrapf(errors.ErrCodeBacktestRun, err, "strategy failed on bar at %s", bar.Time)

			return false
		}

		signal := strat.Signal()

		switch signal.Type {
		case types.SignalTypeBuy:
			if qty == 0 && bar.Close > 0 {
				spend := cash * buyFraction
				fillQty := spend / bar.Close

				if _, err := e.fill(bar, types.OrderSideBuy, fillQty, types.OrderReasonBuySignal, strat.Name()); err != nil {
					iterErr = err

					return false
				}

				cash -= fillQty * bar.Close
				qty = fillQty
			}
		case types.SignalTypeSell:
			if qty > 0 {
				if _, err := e.fill(bar, types.OrderSideSell, qty, types.OrderReasonSellSignal, strat.Name()); err != nil {
					iterErr = err

					return false
				}

				cash += qty * bar.Close
				qty = 0
			}
		}

		equity := cash + qty*bar.Close
		curve = append(curve, types.EquityPoint{Time: bar.Time, Equity: equity})

		if equity > peak {
			peak = equity
		} else if peak > 0 {
			if dd := (peak - equity) / peak; dd > drawdown {
				drawdown = dd
			}
		}

		lastBar = bar
		done++

		if e.progress != nil {
			e.progress(done, total)
		}

		return true
	})

	if iterErr != nil {
		return nil, iterErr
	}

	if qty > 0 {
		if _, err := e.fill(lastBar, types.OrderSideSell, qty, types.OrderReasonEndOfData, strat.Name()); err != nil {
			return nil, err
		}

		cash += qty * lastBar.Close
		qty = 0
	}

	return e.collect(strat.Name(), configID, symbol, cash, qty, firstClose, lastBar, curve, drawdown)
}

func (e *Engine) fill(bar types.MarketData, side types.OrderSide, qty float64, reason types.OrderReason, strategyName string) (types.Trade, error) {
	trade, err := e.state.RecordFill(types.Order{
		Symbol:       bar.Symbol,
		Side:         side,
		Quantity:     qty,
		Price:        bar.Close,
		Timestamp:    bar.Time,
		Reason:       reason,
		StrategyName: strategyName,
	})
	if err != nil {
		return types.Trade{}, err
	}

	e.logger.Debug("Recorded fill",
		zap.String("symbol", bar.Symbol),
		zap.String("side", string(side)),
		zap.Float64("quantity", qty),
		zap.Float64("price", bar.Close),
		zap.Float64("pnl", trade.PnL),
	)

	return trade, nil
}

func (e *Engine) collect(strategyName, configID, symbol string, cash, qty, firstClose float64, lastBar types.MarketData, curve []types.EquityPoint, drawdown float64) (*Result, error) {
	tradeResult, tradePnl, err := e.state.TradeSummary(symbol)
	if err != nil {
		return nil, err
	}

	tradeResult.MaxDrawdown = drawdown

	position, err := e.state.GetPosition(symbol)
	if err != nil {
		return nil, err
	}

	if position.Quantity > 0 {
		entry := decimal.NewFromFloat(position.Quantity).Mul(decimal.NewFromFloat(position.AverageEntryPrice()))
		exit := decimal.NewFromFloat(position.Quantity).Mul(decimal.NewFromFloat(lastBar.Close))
		tradePnl.UnrealizedPnL, _ = exit.Sub(entry).Float64()
	}

	tradePnl.TotalPnL = tradePnl.RealizedPnL + tradePnl.UnrealizedPnL

	trades, err := e.state.AllTrades()
	if err != nil {
		return nil, err
	}

	finalEquity := cash + qty*lastBar.Close

	returnPct := 0.0
	if e.config.InitialCapital > 0 {
		returnPct = (finalEquity - e.config.InitialCapital) / e.config.InitialCapital * 100
	}

	buyAndHold := 0.0
	if firstClose > 0 {
		buyAndHold = e.config.InitialCapital / firstClose * (lastBar.Close - firstClose)
	}

	stats := types.TradeStats{
		ID:             uuid.New().String(),
		Timestamp:      time.Now().UTC(),
		Symbol:         symbol,
		InitialCapital: e.config.InitialCapital,
		FinalEquity:    finalEquity,
		ReturnPct:      returnPct,
		TradeResult:    tradeResult,
		TradePnl:       tradePnl,
		BuyAndHoldPnl:  buyAndHold,
		Strategy: types.StrategyInfo{
			Name:     strategyName,
			ConfigID: configID,
		},
	}

	return &Result{
		Stats:       stats,
		Trades:      trades,
		EquityCurve: curve,
	}, nil
}
