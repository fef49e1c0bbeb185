package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type TradeResult struct {
	// Count of all trades.
	NumberOfTrades int `yaml:"number_of_trades" json:"number_of_trades"`
	// Count of winning trades that has positive pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades" json:"number_of_winning_trades"`
	// Count of losing trades that has negative pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades" json:"number_of_losing_trades"`
	// Win rate.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// Maximum drawdown, as a fraction of the equity peak.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
}

type TradePnl struct {
	// Realized PnL. By adding all the sell trades' pnl.
	RealizedPnL float64 `yaml:"realized_pnl" json:"realized_pnl"`
	// Unrealized PnL of the open position at the final market price.
	UnrealizedPnL float64 `yaml:"unrealized_pnl" json:"unrealized_pnl"`
	// Total PnL. By adding RealizedPnL and UnrealizedPnL.
	TotalPnL float64 `yaml:"total_pnl" json:"total_pnl"`
	// Maximum loss. Find all realized pnl's minimum value.
	MaximumLoss float64 `yaml:"maximum_loss" json:"maximum_loss"`
	// Maximum profit. Find all realized pnl's maximum value.
	MaximumProfit float64 `yaml:"maximum_profit" json:"maximum_profit"`
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Time   time.Time `yaml:"time" json:"time"`
	Equity float64   `yaml:"equity" json:"equity"`
}

// StrategyInfo contains metadata about the strategy that generated stats.
type StrategyInfo struct {
	// Name is the registered name of the strategy (e.g., "ma_cross")
	Name string `yaml:"name" json:"name"`
	// ConfigID is the configuration the run was resolved from, empty for defaults
	ConfigID string `yaml:"config_id,omitempty" json:"config_id,omitempty"`
}

type TradeStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol of the instrument.
	Symbol string `yaml:"symbol" json:"symbol"`
	// InitialCapital the run started with.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	// FinalEquity is cash plus the open position valued at the last close.
	FinalEquity float64 `yaml:"final_equity" json:"final_equity"`
	// ReturnPct is the total return over InitialCapital, in percent.
	ReturnPct float64 `yaml:"return_pct" json:"return_pct"`
	// Result of all trades.
	TradeResult TradeResult `yaml:"trade_result" json:"trade_result"`
	// PnL of all trades.
	TradePnl TradePnl `yaml:"trade_pnl" json:"trade_pnl"`
	// Buy and hold PnL over the same period, for comparison.
	BuyAndHoldPnl float64 `yaml:"buy_and_hold_pnl" json:"buy_and_hold_pnl"`
	// Strategy contains metadata about the strategy that generated these stats.
	Strategy StrategyInfo `yaml:"strategy" json:"strategy"`
}

func WriteTradeStats(path string, stats TradeStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal trade stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write trade stats to file: %w", err)
	}

	return nil
}
