package backtest

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/shopspring/decimal"
	"github.com/tradeview-lab/tradeview/internal/logger"
	"github.com/tradeview-lab/tradeview/internal/types"
	"github.com/tradeview-lab/tradeview/pkg/errors"
)

// State is the trade ledger for one backtest run. Orders and their fills live
// in an in-memory DuckDB so summary statistics are plain SQL aggregates.
type State struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// Position is the net open position for a symbol, derived from the ledger.
type Position struct {
	Symbol        string
	Quantity      float64
	TotalInQty    float64
	TotalInAmount float64
}

// AverageEntryPrice returns the volume-weighted entry price of all buys.
func (p Position) AverageEntryPrice() float64 {
	if p.TotalInQty == 0 {
		return 0
	}

	return p.TotalInAmount / p.TotalInQty
}

// NewState creates an initialized in-memory ledger.
func NewState(logger *logger.Logger) (*State, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to open ledger database", err)
	}

	state := &State{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := state.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return state, nil
}

func (s *State) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			quantity DOUBLE,
			price DOUBLE,
			timestamp TIMESTAMP,
			reason TEXT,
			strategy_name TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create orders table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			order_id TEXT,
			symbol TEXT,
			side TEXT,
			quantity DOUBLE,
			price DOUBLE,
			timestamp TIMESTAMP,
			reason TEXT,
			strategy_name TEXT,
			executed_at TIMESTAMP,
			pnl DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create trades table", err)
	}

	return nil
}

// RecordFill persists an order and its immediate fill, assigning a fresh
// order id. Sell fills realize PnL against the volume-weighted entry price of
// the position they close.
func (s *State) RecordFill(order types.Order) (types.Trade, error) {
	order.OrderID = uuid.New().String()

	position, err := s.GetPosition(order.Symbol)
	if err != nil {
		return types.Trade{}, err
	}

	pnl := 0.0
	if order.Side == types.OrderSideSell && position.Quantity > 0 {
		entry := decimal.NewFromFloat(order.Quantity).Mul(decimal.NewFromFloat(position.AverageEntryPrice()))
		exit := decimal.NewFromFloat(order.Quantity).Mul(decimal.NewFromFloat(order.Price))
		pnl, _ = exit.Sub(entry).Float64()
	}

	trade := types.Trade{
		Order:      order,
		ExecutedAt: order.Timestamp,
		PnL:        pnl,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return types.Trade{}, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to begin transaction", err)
	}

	insertOrder := s.sq.
		Insert("orders").
		Columns("order_id", "symbol", "side", "quantity", "price", "timestamp", "reason", "strategy_name").
		Values(order.OrderID, order.Symbol, string(order.Side), order.Quantity, order.Price,
			order.Timestamp, string(order.Reason), order.StrategyName).
		RunWith(tx)

	if _, err := insertOrder.Exec(); err != nil {
		tx.Rollback()

		return types.Trade{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert order", err)
	}

	insertTrade := s.sq.
		Insert("trades").
		Columns("order_id", "symbol", "side", "quantity", "price", "timestamp", "reason", "strategy_name",
			"executed_at", "pnl").
		Values(order.OrderID, order.Symbol, string(order.Side), order.Quantity, order.Price,
			order.Timestamp, string(order.Reason), order.StrategyName, trade.ExecutedAt, trade.PnL).
		RunWith(tx)

	if _, err := insertTrade.Exec(); err != nil {
		tx.Rollback()

		return types.Trade{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert trade", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Trade{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit fill", err)
	}

	return trade, nil
}

// GetPosition derives the net position for a symbol from recorded fills.
func (s *State) GetPosition(symbol string) (Position, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN side = ? THEN quantity ELSE 0 END), 0) as total_in_qty,
			COALESCE(SUM(CASE WHEN side = ? THEN quantity * price ELSE 0 END), 0) as total_in_amount,
			COALESCE(SUM(CASE WHEN side = ? THEN quantity ELSE 0 END), 0) as total_out_qty
		FROM trades
		WHERE symbol = ?
	`

	var totalInQty, totalInAmount, totalOutQty float64

	err := s.db.QueryRow(query,
		string(types.OrderSideBuy), string(types.OrderSideBuy), string(types.OrderSideSell), symbol).
		Scan(&totalInQty, &totalInAmount, &totalOutQty)
	if err != nil {
		return Position{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query position", err)
	}

	return Position{
		Symbol:        symbol,
		Quantity:      totalInQty - totalOutQty,
		TotalInQty:    totalInQty,
		TotalInAmount: totalInAmount,
	}, nil
}

// AllTrades returns every recorded fill, oldest first.
func (s *State) AllTrades() ([]types.Trade, error) {
	selectQuery := s.sq.
		Select("order_id", "symbol", "side", "quantity", "price", "timestamp", "reason", "strategy_name",
			"executed_at", "pnl").
		From("trades").
		OrderBy("executed_at ASC").
		RunWith(s.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var (
			trade        types.Trade
			side, reason string
		)

		err := rows.Scan(
			&trade.Order.OrderID,
			&trade.Order.Symbol,
			&side,
			&trade.Order.Quantity,
			&trade.Order.Price,
			&trade.Order.Timestamp,
			&reason,
			&trade.Order.StrategyName,
			&trade.ExecutedAt,
			&trade.PnL,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		trade.Order.Side = types.OrderSide(side)
		trade.Order.Reason = types.OrderReason(reason)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trades", err)
	}

	return trades, nil
}

// TradeSummary aggregates the ledger into trade counts and realized PnL for a
// symbol. Win rate counts only closing (sell) fills; buys realize nothing.
func (s *State) TradeSummary(symbol string) (types.TradeResult, types.TradePnl, error) {
	query := `
		WITH closed AS (
			SELECT pnl FROM trades WHERE symbol = ? AND side = ?
		)
		SELECT
			(SELECT COUNT(*) FROM trades WHERE symbol = ?) as total_trades,
			COALESCE(SUM(CASE WHEN pnl > 0 THEN 1 ELSE 0 END), 0) as winning,
			COALESCE(SUM(CASE WHEN pnl < 0 THEN 1 ELSE 0 END), 0) as losing,
			COUNT(*) as closed_trades,
			COALESCE(SUM(pnl), 0) as realized_pnl,
			COALESCE(MIN(pnl), 0) as min_pnl,
			COALESCE(MAX(pnl), 0) as max_pnl
		FROM closed
	`

	var (
		result       types.TradeResult
		pnl          types.TradePnl
		closedTrades int
		minPnl       float64
		maxPnl       float64
	)

	err := s.db.QueryRow(query, symbol, string(types.OrderSideSell), symbol).Scan(
		&result.NumberOfTrades,
		&result.NumberOfWinningTrades,
		&result.NumberOfLosingTrades,
		&closedTrades,
		&pnl.RealizedPnL,
		&minPnl,
		&maxPnl,
	)
	if err != nil {
		return types.TradeResult{}, types.TradePnl{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to summarize trades", err)
	}

	if closedTrades > 0 {
		result.WinRate = float64(result.NumberOfWinningTrades) / float64(closedTrades)
	}

	if minPnl < 0 {
		pnl.MaximumLoss = minPnl
	}

	if maxPnl > 0 {
		pnl.MaximumProfit = maxPnl
	}

	return result, pnl, nil
}

// Cleanup drops and recreates the ledger tables.
func (s *State) Cleanup() error {
	_, err := s.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS orders;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to drop ledger tables", err)
	}

	return s.initialize()
}

// Close releases the underlying database.
func (s *State) Close() error {
	return s.db.Close()
}
