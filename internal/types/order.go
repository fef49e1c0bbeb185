package types

import "time"

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderReason string

const (
	OrderReasonBuySignal  OrderReason = "buy_signal"
	OrderReasonSellSignal OrderReason = "sell_signal"
	OrderReasonEndOfData  OrderReason = "end_of_data"
)

type Order struct {
	OrderID   string    `json:"order_id" yaml:"order_id"`
	Symbol    string    `json:"symbol" yaml:"symbol"`
	Side      OrderSide `json:"side" yaml:"side"`
	Quantity  float64   `json:"quantity" yaml:"quantity"`
	Price     float64   `json:"price" yaml:"price"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	// Reason records why the order was placed ("buy_signal", "sell_signal", ...).
	Reason OrderReason `json:"reason" yaml:"reason"`
	// StrategyName is the name of the strategy that created this order
	StrategyName string `json:"strategy_name" yaml:"strategy_name"`
}

// Trade is an executed order together with its realized result.
type Trade struct {
	Order      Order     `json:"order" yaml:"order"`
	ExecutedAt time.Time `json:"executed_at" yaml:"executed_at"`
	// PnL is the realized profit and loss for this trade.
	// Buy trades always carry zero; sell trades carry proceeds minus entry cost.
	PnL float64 `json:"pnl" yaml:"pnl"`
}
