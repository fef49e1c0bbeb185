// Package monitor polls live quotes and raises alerts when a watched
// strategy's entry or exit signal fires.
package monitor

import (
	"context"

	"github.com/tradeview-lab/tradeview/internal/types"
)

// QuoteProvider fetches the most recent bars for a symbol, oldest first.
type QuoteProvider interface {
	RecentBars(ctx context.Context, symbol string, interval string, limit int) ([]types.MarketData, error)
}
