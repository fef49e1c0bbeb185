// Package datasource provides historical market data access for backtests.
package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/tradeview-lab/tradeview/internal/types"
)

// DataSource reads historical bars in ascending time order.
type DataSource interface {
	// Load points the data source at a data file. It can be called again to
	// switch files.
	Load(path string) error
	// Count returns the number of bars in the optional time range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// ReadAll yields every bar in the optional time range, oldest first.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool)
	// ReadLastData returns the most recent bar for a symbol.
	ReadLastData(symbol string) (types.MarketData, error)
	// Close releases the underlying resources.
	Close() error
}
