package monitor

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/tradeview-lab/tradeview/internal/types"
	"github.com/tradeview-lab/tradeview/pkg/errors"
)

// BinanceQuoteProvider pulls recent klines from the public Binance API.
// No credentials are needed for market data.
type BinanceQuoteProvider struct {
	client *binance.Client
}

var _ QuoteProvider = (*BinanceQuoteProvider)(nil)

// NewBinanceQuoteProvider creates an unauthenticated Binance market data client.
func NewBinanceQuoteProvider() *BinanceQuoteProvider {
	return &BinanceQuoteProvider{
		client: binance.NewClient("", ""),
	}
}

// RecentBars implements QuoteProvider.
func (p *BinanceQuoteProvider) RecentBars(ctx context.Context, symbol string, interval string, limit int) ([]types.MarketData, error) {
	klines, err := p.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQuoteFetchFailed, err, "failed to fetch %s klines for %s", interval, symbol)
	}

	bars := make([]types.MarketData, 0, len(klines))

	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		closePrice, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		bars = append(bars, types.MarketData{
			Time:   time.UnixMilli(k.OpenTime),
			Symbol: symbol,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}

	return bars, nil
}
