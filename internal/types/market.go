package types

import "time"

// MarketData is a single OHLCV bar.
type MarketData struct {
	Time   time.Time `json:"time" yaml:"time"`
	Symbol string    `json:"symbol" yaml:"symbol"`
	Open   float64   `json:"open" yaml:"open"`
	High   float64   `json:"high" yaml:"high"`
	Low    float64   `json:"low" yaml:"low"`
	Close  float64   `json:"close" yaml:"close"`
	Volume float64   `json:"volume" yaml:"volume"`
}
