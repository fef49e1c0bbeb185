package types

import "time"

type SignalType string

const (
	// SignalTypeBuy is a signal that tells the caller to open a long position
	SignalTypeBuy SignalType = "buy"
	// SignalTypeSell is a signal that tells the caller to close the long position
	SignalTypeSell SignalType = "sell"
	// SignalTypeNoAction is a signal that tells the caller to take no action
	SignalTypeNoAction SignalType = "no_action"
)

type Signal struct {
	// Time is the time of the signal
	Time time.Time `json:"time"`
	// Type is the type of the signal
	Type SignalType `json:"type"`
	// Symbol is the symbol of the signal
	Symbol string `json:"symbol"`
	// Strategy is the name of the strategy that generated the signal
	Strategy string `json:"strategy"`
	// Reason is the reason for the signal
	Reason string `json:"reason"`
	// Indicators holds the indicator values at signal time, for display
	Indicators map[string]float64 `json:"indicators,omitempty"`
}
