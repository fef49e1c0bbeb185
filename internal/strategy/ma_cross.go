package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/tradeview-lab/tradeview/internal/schema"
	"github.com/tradeview-lab/tradeview/internal/types"
)

const MACrossName = "ma_cross"

// MACross is the classic dual moving average crossover: buy when the fast MA
// crosses above the slow MA (golden cross), sell when it crosses below
// (death cross). The MA type is selectable between SMA and EMA.
type MACross struct {
	fastPeriod int
	slowPeriod int
	maType     string

	prices     []float64
	fastMA     float64
	slowMA     float64
	prevFastMA float64
	prevSlowMA float64
	ready      bool
	prevReady  bool
	inPosition bool
	lastSignal types.Signal
}

func registerMACross(registry *Registry) error {
	specs := []schema.ParamSpec{
		{
			Key:         "fast_period",
			Type:        schema.ParamTypeInt,
			Default:     schema.IntValue(5),
			Min:         optional.Some(2.0),
			Max:         optional.Some(50.0),
			Description: "Fast moving average period",
		},
		{
			Key:         "slow_period",
			Type:        schema.ParamTypeInt,
			Default:     schema.IntValue(20),
			Min:         optional.Some(5.0),
			Max:         optional.Some(200.0),
			Description: "Slow moving average period",
		},
		{
			Key:         "ma_type",
			Type:        schema.ParamTypeEnum,
			Default:     schema.StringValue("SMA"),
			Options:     []string{"SMA", "EMA"},
			Description: "Moving average type (SMA=simple, EMA=exponential)",
		},
	}

	return registry.Register(MACrossName, "Dual moving average crossover trend follower", specs,
		func(params schema.EffectiveParams) Strategy {
			return NewMACross(params)
		})
}

// NewMACross creates the strategy from resolved effective parameters.
func NewMACross(params schema.EffectiveParams) *MACross {
	return &MACross{
		fastPeriod: int(params.Int("fast_period", 5)),
		slowPeriod: int(params.Int("slow_period", 20)),
		maType:     params.Str("ma_type", "SMA"),
	}
}

// Name implements Strategy.
func (s *MACross) Name() string {
	return MACrossName
}

// OnBar implements Strategy.
func (s *MACross) OnBar(bar types.MarketData) error {
	s.prices = append(s.prices, bar.Close)

	s.prevFastMA = s.fastMA
	s.prevSlowMA = s.slowMA
	s.prevReady = s.ready

	if s.maType == "EMA" {
		s.fastMA = nextEMA(s.prices, s.fastMA, s.fastPeriod)
		s.slowMA = nextEMA(s.prices, s.slowMA, s.slowPeriod)
	} else {
		s.fastMA = sma(s.prices, s.fastPeriod)
		s.slowMA = sma(s.prices, s.slowPeriod)
	}

	s.ready = len(s.prices) >= s.slowPeriod

	s.lastSignal = s.evaluate(bar)
	if s.lastSignal.Type == types.SignalTypeBuy {
		s.inPosition = true
	} else if s.lastSignal.Type == types.SignalTypeSell {
		s.inPosition = false
	}

	return nil
}

func (s *MACross) evaluate(bar types.MarketData) types.Signal {
	signal := types.Signal{
		Time:       bar.Time,
		Type:       types.SignalTypeNoAction,
		Symbol:     bar.Symbol,
		Strategy:   MACrossName,
		Indicators: s.Indicators(),
	}

	if !s.ready || !s.prevReady {
		return signal
	}

	wasBelow := s.prevFastMA <= s.prevSlowMA
	isAbove := s.fastMA > s.slowMA

	if !s.inPosition && wasBelow && isAbove {
		signal.Type = types.SignalTypeBuy
		signal.Reason = "golden cross: fast MA crossed above slow MA"

		return signal
	}

	wasAbove := s.prevFastMA >= s.prevSlowMA
	isBelow := s.fastMA < s.slowMA

	if s.inPosition && wasAbove && isBelow {
		signal.Type = types.SignalTypeSell
		signal.Reason = "death cross: fast MA crossed below slow MA"
	}

	return signal
}

// Signal implements Strategy.
func (s *MACross) Signal() types.Signal {
	return s.lastSignal
}

// Indicators implements Strategy.
func (s *MACross) Indicators() map[string]float64 {
	if !s.ready {
		return nil
	}

	return map[string]float64{
		"fast_ma": s.fastMA,
		"slow_ma": s.slowMA,
	}
}

// Reset implements Strategy.
func (s *MACross) Reset() {
	s.prices = nil
	s.fastMA = 0
	s.slowMA = 0
	s.prevFastMA = 0
	s.prevSlowMA = 0
	s.ready = false
	s.prevReady = false
	s.inPosition = false
	s.lastSignal = types.Signal{}
}

func sma(prices []float64, period int) float64 {
	if len(prices) < period {
		return 0
	}

	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}

	return sum / float64(period)
}

// nextEMA seeds with the SMA once enough bars exist, then applies the
// standard smoothing factor 2/(period+1).
func nextEMA(prices []float64, prevEMA float64, period int) float64 {
	if len(prices) < period {
		return 0
	}

	if prevEMA == 0 {
		return sma(prices, period)
	}

	multiplier := 2.0 / float64(period+1)
	current := prices[len(prices)-1]

	return (current-prevEMA)*multiplier + prevEMA
}
