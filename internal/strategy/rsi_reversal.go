package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/tradeview-lab/tradeview/internal/schema"
	"github.com/tradeview-lab/tradeview/internal/types"
)

const RSIReversalName = "rsi_reversal"

// RSIReversal is a mean-reversion strategy on Wilder's RSI: buy when the RSI
// crosses back up out of the oversold zone, sell when it crosses back down
// out of the overbought zone.
type RSIReversal struct {
	period     int
	oversold   float64
	overbought float64

	lastClose  float64
	avgGain    float64
	avgLoss    float64
	barCount   int
	rsi        float64
	prevRSI    float64
	prevReady  bool
	inPosition bool
	lastSignal types.Signal
}

func registerRSIReversal(registry *Registry) error {
	specs := []schema.ParamSpec{
		{
			Key:         "period",
			Type:        schema.ParamTypeInt,
			Default:     schema.IntValue(14),
			Min:         optional.Some(2.0),
			Max:         optional.Some(100.0),
			Description: "RSI lookback period",
		},
		{
			Key:         "oversold",
			Type:        schema.ParamTypeFloat,
			Default:     schema.FloatValue(30),
			Min:         optional.Some(0.0),
			Max:         optional.Some(50.0),
			Description: "Oversold threshold",
		},
		{
			Key:         "overbought",
			Type:        schema.ParamTypeFloat,
			Default:     schema.FloatValue(70),
			Min:         optional.Some(50.0),
			Max:         optional.Some(100.0),
			Description: "Overbought threshold",
		},
	}

	return registry.Register(RSIReversalName, "RSI oversold/overbought mean reversion", specs,
		func(params schema.EffectiveParams) Strategy {
			return NewRSIReversal(params)
		})
}

// NewRSIReversal creates the strategy from resolved effective parameters.
func NewRSIReversal(params schema.EffectiveParams) *RSIReversal {
	return &RSIReversal{
		period:     int(params.Int("period", 14)),
		oversold:   params.Float("oversold", 30),
		overbought: params.Float("overbought", 70),
	}
}

// Name implements Strategy.
func (s *RSIReversal) Name() string {
	return RSIReversalName
}

// OnBar implements Strategy.
func (s *RSIReversal) OnBar(bar types.MarketData) error {
	s.prevRSI = s.rsi
	s.prevReady = s.ready()
	s.updateRSI(bar.Close)

	s.lastSignal = s.evaluate(bar)
	if s.lastSignal.Type == types.SignalTypeBuy {
		s.inPosition = true
	} else if s.lastSignal.Type == types.SignalTypeSell {
		s.inPosition = false
	}

	return nil
}

// updateRSI applies Wilder's smoothing. The first `period` deltas seed the
// averages, after which each bar blends in with weight 1/period.
func (s *RSIReversal) updateRSI(close float64) {
	s.barCount++

	if s.barCount == 1 {
		s.lastClose = close

		return
	}

	delta := close - s.lastClose
	s.lastClose = close

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	if s.barCount <= s.period+1 {
		s.avgGain += gain / float64(s.period)
		s.avgLoss += loss / float64(s.period)
	} else {
		n := float64(s.period)
		s.avgGain = (s.avgGain*(n-1) + gain) / n
		s.avgLoss = (s.avgLoss*(n-1) + loss) / n
	}

	if s.barCount <= s.period {
		return
	}

	if s.avgLoss == 0 {
		s.rsi = 100

		return
	}

	rs := s.avgGain / s.avgLoss
	s.rsi = 100 - 100/(1+rs)
}

func (s *RSIReversal) ready() bool {
	return s.barCount > s.period
}

func (s *RSIReversal) evaluate(bar types.MarketData) types.Signal {
	signal := types.Signal{
		Time:       bar.Time,
		Type:       types.SignalTypeNoAction,
		Symbol:     bar.Symbol,
		Strategy:   RSIReversalName,
		Indicators: s.Indicators(),
	}

	if !s.ready() || !s.prevReady {
		return signal
	}

	if !s.inPosition && s.prevRSI <= s.oversold && s.rsi > s.oversold {
		signal.Type = types.SignalTypeBuy
		signal.Reason = "RSI crossed up out of oversold"

		return signal
	}

	if s.inPosition && s.prevRSI >= s.overbought && s.rsi < s.overbought {
		signal.Type = types.SignalTypeSell
		signal.Reason = "RSI crossed down out of overbought"
	}

	return signal
}

// Signal implements Strategy.
func (s *RSIReversal) Signal() types.Signal {
	return s.lastSignal
}

// Indicators implements Strategy.
func (s *RSIReversal) Indicators() map[string]float64 {
	if !s.ready() {
		return nil
	}

	return map[string]float64{"rsi": s.rsi}
}

// Reset implements Strategy.
func (s *RSIReversal) Reset() {
	s.lastClose = 0
	s.avgGain = 0
	s.avgLoss = 0
	s.barCount = 0
	s.rsi = 0
	s.prevRSI = 0
	s.prevReady = false
	s.inPosition = false
	s.lastSignal = types.Signal{}
}
