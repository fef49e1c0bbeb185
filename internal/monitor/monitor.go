package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeview-lab/tradeview/internal/logger"
	"github.com/tradeview-lab/tradeview/internal/resolver"
	"github.com/tradeview-lab/tradeview/internal/strategy"
	"github.com/tradeview-lab/tradeview/internal/types"
	"github.com/tradeview-lab/tradeview/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultInterval = "1h"
	defaultLookback = 100
)

// WatchEntry is one symbol/strategy pair the monitor evaluates every poll.
type WatchEntry struct {
	Symbol   string `yaml:"symbol" validate:"required"`
	Strategy string `yaml:"strategy" validate:"required"`
	// ConfigID selects a stored configuration; empty runs schema defaults.
	ConfigID string `yaml:"config_id"`
	// Interval is the kline interval to poll, e.g. "1h".
	Interval string `yaml:"interval"`
	// Lookback is how many recent bars to replay per poll.
	Lookback int `yaml:"lookback"`
}

func (w WatchEntry) key() string {
	return fmt.Sprintf("%s|%s|%s", w.Symbol, w.Strategy, w.ConfigID)
}

// Monitor periodically replays recent bars through each watched strategy and
// raises an alert when the latest bar produces an entry or exit signal.
type Monitor struct {
	registry *strategy.Registry
	resolver *resolver.Resolver
	provider QuoteProvider
	notifier Notifier
	logger   *logger.Logger

	pollInterval time.Duration
	watches      []WatchEntry

	// lastAlerted dedupes: one alert per symbol+signal transition.
	lastAlerted map[string]types.SignalType
}

// NewMonitor wires the poll loop together.
func NewMonitor(
	registry *strategy.Registry,
	resolver *resolver.Resolver,
	provider QuoteProvider,
	notifier Notifier,
	logger *logger.Logger,
	pollInterval time.Duration,
	watches []WatchEntry,
) *Monitor {
	return &Monitor{
		registry:     registry,
		resolver:     resolver,
		provider:     provider,
		notifier:     notifier,
		logger:       logger,
		pollInterval: pollInterval,
		watches:      watches,
		lastAlerted:  make(map[string]types.SignalType),
	}
}

// Run polls immediately, then on every tick until the context is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("Monitor started",
		zap.Duration("poll_interval", m.pollInterval),
		zap.Int("watches", len(m.watches)),
	)

	m.Poll(ctx)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Monitor stopped")

			return ctx.Err()
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll evaluates every watch entry once. Failures are logged and skip the
// entry; a broken config or a provider hiccup must not kill the loop.
func (m *Monitor) Poll(ctx context.Context) {
	for _, entry := range m.watches {
		if err := ctx.Err(); err != nil {
			return
		}

		alert, err := m.evaluate(ctx, entry)
		if err != nil {
			m.logger.Error("Failed to evaluate watch entry",
				zap.String("symbol", entry.Symbol),
				zap.String("strategy", entry.Strategy),
				zap.String("config_id", entry.ConfigID),
				zap.Error(err),
			)

			continue
		}

		if alert == nil {
			continue
		}

		if err := m.notifier.Notify(*alert); err != nil {
			m.logger.Error("Failed to deliver alert",
				zap.String("symbol", alert.Symbol),
				zap.Error(err),
			)
		}
	}
}

func (m *Monitor) evaluate(ctx context.Context, entry WatchEntry) (*Alert, error) {
	params, err := m.resolver.Resolve(entry.Strategy, entry.ConfigID)
	if err != nil {
		return nil, err
	}

	strat, err := m.registry.Build(entry.Strategy, params)
	if err != nil {
		return nil, err
	}

	interval := entry.Interval
	if interval == "" {
		interval = defaultInterval
	}

	lookback := entry.Lookback
	if lookback <= 0 {
		lookback = defaultLookback
	}

	bars, err := m.provider.RecentBars(ctx, entry.Symbol, interval, lookback)
	if err != nil {
		return nil, err
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeQuoteFetchFailed, "no bars returned for %s", entry.Symbol)
	}

	for _, bar := range bars {
		if err := strat.OnBar(bar); err != nil {
			return nil, err
		}
	}

	signal := strat.Signal()
	if signal.Type == types.SignalTypeNoAction {
		return nil, nil
	}

	if m.lastAlerted[entry.key()] == signal.Type {
		return nil, nil
	}

	m.lastAlerted[entry.key()] = signal.Type

	lastBar := bars[len(bars)-1]

	return &Alert{
		Time:       signal.Time,
		Symbol:     entry.Symbol,
		Strategy:   entry.Strategy,
		ConfigID:   entry.ConfigID,
		Signal:     signal.Type,
		Price:      lastBar.Close,
		Reason:     signal.Reason,
		Indicators: signal.Indicators,
	}, nil
}
