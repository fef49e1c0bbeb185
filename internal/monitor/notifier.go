package monitor

import (
	"fmt"
	"time"

	"github.com/tradeview-lab/tradeview/internal/logger"
	"github.com/tradeview-lab/tradeview/internal/types"
	"go.uber.org/zap"
)

// Alert is one actionable strategy signal raised by the monitor.
type Alert struct {
	Time       time.Time          `json:"time"`
	Symbol     string             `json:"symbol"`
	Strategy   string             `json:"strategy"`
	ConfigID   string             `json:"config_id,omitempty"`
	Signal     types.SignalType   `json:"signal"`
	Price      float64            `json:"price"`
	Reason     string             `json:"reason"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
}

// Message renders the alert as a single human-readable line.
func (a Alert) Message() string {
	return fmt.Sprintf("[%s] %s %s @ %.4f (%s): %s",
		a.Time.Format(time.RFC3339), a.Strategy, a.Signal, a.Price, a.Symbol, a.Reason)
}

// Notifier delivers alerts to some channel.
type Notifier interface {
	Notify(alert Alert) error
}

// LogNotifier writes alerts to the structured log. It is the fallback when no
// delivery channel is configured.
type LogNotifier struct {
	logger *logger.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that logs alerts at info level.
func NewLogNotifier(logger *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(alert Alert) error {
	n.logger.Info("Strategy alert",
		zap.String("symbol", alert.Symbol),
		zap.String("strategy", alert.Strategy),
		zap.String("config_id", alert.ConfigID),
		zap.String("signal", string(alert.Signal)),
		zap.Float64("price", alert.Price),
		zap.String("reason", alert.Reason),
	)

	return nil
}
