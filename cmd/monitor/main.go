package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tradeview-lab/tradeview/internal/config"
	"github.com/tradeview-lab/tradeview/internal/configstore"
	"github.com/tradeview-lab/tradeview/internal/logger"
	"github.com/tradeview-lab/tradeview/internal/monitor"
	"github.com/tradeview-lab/tradeview/internal/resolver"
	"github.com/tradeview-lab/tradeview/internal/strategy"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func monitorAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	registry := strategy.NewDefaultRegistry()

	store, err := configstore.NewDuckDBStore(cfg.Store.DBPath, registry, appLogger)
	if err != nil {
		return err
	}
	defer store.Close()

	res := resolver.NewResolver(registry, store, appLogger)
	provider := monitor.NewBinanceQuoteProvider()

	var notifier monitor.Notifier = monitor.NewLogNotifier(appLogger)

	if cfg.Monitor.Telegram.Token != "" {
		notifier, err = monitor.NewTelegramNotifier(cfg.Monitor.Telegram.Token, cfg.Monitor.Telegram.ChatID)
		if err != nil {
			return err
		}

		appLogger.Info("Telegram notifier enabled", zap.Int64("chat_id", cfg.Monitor.Telegram.ChatID))
	}

	m := monitor.NewMonitor(
		registry,
		res,
		provider,
		notifier,
		appLogger,
		cfg.Monitor.PollInterval,
		cfg.Monitor.Watches,
	)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := m.Run(runCtx); err != nil && runCtx.Err() == nil {
		return err
	}

	appLogger.Info("Monitor stopped")

	return nil
}

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "tradeview-monitor",
		Usage: "Watch live quotes and alert on strategy signal transitions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
		},
		Action: monitorAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
