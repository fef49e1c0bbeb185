package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tradeview-lab/tradeview/internal/config"
	"github.com/tradeview-lab/tradeview/internal/configstore"
	"github.com/tradeview-lab/tradeview/internal/logger"
	"github.com/tradeview-lab/tradeview/internal/resolver"
	"github.com/tradeview-lab/tradeview/internal/server"
	"github.com/tradeview-lab/tradeview/internal/strategy"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func serverAction(ctx context.Context, cmd *cli.Command) error {
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
	srv := server.NewServer(registry, store, res, appLogger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Start(cfg.Server.Listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		appLogger.Info("Shutting down", zap.String("reason", "signal"))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	}
}

func main() {
	// Missing .env is fine; environment variables may come from elsewhere.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "tradeview-server",
		Usage: "Serve the strategy configuration and backtest API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "config.yaml",
			},
		},
		Action: serverAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
