package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/tradeview-lab/tradeview/internal/backtest"
	"github.com/tradeview-lab/tradeview/internal/backtest/datasource"
	"github.com/tradeview-lab/tradeview/internal/configstore"
	"github.com/tradeview-lab/tradeview/internal/logger"
	"github.com/tradeview-lab/tradeview/internal/resolver"
	"github.com/tradeview-lab/tradeview/internal/strategy"
	"github.com/tradeview-lab/tradeview/internal/types"
	"github.com/urfave/cli/v3"
)

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	appLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	registry := strategy.NewDefaultRegistry()

	store, err := configstore.NewDuckDBStore(cmd.String("db"), registry, appLogger)
	if err != nil {
		return err
	}
	defer store.Close()

	res := resolver.NewResolver(registry, store, appLogger)

	configID := cmd.String("config-id")

	params, err := res.Resolve(cmd.String("strategy"), configID)
	if err != nil {
		return err
	}

	strat, err := registry.Build(cmd.String("strategy"), params)
	if err != nil {
		return err
	}

	source, err := datasource.NewDuckDBDataSource(appLogger)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := source.Load(cmd.String("data")); err != nil {
		return err
	}

	engineConfig := backtest.Config{
		InitialCapital: cmd.Float("capital"),
	}

	if start := cmd.Timestamp("start"); !start.IsZero() {
		engineConfig.StartTime = optional.Some(start)
	}

	if end := cmd.Timestamp("end"); !end.IsZero() {
		engineConfig.EndTime = optional.Some(end)
	}

	engine, err := backtest.NewEngine(engineConfig, appLogger)
	if err != nil {
		return err
	}
	defer engine.Close()

	var bar *progressbar.ProgressBar

	engine.SetProgressCallback(func(done, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total))
			bar.Describe(fmt.Sprintf("Backtesting %s", strat.Name()))
		}

		_ = bar.Set(done)
	})

	result, err := engine.Run(ctx, strat, source, configID)
	if err != nil {
		return err
	}

	printStats(result.Stats)

	if output := cmd.String("output"); output != "" {
		if err := types.WriteTradeStats(output, result.Stats); err != nil {
			return err
		}

		fmt.Printf("Stats written to %s\n", output)
	}

	return nil
}

func printStats(stats types.TradeStats) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("%s on %s", stats.Strategy.Name, stats.Symbol))

	t.AppendRows([]table.Row{
		{"Initial capital", fmt.Sprintf("%.2f", stats.InitialCapital)},
		{"Final equity", fmt.Sprintf("%.2f", stats.FinalEquity)},
		{"Return", fmt.Sprintf("%.2f%%", stats.ReturnPct)},
		{"Buy & hold PnL", fmt.Sprintf("%.2f", stats.BuyAndHoldPnl)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Trades", stats.TradeResult.NumberOfTrades},
		{"Winning", stats.TradeResult.NumberOfWinningTrades},
		{"Losing", stats.TradeResult.NumberOfLosingTrades},
		{"Win rate", fmt.Sprintf("%.1f%%", stats.TradeResult.WinRate*100)},
		{"Max drawdown", fmt.Sprintf("%.1f%%", stats.TradeResult.MaxDrawdown*100)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Realized PnL", fmt.Sprintf("%.2f", stats.TradePnl.RealizedPnL)},
		{"Unrealized PnL", fmt.Sprintf("%.2f", stats.TradePnl.UnrealizedPnL)},
		{"Best trade", fmt.Sprintf("%.2f", stats.TradePnl.MaximumProfit)},
		{"Worst trade", fmt.Sprintf("%.2f", stats.TradePnl.MaximumLoss)},
	})

	t.Render()
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "tradeview-backtest",
		Usage: "Run a strategy backtest over a CSV of historical bars",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"s"},
				Usage:    "Registered strategy name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "config-id",
				Usage: "Stored configuration id; omit to run schema defaults",
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the OHLCV CSV file",
				Required: true,
			},
			&cli.FloatFlag{
				Name:  "capital",
				Usage: "Initial capital",
				Value: 10000,
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "Start of the backtest period (`YYYY-MM-DD`)",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02", time.RFC3339},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "End of the backtest period (`YYYY-MM-DD`)",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02", time.RFC3339},
				},
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path to the configuration store database",
				Value: "tradeview.db",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the stats as YAML to this path",
			},
		},
		Action: backtestAction,
	}
}

func main() {
	_ = godotenv.Load()

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
