package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"papertrade/config"
	"papertrade/equity"
	"papertrade/feed"
	"papertrade/journal"
	"papertrade/ledger"
	"papertrade/mlog"
	"papertrade/monitor"
	"papertrade/plan"
	"papertrade/web"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitor loop and API server",
	Long: `Start the paper trading engine: restore account state from the journal,
watch active trading plans, execute their levels against live prices and
serve the account over HTTP.

Example:
  papertrade run --config papertrade.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	config.LoadEnv()

	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := log.New(os.Stderr, "papertrade ", log.LstdFlags|log.LUTC)

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	led := ledger.New(decimal.NewFromFloat(cfg.Account.InitialCapital))
	history, err := j.AllTrades()
	if err != nil {
		return fmt.Errorf("load trade history: %w", err)
	}
	if err := led.Restore(history); err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}
	led.SetRecorder(j)
	logger.Printf("ledger restored: %d trades", len(history))

	sampler := equity.NewSampler(cfg.Equity.RecentPoints, cfg.Equity.MaxPoints)
	points, err := j.AllEquity()
	if err != nil {
		return fmt.Errorf("load equity series: %w", err)
	}
	sampler.Seed(points)
	sampler.SetRecorder(j)

	logs := mlog.NewStore(cfg.Logs.Capacity)
	entries, err := j.RecentLogs(cfg.Logs.Capacity)
	if err != nil {
		return fmt.Errorf("load monitor logs: %w", err)
	}
	for _, e := range entries {
		logs.Append(e)
	}
	logs.SetRecorder(j)

	plans, err := plan.OpenSQLite(cfg.Plans.DBPath, cfg.Monitor.MaxPlans, logger)
	if err != nil {
		return fmt.Errorf("open plans db: %w", err)
	}
	defer plans.Close()

	priceFeed, err := buildFeed(cfg)
	if err != nil {
		return err
	}

	interval, err := cfg.Monitor.ParseInterval()
	if err != nil {
		return fmt.Errorf("monitor interval: %w", err)
	}

	mon := monitor.New(monitor.Config{
		Interval:            interval,
		EntryTolerance:      cfg.Monitor.EntryTolerance,
		MaxPositionFraction: cfg.Monitor.MaxPositionFraction,
	}, led, plans, priceFeed, sampler, logs)
	mon.SetLogger(logger)

	srv := web.New(cfg.Server.Addr, led, sampler, logs)
	srv.SetLogger(logger)
	mon.SetPublisher(srv.Hub())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.Hub().Run(ctx)
	go mon.Run(ctx)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return <-errc
}

func buildFeed(cfg *config.Config) (feed.Feed, error) {
	var priceFeed feed.Feed

	switch cfg.Feed.Provider {
	case "binance":
		timeout, err := cfg.Feed.ParseTimeout()
		if err != nil {
			return nil, fmt.Errorf("feed timeout: %w", err)
		}
		apiKey, secretKey := config.BinanceCredentials()
		priceFeed = feed.NewBinance(apiKey, secretKey, timeout)
	case "fixed":
		priceFeed = feed.NewFixed(cfg.Feed.Prices)
	default:
		return nil, fmt.Errorf("unknown feed provider: %s", cfg.Feed.Provider)
	}

	if cfg.Feed.RetryAttempts > 0 {
		priceFeed = feed.WithRetry(priceFeed, cfg.Feed.RetryAttempts)
	}
	return priceFeed, nil
}
