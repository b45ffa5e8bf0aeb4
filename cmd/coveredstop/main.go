package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"CoveredStop/internal/advisor"
	"CoveredStop/internal/collector"
	"CoveredStop/internal/config"
	"CoveredStop/internal/logging"
	"CoveredStop/internal/notifier"
	"CoveredStop/internal/scheduler"
	"CoveredStop/internal/server"
)

const usageText = `Usage:
  coveredstop calc  [-symbol TSLA] [-max-loss 10] [-atr-mult 2] [-weeks 12] [-json]
  coveredstop serve

Configuration is read from configs/config.yaml (override with CONFIG_PATH),
.env and environment variables.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	var code int
	switch os.Args[1] {
	case "calc":
		code = runCalc(os.Args[2:])
	case "serve":
		code = runServe(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usageText)
		code = 2
	}
	os.Exit(code)
}

type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	advisor *advisor.Advisor
}

func setup() (*app, error) {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	fetcher := newFetcher(cfg)
	logger.Info("data source ready", zap.String("provider", fetcher.Name()))

	col := collector.NewCollector(fetcher, logger.Named("collector"))
	return &app{
		cfg:     cfg,
		logger:  logger,
		advisor: advisor.New(col, logger.Named("advisor")),
	}, nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "alpaca":
		return collector.NewAlpacaFetcher(cfg.DataSource.AlpacaKey, cfg.DataSource.AlpacaSecret,
			cfg.DataSource.AlpacaURL, cfg.DataSource.AlpacaFeed)
	case "mock":
		return &collector.MockFetcher{Price: cfg.DataSource.MockPrice}
	default:
		return collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout)
	}
}

func defaultRequest(cfg *config.Config) advisor.Request {
	return advisor.Request{
		Symbol:        cfg.Defaults.Symbol,
		MaxLossPct:    cfg.Defaults.MaxLossPct,
		ATRMultiplier: cfg.Defaults.ATRMultiplier,
		Weeks:         cfg.Defaults.Weeks,
	}
}

func runCalc(args []string) int {
	a, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer a.logger.Sync()

	def := defaultRequest(a.cfg)
	fs := flag.NewFlagSet("calc", flag.ContinueOnError)
	symbol := fs.String("symbol", def.Symbol, "stock symbol")
	maxLoss := fs.Float64("max-loss", def.MaxLossPct, "max % loss allowed (5-20)")
	atrMult := fs.Float64("atr-mult", def.ATRMultiplier, "ATR multiplier (1-3)")
	weeks := fs.Int("weeks", def.Weeks, "weeks of history for the ATR (4-52)")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	timeout := fs.Duration("timeout", time.Minute, "overall deadline for the data fetch")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rep, err := a.advisor.Advise(ctx, advisor.Request{
		Symbol:        *symbol,
		MaxLossPct:    *maxLoss,
		ATRMultiplier: *atrMult,
		Weeks:         *weeks,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if *asJSON {
		out, err := notifier.FormatJSON(rep)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		os.Stdout.Write(out)
		return 0
	}
	fmt.Print(notifier.FormatReport(rep))
	return 0
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	log := a.logger
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defaults := defaultRequest(a.cfg)

	if a.cfg.TelegramEnabled() {
		tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, log.Named("telegram"))
		sched := scheduler.NewScheduler(ctx, a.advisor, tn, defaults, log.Named("scheduler"))
		if err := sched.Register(a.cfg.Schedule.DailyCron); err != nil {
			log.Error("register cron task", zap.Error(err))
			return 1
		}
		sched.Start()
		defer sched.Stop()

		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")

		if os.Getenv("RUN_ON_START") == "true" {
			log.Info("RUN_ON_START enabled, executing daily report now")
			go sched.RunDailyNow()
		}
	} else {
		log.Info("telegram not configured, scheduler disabled")
	}

	api := &server.API{Advisor: a.advisor, Defaults: defaults, Logger: log.Named("http")}
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			return 1
		}
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("CoveredStop stopped")
	return 0
}
