package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uniswap-lp-lab/internal/candles"
	"uniswap-lp-lab/internal/config"
	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/observability"
	"uniswap-lp-lab/internal/options"
	"uniswap-lp-lab/internal/storage"
	chstore "uniswap-lp-lab/internal/storage/clickhouse"
	"uniswap-lp-lab/internal/storage/memory"
	"uniswap-lp-lab/internal/storage/migrations"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	symbol := flag.String("symbol", "", "Exchange symbol (default: from config)")
	follow := flag.Bool("follow", false, "Keep streaming closed candles after the backfill")
	optionsCSV := flag.Bool("options", false, "Print a synthetic put chain for the backfilled series as CSV")
	metricsAddr := flag.String("metrics-addr", "", "Expose Prometheus /metrics on this address (e.g. :9090)")
	flag.Parse()

	logger := log.New(os.Stderr, "[fetch] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *symbol == "" {
		*symbol = cfg.Backtest.Symbol
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	var candleStore storage.CandleStore = memory.NewCandleStore()
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			logger.Fatalf("clickhouse migrations: %v", err)
		}
		defer conn.Close()
		candleStore = chstore.NewCandleStore(conn)
	} else {
		logger.Printf("no clickhouse_dsn configured, backfill will not persist")
	}

	metrics := observability.NewMetrics("")
	if *metricsAddr != "" {
		go func() {
			if err := observability.Serve(*metricsAddr); err != nil {
				logger.Printf("metrics server: %v", err)
			}
		}()
	}

	start, err := cfg.StartTime()
	if err != nil {
		logger.Fatalf("parse start date: %v", err)
	}
	end, err := cfg.EndTime()
	if err != nil {
		logger.Fatalf("parse end date: %v", err)
	}

	source := candles.NewCachedSource(
		candles.NewBinanceClient(candles.WithLogger(logger)),
		candleStore,
		logger,
	)
	series, err := source.Fetch(ctx, *symbol, start, end)
	if err != nil {
		logger.Fatalf("backfill: %v", err)
	}
	logger.Printf("backfilled %d hourly candles for %s (%s..%s)",
		len(series), *symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	metrics.CandlesBackfilled.Add(float64(len(series)))
	if len(series) > 0 {
		metrics.LastCandleOpenTime.Set(float64(series[len(series)-1].OpenTime / 1000))
	}

	if *optionsCSV {
		chain, err := options.GenerateChain(series, options.DefaultConfig())
		if err != nil {
			logger.Fatalf("generate option chain: %v", err)
		}
		fmt.Println("open_time,spot,volatility,strike_pct,strike,put")
		for _, point := range chain {
			for _, q := range point.Quotes {
				fmt.Printf("%d,%.6f,%.6f,%.2f,%.6f,%.6f\n",
					point.OpenTime, point.Spot, point.Volatility, q.StrikePct, q.Strike, q.Put)
			}
		}
	}

	if !*follow {
		return
	}

	stream := candles.NewStream(candles.DefaultStreamURL, *symbol, candles.DefaultStreamConfig(), logger)
	out := make(chan *domain.Candle, 16)
	go func() {
		if err := stream.Run(ctx, out); err != nil && ctx.Err() == nil {
			logger.Printf("stream stopped: %v", err)
		}
	}()

	for candle := range out {
		if err := candleStore.InsertBulk(ctx, []*domain.Candle{candle}); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			logger.Printf("persist streamed candle: %v", err)
			metrics.CandlePersistErrors.Inc()
		}
		metrics.CandlesStreamed.Inc()
		metrics.LastCandleOpenTime.Set(float64(candle.OpenTime / 1000))
		logger.Printf("candle %s %s close=%.4f",
			*symbol, time.UnixMilli(candle.OpenTime).UTC().Format(time.RFC3339), candle.Close)
	}
}
