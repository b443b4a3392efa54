package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uniswap-lp-lab/internal/backtest"
	"uniswap-lp-lab/internal/blocks"
	"uniswap-lp-lab/internal/candles"
	"uniswap-lp-lab/internal/config"
	"uniswap-lp-lab/internal/domain"
	"uniswap-lp-lab/internal/evm"
	"uniswap-lp-lab/internal/fees"
	"uniswap-lp-lab/internal/idhash"
	"uniswap-lp-lab/internal/position"
	"uniswap-lp-lab/internal/storage"
	chstore "uniswap-lp-lab/internal/storage/clickhouse"
	"uniswap-lp-lab/internal/storage/memory"
	"uniswap-lp-lab/internal/storage/migrations"
	pgstore "uniswap-lp-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	runID := flag.String("run-id", "", "Run identifier (default: derived from pool and time)")
	outputJSON := flag.Bool("json", false, "Output result as JSON")
	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
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

	if *runID == "" {
		*runID = idhash.ComputeRunID(idhash.RunParams{
			Pool:             cfg.Pool.Address,
			Chain:            cfg.Pool.Chain,
			Symbol:           cfg.Backtest.Symbol,
			StartDate:        cfg.Backtest.StartDate,
			EndDate:          cfg.Backtest.EndDate,
			InitialCapital:   cfg.Backtest.InitialCapital,
			LowerBoundFactor: cfg.Backtest.LowerBoundFactor,
			UpperBoundFactor: cfg.Backtest.UpperBoundFactor,
			BufferPct:        cfg.Backtest.BufferPct,
			WickThresholdPct: cfg.Backtest.WickThresholdPct,
			SlippageFactor:   cfg.Backtest.SlippageFactor,
		})
	}

	// Stores
	var (
		runStore    storage.RunStore            = memory.NewRunStore()
		sampleStore storage.SampleStore         = memory.NewSampleStore()
		eventStore  storage.RebalanceEventStore = memory.NewRebalanceEventStore()
		candleStore storage.CandleStore         = memory.NewCandleStore()
	)

	if cfg.Storage.Driver == "postgres" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("postgres migrations: %v", err)
		}

		runStore = pgstore.NewRunStore(pool)
		sampleStore = pgstore.NewSampleStore(pool)
		eventStore = pgstore.NewRebalanceEventStore(pool)
	}

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			logger.Fatalf("clickhouse migrations: %v", err)
		}
		defer conn.Close()
		candleStore = chstore.NewCandleStore(conn)
	}

	// Price series
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
	series, err := source.Fetch(ctx, cfg.Backtest.Symbol, start, end)
	if err != nil {
		logger.Fatalf("fetch candles: %v", err)
	}
	series = candles.Normalize(series, start, end)
	logger.Printf("loaded %d hourly candles for %s", len(series), cfg.Backtest.Symbol)

	// Chain state and fee engine
	pool := evm.NewHTTPClient(cfg.Pool.RPCURL, cfg.Pool.Address)
	searchOpts := blocks.Options{
		ApproxBlockTime:  cfg.Pool.ApproxBlockTimeSeconds,
		ToleranceSeconds: cfg.Search.ToleranceSeconds,
		MaxTries:         cfg.Search.MaxTries,
	}
	calculator := fees.New(pool, cfg.Backtest.LowerBoundFactor, cfg.Backtest.UpperBoundFactor, searchOpts, logger)

	manager := position.NewManager(cfg.Backtest.InitialCapital, position.Config{
		LowerBoundFactor: cfg.Backtest.LowerBoundFactor,
		UpperBoundFactor: cfg.Backtest.UpperBoundFactor,
		SlippageFactor:   cfg.Backtest.SlippageFactor,
	}, calculator, logger)

	recorder := backtest.NewStoreRecorder(*runID, sampleStore, eventStore, logger)
	runner := backtest.NewRunner(manager, recorder, backtest.Config{
		BufferPct:        cfg.Backtest.BufferPct,
		WickThresholdPct: cfg.Backtest.WickThresholdPct,
		WickLookback:     time.Duration(cfg.Backtest.WickLookbackH) * time.Hour,
		WickCooldown:     time.Duration(cfg.Backtest.WickCooldownH) * time.Hour,
	}, logger)

	logger.Printf("running backtest %s: pool=%s chain=%s window=%s..%s",
		*runID, cfg.Pool.Address, cfg.Pool.Chain,
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	result, err := runner.Run(ctx, series)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	run := &domain.Run{
		RunID:          *runID,
		Pool:           cfg.Pool.Address,
		Chain:          cfg.Pool.Chain,
		Symbol:         cfg.Backtest.Symbol,
		StartTime:      start.Unix(),
		EndTime:        end.Unix(),
		InitialCapital: cfg.Backtest.InitialCapital,
		FinalValue:     result.FinalValue,
		RebalanceCount: result.RebalanceCount,
		CreatedAt:      time.Now().Unix(),
	}
	if err := runStore.Insert(ctx, run); err != nil {
		logger.Printf("persist run metadata: %v", err)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(run, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Printf("Run:            %s\n", run.RunID)
	fmt.Printf("Samples:        %d\n", result.Steps)
	fmt.Printf("Rebalances:     %d\n", result.RebalanceCount)
	fmt.Printf("Initial:        %.2f\n", run.InitialCapital)
	fmt.Printf("Final value:    %.2f\n", result.FinalValue)
	if run.InitialCapital > 0 {
		fmt.Printf("Return:         %.2f%%\n", (result.FinalValue-run.InitialCapital)/run.InitialCapital*100)
	}
}
