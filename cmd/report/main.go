package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"uniswap-lp-lab/internal/config"
	"uniswap-lp-lab/internal/reporting"
	"uniswap-lp-lab/internal/storage/migrations"
	pgstore "uniswap-lp-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	runID := flag.String("run-id", "", "Run identifier to report on (required)")
	format := flag.String("format", "markdown", "Output format: markdown, samples-csv, rebalances-csv")
	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *runID == "" {
		logger.Fatal("-run-id is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		logger.Fatal("reporting requires storage.driver=postgres: memory runs do not outlive the backtest process")
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

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("postgres migrations: %v", err)
	}

	runStore := pgstore.NewRunStore(pool)
	sampleStore := pgstore.NewSampleStore(pool)
	eventStore := pgstore.NewRebalanceEventStore(pool)

	switch *format {
	case "markdown":
		generator := reporting.NewGenerator(runStore, sampleStore, eventStore)
		report, err := generator.Generate(ctx, *runID)
		if err != nil {
			logger.Fatalf("generate report: %v", err)
		}
		fmt.Print(reporting.RenderMarkdown(report))
	case "samples-csv":
		samples, err := sampleStore.GetByRunID(ctx, *runID)
		if err != nil {
			logger.Fatalf("load samples: %v", err)
		}
		fmt.Print(reporting.RenderSamplesCSV(samples))
	case "rebalances-csv":
		generator := reporting.NewGenerator(runStore, sampleStore, eventStore)
		report, err := generator.Generate(ctx, *runID)
		if err != nil {
			logger.Fatalf("generate report: %v", err)
		}
		fmt.Print(reporting.RenderRebalancesCSV(report.Rebalances))
	default:
		logger.Fatalf("unknown format %q", *format)
	}
}
