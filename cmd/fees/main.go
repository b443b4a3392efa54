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

	"uniswap-lp-lab/internal/blocks"
	"uniswap-lp-lab/internal/config"
	"uniswap-lp-lab/internal/evm"
	"uniswap-lp-lab/internal/fees"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	startFlag := flag.String("start", "", "Period start, YYYY-MM-DD (default: config start_date)")
	endFlag := flag.String("end", "", "Period end, YYYY-MM-DD (default: config end_date)")
	capital := flag.Float64("capital", 0, "Capital in USD (default: config initial_capital)")
	outputJSON := flag.Bool("json", false, "Output result as JSON")
	flag.Parse()

	logger := log.New(os.Stderr, "[fees] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	start, err := cfg.StartTime()
	if err != nil {
		logger.Fatalf("parse start date: %v", err)
	}
	end, err := cfg.EndTime()
	if err != nil {
		logger.Fatalf("parse end date: %v", err)
	}
	if *startFlag != "" {
		if start, err = time.Parse("2006-01-02", *startFlag); err != nil {
			logger.Fatalf("parse -start: %v", err)
		}
	}
	if *endFlag != "" {
		if end, err = time.Parse("2006-01-02", *endFlag); err != nil {
			logger.Fatalf("parse -end: %v", err)
		}
	}
	if !end.After(start) {
		logger.Fatalf("period end %s is not after start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	if *capital == 0 {
		*capital = cfg.Backtest.InitialCapital
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

	pool := evm.NewHTTPClient(cfg.Pool.RPCURL, cfg.Pool.Address)
	calculator := fees.New(pool, cfg.Backtest.LowerBoundFactor, cfg.Backtest.UpperBoundFactor, blocks.Options{
		ApproxBlockTime:  cfg.Pool.ApproxBlockTimeSeconds,
		ToleranceSeconds: cfg.Search.ToleranceSeconds,
		MaxTries:         cfg.Search.MaxTries,
	}, logger)

	logger.Printf("computing fees for %s on %s, %s..%s, capital %.2f",
		cfg.Pool.Address, cfg.Pool.Chain,
		start.Format("2006-01-02"), end.Format("2006-01-02"), *capital)

	result, err := calculator.CalculateFees(ctx, start, end, *capital, nil)
	if err != nil {
		logger.Fatalf("calculate fees: %v", err)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Printf("Period:         %s .. %s (%d seconds)\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"), result.PeriodSeconds)
	fmt.Printf("Liquidity:      %.4f\n", result.Liquidity)
	fmt.Printf("Fees token0:    %.6f (raw units)\n", result.FeesToken0Raw)
	fmt.Printf("Fees token1:    %.6f (raw units)\n", result.FeesToken1Raw)
	fmt.Printf("Fees USD:       %.4f\n", result.FeesUSD)
	fmt.Printf("APR:            %.2f%%\n", result.APRPercent)
}
