package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/finlens/finlens-go/internal/config"
	"github.com/finlens/finlens-go/internal/models"
	"github.com/finlens/finlens-go/internal/services"
)

var (
	pricesFlag     = flag.String("prices", "", "path to a JSON file with the primary OHLCV series")
	symbolFlag     = flag.String("symbol", "", "symbol of the primary series (defaults to the file name)")
	pairFlag       = flag.String("pair", "", "path to a second OHLCV series for correlation analysis")
	pairSymbolFlag = flag.String("pair-symbol", "", "symbol of the second series")
	benchmarksFlag = flag.String("benchmarks", "", "comma-separated symbol=file pairs of benchmark series")
)

func main() {
	flag.Parse()

	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetOutput(os.Stderr)

	if *pricesFlag == "" {
		log.Fatal("-prices is required")
	}

	series, err := readSeries(*pricesFlag)
	if err != nil {
		log.Fatalf("Failed to read price series: %v", err)
	}
	symbol := *symbolFlag
	if symbol == "" {
		symbol = strings.ToUpper(strings.TrimSuffix(filepath.Base(*pricesFlag), filepath.Ext(*pricesFlag)))
	}

	benchmarks, err := readBenchmarks(*benchmarksFlag)
	if err != nil {
		log.Fatalf("Failed to read benchmarks: %v", err)
	}

	analysis := services.NewAnalysisService(cfg, logger)
	ctx := context.Background()

	report, err := analysis.Analyze(ctx, symbol, series, benchmarks)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	output := map[string]interface{}{"analysis": report}

	if *pairFlag != "" {
		pairSeries, err := readSeries(*pairFlag)
		if err != nil {
			log.Fatalf("Failed to read pair series: %v", err)
		}
		pairSymbol := *pairSymbolFlag
		if pairSymbol == "" {
			pairSymbol = strings.ToUpper(strings.TrimSuffix(filepath.Base(*pairFlag), filepath.Ext(*pairFlag)))
		}
		pairReport, err := analysis.AnalyzePair(ctx, symbol, series, pairSymbol, pairSeries)
		if err != nil {
			log.Fatalf("Pair analysis failed: %v", err)
		}
		output["pair"] = pairReport
	}

	encoded, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}
	fmt.Println(string(encoded))
}

func readSeries(path string) ([]models.PricePoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return models.ParsePricePoints(data)
}

func readBenchmarks(list string) (map[string][]models.PricePoint, error) {
	if list == "" {
		return nil, nil
	}
	benchmarks := make(map[string][]models.PricePoint)
	for _, entry := range strings.Split(list, ",") {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid benchmark entry %q, want symbol=file", entry)
		}
		series, err := readSeries(parts[1])
		if err != nil {
			return nil, err
		}
		benchmarks[strings.ToUpper(parts[0])] = series
	}
	return benchmarks, nil
}
