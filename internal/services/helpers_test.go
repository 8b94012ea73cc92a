package services

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finlens/finlens-go/internal/config"
	"github.com/finlens/finlens-go/internal/models"
)

func newTestConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		LogLevel:    "error",
		Correlation: config.CorrelationConfig{MaxLag: 10, RollingWindow: 30, Years: 2},
		Pattern:     config.PatternConfig{ExtremumWindow: 5, RecentLimit: 10, LevelBuckets: 50, MinTouches: 5, LevelsPerSide: 5},
		Crossover:   config.CrossoverConfig{ShortPeriod: 50, LongPeriod: 200},
		Cycle:       config.CycleConfig{MaxWindow: 512, MaxLag: 200, TopN: 5},
		Channel: config.ChannelConfig{
			Lookback:         120,
			EndOffset:        0,
			StdMultiplier:    2.0,
			PriceSource:      "close",
			MaxSamplesPerDim: 50,
			TouchTolerance:   0.01,
			BoundaryFraction: 0.08,
			Timeframe:        "daily",
			Zones:            4,
		},
	}
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var seriesStart = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

// makeSeries builds a daily series with consecutive dates from the given
// closes.
func makeSeries(closes ...float64) []models.PricePoint {
	series := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		series[i] = models.PricePoint{
			Date:  seriesStart.AddDate(0, 0, i),
			Close: decimal.NewFromFloat(c),
		}
	}
	return series
}

// linearCloses generates count closes moving linearly from start to end
// inclusive.
func linearCloses(start, end float64, count int) []float64 {
	closes := make([]float64, count)
	if count == 1 {
		closes[0] = start
		return closes
	}
	step := (end - start) / float64(count-1)
	for i := range closes {
		closes[i] = start + float64(i)*step
	}
	return closes
}
