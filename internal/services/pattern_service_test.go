package services

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlens/finlens-go/internal/models"
)

func newPatternService() *PatternService {
	return NewPatternService(newTestConfig(), newTestLogger())
}

func TestSeasonalAggregate_Buckets(t *testing.T) {
	ps := newPatternService()

	// Mon 2024-01-01 through Fri 2024-01-05: +1%, -1%, +2%, +1% on
	// Tue..Fri.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 101, 99.99, 101.9898, 103.009698}
	series := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		series[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Close: decimal.NewFromFloat(c)}
	}

	report := ps.SeasonalAggregate(series, nil)

	require.Len(t, report.Monthly, 12)
	require.Len(t, report.Quarterly, 4)
	require.Len(t, report.Weekday, 7)

	january := report.Monthly[0]
	assert.Equal(t, "Jan", january.Label)
	require.Len(t, january.Returns, 4)
	assert.InDelta(t, 0.0075, january.AvgReturn, 1e-6)
	assert.InDelta(t, 75.0, january.WinRate, 1e-6)

	q1 := report.Quarterly[0]
	assert.Equal(t, "Q1", q1.Label)
	assert.Len(t, q1.Returns, 4)

	// Tuesday saw the +1% day.
	tuesday := report.Weekday[2]
	assert.Equal(t, "Tuesday", tuesday.Label)
	require.Len(t, tuesday.Returns, 1)
	assert.InDelta(t, 0.01, tuesday.AvgReturn, 1e-9)
	assert.InDelta(t, 100.0, tuesday.WinRate, 1e-9)

	// Empty buckets report zeros, not NaN.
	december := report.Monthly[11]
	assert.Empty(t, december.Returns)
	assert.Zero(t, december.AvgReturn)
	assert.Zero(t, december.WinRate)
}

func TestSeasonalAggregate_Benchmarks(t *testing.T) {
	ps := newPatternService()
	series := makeSeries(100, 101, 102, 103, 104, 105)
	bench := makeSeries(50, 49, 48, 47, 46, 45)

	report := ps.SeasonalAggregate(series, map[string][]models.PricePoint{"SPY": bench})

	month := int(seriesStart.AddDate(0, 0, 1).Month()) - 1
	bucket := report.Monthly[month]
	require.Contains(t, bucket.Benchmarks, "SPY")
	assert.Less(t, bucket.Benchmarks["SPY"].AvgReturn, 0.0)
	assert.Zero(t, bucket.Benchmarks["SPY"].WinRate)
	assert.Greater(t, bucket.AvgReturn, 0.0)
}

func TestAnalyzePeakTrough_MarginExcluded(t *testing.T) {
	ps := newPatternService()

	// Extremes sit inside the first and last 5 points and must not be
	// flagged.
	series := makeSeries(200, 190, 100, 101, 102, 103, 104, 105, 106, 300, 1)

	result := ps.AnalyzePeakTrough(series)

	assert.Zero(t, result.TotalPeaks)
	assert.Zero(t, result.TotalTroughs)
}

func TestAnalyzePeakTrough_SinglePeakScenario(t *testing.T) {
	ps := newPatternService()

	// 300 daily closes rising linearly from 100 to 160 then falling to
	// 120.
	closes := append(linearCloses(100, 160, 150), linearCloses(160, 120, 151)[1:]...)
	require.Len(t, closes, 300)
	series := makeSeries(closes...)

	result := ps.AnalyzePeakTrough(series)

	require.Equal(t, 1, result.TotalPeaks)
	assert.Zero(t, result.TotalTroughs)
	peak := result.Peaks[0]
	assert.Equal(t, 149, peak.Index)
	assert.InDelta(t, 160, peak.Price, 1e-9)
}

func TestAnalyzePeakTrough_CyclesAndRecentLimit(t *testing.T) {
	ps := newPatternService()

	// 15 saw-tooth oscillations, peak every 20 days.
	var closes []float64
	for c := 0; c < 15; c++ {
		closes = append(closes, linearCloses(100, 120, 10)...)
		closes = append(closes, linearCloses(118, 102, 10)...)
	}
	series := makeSeries(closes...)

	result := ps.AnalyzePeakTrough(series)

	assert.Equal(t, 15, result.TotalPeaks)
	assert.Len(t, result.Peaks, 10)
	assert.Len(t, result.PeakCycles, 10)

	for _, cycle := range result.PeakCycles {
		assert.Equal(t, 20, cycle.Days)
		assert.True(t, cycle.To.Date.After(cycle.From.Date))
		assert.InDelta(t, 0, cycle.PriceChangePct, 1e-9)
	}
}

func TestSupportResistance_ResistanceAtTopBand(t *testing.T) {
	cfg := newTestConfig()
	// Keep every qualifying level so the far band is visible to the
	// assertion.
	cfg.Pattern.LevelsPerSide = 50
	ps := NewPatternService(cfg, newTestLogger())

	closes := append(linearCloses(100, 160, 150), linearCloses(160, 120, 151)[1:]...)
	series := makeSeries(closes...)

	result, err := ps.SupportResistance(series)
	require.NoError(t, err)

	assert.InDelta(t, 120, result.CurrentPrice, 1e-9)
	require.NotEmpty(t, result.Resistance)

	highest := result.Resistance[0].Price
	for _, level := range result.Resistance {
		assert.Greater(t, level.Price, result.CurrentPrice)
		assert.Greater(t, level.DistancePct, 0.0)
		assert.GreaterOrEqual(t, level.Touches, 5)
		highest = math.Max(highest, level.Price)
	}
	// Clustering must reach the highest 5% of the observed price range.
	assert.GreaterOrEqual(t, highest, 160-0.05*60)

	for _, level := range result.Support {
		assert.Less(t, level.Price, result.CurrentPrice)
		assert.Less(t, level.DistancePct, 0.0)
	}
}

func TestSupportResistance_SortedByProximityAndCapped(t *testing.T) {
	ps := newPatternService()

	closes := append(linearCloses(100, 160, 150), linearCloses(160, 120, 151)[1:]...)
	series := makeSeries(closes...)

	result, err := ps.SupportResistance(series)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(result.Resistance), 5)
	assert.LessOrEqual(t, len(result.Support), 5)
	for i := 1; i < len(result.Resistance); i++ {
		assert.LessOrEqual(t,
			math.Abs(result.Resistance[i-1].DistancePct),
			math.Abs(result.Resistance[i].DistancePct))
	}
}

func TestSupportResistance_FlatAndEmpty(t *testing.T) {
	ps := newPatternService()

	_, err := ps.SupportResistance(nil)
	assert.Error(t, err)

	flat, err := ps.SupportResistance(makeSeries(100, 100, 100, 100, 100, 100))
	require.NoError(t, err)
	assert.Empty(t, flat.Support)
	assert.Empty(t, flat.Resistance)
}
