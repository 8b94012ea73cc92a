package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDominantCycles_FindsPeriodicSignal(t *testing.T) {
	ps := newPatternService()

	// A 20-day sine around a fixed level: the autocorrelation curve has
	// local maxima at multiples of the period.
	const period = 20.0
	closes := make([]float64, 240)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(2*math.Pi*float64(i)/period)
	}

	candidates := ps.DominantCycles(makeSeries(closes...))

	require.NotEmpty(t, candidates)
	assert.LessOrEqual(t, len(candidates), 5)

	found := false
	for _, c := range candidates {
		if c.LengthDays%int(period) == 0 {
			found = true
		}
		assert.Greater(t, c.Strength, 0.0)
	}
	assert.True(t, found, "expected a multiple of the true period among candidates %v", candidates)

	// Candidates are ranked by strength.
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Strength, candidates[i].Strength)
	}
}

func TestDominantCycles_UsesRecentWindowOnly(t *testing.T) {
	cfg := newTestConfig()
	cfg.Cycle.MaxWindow = 100
	cfg.Cycle.MaxLag = 40
	ps := NewPatternService(cfg, newTestLogger())

	// Old data is wildly different; only the last 100 points should shape
	// the result.
	closes := make([]float64, 300)
	for i := range closes {
		if i < 200 {
			closes[i] = 1000
		} else {
			closes[i] = 100 + 10*math.Sin(2*math.Pi*float64(i)/10)
		}
	}

	candidates := ps.DominantCycles(makeSeries(closes...))

	for _, c := range candidates {
		assert.LessOrEqual(t, c.LengthDays, 40)
		// Autocorrelation of closes near 100 cannot reach the magnitude
		// the old 1000-level data would produce.
		assert.Less(t, c.Strength, 200.0*200.0)
	}
}

func TestDominantCycles_TooShort(t *testing.T) {
	ps := newPatternService()

	assert.Empty(t, ps.DominantCycles(makeSeries(100)))
	assert.Empty(t, ps.DominantCycles(nil))
}

func TestDominantCycles_Deterministic(t *testing.T) {
	ps := newPatternService()
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/7) + 3*math.Cos(float64(i)/3)
	}
	series := makeSeries(closes...)

	first := ps.DominantCycles(series)
	second := ps.DominantCycles(series)

	assert.Equal(t, first, second)
}
