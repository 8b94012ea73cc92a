package services

import (
	"sort"

	"github.com/finlens/finlens-go/internal/models"
)

// DominantCycles scans the most recent closes for recurring cycle lengths
// using an unnormalized autocorrelation: sum of price[i]*price[i-lag]
// averaged over the overlap count. The products are not mean-subtracted, so
// the curve is dominated by the signal's DC level; the formula is kept
// as-is for parity with the upstream dashboard rather than replaced with a
// true spectral estimate. Candidate lengths are local maxima of the lag
// curve under the same strict window test as peak/trough detection, ranked
// by strength.
func (ps *PatternService) DominantCycles(series []models.PricePoint) []models.CycleCandidate {
	sorted := models.SortedByDate(series)
	closes := models.ClosePrices(sorted)
	if len(closes) > ps.cfg.Cycle.MaxWindow {
		closes = closes[len(closes)-ps.cfg.Cycle.MaxWindow:]
	}

	n := len(closes)
	maxLag := ps.cfg.Cycle.MaxLag
	if n/2 < maxLag {
		maxLag = n / 2
	}
	if maxLag < 1 {
		return []models.CycleCandidate{}
	}

	// autocorr[0] is unused padding so the index equals the lag.
	autocorr := make([]float64, maxLag+1)
	for lag := 1; lag <= maxLag; lag++ {
		var sum float64
		count := 0
		for i := lag; i < n; i++ {
			sum += closes[i] * closes[i-lag]
			count++
		}
		if count > 0 {
			autocorr[lag] = sum / float64(count)
		}
	}

	window := ps.cfg.Pattern.ExtremumWindow
	var candidates []models.CycleCandidate
	for lag := 1; lag <= maxLag; lag++ {
		if isLocalMax(autocorr, lag, window) {
			candidates = append(candidates, models.CycleCandidate{
				LengthDays: lag,
				Strength:   autocorr[lag],
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Strength > candidates[j].Strength
	})
	if len(candidates) > ps.cfg.Cycle.TopN {
		candidates = candidates[:ps.cfg.Cycle.TopN]
	}
	if candidates == nil {
		candidates = []models.CycleCandidate{}
	}
	return candidates
}
