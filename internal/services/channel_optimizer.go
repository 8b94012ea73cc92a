package services

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/finlens/finlens-go/internal/config"
	"github.com/finlens/finlens-go/internal/models"
	"github.com/finlens/finlens-go/internal/utils"
)

// minLookback is the smallest channel window the grid search will consider.
const minLookback = 20

// ChannelOptimizer fits linear-regression channels around price action and
// searches for the window parameters that track it best.
type ChannelOptimizer struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewChannelOptimizer creates a new channel optimizer.
func NewChannelOptimizer(cfg *config.Config, logger *logrus.Logger) *ChannelOptimizer {
	return &ChannelOptimizer{
		cfg:    cfg,
		logger: logger,
	}
}

// linearRegression fits values ~ index by ordinary least squares and
// returns the slope, intercept and population standard deviation of the
// residuals.
func linearRegression(values []float64) (slope, intercept, stdDev float64) {
	n := float64(len(values))
	if n < 2 {
		if len(values) == 1 {
			return 0, values[0], 0
		}
		return 0, 0, 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n, 0
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n

	var sumSq float64
	for i, v := range values {
		r := v - (slope*float64(i) + intercept)
		sumSq += r * r
	}
	stdDev = math.Sqrt(sumSq / n)
	return slope, intercept, stdDev
}

// channelWindow slices the trailing lookback window ending endOffset points
// before the most recent price.
func channelWindow(prices []float64, lookback, endOffset int) ([]float64, error) {
	if lookback < 2 {
		return nil, utils.NewValidationErrorf("channel lookback must be at least 2, got %d", lookback)
	}
	if endOffset < 0 {
		return nil, utils.NewValidationErrorf("channel end offset must be non-negative, got %d", endOffset)
	}
	if len(prices) < lookback+endOffset {
		return nil, utils.NewInsufficientDataError(lookback+endOffset, len(prices))
	}
	end := len(prices) - endOffset
	return prices[end-lookback : end], nil
}

// FitChannel fits a regression channel over the trailing window using the
// configured price source and standard-deviation multiplier.
func (co *ChannelOptimizer) FitChannel(series []models.PricePoint, lookback, endOffset int) (models.ChannelModel, error) {
	sorted := models.SortedByDate(series)
	prices := models.SourcePrices(sorted, co.cfg.Channel.Source())
	window, err := channelWindow(prices, lookback, endOffset)
	if err != nil {
		return models.ChannelModel{}, err
	}

	slope, intercept, stdDev := linearRegression(window)
	return models.ChannelModel{
		Slope:         slope,
		Intercept:     intercept,
		StdDev:        stdDev,
		Lookback:      lookback,
		EndOffset:     endOffset,
		StdMultiplier: co.cfg.Channel.StdMultiplier,
	}, nil
}

// smoothingPeriod scales the pre-smoothing SMA with the chart's display
// timeframe: coarser timeframes smooth harder before turning points are
// located.
func smoothingPeriod(timeframe string) int {
	switch timeframe {
	case "weekly":
		return 5
	case "monthly":
		return 9
	default:
		return 3
	}
}

// turningPoints locates local direction changes of the smoothed residual,
// reported as window indexes. The first and last smoothed points count as
// turning points since the slope beyond the window is unknown.
func turningPoints(smoothedResidual []float64, firstIndex int) []int {
	if len(smoothedResidual) == 0 {
		return nil
	}
	points := []int{firstIndex}
	for i := 1; i < len(smoothedResidual)-1; i++ {
		prev := smoothedResidual[i] - smoothedResidual[i-1]
		next := smoothedResidual[i+1] - smoothedResidual[i]
		if (prev > 0 && next < 0) || (prev < 0 && next > 0) {
			points = append(points, firstIndex+i)
		}
	}
	if len(smoothedResidual) > 1 {
		points = append(points, firstIndex+len(smoothedResidual)-1)
	}
	return points
}

// ComputeTouchAlignment centers a channel on its extreme residuals and
// decides whether price respects each bound. The intercept shift makes the
// maximum positive and minimum negative residual symmetric, and the
// standard-deviation multiplier is scaled so the bounds pass through the
// extremes. A bound counts as touched only when a turning point of the
// smoothed residual sits at the extreme inside the first or last fraction
// of the window; an extreme mid-window is not confirmation that price
// respects the boundary going into the edge of the visible chart.
func (co *ChannelOptimizer) ComputeTouchAlignment(series []models.PricePoint, lookback, endOffset int) (models.TouchAlignment, error) {
	sorted := models.SortedByDate(series)
	prices := models.SourcePrices(sorted, co.cfg.Channel.Source())
	window, err := channelWindow(prices, lookback, endOffset)
	if err != nil {
		return models.TouchAlignment{}, err
	}

	slope, intercept, stdDev := linearRegression(window)

	maxRes, minRes := math.Inf(-1), math.Inf(1)
	maxIdx, minIdx := 0, 0
	for i, v := range window {
		r := v - (slope*float64(i) + intercept)
		if r > maxRes {
			maxRes, maxIdx = r, i
		}
		if r < minRes {
			minRes, minIdx = r, i
		}
	}

	shift := (maxRes + minRes) / 2
	extreme := (maxRes - minRes) / 2

	channel := models.ChannelModel{
		Slope:          slope,
		Intercept:      intercept,
		StdDev:         stdDev,
		Lookback:       lookback,
		EndOffset:      endOffset,
		StdMultiplier:  co.cfg.Channel.StdMultiplier,
		InterceptShift: shift,
	}

	if stdDev == 0 || extreme == 0 {
		// Perfectly linear window: the bounds collapse onto the centerline
		// and trivially touch on both sides.
		return models.TouchAlignment{
			Channel:      channel,
			MaxResidual:  maxRes,
			MinResidual:  minRes,
			TouchesUpper: true,
			TouchesLower: true,
		}, nil
	}
	channel.StdMultiplier = extreme / stdDev

	period := smoothingPeriod(co.cfg.Channel.Timeframe)
	var turns []int
	if len(window) >= period {
		smoothed := simpleMovingAverage(window, period)
		smoothedResidual := make([]float64, len(smoothed))
		for k, v := range smoothed {
			idx := k + period - 1
			smoothedResidual[k] = v - (slope*float64(idx) + intercept + shift)
		}
		turns = turningPoints(smoothedResidual, period-1)
	}

	boundary := int(float64(lookback) * co.cfg.Channel.BoundaryFraction)
	if boundary < 1 {
		boundary = 1
	}
	inBoundary := func(idx int) bool {
		return idx < boundary || idx >= lookback-boundary
	}
	nearTurn := func(idx int) bool {
		for _, tp := range turns {
			if abs(tp-idx) <= period {
				return true
			}
		}
		return false
	}

	return models.TouchAlignment{
		Channel:      channel,
		MaxResidual:  maxRes,
		MinResidual:  minRes,
		TouchesUpper: inBoundary(maxIdx) && nearTurn(maxIdx),
		TouchesLower: inBoundary(minIdx) && nearTurn(minIdx),
	}, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// gridStep spaces a coarse sweep so a dimension is sampled at most
// maxSamples times.
func gridStep(rangeSize, maxSamples int) int {
	if maxSamples < 1 {
		maxSamples = 1
	}
	step := (rangeSize + maxSamples - 1) / maxSamples
	if step < 1 {
		step = 1
	}
	return step
}

// SimulateLookback explores lookback and end-offset combinations on a
// bounded grid, keeping the pair whose centerline passes closest to the
// most points, then tunes the standard-deviation multiplier at that pair
// via touch alignment. The two stages are deliberately separate; the
// search repeats on the most recent quarter of the data so callers can
// compare a long-horizon and a short-horizon optimum. The whole procedure
// is deterministic.
func (co *ChannelOptimizer) SimulateLookback(series []models.PricePoint) (models.GridSearchResult, error) {
	sorted := models.SortedByDate(series)

	full, err := co.searchGrid(sorted)
	if err != nil {
		return models.GridSearchResult{}, err
	}
	result := models.GridSearchResult{Full: full}

	recentStart := len(sorted) - len(sorted)/4
	recent := sorted[recentStart:]
	if len(recent) >= minLookback {
		recentResult, err := co.searchGrid(recent)
		if err == nil {
			result.Recent = &recentResult
		}
	}

	co.logger.WithFields(logrus.Fields{
		"points":         len(sorted),
		"lookback":       full.OptimalLookback,
		"end_offset":     full.OptimalEndOffset,
		"std_multiplier": full.OptimalStdMultiplier,
		"coverage":       full.CoverageCount,
	}).Debug("Channel grid search complete")

	return result, nil
}

func (co *ChannelOptimizer) searchGrid(sorted []models.PricePoint) (models.OptimizationResult, error) {
	prices := models.SourcePrices(sorted, co.cfg.Channel.Source())
	n := len(prices)
	if n < minLookback {
		return models.OptimizationResult{}, utils.NewInsufficientDataError(minLookback, n)
	}

	maxSamples := co.cfg.Channel.MaxSamplesPerDim
	maxOffset := n / 5
	lbStep := gridStep(n-minLookback+1, maxSamples)
	offStep := gridStep(maxOffset+1, maxSamples)
	tolerance := co.cfg.Channel.TouchTolerance

	bestCount := -1
	bestLookback, bestOffset := minLookback, 0
	for lookback := minLookback; lookback <= n; lookback += lbStep {
		for offset := 0; offset <= maxOffset; offset += offStep {
			if lookback+offset > n {
				continue
			}
			window := prices[n-offset-lookback : n-offset]
			slope, intercept, _ := linearRegression(window)

			count := 0
			for i, v := range window {
				center := slope*float64(i) + intercept
				if center != 0 && math.Abs(v-center)/math.Abs(center) <= tolerance {
					count++
				}
			}
			// Strictly greater keeps the first-found optimum, so repeated
			// runs on identical input pick identical parameters.
			if count > bestCount {
				bestCount = count
				bestLookback, bestOffset = lookback, offset
			}
		}
	}

	alignment, err := co.ComputeTouchAlignment(sorted, bestLookback, bestOffset)
	if err != nil {
		return models.OptimizationResult{}, err
	}

	return models.OptimizationResult{
		OptimalLookback:      bestLookback,
		OptimalEndOffset:     bestOffset,
		OptimalStdMultiplier: alignment.Channel.StdMultiplier,
		InterceptShift:       alignment.Channel.InterceptShift,
		TouchesUpper:         alignment.TouchesUpper,
		TouchesLower:         alignment.TouchesLower,
		CoverageCount:        bestCount,
	}, nil
}

// MultiChannel splits the series into disjoint equal ranges and aligns one
// channel per range, oldest first.
func (co *ChannelOptimizer) MultiChannel(series []models.PricePoint, segments int) ([]models.TouchAlignment, error) {
	if segments < 1 {
		return nil, utils.NewValidationErrorf("segments must be positive, got %d", segments)
	}
	sorted := models.SortedByDate(series)
	n := len(sorted)
	segLen := n / segments
	if segLen < 2 {
		return nil, utils.NewInsufficientDataError(2*segments, n)
	}

	alignments := make([]models.TouchAlignment, 0, segments)
	for s := 0; s < segments; s++ {
		start := s * segLen
		end := start + segLen
		if s == segments-1 {
			end = n
		}
		alignment, err := co.ComputeTouchAlignment(sorted, end-start, n-end)
		if err != nil {
			return nil, err
		}
		alignments = append(alignments, alignment)
	}
	return alignments, nil
}

// ManualChannel aligns a channel over a caller-chosen index range
// (inclusive on both ends) of the date-sorted series.
func (co *ChannelOptimizer) ManualChannel(series []models.PricePoint, startIdx, endIdx int) (models.TouchAlignment, error) {
	sorted := models.SortedByDate(series)
	if startIdx < 0 || endIdx >= len(sorted) || startIdx >= endIdx {
		return models.TouchAlignment{}, utils.NewValidationErrorf("invalid range [%d, %d] for %d points", startIdx, endIdx, len(sorted))
	}
	return co.ComputeTouchAlignment(sorted, endIdx-startIdx+1, len(sorted)-1-endIdx)
}
