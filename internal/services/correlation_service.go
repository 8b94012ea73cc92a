package services

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finlens/finlens-go/internal/config"
	"github.com/finlens/finlens-go/internal/models"
	"github.com/finlens/finlens-go/internal/utils"
)

// CorrelationService computes return correlations and lead-lag
// relationships between two instruments.
type CorrelationService struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewCorrelationService creates a new correlation service.
func NewCorrelationService(cfg *config.Config, logger *logrus.Logger) *CorrelationService {
	return &CorrelationService{
		cfg:    cfg,
		logger: logger,
	}
}

// pearson computes the Pearson correlation coefficient. Mismatched or empty
// inputs and zero-variance series all yield 0; these are defined edge
// cases, not numerical errors.
func pearson(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return 0
	}
	return cov / denom
}

// Pearson is the exported pairwise entry point. Passing series of different
// lengths is a precondition violation and returns a typed error.
func (cs *CorrelationService) Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, utils.NewValidationErrorf("mismatched series lengths: %d vs %d", len(x), len(y))
	}
	return pearson(x, y), nil
}

// CrossCorrelation computes the lagged correlation between two aligned
// return series for every lag in [-maxLag, maxLag]. A positive lag shifts x
// back in time, so a high correlation at lag > 0 means x leads y by that
// many days. Each lag uses the maximal complete overlap, dropping |lag|
// points from the leading side.
func (cs *CorrelationService) CrossCorrelation(x, y []float64, maxLag int) ([]models.LagCorrelation, error) {
	if len(x) != len(y) {
		return nil, utils.NewValidationErrorf("mismatched series lengths: %d vs %d", len(x), len(y))
	}
	if maxLag < 0 {
		return nil, utils.NewValidationErrorf("maxLag must be non-negative, got %d", maxLag)
	}

	n := len(x)
	results := make([]models.LagCorrelation, 0, 2*maxLag+1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		var corr float64
		shift := lag
		if shift < 0 {
			shift = -shift
		}
		if shift < n {
			if lag >= 0 {
				corr = pearson(x[:n-shift], y[shift:])
			} else {
				corr = pearson(x[shift:], y[:n-shift])
			}
		}
		results = append(results, models.LagCorrelation{Lag: lag, Correlation: corr})
	}
	return results, nil
}

// FindLeadingStock selects the lag with the largest correlation magnitude
// and maps it to a leader. The scan runs from -maxLag upward and replaces
// the best candidate only on strictly greater magnitude, so under equal
// magnitudes the first-encountered (smallest |lag|) result wins. This
// tie-break is relied on by downstream consumers and must not change.
func (cs *CorrelationService) FindLeadingStock(lagResults []models.LagCorrelation, symbolA, symbolB string) models.LeadLagResult {
	if len(lagResults) == 0 {
		return models.LeadLagResult{Interpretation: "no lag correlations available"}
	}

	best := lagResults[0]
	for _, lr := range lagResults[1:] {
		if math.Abs(lr.Correlation) > math.Abs(best.Correlation) {
			best = lr
		}
	}

	result := models.LeadLagResult{
		LagDays:     best.Lag,
		Correlation: best.Correlation,
		Strength:    correlationStrength(best.Correlation),
	}

	switch {
	case best.Lag > 0:
		result.Leader = symbolA
		result.Interpretation = fmt.Sprintf("%s leads %s by %d day(s) (%s correlation, %.2f)",
			symbolA, symbolB, best.Lag, result.Strength, best.Correlation)
	case best.Lag < 0:
		result.Leader = symbolB
		result.Interpretation = fmt.Sprintf("%s leads %s by %d day(s) (%s correlation, %.2f)",
			symbolB, symbolA, -best.Lag, result.Strength, best.Correlation)
	default:
		result.Interpretation = fmt.Sprintf("%s and %s move together with no leader (%s correlation, %.2f)",
			symbolA, symbolB, result.Strength, best.Correlation)
	}

	cs.logger.WithFields(logrus.Fields{
		"symbol_a":    symbolA,
		"symbol_b":    symbolB,
		"lag":         best.Lag,
		"correlation": best.Correlation,
	}).Debug("Lead-lag inference complete")

	return result
}

// correlationStrength buckets an absolute correlation into the labels used
// by the dashboard copy.
func correlationStrength(corr float64) string {
	abs := math.Abs(corr)
	switch {
	case abs < 0.3:
		return "weak"
	case abs < 0.5:
		return "moderate"
	case abs < 0.7:
		return "strong"
	default:
		return "very strong"
	}
}

// RollingCorrelation computes the Pearson correlation over a trailing
// window at every index where a full window exists. The output has length
// len(x) - window + 1.
func (cs *CorrelationService) RollingCorrelation(x, y []float64, dates []time.Time, window int) ([]models.RollingCorrelationPoint, error) {
	if len(x) != len(y) || len(x) != len(dates) {
		return nil, utils.NewValidationErrorf("mismatched series lengths: %d, %d, %d", len(x), len(y), len(dates))
	}
	if window < 2 {
		return nil, utils.NewValidationErrorf("rolling window must be at least 2, got %d", window)
	}
	if len(x) < window {
		return nil, utils.NewInsufficientDataError(window, len(x))
	}

	points := make([]models.RollingCorrelationPoint, 0, len(x)-window+1)
	for i := window - 1; i < len(x); i++ {
		points = append(points, models.RollingCorrelationPoint{
			Date:        dates[i],
			Correlation: pearson(x[i-window+1:i+1], y[i-window+1:i+1]),
		})
	}
	return points, nil
}
