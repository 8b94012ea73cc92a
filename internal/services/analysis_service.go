package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/finlens/finlens-go/internal/config"
	"github.com/finlens/finlens-go/internal/models"
	"github.com/finlens/finlens-go/internal/utils"
)

// AnalysisService orchestrates the analytics components into the combined
// dashboard payloads and deduplicates concurrent requests for the same
// symbol: a second caller arriving while an analysis is in flight waits for
// the first result instead of recomputing it. Entries are removed as soon
// as the computation completes.
type AnalysisService struct {
	cfg         *config.Config
	logger      *logrus.Logger
	correlation *CorrelationService
	patterns    *PatternService
	channels    *ChannelOptimizer

	mu       sync.Mutex
	inflight map[string]*inflightAnalysis
}

type inflightAnalysis struct {
	id     uuid.UUID
	done   chan struct{}
	report *models.AnalysisReport
	err    error
}

// NewAnalysisService creates the orchestrator and its component services.
func NewAnalysisService(cfg *config.Config, logger *logrus.Logger) *AnalysisService {
	return &AnalysisService{
		cfg:         cfg,
		logger:      logger,
		correlation: NewCorrelationService(cfg, logger),
		patterns:    NewPatternService(cfg, logger),
		channels:    NewChannelOptimizer(cfg, logger),
		inflight:    make(map[string]*inflightAnalysis),
	}
}

// Correlation exposes the correlation component.
func (as *AnalysisService) Correlation() *CorrelationService { return as.correlation }

// Patterns exposes the pattern and cycle component.
func (as *AnalysisService) Patterns() *PatternService { return as.patterns }

// Channels exposes the channel optimizer component.
func (as *AnalysisService) Channels() *ChannelOptimizer { return as.channels }

// Analyze produces the combined single-symbol report. Concurrent calls for
// the same symbol share one computation.
func (as *AnalysisService) Analyze(ctx context.Context, symbol string, series []models.PricePoint, benchmarks map[string][]models.PricePoint) (*models.AnalysisReport, error) {
	as.mu.Lock()
	if entry, ok := as.inflight[symbol]; ok {
		as.mu.Unlock()
		select {
		case <-entry.done:
			return entry.report, entry.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	entry := &inflightAnalysis{
		id:   uuid.New(),
		done: make(chan struct{}),
	}
	as.inflight[symbol] = entry
	as.mu.Unlock()

	entry.report, entry.err = as.analyze(entry.id, symbol, series, benchmarks)

	as.mu.Lock()
	delete(as.inflight, symbol)
	as.mu.Unlock()
	close(entry.done)

	return entry.report, entry.err
}

func (as *AnalysisService) analyze(id uuid.UUID, symbol string, series []models.PricePoint, benchmarks map[string][]models.PricePoint) (*models.AnalysisReport, error) {
	log := as.logger.WithFields(logrus.Fields{
		"request_id": id.String(),
		"symbol":     symbol,
		"points":     len(series),
	})
	log.Info("Starting analysis")

	if len(series) < 2 {
		return nil, utils.NewInsufficientDataError(2, len(series))
	}
	sorted := models.SortedByDate(series)

	report := &models.AnalysisReport{
		Symbol:      symbol,
		RequestID:   id.String(),
		GeneratedAt: time.Now().UTC(),
	}

	peakTrough := as.patterns.AnalyzePeakTrough(sorted)
	report.PeakTrough = &peakTrough

	seasonal := as.patterns.SeasonalAggregate(sorted, benchmarks)
	report.Seasonal = &seasonal

	report.DominantCycles = as.patterns.DominantCycles(sorted)

	crossovers, err := as.patterns.DetectCrossovers(sorted, as.cfg.Crossover.ShortPeriod, as.cfg.Crossover.LongPeriod)
	if err != nil {
		log.WithError(err).Warn("Skipping crossover detection")
		report.Error = err.Error()
	} else {
		report.Crossovers = crossovers
	}

	levels, err := as.patterns.SupportResistance(sorted)
	if err != nil {
		log.WithError(err).Warn("Skipping support/resistance clustering")
	} else {
		report.SupportResistance = levels
	}

	channel, err := as.channels.SimulateLookback(sorted)
	if err != nil {
		log.WithError(err).Warn("Skipping channel optimization")
	} else {
		report.Channel = &channel
	}

	log.Info("Analysis complete")
	return report, nil
}

// AnalyzePair produces the two-symbol correlation report. The pairwise
// registry key is order-sensitive on purpose: A vs B and B vs A differ in
// lead-lag sign.
func (as *AnalysisService) AnalyzePair(ctx context.Context, symbolA string, seriesA []models.PricePoint, symbolB string, seriesB []models.PricePoint) (*models.PairReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := uuid.New()
	log := as.logger.WithFields(logrus.Fields{
		"request_id": id.String(),
		"symbol_a":   symbolA,
		"symbol_b":   symbolB,
	})
	log.Info("Starting pair analysis")

	returnsA := ComputeReturns(seriesA)
	returnsB := ComputeReturns(seriesB)
	aligned := AlignByDate(returnsA, returnsB)
	if aligned.Len() == 0 {
		return nil, utils.NewValidationErrorf("no overlapping dates between %s and %s", symbolA, symbolB)
	}

	report := &models.PairReport{
		SymbolA:     symbolA,
		SymbolB:     symbolB,
		RequestID:   id.String(),
		GeneratedAt: time.Now().UTC(),
		SampleSize:  aligned.Len(),
	}

	corr, err := as.correlation.Pearson(aligned.Returns1, aligned.Returns2)
	if err != nil {
		return nil, err
	}
	report.Correlation = corr

	lagResults, err := as.correlation.CrossCorrelation(aligned.Returns1, aligned.Returns2, as.cfg.Correlation.MaxLag)
	if err != nil {
		return nil, err
	}
	report.LagResults = lagResults
	leadLag := as.correlation.FindLeadingStock(lagResults, symbolA, symbolB)
	report.LeadLag = &leadLag

	rolling, err := as.correlation.RollingCorrelation(aligned.Returns1, aligned.Returns2, aligned.Dates, as.cfg.Correlation.RollingWindow)
	if err != nil {
		// Not enough overlap for a rolling view; the headline numbers still
		// stand.
		log.WithError(err).Warn("Skipping rolling correlation")
	} else {
		report.Rolling = rolling
	}

	log.Info("Pair analysis complete")
	return report, nil
}

// InflightCount reports the number of analyses currently running, for
// host-process introspection.
func (as *AnalysisService) InflightCount() int {
	as.mu.Lock()
	defer as.mu.Unlock()
	return len(as.inflight)
}
