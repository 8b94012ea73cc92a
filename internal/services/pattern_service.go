package services

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/finlens/finlens-go/internal/config"
	"github.com/finlens/finlens-go/internal/models"
	"github.com/finlens/finlens-go/internal/utils"
)

// PatternService detects recurring calendar patterns, price extrema and
// clustered support/resistance levels in a daily series.
type PatternService struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewPatternService creates a new pattern service.
func NewPatternService(cfg *config.Config, logger *logrus.Logger) *PatternService {
	return &PatternService{
		cfg:    cfg,
		logger: logger,
	}
}

var (
	monthLabels   = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	quarterLabels = []string{"Q1", "Q2", "Q3", "Q4"}
	weekdayLabels = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
)

// SeasonalAggregate buckets daily returns by calendar month, quarter and
// weekday, reporting the average return and win rate of each bucket.
// Benchmark series get the same aggregation, merged into each bucket under
// the benchmark's symbol. Buckets with no observations report zeros.
func (ps *PatternService) SeasonalAggregate(series []models.PricePoint, benchmarks map[string][]models.PricePoint) models.SeasonalReport {
	report := models.SeasonalReport{
		Monthly:   newBuckets(monthLabels, 0),
		Quarterly: newBuckets(quarterLabels, 1),
		Weekday:   newBuckets(weekdayLabels, 0),
	}

	collectSeasonal(&report, ComputeReturns(series), "")
	for symbol, bench := range benchmarks {
		collectSeasonal(&report, ComputeReturns(bench), symbol)
	}
	finishBuckets(report.Monthly)
	finishBuckets(report.Quarterly)
	finishBuckets(report.Weekday)

	return report
}

func newBuckets(labels []string, firstKey int) []models.SeasonalBucket {
	buckets := make([]models.SeasonalBucket, len(labels))
	for i, label := range labels {
		buckets[i] = models.SeasonalBucket{Key: firstKey + i, Label: label}
	}
	return buckets
}

// collectSeasonal accumulates one return series into the report. An empty
// symbol means the primary instrument; anything else lands in the bucket's
// benchmark map.
func collectSeasonal(report *models.SeasonalReport, returns []models.ReturnPoint, symbol string) {
	type acc struct {
		returns []float64
		wins    int
	}
	monthly := make([]acc, 12)
	quarterly := make([]acc, 4)
	weekday := make([]acc, 7)

	add := func(a *acc, r float64) {
		a.returns = append(a.returns, r)
		if r > 0 {
			a.wins++
		}
	}
	for _, r := range returns {
		month := int(r.Date.Month()) - 1
		add(&monthly[month], r.Return)
		add(&quarterly[month/3], r.Return)
		add(&weekday[int(r.Date.Weekday())], r.Return)
	}

	store := func(buckets []models.SeasonalBucket, accs []acc) {
		for i := range buckets {
			avg, winRate := bucketStats(accs[i].returns, accs[i].wins)
			if symbol == "" {
				buckets[i].Returns = accs[i].returns
				buckets[i].AvgReturn = avg
				buckets[i].WinRate = winRate
				continue
			}
			if buckets[i].Benchmarks == nil {
				buckets[i].Benchmarks = make(map[string]models.SeasonalStats)
			}
			buckets[i].Benchmarks[symbol] = models.SeasonalStats{AvgReturn: avg, WinRate: winRate}
		}
	}
	store(report.Monthly, monthly)
	store(report.Quarterly, quarterly)
	store(report.Weekday, weekday)
}

func bucketStats(returns []float64, wins int) (avgReturn, winRate float64) {
	if len(returns) == 0 {
		return 0, 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	return sum / float64(len(returns)), float64(wins) / float64(len(returns)) * 100
}

func finishBuckets(buckets []models.SeasonalBucket) {
	for i := range buckets {
		if buckets[i].Returns == nil {
			buckets[i].Returns = []float64{}
		}
	}
}

// isLocalMax reports whether values[i] strictly exceeds every value in the
// window points on each side. Indexes without full margin never qualify.
func isLocalMax(values []float64, i, window int) bool {
	if i < window || i >= len(values)-window {
		return false
	}
	for j := i - window; j <= i+window; j++ {
		if j == i {
			continue
		}
		if values[j] >= values[i] {
			return false
		}
	}
	return true
}

func isLocalMin(values []float64, i, window int) bool {
	if i < window || i >= len(values)-window {
		return false
	}
	for j := i - window; j <= i+window; j++ {
		if j == i {
			continue
		}
		if values[j] <= values[i] {
			return false
		}
	}
	return true
}

// AnalyzePeakTrough finds strict local extrema over a fixed window on each
// side and pairs consecutive same-type extrema into cycles. No smoothing is
// applied, so noisy series produce many small extrema; that is accepted
// behavior. Only the most recent entries are retained; totals carry the
// full counts.
func (ps *PatternService) AnalyzePeakTrough(series []models.PricePoint) models.PeakTroughResult {
	sorted := models.SortedByDate(series)
	closes := models.ClosePrices(sorted)
	window := ps.cfg.Pattern.ExtremumWindow

	var peaks, troughs []models.CyclePoint
	for i := range closes {
		point := models.CyclePoint{Date: sorted[i].Date, Price: closes[i], Index: i}
		if isLocalMax(closes, i, window) {
			peaks = append(peaks, point)
		} else if isLocalMin(closes, i, window) {
			troughs = append(troughs, point)
		}
	}

	peakCycles := buildCycles(peaks)
	troughCycles := buildCycles(troughs)

	limit := ps.cfg.Pattern.RecentLimit
	result := models.PeakTroughResult{
		Peaks:        lastN(peaks, limit),
		Troughs:      lastN(troughs, limit),
		PeakCycles:   lastN(peakCycles, limit),
		TroughCycles: lastN(troughCycles, limit),
		TotalPeaks:   len(peaks),
		TotalTroughs: len(troughs),
	}

	ps.logger.WithFields(logrus.Fields{
		"points":  len(sorted),
		"peaks":   len(peaks),
		"troughs": len(troughs),
	}).Debug("Peak/trough analysis complete")

	return result
}

func buildCycles(points []models.CyclePoint) []models.Cycle {
	if len(points) < 2 {
		return nil
	}
	cycles := make([]models.Cycle, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		from, to := points[i-1], points[i]
		var change float64
		if from.Price != 0 {
			change = (to.Price - from.Price) / from.Price * 100
		}
		cycles = append(cycles, models.Cycle{
			From:           from,
			To:             to,
			Days:           int(to.Date.Sub(from.Date).Hours() / 24),
			PriceChangePct: change,
		})
	}
	return cycles
}

func lastN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

// SupportResistance divides the observed price range into equal-width
// buckets, keeps buckets with enough close touches as candidate levels, and
// returns the nearest levels on each side of the current price sorted by
// proximity. Distances are percentages of the current price.
func (ps *PatternService) SupportResistance(series []models.PricePoint) (*models.SupportResistanceResult, error) {
	sorted := models.SortedByDate(series)
	if len(sorted) == 0 {
		return nil, utils.NewInsufficientDataError(1, 0)
	}

	closes := models.ClosePrices(sorted)
	lo, hi := closes[0], closes[0]
	for _, c := range closes {
		lo = math.Min(lo, c)
		hi = math.Max(hi, c)
	}
	current := closes[len(closes)-1]

	bucketCount := ps.cfg.Pattern.LevelBuckets
	width := (hi - lo) / float64(bucketCount)
	if width == 0 {
		// Flat series: every close sits on the same level, nothing to rank.
		return &models.SupportResistanceResult{
			CurrentPrice: current,
			Support:      []models.PriceLevel{},
			Resistance:   []models.PriceLevel{},
		}, nil
	}

	touches := make([]int, bucketCount)
	for _, c := range closes {
		idx := int((c - lo) / width)
		if idx >= bucketCount {
			idx = bucketCount - 1
		}
		touches[idx]++
	}

	var support, resistance []models.PriceLevel
	for i, count := range touches {
		if count < ps.cfg.Pattern.MinTouches {
			continue
		}
		level := lo + (float64(i)+0.5)*width
		entry := models.PriceLevel{
			Price:       level,
			Touches:     count,
			DistancePct: (level - current) / current * 100,
		}
		if level < current {
			support = append(support, entry)
		} else if level > current {
			resistance = append(resistance, entry)
		}
	}

	byProximity := func(levels []models.PriceLevel) {
		sort.SliceStable(levels, func(i, j int) bool {
			return math.Abs(levels[i].DistancePct) < math.Abs(levels[j].DistancePct)
		})
	}
	byProximity(support)
	byProximity(resistance)

	perSide := ps.cfg.Pattern.LevelsPerSide
	if len(support) > perSide {
		support = support[:perSide]
	}
	if len(resistance) > perSide {
		resistance = resistance[:perSide]
	}
	if support == nil {
		support = []models.PriceLevel{}
	}
	if resistance == nil {
		resistance = []models.PriceLevel{}
	}

	return &models.SupportResistanceResult{
		CurrentPrice: current,
		Support:      support,
		Resistance:   resistance,
	}, nil
}
