package models

import "time"

// LagCorrelation is the correlation between two return series at one lag.
// A positive lag means the first series leads the second by that many days.
type LagCorrelation struct {
	Lag         int     `json:"lag"`
	Correlation float64 `json:"correlation"`
}

// LeadLagResult identifies which of two symbols leads the other.
type LeadLagResult struct {
	Leader         string  `json:"leader,omitempty"`
	LagDays        int     `json:"lag_days"`
	Correlation    float64 `json:"correlation"`
	Strength       string  `json:"strength"`
	Interpretation string  `json:"interpretation"`
}

// RollingCorrelationPoint is the trailing-window correlation ending at one
// date.
type RollingCorrelationPoint struct {
	Date        time.Time `json:"date"`
	Correlation float64   `json:"correlation"`
}

// SeasonalStats holds the aggregate statistics of one calendar bucket.
type SeasonalStats struct {
	AvgReturn float64 `json:"avg_return"`
	WinRate   float64 `json:"win_rate"`
}

// SeasonalBucket aggregates daily returns for one calendar bucket (a month,
// quarter or weekday). Benchmarks carries the same statistics computed per
// benchmark symbol.
type SeasonalBucket struct {
	Key        int                      `json:"key"`
	Label      string                   `json:"label"`
	Returns    []float64                `json:"returns"`
	AvgReturn  float64                  `json:"avg_return"`
	WinRate    float64                  `json:"win_rate"`
	Benchmarks map[string]SeasonalStats `json:"benchmarks,omitempty"`
}

// SeasonalReport groups the three calendar aggregations.
type SeasonalReport struct {
	Monthly   []SeasonalBucket `json:"monthly"`
	Quarterly []SeasonalBucket `json:"quarterly"`
	Weekday   []SeasonalBucket `json:"weekday"`
}

// CyclePoint is a detected local price extremum.
type CyclePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
	Index int       `json:"index"`
}

// Cycle is a pair of consecutive same-type extrema.
type Cycle struct {
	From           CyclePoint `json:"from"`
	To             CyclePoint `json:"to"`
	Days           int        `json:"days"`
	PriceChangePct float64    `json:"price_change_pct"`
}

// PeakTroughResult reports detected extrema and the cycles between them.
// Only the most recent entries are retained; the totals carry full counts.
type PeakTroughResult struct {
	Peaks        []CyclePoint `json:"peaks"`
	Troughs      []CyclePoint `json:"troughs"`
	PeakCycles   []Cycle      `json:"peak_cycles"`
	TroughCycles []Cycle      `json:"trough_cycles"`
	TotalPeaks   int          `json:"total_peaks"`
	TotalTroughs int          `json:"total_troughs"`
}

// CrossoverType distinguishes bullish and bearish MA crossovers.
type CrossoverType string

const (
	GoldenCross CrossoverType = "golden_cross"
	DeathCross  CrossoverType = "death_cross"
)

// ForwardPerformance holds percentage returns measured a fixed number of
// trading days after an event. A nil field means the series ended before
// that horizon.
type ForwardPerformance struct {
	Days3  *float64 `json:"3d,omitempty"`
	Days7  *float64 `json:"7d,omitempty"`
	Days14 *float64 `json:"14d,omitempty"`
	Days30 *float64 `json:"30d,omitempty"`
}

// CrossoverEvent is one moving-average crossover with its forward returns.
type CrossoverEvent struct {
	Date               time.Time          `json:"date"`
	Type               CrossoverType      `json:"type"`
	Price              float64            `json:"price"`
	ForwardPerformance ForwardPerformance `json:"forward_performance"`
}

// CrossoverReport lists detected crossovers for one MA period pair.
type CrossoverReport struct {
	ShortPeriod int              `json:"short_period"`
	LongPeriod  int              `json:"long_period"`
	Events      []CrossoverEvent `json:"events"`
}

// CycleCandidate is one dominant-cycle length ranked by autocorrelation
// strength.
type CycleCandidate struct {
	LengthDays int     `json:"length_days"`
	Strength   float64 `json:"strength"`
}

// PriceLevel is a support or resistance level derived from close
// clustering, with its distance from the current price in percent.
type PriceLevel struct {
	Price       float64 `json:"price"`
	Touches     int     `json:"touches"`
	DistancePct float64 `json:"distance_pct"`
}

// SupportResistanceResult lists the nearest clustered levels on each side
// of the current price.
type SupportResistanceResult struct {
	CurrentPrice float64      `json:"current_price"`
	Support      []PriceLevel `json:"support"`
	Resistance   []PriceLevel `json:"resistance"`
}

// ChannelModel is a fitted linear-regression channel.
type ChannelModel struct {
	Slope          float64 `json:"slope"`
	Intercept      float64 `json:"intercept"`
	StdDev         float64 `json:"std_dev"`
	Lookback       int     `json:"lookback"`
	EndOffset      int     `json:"end_offset"`
	StdMultiplier  float64 `json:"std_multiplier"`
	InterceptShift float64 `json:"intercept_shift"`
}

// ChannelBands are the channel boundaries evaluated at one window index.
type ChannelBands struct {
	CenterLine float64 `json:"center_line"`
	UpperBound float64 `json:"upper_bound"`
	LowerBound float64 `json:"lower_bound"`
}

// BandsAt evaluates the shifted centerline and bounds at a window index.
func (c ChannelModel) BandsAt(index int) ChannelBands {
	center := c.Slope*float64(index) + c.Intercept + c.InterceptShift
	width := c.StdMultiplier * c.StdDev
	return ChannelBands{
		CenterLine: center,
		UpperBound: center + width,
		LowerBound: center - width,
	}
}

// PartitionsAt divides the channel at a window index into n equal zones and
// returns the n+1 boundary prices from lower bound to upper bound.
func (c ChannelModel) PartitionsAt(index, n int) []float64 {
	if n < 1 {
		return nil
	}
	bands := c.BandsAt(index)
	step := (bands.UpperBound - bands.LowerBound) / float64(n)
	bounds := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		bounds[i] = bands.LowerBound + float64(i)*step
	}
	return bounds
}

// TouchAlignment is the result of centering a channel on its extreme
// residuals and classifying boundary touches.
type TouchAlignment struct {
	Channel      ChannelModel `json:"channel"`
	MaxResidual  float64      `json:"max_residual"`
	MinResidual  float64      `json:"min_residual"`
	TouchesUpper bool         `json:"touches_upper"`
	TouchesLower bool         `json:"touches_lower"`
}

// OptimizationResult is the outcome of the channel grid search.
type OptimizationResult struct {
	OptimalLookback      int     `json:"optimal_lookback"`
	OptimalEndOffset     int     `json:"optimal_end_offset"`
	OptimalStdMultiplier float64 `json:"optimal_std_multiplier"`
	InterceptShift       float64 `json:"intercept_shift"`
	TouchesUpper         bool    `json:"touches_upper"`
	TouchesLower         bool    `json:"touches_lower"`
	CoverageCount        int     `json:"coverage_count"`
}

// GridSearchResult pairs the full-history optimum with the optimum over
// the most recent quarter of the data.
type GridSearchResult struct {
	Full   OptimizationResult  `json:"full"`
	Recent *OptimizationResult `json:"recent,omitempty"`
}

// AnalysisReport is the combined dashboard payload for one symbol.
type AnalysisReport struct {
	Symbol            string                   `json:"symbol"`
	RequestID         string                   `json:"request_id"`
	GeneratedAt       time.Time                `json:"generated_at"`
	PeakTrough        *PeakTroughResult        `json:"peak_trough,omitempty"`
	Crossovers        *CrossoverReport         `json:"crossovers,omitempty"`
	Seasonal          *SeasonalReport          `json:"seasonal,omitempty"`
	DominantCycles    []CycleCandidate         `json:"dominant_cycles,omitempty"`
	SupportResistance *SupportResistanceResult `json:"support_resistance,omitempty"`
	Channel           *GridSearchResult        `json:"channel,omitempty"`
	Error             string                   `json:"error,omitempty"`
}

// PairReport is the combined payload for a two-symbol comparison.
type PairReport struct {
	SymbolA     string                    `json:"symbol_a"`
	SymbolB     string                    `json:"symbol_b"`
	RequestID   string                    `json:"request_id"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Correlation float64                   `json:"correlation"`
	LagResults  []LagCorrelation          `json:"lag_results,omitempty"`
	LeadLag     *LeadLagResult            `json:"lead_lag,omitempty"`
	Rolling     []RollingCorrelationPoint `json:"rolling,omitempty"`
	SampleSize  int                       `json:"sample_size"`
	Error       string                    `json:"error,omitempty"`
}
