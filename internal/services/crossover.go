package services

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/sirupsen/logrus"

	"github.com/finlens/finlens-go/internal/models"
	"github.com/finlens/finlens-go/internal/utils"
)

// simpleMovingAverage computes an SMA series. The result starts at price
// index period-1 and has length len(prices)-period+1.
func simpleMovingAverage(prices []float64, period int) []float64 {
	smaIndicator := trend.NewSmaWithPeriod[float64](period)
	return helper.ChanToSlice(smaIndicator.Compute(helper.SliceToChan(prices)))
}

// DetectCrossovers finds the days the short moving average crosses the long
// one: below-to-above is a golden cross, above-to-below a death cross. Each
// event carries forward performance at +3/+7/+14/+30 trading days where
// enough future data exists; horizons past the end of the series are left
// unset rather than reported as zero. A series shorter than the long period
// is an explicit insufficient-data condition.
func (ps *PatternService) DetectCrossovers(series []models.PricePoint, shortPeriod, longPeriod int) (*models.CrossoverReport, error) {
	if shortPeriod < 1 || longPeriod < 1 || shortPeriod >= longPeriod {
		return nil, utils.NewValidationErrorf("invalid MA periods: short=%d long=%d", shortPeriod, longPeriod)
	}
	sorted := models.SortedByDate(series)
	if len(sorted) < longPeriod {
		return nil, utils.NewInsufficientDataError(longPeriod, len(sorted))
	}

	closes := models.ClosePrices(sorted)
	shortMA := simpleMovingAverage(closes, shortPeriod)
	longMA := simpleMovingAverage(closes, longPeriod)

	maShort := func(t int) float64 { return shortMA[t-shortPeriod+1] }
	maLong := func(t int) float64 { return longMA[t-longPeriod+1] }

	var events []models.CrossoverEvent
	for t := longPeriod; t < len(closes); t++ {
		prevDiff := maShort(t-1) - maLong(t-1)
		curDiff := maShort(t) - maLong(t)

		var kind models.CrossoverType
		switch {
		case prevDiff <= 0 && curDiff > 0:
			kind = models.GoldenCross
		case prevDiff >= 0 && curDiff < 0:
			kind = models.DeathCross
		default:
			continue
		}

		events = append(events, models.CrossoverEvent{
			Date:               sorted[t].Date,
			Type:               kind,
			Price:              closes[t],
			ForwardPerformance: forwardPerformance(closes, t),
		})
	}
	if events == nil {
		events = []models.CrossoverEvent{}
	}

	ps.logger.WithFields(logrus.Fields{
		"short_period": shortPeriod,
		"long_period":  longPeriod,
		"events":       len(events),
	}).Debug("Crossover detection complete")

	return &models.CrossoverReport{
		ShortPeriod: shortPeriod,
		LongPeriod:  longPeriod,
		Events:      events,
	}, nil
}

// forwardPerformance measures percentage returns a fixed number of trading
// days after index t.
func forwardPerformance(closes []float64, t int) models.ForwardPerformance {
	at := func(days int) *float64 {
		idx := t + days
		if idx >= len(closes) || closes[t] == 0 {
			return nil
		}
		pct := (closes[idx] - closes[t]) / closes[t] * 100
		return &pct
	}
	return models.ForwardPerformance{
		Days3:  at(3),
		Days7:  at(7),
		Days14: at(14),
		Days30: at(30),
	}
}
