package services

import (
	"sort"
	"time"

	"github.com/finlens/finlens-go/internal/models"
)

// dateKey normalizes a timestamp to its calendar day for alignment.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ComputeReturns converts a price series to simple daily returns. The input
// is sorted ascending by date first. Pairs whose previous close is zero are
// skipped so a division by zero never reaches the correlation math. Fewer
// than two points yields an empty result.
func ComputeReturns(series []models.PricePoint) []models.ReturnPoint {
	if len(series) < 2 {
		return nil
	}

	sorted := models.SortedByDate(series)
	returns := make([]models.ReturnPoint, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1].CloseValue()
		if prev == 0 {
			continue
		}
		returns = append(returns, models.ReturnPoint{
			Date:   sorted[i].Date,
			Return: (sorted[i].CloseValue() - prev) / prev,
		})
	}
	return returns
}

// AlignByDate intersects two return series by calendar date and emits
// parallel arrays in ascending date order. The result is independent of
// input ordering and never longer than the shorter input. An empty
// intersection is returned as-is; callers must treat a zero-length result
// as an error condition.
func AlignByDate(returnsA, returnsB []models.ReturnPoint) models.AlignedSeries {
	byDate := make(map[string]float64, len(returnsB))
	for _, r := range returnsB {
		byDate[dateKey(r.Date)] = r.Return
	}

	shared := make([]models.ReturnPoint, 0, len(returnsA))
	for _, r := range returnsA {
		if _, ok := byDate[dateKey(r.Date)]; ok {
			shared = append(shared, r)
		}
	}
	sortReturnsByDate(shared)

	aligned := models.AlignedSeries{
		Dates:    make([]time.Time, len(shared)),
		Returns1: make([]float64, len(shared)),
		Returns2: make([]float64, len(shared)),
	}
	for i, r := range shared {
		aligned.Dates[i] = r.Date
		aligned.Returns1[i] = r.Return
		aligned.Returns2[i] = byDate[dateKey(r.Date)]
	}
	return aligned
}

func sortReturnsByDate(returns []models.ReturnPoint) {
	sort.SliceStable(returns, func(i, j int) bool {
		return returns[i].Date.Before(returns[j].Date)
	})
}
