package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource selects which candle value feeds a calculation.
type PriceSource string

const (
	PriceSourceClose PriceSource = "close"
	PriceSourceHL2   PriceSource = "hl2"
	PriceSourceOHLC4 PriceSource = "ohlc4"
)

// PricePoint represents one daily OHLCV candle. Open, high, low and volume
// are optional in upstream payloads; close is always present.
type PricePoint struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open,omitempty"`
	High   decimal.Decimal `json:"high,omitempty"`
	Low    decimal.Decimal `json:"low,omitempty"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume,omitempty"`
}

type pricePointJSON struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// UnmarshalJSON parses a candle whose date is an ISO-8601 string, either a
// bare calendar date or a full timestamp.
func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var raw pricePointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := time.Parse("2006-01-02", raw.Date)
	if err != nil {
		date, err = time.Parse(time.RFC3339, raw.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", raw.Date, err)
		}
	}

	p.Date = date
	p.Open = raw.Open
	p.High = raw.High
	p.Low = raw.Low
	p.Close = raw.Close
	p.Volume = raw.Volume
	return nil
}

// MarshalJSON emits the date as a bare ISO-8601 calendar date.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(pricePointJSON{
		Date:   p.Date.Format("2006-01-02"),
		Open:   p.Open,
		High:   p.High,
		Low:    p.Low,
		Close:  p.Close,
		Volume: p.Volume,
	})
}

// CloseValue returns the closing price as a float64 for calculation.
func (p PricePoint) CloseValue() float64 {
	return p.Close.InexactFloat64()
}

// SourceValue returns the selected price source for this candle. When the
// candle lacks the OHLC fields a derived source needs, it falls back to the
// close.
func (p PricePoint) SourceValue(src PriceSource) float64 {
	switch src {
	case PriceSourceHL2:
		if p.High.IsZero() || p.Low.IsZero() {
			return p.CloseValue()
		}
		return p.High.Add(p.Low).InexactFloat64() / 2
	case PriceSourceOHLC4:
		if p.Open.IsZero() || p.High.IsZero() || p.Low.IsZero() {
			return p.CloseValue()
		}
		return p.Open.Add(p.High).Add(p.Low).Add(p.Close).InexactFloat64() / 4
	default:
		return p.CloseValue()
	}
}

// SortedByDate returns a copy of the series sorted ascending by date.
// Derived calculations assume ascending order, so every entry point sorts
// defensively rather than trusting upstream ordering.
func SortedByDate(series []PricePoint) []PricePoint {
	sorted := make([]PricePoint, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// ClosePrices extracts the closing prices of a series in order.
func ClosePrices(series []PricePoint) []float64 {
	prices := make([]float64, len(series))
	for i, p := range series {
		prices[i] = p.CloseValue()
	}
	return prices
}

// SourcePrices extracts the selected price source of a series in order.
func SourcePrices(series []PricePoint, src PriceSource) []float64 {
	prices := make([]float64, len(series))
	for i, p := range series {
		prices[i] = p.SourceValue(src)
	}
	return prices
}

// ParsePricePoints decodes a JSON array of candles.
func ParsePricePoints(data []byte) ([]PricePoint, error) {
	var series []PricePoint
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("failed to parse price series: %w", err)
	}
	return series, nil
}

// ReturnPoint is one simple daily return derived from consecutive closes.
type ReturnPoint struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// AlignedSeries holds two return series restricted to their shared dates,
// as parallel arrays in ascending date order.
type AlignedSeries struct {
	Dates    []time.Time `json:"dates"`
	Returns1 []float64   `json:"returns1"`
	Returns2 []float64   `json:"returns2"`
}

// Len returns the number of shared observations.
func (a AlignedSeries) Len() int {
	return len(a.Dates)
}
