// Package forecast projects daily revenue with Holt-Winters additive
// seasonal smoothing over a weekly cycle.
package forecast

import (
	"time"
)

// SeasonLength is the seasonal period in days. Sales traffic repeats on a
// weekly cycle.
const SeasonLength = 7

// Smoothing factors for level, trend, and seasonality. Fixed rather than
// fitted; good defaults for short noisy retail series.
const (
	alpha = 0.3
	beta  = 0.05
	gamma = 0.3
)

// DailyPoint is one day of actual or projected revenue.
type DailyPoint struct {
	Day     time.Time `json:"day"`
	Revenue float64   `json:"revenue"`
}

// Project forecasts revenue for the next horizon days. History is
// zero-filled to a contiguous daily series first; missing days count as
// zero-revenue days. The model needs two full seasons to initialize its
// seasonal components, so shorter histories return nil rather than an
// error — the caller renders an empty forecast.
func Project(history []DailyPoint, horizon int) []DailyPoint {
	if horizon <= 0 {
		return nil
	}

	series, lastDay := fill(history)
	if len(series) < 2*SeasonLength {
		return nil
	}

	projected := holtWinters(series, horizon)

	out := make([]DailyPoint, 0, horizon)
	for i, revenue := range projected {
		out = append(out, DailyPoint{
			Day:     lastDay.AddDate(0, 0, i+1),
			Revenue: revenue,
		})
	}
	return out
}

// fill converts sparse history into a contiguous daily series from the
// first to the last observed day.
func fill(history []DailyPoint) ([]float64, time.Time) {
	if len(history) == 0 {
		return nil, time.Time{}
	}

	first := history[0].Day.UTC().Truncate(24 * time.Hour)
	last := history[len(history)-1].Day.UTC().Truncate(24 * time.Hour)
	days := int(last.Sub(first).Hours()/24) + 1
	if days < len(history) {
		// Out-of-order input; trust the observations as given.
		days = len(history)
	}

	series := make([]float64, days)
	for _, point := range history {
		idx := int(point.Day.UTC().Truncate(24*time.Hour).Sub(first).Hours() / 24)
		if idx >= 0 && idx < days {
			series[idx] = point.Revenue
		}
	}
	return series, last
}

// holtWinters runs additive triple exponential smoothing and returns the
// next horizon values.
func holtWinters(series []float64, horizon int) []float64 {
	m := SeasonLength

	// Initial level and trend from the first two seasons.
	var firstMean, secondMean float64
	for i := 0; i < m; i++ {
		firstMean += series[i]
		secondMean += series[m+i]
	}
	firstMean /= float64(m)
	secondMean /= float64(m)

	level := firstMean
	trend := (secondMean - firstMean) / float64(m)

	seasonal := make([]float64, m)
	for i := 0; i < m; i++ {
		seasonal[i] = series[i] - firstMean
	}

	for i, y := range series {
		s := i % m
		lastLevel := level
		level = alpha*(y-seasonal[s]) + (1-alpha)*(level+trend)
		trend = beta*(level-lastLevel) + (1-beta)*trend
		seasonal[s] = gamma*(y-level) + (1-gamma)*seasonal[s]
	}

	out := make([]float64, horizon)
	n := len(series)
	for h := 0; h < horizon; h++ {
		out[h] = level + float64(h+1)*trend + seasonal[(n+h)%m]
	}
	return out
}
