// Package boxplot computes robust five-number style summaries over sample sets.
//
// Quantiles use linear interpolation between closest ranks (R-7, the Excel
// PERCENTILE.INC rule): for probability p over n sorted values the rank is
// h = p*(n-1) and the quantile is x[floor(h)] + (h-floor(h))*(x[floor(h)+1]-x[floor(h)]).
// NaN and infinite samples are dropped before ranking.
package boxplot

import (
	"math"
	"sort"
)

// FenceFactor scales the interquartile range into Tukey outlier fences.
const FenceFactor = 1.5

// BoxPlot summarizes the spread of a sample set.
type BoxPlot struct {
	Median     float64 `json:"median"`
	Q1         float64 `json:"q1"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// Summarize returns the box-plot summary of samples. The second result is
// false when no finite samples are present. The input slice is not modified.
func Summarize(samples []float64) (BoxPlot, bool) {
	sorted := make([]float64, 0, len(samples))
	for _, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sorted = append(sorted, v)
	}
	if len(sorted) == 0 {
		return BoxPlot{}, false
	}
	sort.Float64s(sorted)

	q1 := Quantile(sorted, 0.25)
	median := Quantile(sorted, 0.5)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1
	return BoxPlot{
		Median:     median,
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		LowerBound: q1 - FenceFactor*iqr,
		UpperBound: q3 + FenceFactor*iqr,
	}, true
}

// Quantile interpolates the p-quantile of an ascending, non-empty slice.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// IsOutlier reports whether v falls outside the Tukey fences.
func (b BoxPlot) IsOutlier(v float64) bool {
	return v < b.LowerBound || v > b.UpperBound
}
