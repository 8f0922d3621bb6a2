package boxplot_test

import (
	"math"
	"testing"

	"rescollect/internal/platform/boxplot"
)

func TestSummarizeEmptyReturnsAbsence(t *testing.T) {
	t.Parallel()
	if _, ok := boxplot.Summarize(nil); ok {
		t.Fatalf("expected no summary for nil samples")
	}
	if _, ok := boxplot.Summarize([]float64{}); ok {
		t.Fatalf("expected no summary for empty samples")
	}
	if _, ok := boxplot.Summarize([]float64{math.NaN()}); ok {
		t.Fatalf("expected no summary when only NaN samples are present")
	}
}

func TestSummarizeDropsNonFinite(t *testing.T) {
	t.Parallel()
	if _, ok := boxplot.Summarize([]float64{math.Inf(1), math.Inf(-1), math.NaN()}); ok {
		t.Fatalf("expected no summary when every sample is non-finite")
	}

	got, ok := boxplot.Summarize([]float64{1, math.Inf(1), math.Inf(1), math.Inf(-1), 3})
	if !ok {
		t.Fatalf("expected a summary of the finite samples")
	}
	want, _ := boxplot.Summarize([]float64{1, 3})
	if got != want {
		t.Fatalf("summary = %+v, want %+v", got, want)
	}
	if !(got.Q1 <= got.Median && got.Median <= got.Q3) || got.IQR < 0 {
		t.Fatalf("ordering broken: %+v", got)
	}
}

func TestSummarizeFlagsClusteredOutlier(t *testing.T) {
	t.Parallel()
	samples := []float64{10.0, 12.0, 9.0, 11.0, 50.0}
	b, ok := boxplot.Summarize(samples)
	if !ok {
		t.Fatalf("expected summary")
	}
	want := boxplot.BoxPlot{Median: 11, Q1: 10, Q3: 12, IQR: 2, LowerBound: 7, UpperBound: 15}
	if b != want {
		t.Fatalf("unexpected summary: got %+v want %+v", b, want)
	}
	if !b.IsOutlier(50) {
		t.Fatalf("50 must be outside upper bound %.2f", b.UpperBound)
	}
	for _, v := range []float64{9, 10, 11, 12} {
		if b.IsOutlier(v) {
			t.Fatalf("%.1f must be inside the fences", v)
		}
	}
	if samples[0] != 10.0 || samples[4] != 50.0 {
		t.Fatalf("input must not be reordered: %v", samples)
	}
}

func TestSummarizeInterpolatesBetweenRanks(t *testing.T) {
	t.Parallel()
	b, ok := boxplot.Summarize([]float64{4, 1, 3, 2})
	if !ok {
		t.Fatalf("expected summary")
	}
	// ranks: q1 at 0.75, median at 1.5, q3 at 2.25
	if b.Q1 != 1.75 || b.Median != 2.5 || b.Q3 != 3.25 {
		t.Fatalf("unexpected quantiles: %+v", b)
	}
	if b.IQR != 1.5 {
		t.Fatalf("expected iqr 1.5, got %v", b.IQR)
	}
}

func TestSummarizeSingleSample(t *testing.T) {
	t.Parallel()
	b, ok := boxplot.Summarize([]float64{32760.5})
	if !ok {
		t.Fatalf("expected summary")
	}
	if b.Median != 32760.5 || b.Q1 != 32760.5 || b.Q3 != 32760.5 || b.IQR != 0 {
		t.Fatalf("single sample must collapse all quantiles: %+v", b)
	}
}

func TestSummarizeOrderingInvariantAndDeterministic(t *testing.T) {
	t.Parallel()
	sets := [][]float64{
		{3.3, -1, 7.25, 7.25, 0, 100, 42},
		{42, 100, 0, 7.25, 7.25, -1, 3.3},
		{7.25, 3.3, 42, -1, 100, 7.25, 0},
	}
	first, ok := boxplot.Summarize(sets[0])
	if !ok {
		t.Fatalf("expected summary")
	}
	if !(first.Q1 <= first.Median && first.Median <= first.Q3) {
		t.Fatalf("quartile ordering violated: %+v", first)
	}
	if first.IQR != first.Q3-first.Q1 || first.IQR < 0 {
		t.Fatalf("iqr must equal q3-q1 and be non-negative: %+v", first)
	}
	for i, set := range sets {
		for run := 0; run < 2; run++ {
			got, _ := boxplot.Summarize(set)
			if got != first {
				t.Fatalf("set %d run %d: summary differs: %+v vs %+v", i, run, got, first)
			}
		}
	}
}
