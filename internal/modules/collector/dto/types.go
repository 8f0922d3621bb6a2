package dto

import (
	"time"

	"rescollect/internal/platform/boxplot"
)

type StartInput struct {
	TargetID     *int64
	InsertBefore bool
}

type Snapshot struct {
	Timestamp   time.Time
	State       string
	Freqs       []float64
	Rks         []float64
	FreqSummary *boxplot.BoxPlot
	RkSummary   *boxplot.BoxPlot
}

type Record struct {
	ID                  int64
	Timestamp           time.Time
	Frequency           float64
	FrequencyDeviation  float64
	Resistance          float64
	ResistanceDeviation float64
	Comment             string
}

type Metadata struct {
	DataType                string
	RouteID                 string
	AmbientTemperatureRange string
	Date                    string
	Comment                 string
}
