package dto

import (
	"time"

	"rescollect/internal/modules/measurement/domain"
	"rescollect/internal/platform/boxplot"
)

type RunInput struct {
	TargetID     *int64
	InsertBefore bool
}

type RunOutput struct {
	Outcome           domain.Outcome
	Request           string
	StartedAt         time.Time
	FinishedAt        time.Time
	FrequencyCount    int
	ResistanceCount   int
	FrequencySummary  *boxplot.BoxPlot
	ResistanceSummary *boxplot.BoxPlot
}
