package domain

import (
	"time"

	"rescollect/internal/platform/boxplot"
)

// Placement tells where a finished measurement goes: appended when
// TargetID is nil, otherwise replacing the target or, with InsertBefore,
// placed right before it.
type Placement struct {
	TargetID     *int64
	InsertBefore bool
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

// RecordFromSnapshot condenses a finished measurement into a row: the median
// of each series is the value and its interquartile range the deviation.
func RecordFromSnapshot(s Snapshot) Record {
	r := Record{Timestamp: s.Timestamp}
	if b, ok := boxplot.Summarize(s.Freqs); ok {
		r.Frequency, r.FrequencyDeviation = b.Median, b.IQR
	}
	if b, ok := boxplot.Summarize(s.Rks); ok {
		r.Resistance, r.ResistanceDeviation = b.Median, b.IQR
	}
	return r
}
