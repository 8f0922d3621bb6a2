package dto

import "time"

type StartInput struct {
	TargetID     *int64
	InsertBefore bool
}

type RowOutput struct {
	ID                  int64
	Timestamp           time.Time
	Frequency           float64
	FrequencyDeviation  float64
	Resistance          float64
	ResistanceDeviation float64
	Comment             string
}
