package domain

import (
	"fmt"
	"time"

	"rescollect/internal/platform/boxplot"
)

type Phase string

const (
	PhaseRunning     Phase = "Running"
	PhaseFinished    Phase = "Finished"
	PhaseInterrupted Phase = "Interrupted"
)

func ParsePhase(raw string) (Phase, error) {
	switch p := Phase(raw); p {
	case PhaseRunning, PhaseFinished, PhaseInterrupted:
		return p, nil
	default:
		return "", fmt.Errorf("unknown measurement phase %q", raw)
	}
}

// Terminal reports whether no further snapshots follow this phase.
func (p Phase) Terminal() bool {
	return p == PhaseFinished || p == PhaseInterrupted
}

// Snapshot is one cumulative progress message of a running measurement.
// Summaries are optional and usually present only while Running.
type Snapshot struct {
	Timestamp         time.Time
	Phase             Phase
	Frequencies       []float64
	Resistances       []float64
	FrequencySummary  *boxplot.BoxPlot
	ResistanceSummary *boxplot.BoxPlot
}

// Request describes what the finished measurement does to the row set:
// append when TargetID is nil, otherwise replace the target row or, with
// InsertBefore, place the new row right before it.
type Request struct {
	TargetID     *int64
	InsertBefore bool
}

func NewRequest(targetID *int64, insertBefore bool) Request {
	if targetID == nil {
		return Request{}
	}
	id := *targetID
	return Request{TargetID: &id, InsertBefore: insertBefore}
}

func (r Request) String() string {
	switch {
	case r.TargetID == nil:
		return "append"
	case r.InsertBefore:
		return fmt.Sprintf("insert before #%d", *r.TargetID)
	default:
		return fmt.Sprintf("re-measure #%d", *r.TargetID)
	}
}
