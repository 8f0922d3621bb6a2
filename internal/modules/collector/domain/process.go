package domain

import (
	"fmt"
	"math"
	"slices"
	"time"

	"rescollect/internal/platform/boxplot"
)

type Mode string

const (
	ModeFrequency  Mode = "freq"
	ModeResistance Mode = "rk"
)

func ParseMode(raw string) (Mode, error) {
	switch m := Mode(raw); m {
	case ModeFrequency, ModeResistance:
		return m, nil
	default:
		return "", fmt.Errorf("unknown meter mode %q", raw)
	}
}

// Reading is one value reported by the meter. The meter alternates between
// frequency and resistance mode on its own schedule.
type Reading struct {
	Mode  Mode
	Value float64
}

type State string

const (
	StateRunning     State = "Running"
	StateFinished    State = "Finished"
	StateInterrupted State = "Interrupted"
)

type Snapshot struct {
	Timestamp   time.Time
	State       State
	Freqs       []float64
	Rks         []float64
	FreqSummary *boxplot.BoxPlot
	RkSummary   *boxplot.BoxPlot
}

func (s Snapshot) Terminal() bool {
	return s.State == StateFinished || s.State == StateInterrupted
}

// Process accumulates meter readings for one measurement. Readings taken
// before the first mode switch are ignored, and the process finishes once
// the meter switched mode more than twice per configured cycle.
type Process struct {
	cycles   int
	lastMode Mode
	waiting  bool
	switches int
	freqs    []float64
	rks      []float64
	done     bool
}

func NewProcess(cycles int, current Mode) *Process {
	if current == "" {
		current = ModeFrequency
	}
	return &Process{cycles: cycles, lastMode: current, waiting: true}
}

func (p *Process) Switches() int {
	return p.switches
}

func (p *Process) Done() bool {
	return p.done
}

// Observe feeds one reading and reports the resulting snapshot, if any.
func (p *Process) Observe(r Reading, at time.Time) (Snapshot, bool) {
	if p.done || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return Snapshot{}, false
	}
	if r.Mode != p.lastMode {
		p.waiting = false
		p.switches++
		p.lastMode = r.Mode
	} else if p.waiting {
		return Snapshot{}, false
	}

	switch r.Mode {
	case ModeFrequency:
		p.freqs = append(p.freqs, r.Value)
	case ModeResistance:
		p.rks = append(p.rks, r.Value)
	}

	if p.switches > p.cycles*2 {
		p.done = true
		return p.snapshot(StateFinished, at), true
	}
	return p.snapshot(StateRunning, at), true
}

func (p *Process) Interrupt(at time.Time) Snapshot {
	p.done = true
	return p.snapshot(StateInterrupted, at)
}

func (p *Process) snapshot(state State, at time.Time) Snapshot {
	s := Snapshot{
		Timestamp: at,
		State:     state,
		Freqs:     slices.Clone(p.freqs),
		Rks:       slices.Clone(p.rks),
	}
	if state != StateRunning {
		return s
	}
	if b, ok := boxplot.Summarize(s.Freqs); ok {
		s.FreqSummary = &b
	}
	if b, ok := boxplot.Summarize(s.Rks); ok {
		s.RkSummary = &b
	}
	return s
}
