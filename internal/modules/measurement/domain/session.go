package domain

import (
	"fmt"
	"slices"
	"time"

	"rescollect/internal/platform/boxplot"
)

type Outcome string

const (
	OutcomeFinished    Outcome = "finished"
	OutcomeInterrupted Outcome = "interrupted"
	OutcomeFailed      Outcome = "failed"
)

// Latest is the most recent reading of one kind. Present is false until the
// first sample of that kind arrives.
type Latest struct {
	Value   float64
	Present bool
}

func (l Latest) String() string {
	if !l.Present {
		return "—"
	}
	return fmt.Sprintf("%.3f", l.Value)
}

// View is an immutable copy of the session state handed to observers.
type View struct {
	Request           Request
	Phase             Phase
	StartedAt         time.Time
	UpdatedAt         time.Time
	Updates           int
	Frequencies       []float64
	Resistances       []float64
	LatestFrequency   Latest
	LatestResistance  Latest
	FrequencySummary  *boxplot.BoxPlot
	ResistanceSummary *boxplot.BoxPlot
}

type Result struct {
	Outcome Outcome
	View    View
	Err     error
}

// Session tracks one measurement from acceptance to its terminal phase.
// Transitions are driven only by incoming snapshots.
type Session struct {
	request     Request
	phase       Phase
	startedAt   time.Time
	updatedAt   time.Time
	updates     int
	freqs       []float64
	rks         []float64
	freqSummary *boxplot.BoxPlot
	rkSummary   *boxplot.BoxPlot
}

func NewSession(request Request, startedAt time.Time) *Session {
	return &Session{request: request, phase: PhaseRunning, startedAt: startedAt, updatedAt: startedAt}
}

func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) Request() Request {
	return s.request
}

func (s *Session) Apply(snapshot Snapshot) error {
	if s.phase.Terminal() {
		return ErrSessionClosed
	}
	if _, err := ParsePhase(string(snapshot.Phase)); err != nil {
		return err
	}
	if len(snapshot.Frequencies) < len(s.freqs) || len(snapshot.Resistances) < len(s.rks) {
		return ErrSnapshotRegressed
	}

	s.freqs = slices.Clone(snapshot.Frequencies)
	s.rks = slices.Clone(snapshot.Resistances)
	s.freqSummary = currentSummary(snapshot.FrequencySummary, s.freqs)
	s.rkSummary = currentSummary(snapshot.ResistanceSummary, s.rks)
	s.phase = snapshot.Phase
	if !snapshot.Timestamp.IsZero() {
		s.updatedAt = snapshot.Timestamp
	}
	s.updates++
	return nil
}

func (s *Session) LatestFrequency() (float64, bool) {
	return last(s.freqs)
}

func (s *Session) LatestResistance() (float64, bool) {
	return last(s.rks)
}

func (s *Session) Summaries() (freq, rk *boxplot.BoxPlot) {
	return cloneSummary(s.freqSummary), cloneSummary(s.rkSummary)
}

// Outcome maps the terminal phase onto a session outcome. It reports false
// while the session is still running.
func (s *Session) Outcome() (Outcome, bool) {
	switch s.phase {
	case PhaseFinished:
		return OutcomeFinished, true
	case PhaseInterrupted:
		return OutcomeInterrupted, true
	default:
		return "", false
	}
}

func (s *Session) View() View {
	freq, rk := s.Summaries()
	v := View{
		Request:           s.request,
		Phase:             s.phase,
		StartedAt:         s.startedAt,
		UpdatedAt:         s.updatedAt,
		Updates:           s.updates,
		Frequencies:       slices.Clone(s.freqs),
		Resistances:       slices.Clone(s.rks),
		FrequencySummary:  freq,
		ResistanceSummary: rk,
	}
	v.LatestFrequency.Value, v.LatestFrequency.Present = s.LatestFrequency()
	v.LatestResistance.Value, v.LatestResistance.Present = s.LatestResistance()
	return v
}

// currentSummary adopts the source summary when one was sent and otherwise
// derives it from the accumulated samples.
func currentSummary(fromSource *boxplot.BoxPlot, samples []float64) *boxplot.BoxPlot {
	if fromSource != nil {
		return cloneSummary(fromSource)
	}
	summary, ok := boxplot.Summarize(samples)
	if !ok {
		return nil
	}
	return &summary
}

func cloneSummary(b *boxplot.BoxPlot) *boxplot.BoxPlot {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

func last(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}
