package service_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"rescollect/internal/modules/measurement/domain"
	measurementout "rescollect/internal/modules/measurement/port/out"
	"rescollect/internal/modules/measurement/service"
	"rescollect/internal/platform/clock"
)

type scriptedStream struct {
	snapshots []domain.Snapshot
	tail      error
	idx       int
	closed    bool
}

func (s *scriptedStream) Next(context.Context) (domain.Snapshot, error) {
	if s.idx < len(s.snapshots) {
		snap := s.snapshots[s.idx]
		s.idx++
		return snap, nil
	}
	return domain.Snapshot{}, s.tail
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

type fakeSource struct {
	stream   *scriptedStream
	startErr error
	started  []domain.Request
	cancels  int
}

func (f *fakeSource) Start(_ context.Context, request domain.Request) (measurementout.SnapshotStream, error) {
	f.started = append(f.started, request)
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.stream, nil
}

func (f *fakeSource) Cancel(context.Context) error {
	f.cancels++
	return nil
}

type recordingPresenter struct {
	opened  int
	updates []domain.View
	closed  []domain.Result
}

func (p *recordingPresenter) SessionOpened(domain.View)       { p.opened++ }
func (p *recordingPresenter) SessionUpdated(v domain.View)    { p.updates = append(p.updates, v) }
func (p *recordingPresenter) SessionClosed(res domain.Result) { p.closed = append(p.closed, res) }

func snap(phase domain.Phase, freqs ...float64) domain.Snapshot {
	return domain.Snapshot{Phase: phase, Frequencies: freqs}
}

func TestRunReachesFinishedAndNotifiesPresenter(t *testing.T) {
	t.Parallel()
	stream := &scriptedStream{snapshots: []domain.Snapshot{
		snap(domain.PhaseRunning, 100),
		snap(domain.PhaseRunning, 100, 101),
		snap(domain.PhaseFinished, 100, 101),
	}, tail: io.EOF}
	source := &fakeSource{stream: stream}
	presenter := &recordingPresenter{}
	svc := service.NewSessionService(source, clock.Fixed(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))

	result, err := svc.Run(context.Background(), domain.Request{}, presenter)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Outcome != domain.OutcomeFinished || result.Err != nil {
		t.Fatalf("expected finished outcome, got %+v", result)
	}
	if presenter.opened != 1 || len(presenter.updates) != 3 || len(presenter.closed) != 1 {
		t.Fatalf("unexpected presenter calls: opened=%d updates=%d closed=%d", presenter.opened, len(presenter.updates), len(presenter.closed))
	}
	if got := presenter.updates[1].LatestFrequency; !got.Present || got.Value != 101 {
		t.Fatalf("expected latest frequency 101 on second update, got %+v", got)
	}
	if presenter.updates[0].FrequencySummary == nil {
		t.Fatalf("running update with samples must carry a summary")
	}
	if !stream.closed {
		t.Fatalf("stream must be closed after the session ends")
	}
}

func TestRunInterruptedIsNotAFailure(t *testing.T) {
	t.Parallel()
	source := &fakeSource{stream: &scriptedStream{snapshots: []domain.Snapshot{
		snap(domain.PhaseRunning),
		snap(domain.PhaseInterrupted),
	}}}
	result, err := service.NewSessionService(source, clock.Fixed{}).Run(context.Background(), domain.Request{}, nil)
	if err != nil {
		t.Fatalf("interrupted run must not error: %v", err)
	}
	if result.Outcome != domain.OutcomeInterrupted {
		t.Fatalf("expected interrupted, got %s", result.Outcome)
	}
}

func TestRunStreamClosedEarlySurfacesOneStreamFailure(t *testing.T) {
	t.Parallel()
	for name, tail := range map[string]error{
		"transport error": &domain.StreamFailure{Status: 200, Err: errors.New("unexpected EOF")},
		"bare eof":        io.EOF,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			source := &fakeSource{stream: &scriptedStream{snapshots: []domain.Snapshot{snap(domain.PhaseRunning, 100)}, tail: tail}}
			presenter := &recordingPresenter{}

			result, err := service.NewSessionService(source, clock.Fixed{}).Run(context.Background(), domain.Request{}, presenter)
			var failure *domain.StreamFailure
			if !errors.As(err, &failure) {
				t.Fatalf("expected stream failure, got %v", err)
			}
			if result.Outcome != domain.OutcomeFailed || result.Err != err {
				t.Fatalf("expected failed outcome carrying the error, got %+v", result)
			}
			if len(presenter.closed) != 1 || presenter.closed[0].Outcome != domain.OutcomeFailed {
				t.Fatalf("presenter must be closed exactly once with failure, got %+v", presenter.closed)
			}
			if result.View.Phase != domain.PhaseRunning {
				t.Fatalf("failure must not invent a terminal phase, got %s", result.View.Phase)
			}
		})
	}
}

func TestRunRejectedStartNeverOpensPresenter(t *testing.T) {
	t.Parallel()
	source := &fakeSource{startErr: &domain.StreamFailure{Status: 409, Body: "busy"}}
	presenter := &recordingPresenter{}
	target := int64(5)

	result, err := service.NewSessionService(source, clock.Fixed{}).Run(context.Background(), domain.NewRequest(&target, false), presenter)
	var failure *domain.StreamFailure
	if !errors.As(err, &failure) || failure.Status != 409 {
		t.Fatalf("expected rejected start failure, got %v", err)
	}
	if result.Outcome != domain.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", result.Outcome)
	}
	if presenter.opened != 0 || len(presenter.closed) != 0 {
		t.Fatalf("presenter must stay untouched, got %+v", presenter)
	}
	if len(source.started) != 1 || *source.started[0].TargetID != 5 {
		t.Fatalf("request must be forwarded verbatim, got %+v", source.started)
	}
}

func TestRunRegressedSnapshotFailsSession(t *testing.T) {
	t.Parallel()
	source := &fakeSource{stream: &scriptedStream{snapshots: []domain.Snapshot{
		snap(domain.PhaseRunning, 1, 2),
		snap(domain.PhaseRunning, 1),
	}}}
	_, err := service.NewSessionService(source, clock.Fixed{}).Run(context.Background(), domain.Request{}, nil)
	if !errors.Is(err, domain.ErrSnapshotRegressed) {
		t.Fatalf("expected regression to fail the session, got %v", err)
	}
}

func TestCancelOnlyForwardsToSource(t *testing.T) {
	t.Parallel()
	source := &fakeSource{}
	if err := service.NewSessionService(source, clock.Fixed{}).Cancel(context.Background()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if source.cancels != 1 || len(source.started) != 0 {
		t.Fatalf("cancel must only reach the source once, got %+v", source)
	}
}
