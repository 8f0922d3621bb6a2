package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rescollect/internal/modules/measurement/domain"
	"rescollect/internal/modules/measurement/dto"
	measurementout "rescollect/internal/modules/measurement/port/out"
	"rescollect/internal/modules/measurement/service"
	"rescollect/internal/modules/measurement/usecase"
	"rescollect/internal/platform/clock"
	apperrors "rescollect/internal/platform/errors"
)

// gatedStream blocks before the terminal snapshot until release is closed.
type gatedStream struct {
	release chan struct{}
	sent    int
}

func (s *gatedStream) Next(ctx context.Context) (domain.Snapshot, error) {
	s.sent++
	if s.sent == 1 {
		return domain.Snapshot{Phase: domain.PhaseRunning, Frequencies: []float64{32760}}, nil
	}
	select {
	case <-s.release:
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
	return domain.Snapshot{Phase: domain.PhaseFinished, Frequencies: []float64{32760}}, nil
}

func (s *gatedStream) Close() error { return nil }

type gatedSource struct {
	stream  *gatedStream
	starts  int
	cancels int
}

func (g *gatedSource) Start(context.Context, domain.Request) (measurementout.SnapshotStream, error) {
	g.starts++
	return g.stream, nil
}

func (g *gatedSource) Cancel(context.Context) error {
	g.cancels++
	return nil
}

type signalPresenter struct {
	updated chan domain.View
}

func (p signalPresenter) SessionOpened(domain.View) {}
func (p signalPresenter) SessionUpdated(v domain.View) {
	select {
	case p.updated <- v:
	default:
	}
}
func (p signalPresenter) SessionClosed(domain.Result) {}

func TestRunRejectsSecondSessionWithoutTouchingActiveOne(t *testing.T) {
	t.Parallel()
	source := &gatedSource{stream: &gatedStream{release: make(chan struct{})}}
	uc := usecase.NewInteractor(service.NewSessionService(source, clock.SystemClock{}))
	presenter := signalPresenter{updated: make(chan domain.View, 1)}

	type runResult struct {
		out dto.RunOutput
		err error
	}
	done := make(chan runResult, 1)
	go func() {
		out, err := uc.Run(context.Background(), dto.RunInput{}, presenter)
		done <- runResult{out, err}
	}()

	select {
	case <-presenter.updated:
	case <-time.After(2 * time.Second):
		t.Fatalf("first session never reported progress")
	}
	if !uc.Active() {
		t.Fatalf("expected active session")
	}

	target := int64(3)
	if _, err := uc.Run(context.Background(), dto.RunInput{TargetID: &target}, nil); !errors.Is(err, apperrors.ErrActiveSessionExists) {
		t.Fatalf("expected active session exists, got %v", err)
	}
	if source.starts != 1 {
		t.Fatalf("rejected run must not reach the source, starts=%d", source.starts)
	}

	close(source.stream.release)
	res := <-done
	if res.err != nil || res.out.Outcome != domain.OutcomeFinished {
		t.Fatalf("active session must finish untouched, got %+v %v", res.out, res.err)
	}
	if res.out.FrequencyCount != 1 || res.out.Request != "append" {
		t.Fatalf("unexpected output %+v", res.out)
	}
	if uc.Active() {
		t.Fatalf("session must be released after completion")
	}
}

func TestRunReleasesGuardAfterFailure(t *testing.T) {
	t.Parallel()
	source := &failingSource{}
	uc := usecase.NewInteractor(service.NewSessionService(source, clock.SystemClock{}))
	for attempt := 0; attempt < 2; attempt++ {
		out, err := uc.Run(context.Background(), dto.RunInput{}, nil)
		var failure *domain.StreamFailure
		if !errors.As(err, &failure) || out.Outcome != domain.OutcomeFailed {
			t.Fatalf("attempt %d: expected stream failure, got %+v %v", attempt, out, err)
		}
	}
	if source.starts != 2 {
		t.Fatalf("each user retry must reach the source, got %d", source.starts)
	}
}

func TestCancelForwardsWithoutLocalState(t *testing.T) {
	t.Parallel()
	source := &gatedSource{}
	uc := usecase.NewInteractor(service.NewSessionService(source, clock.SystemClock{}))
	if err := uc.Cancel(context.Background()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if source.cancels != 1 || uc.Active() {
		t.Fatalf("cancel must only be forwarded, cancels=%d active=%v", source.cancels, uc.Active())
	}
}

type failingSource struct{ starts int }

func (f *failingSource) Start(context.Context, domain.Request) (measurementout.SnapshotStream, error) {
	f.starts++
	return nil, &domain.StreamFailure{Status: 503, Body: "meter offline"}
}

func (f *failingSource) Cancel(context.Context) error { return nil }
