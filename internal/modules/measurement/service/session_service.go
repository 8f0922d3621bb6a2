package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"rescollect/internal/modules/measurement/domain"
	measurementin "rescollect/internal/modules/measurement/port/in"
	measurementout "rescollect/internal/modules/measurement/port/out"
	"rescollect/internal/platform/clock"
	"rescollect/internal/platform/telemetry"
)

const instrumentationName = "rescollect/measurement"

type Option func(*SessionService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *SessionService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type SessionService struct {
	source    measurementout.AcquisitionSource
	clock     clock.Clock
	logger    *slog.Logger
	tracer    trace.Tracer
	snapshots metric.Int64Counter
	outcomes  metric.Int64Counter
}

func NewSessionService(source measurementout.AcquisitionSource, clk clock.Clock, opts ...Option) *SessionService {
	s := &SessionService{
		source: source,
		clock:  clk,
		logger: slog.New(slog.DiscardHandler),
		tracer: telemetry.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	meter := telemetry.Meter(instrumentationName)
	s.snapshots, _ = meter.Int64Counter("rescollect.measurement.snapshots",
		metric.WithDescription("Snapshots received from the acquisition source"))
	s.outcomes, _ = meter.Int64Counter("rescollect.measurement.sessions",
		metric.WithDescription("Measurement sessions by outcome"))
	return s
}

// Run drives one session from the start request to its terminal snapshot.
// A stream that fails or ends early yields OutcomeFailed together with the
// *domain.StreamFailure as error.
func (s *SessionService) Run(ctx context.Context, request domain.Request, presenter measurementin.Presenter) (domain.Result, error) {
	if presenter == nil {
		presenter = noopPresenter{}
	}
	ctx, span := s.tracer.Start(ctx, "measurement.run", trace.WithAttributes(attribute.String("request", request.String())))
	defer span.End()

	stream, err := s.source.Start(ctx, request)
	if err != nil {
		s.logger.Warn("measurement rejected", "request", request.String(), "error", err)
		return s.fail(ctx, span, domain.NewSession(request, s.clock.Now()), presenter, false, err)
	}
	defer func() { _ = stream.Close() }()

	session := domain.NewSession(request, s.clock.Now())
	s.logger.Info("measurement started", "request", request.String())
	presenter.SessionOpened(session.View())

	for {
		snapshot, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = &domain.StreamFailure{Err: errors.New("stream ended before a terminal phase")}
			}
			return s.fail(ctx, span, session, presenter, true, err)
		}
		s.snapshots.Add(ctx, 1)
		if err := session.Apply(snapshot); err != nil {
			return s.fail(ctx, span, session, presenter, true, &domain.StreamFailure{Err: err})
		}
		presenter.SessionUpdated(session.View())

		if outcome, done := session.Outcome(); done {
			result := domain.Result{Outcome: outcome, View: session.View()}
			s.record(ctx, outcome)
			s.logger.Info("measurement closed", "request", request.String(), "outcome", outcome,
				"freqs", len(result.View.Frequencies), "rks", len(result.View.Resistances))
			presenter.SessionClosed(result)
			return result, nil
		}
	}
}

// Cancel asks the acquisition source to stop. The session reacts only once
// the stream confirms it.
func (s *SessionService) Cancel(ctx context.Context) error {
	if err := s.source.Cancel(ctx); err != nil {
		return err
	}
	s.logger.Info("measurement cancel requested")
	return nil
}

func (s *SessionService) fail(ctx context.Context, span trace.Span, session *domain.Session, presenter measurementin.Presenter, opened bool, err error) (domain.Result, error) {
	var failure *domain.StreamFailure
	if !errors.As(err, &failure) {
		err = &domain.StreamFailure{Err: err}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.record(ctx, domain.OutcomeFailed)
	result := domain.Result{Outcome: domain.OutcomeFailed, View: session.View(), Err: err}
	if opened {
		s.logger.Error("measurement stream failed", "request", session.Request().String(), "error", err)
		presenter.SessionClosed(result)
	}
	return result, err
}

func (s *SessionService) record(ctx context.Context, outcome domain.Outcome) {
	s.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
}

type noopPresenter struct{}

func (noopPresenter) SessionOpened(domain.View)   {}
func (noopPresenter) SessionUpdated(domain.View)  {}
func (noopPresenter) SessionClosed(domain.Result) {}
