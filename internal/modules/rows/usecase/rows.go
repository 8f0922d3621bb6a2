package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rescollect/internal/modules/measurement/domain"
	measurementdto "rescollect/internal/modules/measurement/dto"
	measurementin "rescollect/internal/modules/measurement/port/in"
	rowdomain "rescollect/internal/modules/rows/domain"
	"rescollect/internal/modules/rows/dto"
	rowsin "rescollect/internal/modules/rows/port/in"
	rowsout "rescollect/internal/modules/rows/port/out"
	"rescollect/internal/modules/rows/service"
	apperrors "rescollect/internal/platform/errors"
)

type Option func(*Interactor)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Interactor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithResetHook registers a callback run once the store accepted a reset, used to
// refresh collaborators whose data the reset cleared as well.
func WithResetHook(hook func(ctx context.Context) error) Option {
	return func(i *Interactor) {
		i.onReset = hook
	}
}

// Interactor turns user intents into measurement sessions and row store
// requests and reconciles their results with the row view.
type Interactor struct {
	svc       *service.RowService
	runner    rowsout.SessionRunner
	view      rowsout.RowView
	notifier  rowsout.Notifier
	presenter measurementin.Presenter
	onReset   func(ctx context.Context) error
	logger    *slog.Logger
}

func NewInteractor(svc *service.RowService, runner rowsout.SessionRunner, view rowsout.RowView, notifier rowsout.Notifier, presenter measurementin.Presenter, opts ...Option) rowsin.Usecase {
	i := &Interactor{
		svc:       svc,
		runner:    runner,
		view:      view,
		notifier:  notifier,
		presenter: presenter,
		logger:    slog.New(slog.DiscardHandler),
	}
	if i.view == nil {
		i.view = noopView{}
	}
	if i.notifier == nil {
		i.notifier = noopNotifier{}
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (measurementdto.RunOutput, error) {
	if i.runner.Active() {
		i.notifier.Warning("A measurement is already running")
		return measurementdto.RunOutput{}, apperrors.ErrActiveSessionExists
	}

	out, err := i.runner.Run(ctx, measurementdto.RunInput{TargetID: input.TargetID, InsertBefore: input.InsertBefore}, i.presenter)
	if errors.Is(err, apperrors.ErrActiveSessionExists) {
		i.notifier.Warning("A measurement is already running")
		return out, err
	}
	if err != nil {
		i.logger.Warn("measurement failed", "request", out.Request, "error", err)
		i.notifier.Error(fmt.Sprintf("Measurement failed: %v", err))
		return out, err
	}

	switch out.Outcome {
	case domain.OutcomeFinished:
		i.notifier.Success("Measurement finished")
		if err := i.Reload(ctx); err != nil {
			return out, err
		}
	case domain.OutcomeInterrupted:
		i.notifier.Warning("Measurement cancelled")
	}
	return out, nil
}

func (i *Interactor) Cancel(ctx context.Context) error {
	if err := i.runner.Cancel(ctx); err != nil {
		i.notifier.Error(fmt.Sprintf("Cancel failed: %v", err))
		return err
	}
	return nil
}

func (i *Interactor) Remove(ctx context.Context, id int64) error {
	if err := i.svc.Remove(ctx, id); err != nil {
		i.notifier.Error(err.Error())
		return err
	}
	i.view.RemoveRow(id)
	return nil
}

func (i *Interactor) EditComment(ctx context.Context, id int64, comment string) error {
	if err := i.svc.EditComment(ctx, id, comment); err != nil {
		i.notifier.Error(err.Error())
		return err
	}
	row, ok := i.svc.Current().Find(id)
	if !ok {
		// the store accepted it; the local copy is stale
		return i.Reload(ctx)
	}
	i.view.UpdateRow(row)
	return nil
}

func (i *Interactor) Reset(ctx context.Context) error {
	if err := i.svc.Reset(ctx); err != nil {
		i.notifier.Error(err.Error())
		return err
	}
	// the store is already cleared, so the hook runs even if the reload fails
	reloadErr := i.Reload(ctx)
	var hookErr error
	if i.onReset != nil {
		if hookErr = i.onReset(ctx); hookErr != nil {
			i.notifier.Error(hookErr.Error())
		}
	}
	if err := errors.Join(reloadErr, hookErr); err != nil {
		return err
	}
	i.notifier.Success("Batch reset")
	return nil
}

func (i *Interactor) Reload(ctx context.Context) error {
	set, err := i.svc.Reload(ctx)
	if err != nil {
		i.notifier.Error(err.Error())
		return err
	}
	i.view.ShowRows(set.Rows())
	return nil
}

func (i *Interactor) Rows() []dto.RowOutput {
	rows := i.svc.Current().Rows()
	out := make([]dto.RowOutput, 0, len(rows))
	for _, r := range rows {
		out = append(out, toOutput(r))
	}
	return out
}

func toOutput(r rowdomain.Row) dto.RowOutput {
	return dto.RowOutput{
		ID:                  r.ID,
		Timestamp:           r.Timestamp,
		Frequency:           r.Frequency,
		FrequencyDeviation:  r.FrequencyDeviation,
		Resistance:          r.Resistance,
		ResistanceDeviation: r.ResistanceDeviation,
		Comment:             r.Comment,
	}
}

type noopView struct{}

func (noopView) ShowRows([]rowdomain.Row) {}
func (noopView) RemoveRow(int64)          {}
func (noopView) UpdateRow(rowdomain.Row)  {}

type noopNotifier struct{}

func (noopNotifier) Success(string) {}
func (noopNotifier) Warning(string) {}
func (noopNotifier) Error(string)   {}
