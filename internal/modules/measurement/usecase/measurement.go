package usecase

import (
	"context"
	"sync/atomic"

	"rescollect/internal/modules/measurement/domain"
	"rescollect/internal/modules/measurement/dto"
	measurementin "rescollect/internal/modules/measurement/port/in"
	"rescollect/internal/modules/measurement/service"
	apperrors "rescollect/internal/platform/errors"
)

type Interactor struct {
	svc    *service.SessionService
	active atomic.Bool
}

func NewInteractor(svc *service.SessionService) measurementin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Run(ctx context.Context, input dto.RunInput, presenter measurementin.Presenter) (dto.RunOutput, error) {
	if !i.active.CompareAndSwap(false, true) {
		return dto.RunOutput{}, apperrors.ErrActiveSessionExists
	}
	defer i.active.Store(false)

	request := domain.NewRequest(input.TargetID, input.InsertBefore)
	result, err := i.svc.Run(ctx, request, presenter)
	return toOutput(request, result), err
}

func (i *Interactor) Cancel(ctx context.Context) error {
	return i.svc.Cancel(ctx)
}

func (i *Interactor) Active() bool {
	return i.active.Load()
}

func toOutput(request domain.Request, result domain.Result) dto.RunOutput {
	return dto.RunOutput{
		Outcome:           result.Outcome,
		Request:           request.String(),
		StartedAt:         result.View.StartedAt,
		FinishedAt:        result.View.UpdatedAt,
		FrequencyCount:    len(result.View.Frequencies),
		ResistanceCount:   len(result.View.Resistances),
		FrequencySummary:  result.View.FrequencySummary,
		ResistanceSummary: result.View.ResistanceSummary,
	}
}
