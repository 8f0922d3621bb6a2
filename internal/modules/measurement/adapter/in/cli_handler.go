package in

import (
	"context"

	"rescollect/internal/modules/measurement/dto"
	measurementin "rescollect/internal/modules/measurement/port/in"
)

type CLIHandler struct {
	usecase measurementin.Usecase
}

func NewCLIHandler(usecase measurementin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Measure(ctx context.Context, targetID *int64, insertBefore bool, presenter measurementin.Presenter) (dto.RunOutput, error) {
	return h.usecase.Run(ctx, dto.RunInput{TargetID: targetID, InsertBefore: insertBefore}, presenter)
}

func (h CLIHandler) Cancel(ctx context.Context) error {
	return h.usecase.Cancel(ctx)
}
