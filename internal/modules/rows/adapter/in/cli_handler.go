package in

import (
	"context"

	measurementdto "rescollect/internal/modules/measurement/dto"
	"rescollect/internal/modules/rows/dto"
	rowsin "rescollect/internal/modules/rows/port/in"
)

type CLIHandler struct {
	usecase rowsin.Usecase
}

func NewCLIHandler(usecase rowsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Measure(ctx context.Context, targetID *int64, insertBefore bool) (measurementdto.RunOutput, error) {
	return h.usecase.Start(ctx, dto.StartInput{TargetID: targetID, InsertBefore: insertBefore})
}

func (h CLIHandler) List(ctx context.Context) ([]dto.RowOutput, error) {
	if err := h.usecase.Reload(ctx); err != nil {
		return nil, err
	}
	return h.usecase.Rows(), nil
}

func (h CLIHandler) Remove(ctx context.Context, id int64) error {
	return h.usecase.Remove(ctx, id)
}

func (h CLIHandler) Comment(ctx context.Context, id int64, comment string) error {
	return h.usecase.EditComment(ctx, id, comment)
}

func (h CLIHandler) Reset(ctx context.Context) error {
	return h.usecase.Reset(ctx)
}
