package in

import (
	"context"

	"rescollect/internal/modules/batch/dto"
	batchin "rescollect/internal/modules/batch/port/in"
)

type CLIHandler struct {
	usecase batchin.Usecase
}

func NewCLIHandler(usecase batchin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Show(ctx context.Context) (dto.Metadata, error) {
	return h.usecase.Show(ctx)
}

func (h CLIHandler) Set(ctx context.Context, input dto.Metadata) error {
	return h.usecase.Update(ctx, input)
}
