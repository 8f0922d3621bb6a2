package in

import (
	"context"

	"rescollect/internal/modules/batch/dto"
)

type Usecase interface {
	Show(ctx context.Context) (dto.Metadata, error)
	Update(ctx context.Context, input dto.Metadata) error
}
