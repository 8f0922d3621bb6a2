package in

import (
	"context"

	measurementdto "rescollect/internal/modules/measurement/dto"
	"rescollect/internal/modules/rows/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (measurementdto.RunOutput, error)
	Cancel(ctx context.Context) error
	Remove(ctx context.Context, id int64) error
	EditComment(ctx context.Context, id int64, comment string) error
	Reset(ctx context.Context) error
	Reload(ctx context.Context) error
	Rows() []dto.RowOutput
}
