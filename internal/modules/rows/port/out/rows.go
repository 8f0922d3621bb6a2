package out

import (
	"context"

	measurementdto "rescollect/internal/modules/measurement/dto"
	measurementin "rescollect/internal/modules/measurement/port/in"
	"rescollect/internal/modules/rows/domain"
)

type RowStore interface {
	List(ctx context.Context) ([]domain.Row, error)
	Delete(ctx context.Context, id int64) error
	UpdateComment(ctx context.Context, id int64, comment string) error
	Reset(ctx context.Context) error
}

type RowView interface {
	ShowRows(rows []domain.Row)
	RemoveRow(id int64)
	UpdateRow(row domain.Row)
}

type Notifier interface {
	Success(message string)
	Warning(message string)
	Error(message string)
}

type SessionRunner interface {
	Run(ctx context.Context, input measurementdto.RunInput, presenter measurementin.Presenter) (measurementdto.RunOutput, error)
	Cancel(ctx context.Context) error
	Active() bool
}
