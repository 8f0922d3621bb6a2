package in

import (
	"context"

	"rescollect/internal/modules/collector/dto"
)

type Usecase interface {
	StartMeasurement(ctx context.Context, input dto.StartInput) (Measurement, error)
	CancelMeasurement(ctx context.Context) error
	ListRecords(ctx context.Context) ([]dto.Record, error)
	DeleteRecord(ctx context.Context, id int64) error
	UpdateComment(ctx context.Context, id int64, comment string) error
	GetMetadata(ctx context.Context) (dto.Metadata, error)
	PutMetadata(ctx context.Context, input dto.Metadata) error
	Reset(ctx context.Context) error
}

// Measurement follows one running measurement. Next returns io.EOF after
// the terminal snapshot. Close abandons the measurement if it still runs.
type Measurement interface {
	ID() string
	Next(ctx context.Context) (dto.Snapshot, error)
	Close() error
}
