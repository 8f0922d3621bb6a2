package out

import (
	"context"

	batchdomain "rescollect/internal/modules/batch/domain"
	"rescollect/internal/modules/collector/domain"
)

type Meter interface {
	Read(ctx context.Context) (domain.Reading, error)
	Close() error
}

// Repository persists rows in display order together with the batch
// metadata.
type Repository interface {
	ListRecords(ctx context.Context) ([]domain.Record, error)
	SaveRecord(ctx context.Context, record domain.Record, placement domain.Placement) (domain.Record, error)
	DeleteRecord(ctx context.Context, id int64) error
	UpdateComment(ctx context.Context, id int64, comment string) error
	GetMetadata(ctx context.Context) (batchdomain.Metadata, error)
	PutMetadata(ctx context.Context, metadata batchdomain.Metadata) error
	Reset(ctx context.Context) error
	Close() error
}
