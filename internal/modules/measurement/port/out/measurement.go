package out

import (
	"context"

	"rescollect/internal/modules/measurement/domain"
)

type AcquisitionSource interface {
	Start(ctx context.Context, request domain.Request) (SnapshotStream, error)
	Cancel(ctx context.Context) error
}

// SnapshotStream yields snapshots in arrival order. Next returns io.EOF once
// the terminal snapshot has been delivered.
type SnapshotStream interface {
	Next(ctx context.Context) (domain.Snapshot, error)
	Close() error
}
