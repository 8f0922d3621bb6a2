package out

import (
	"context"

	"rescollect/internal/modules/batch/domain"
)

type MetadataStore interface {
	Get(ctx context.Context) (domain.Metadata, error)
	Put(ctx context.Context, metadata domain.Metadata) error
}
