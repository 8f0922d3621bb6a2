package usecase

import (
	"context"

	"rescollect/internal/modules/batch/domain"
	"rescollect/internal/modules/batch/dto"
	batchin "rescollect/internal/modules/batch/port/in"
	batchout "rescollect/internal/modules/batch/port/out"
)

type Interactor struct {
	store batchout.MetadataStore
}

func NewInteractor(store batchout.MetadataStore) batchin.Usecase {
	return &Interactor{store: store}
}

func (i *Interactor) Show(ctx context.Context) (dto.Metadata, error) {
	m, err := i.store.Get(ctx)
	if err != nil {
		return dto.Metadata{}, err
	}
	return dto.Metadata(m), nil
}

// Update validates before anything is sent; invalid metadata never reaches
// the store.
func (i *Interactor) Update(ctx context.Context, input dto.Metadata) error {
	m := domain.Metadata(input)
	if err := m.Validate(); err != nil {
		return err
	}
	return i.store.Put(ctx, m)
}
