package usecase_test

import (
	"context"
	"errors"
	"testing"

	"rescollect/internal/modules/batch/domain"
	"rescollect/internal/modules/batch/dto"
	"rescollect/internal/modules/batch/usecase"
)

type memoryStore struct {
	current domain.Metadata
	puts    int
}

func (m *memoryStore) Get(context.Context) (domain.Metadata, error) { return m.current, nil }

func (m *memoryStore) Put(_ context.Context, metadata domain.Metadata) error {
	m.puts++
	m.current = metadata
	return nil
}

func TestUpdateRejectsInvalidMetadataBeforeStore(t *testing.T) {
	t.Parallel()
	store := &memoryStore{}
	err := usecase.NewInteractor(store).Update(context.Background(), dto.Metadata{DataType: "RK-32"})
	var failure *domain.ValidationFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if store.puts != 0 {
		t.Fatalf("invalid metadata must never be sent")
	}
}

func TestUpdateThenShowRoundTrips(t *testing.T) {
	t.Parallel()
	store := &memoryStore{}
	uc := usecase.NewInteractor(store)
	input := dto.Metadata{DataType: "RK-32", RouteID: "R-7", AmbientTemperatureRange: "21..23", Date: "2026-03-02", Comment: "night shift"}
	if err := uc.Update(context.Background(), input); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := uc.Show(context.Background())
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if got != input || store.puts != 1 {
		t.Fatalf("expected stored metadata %+v, got %+v", input, got)
	}
}
