package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"rescollect/internal/modules/rows/domain"
	rowsout "rescollect/internal/modules/rows/port/out"
)

// RowService keeps the client-side copy of the row collection. The local set
// changes only after the store confirmed a request.
type RowService struct {
	store rowsout.RowStore

	mu  sync.RWMutex
	set domain.RowSet
}

func NewRowService(store rowsout.RowStore) *RowService {
	return &RowService{store: store}
}

func (s *RowService) Current() domain.RowSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set
}

func (s *RowService) Reload(ctx context.Context) (domain.RowSet, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return s.Current(), asStoreFailure("list rows", err)
	}
	set := domain.NewRowSet(rows)
	s.mu.Lock()
	s.set = set
	s.mu.Unlock()
	return set, nil
}

func (s *RowService) Remove(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return asStoreFailure(fmt.Sprintf("delete row %d", id), err)
	}
	s.mu.Lock()
	s.set, _ = s.set.Without(id)
	s.mu.Unlock()
	return nil
}

// EditComment stores the comment and applies it to the local copy when the
// row is known there.
func (s *RowService) EditComment(ctx context.Context, id int64, comment string) error {
	if err := s.store.UpdateComment(ctx, id, comment); err != nil {
		return asStoreFailure(fmt.Sprintf("update comment of row %d", id), err)
	}
	s.mu.Lock()
	s.set, _, _ = s.set.WithComment(id, comment)
	s.mu.Unlock()
	return nil
}

func (s *RowService) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return asStoreFailure("reset rows", err)
	}
	return nil
}

func asStoreFailure(op string, err error) error {
	var failure *domain.StoreRequestFailure
	if errors.As(err, &failure) {
		return err
	}
	return &domain.StoreRequestFailure{Op: op, Err: err}
}
