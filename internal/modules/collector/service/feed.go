package service

import (
	"context"
	"sync"

	"rescollect/internal/modules/collector/domain"
)

// feed holds the latest snapshot of one measurement. Readers that fall
// behind skip intermediate Running snapshots; since snapshots are cumulative
// nothing is lost, and the terminal snapshot is always the last one seen.
type feed struct {
	mu      sync.Mutex
	latest  domain.Snapshot
	version uint64
	changed chan struct{}
}

func newFeed() *feed {
	return &feed{changed: make(chan struct{})}
}

func (f *feed) publish(s domain.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = s
	f.version++
	close(f.changed)
	f.changed = make(chan struct{})
}

func (f *feed) next(ctx context.Context, seen uint64) (domain.Snapshot, uint64, error) {
	for {
		f.mu.Lock()
		if f.version > seen {
			s, v := f.latest, f.version
			f.mu.Unlock()
			return s, v, nil
		}
		changed := f.changed
		f.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return domain.Snapshot{}, seen, ctx.Err()
		}
	}
}
