package out

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"rescollect/internal/modules/collector/domain"
	collectorout "rescollect/internal/modules/collector/port/out"
	"rescollect/internal/platform/clock"
)

const (
	fakeFrequencyCenter = 32760.0
	fakeResistanceMin   = 20.0
)

type FakeMeterOption func(*FakeMeter)

func WithMeterClock(clk clock.Clock) FakeMeterOption {
	return func(m *FakeMeter) { m.clock = clk }
}

func WithMeterRand(rng *rand.Rand) FakeMeterOption {
	return func(m *FakeMeter) { m.rng = rng }
}

// FakeMeter simulates the instrument: it reports resistance during even
// switch windows and frequency during odd ones, counted from construction.
type FakeMeter struct {
	switchEvery time.Duration
	clock       clock.Clock
	started     time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewFakeMeter(switchEvery time.Duration, opts ...FakeMeterOption) collectorout.Meter {
	m := &FakeMeter{
		switchEvery: switchEvery,
		clock:       clock.SystemClock{},
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.switchEvery < time.Second {
		m.switchEvery = time.Second
	}
	m.started = m.clock.Now()
	return m
}

func (m *FakeMeter) Read(ctx context.Context) (domain.Reading, error) {
	if err := ctx.Err(); err != nil {
		return domain.Reading{}, err
	}
	window := int64(m.clock.Now().Sub(m.started) / m.switchEvery)

	m.mu.Lock()
	defer m.mu.Unlock()
	if window%2 == 0 {
		return domain.Reading{Mode: domain.ModeResistance, Value: fakeResistanceMin + (m.rng.Float64()*20 - 10)}, nil
	}
	return domain.Reading{Mode: domain.ModeFrequency, Value: fakeFrequencyCenter + m.rng.Float64()*100}, nil
}

func (m *FakeMeter) Close() error {
	return nil
}
