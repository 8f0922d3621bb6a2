package out_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	adapterout "rescollect/internal/modules/collector/adapter/out"
	"rescollect/internal/modules/collector/domain"
	"rescollect/internal/platform/clock"
)

func TestFakeMeterAlternatesWindows(t *testing.T) {
	t.Parallel()
	clk := clock.NewManual(time.Unix(1700000000, 0))
	meter := adapterout.NewFakeMeter(2*time.Second,
		adapterout.WithMeterClock(clk),
		adapterout.WithMeterRand(rand.New(rand.NewPCG(1, 2))))
	ctx := context.Background()

	steps := []struct {
		advance time.Duration
		mode    domain.Mode
	}{
		{0, domain.ModeResistance},
		{1900 * time.Millisecond, domain.ModeResistance},
		{200 * time.Millisecond, domain.ModeFrequency},
		{2 * time.Second, domain.ModeResistance},
	}
	for i, step := range steps {
		clk.Advance(step.advance)
		r, err := meter.Read(ctx)
		if err != nil {
			t.Fatalf("step %d: read: %v", i, err)
		}
		if r.Mode != step.mode {
			t.Fatalf("step %d: expected %s, got %s", i, step.mode, r.Mode)
		}
		switch r.Mode {
		case domain.ModeResistance:
			if r.Value < 10 || r.Value >= 30 {
				t.Fatalf("step %d: resistance out of range: %v", i, r.Value)
			}
		case domain.ModeFrequency:
			if r.Value < 32760 || r.Value >= 32860 {
				t.Fatalf("step %d: frequency out of range: %v", i, r.Value)
			}
		}
	}
}

func TestFakeMeterHonoursCancellation(t *testing.T) {
	t.Parallel()
	meter := adapterout.NewFakeMeter(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := meter.Read(ctx); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
}
