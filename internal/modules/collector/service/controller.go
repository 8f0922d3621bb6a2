package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	batchdomain "rescollect/internal/modules/batch/domain"
	"rescollect/internal/modules/collector/domain"
	collectorout "rescollect/internal/modules/collector/port/out"
	"rescollect/internal/platform/clock"
	apperrors "rescollect/internal/platform/errors"
	"rescollect/internal/platform/id"
	"rescollect/internal/platform/telemetry"
)

const maxReadFailures = 3

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller owns the meter and the repository. It polls the meter, feeds
// the single active measurement and persists its result.
type Controller struct {
	meter    collectorout.Meter
	repo     collectorout.Repository
	clock    clock.Clock
	ids      id.Generator
	cycles   int
	interval time.Duration
	logger   *slog.Logger

	measurements metric.Int64Counter
	readFailures metric.Int64Counter

	mu       sync.Mutex
	lastMode domain.Mode
	active   *Measurement
}

func NewController(meter collectorout.Meter, repo collectorout.Repository, clk clock.Clock, ids id.Generator, cycles int, interval time.Duration, opts ...Option) *Controller {
	c := &Controller{
		meter:    meter,
		repo:     repo,
		clock:    clk,
		ids:      ids,
		cycles:   cycles,
		interval: interval,
		logger:   slog.New(slog.DiscardHandler),
		lastMode: domain.ModeFrequency,
	}
	for _, opt := range opts {
		opt(c)
	}
	m := telemetry.Meter("rescollect/collector")
	c.measurements, _ = m.Int64Counter("rescollect.collector.measurements",
		metric.WithDescription("Measurements by terminal state"))
	c.readFailures, _ = m.Int64Counter("rescollect.collector.meter_read_failures",
		metric.WithDescription("Failed meter reads"))
	return c
}

// Run polls the meter every interval until ctx is done. After
// maxReadFailures consecutive failed reads the active measurement is
// interrupted.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer c.interruptActive("collector stopped")

	failures := 0
	for {
		reading, err := c.meter.Read(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			failures++
			c.readFailures.Add(ctx, 1)
			c.logger.Error("meter read failed", "error", err, "consecutive", failures)
			if failures >= maxReadFailures {
				c.interruptActive("meter unavailable")
				failures = 0
			}
		default:
			failures = 0
			c.observe(ctx, reading)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (c *Controller) Start(ctx context.Context, placement domain.Placement) (*Measurement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return nil, apperrors.ErrMeasureRunning
	}
	if placement.TargetID != nil {
		if err := c.ensureRecord(ctx, *placement.TargetID); err != nil {
			return nil, err
		}
	}
	m := &Measurement{
		id:         c.ids.New(),
		placement:  placement,
		process:    domain.NewProcess(c.cycles, c.lastMode),
		feed:       newFeed(),
		controller: c,
	}
	c.active = m
	c.logger.Info("measurement started", "id", m.id, "target", targetAttr(placement), "insert_before", placement.InsertBefore)
	return m, nil
}

func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return apperrors.ErrNoActiveSession
	}
	c.interruptLocked(c.active, "cancelled")
	return nil
}

func (c *Controller) Records(ctx context.Context) ([]domain.Record, error) {
	return c.repo.ListRecords(ctx)
}

func (c *Controller) DeleteRecord(ctx context.Context, id int64) error {
	return c.repo.DeleteRecord(ctx, id)
}

func (c *Controller) UpdateComment(ctx context.Context, id int64, comment string) error {
	return c.repo.UpdateComment(ctx, id, comment)
}

func (c *Controller) Metadata(ctx context.Context) (batchdomain.Metadata, error) {
	return c.repo.GetMetadata(ctx)
}

func (c *Controller) PutMetadata(ctx context.Context, m batchdomain.Metadata) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return c.repo.PutMetadata(ctx, m)
}

// Reset clears rows and batch metadata. It is refused while a measurement
// runs since its target may vanish.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return apperrors.ErrMeasureRunning
	}
	if err := c.repo.Reset(ctx); err != nil {
		return err
	}
	c.logger.Info("batch reset")
	return nil
}

func (c *Controller) observe(ctx context.Context, r domain.Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastMode = r.Mode
	m := c.active
	if m == nil {
		return
	}
	snap, ok := m.process.Observe(r, c.clock.Now())
	if !ok {
		return
	}
	if snap.State == domain.StateFinished {
		saved, err := c.repo.SaveRecord(ctx, domain.RecordFromSnapshot(snap), m.placement)
		if err != nil {
			c.logger.Error("save measurement failed", "id", m.id, "error", err)
			snap.State = domain.StateInterrupted
		} else {
			c.logger.Info("measurement finished", "id", m.id, "record", saved.ID,
				"freqs", len(snap.Freqs), "rks", len(snap.Rks))
		}
	}
	c.publishLocked(m, snap)
}

func (c *Controller) interruptActive(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.interruptLocked(c.active, reason)
	}
}

func (c *Controller) abandon(m *Measurement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == m {
		c.interruptLocked(m, "client went away")
	}
}

func (c *Controller) interruptLocked(m *Measurement, reason string) {
	c.logger.Warn("measurement interrupted", "id", m.id, "reason", reason)
	c.publishLocked(m, m.process.Interrupt(c.clock.Now()))
}

func (c *Controller) publishLocked(m *Measurement, snap domain.Snapshot) {
	m.feed.publish(snap)
	if snap.Terminal() {
		c.active = nil
		c.measurements.Add(context.Background(), 1, metric.WithAttributes(attribute.String("state", string(snap.State))))
	}
}

func (c *Controller) ensureRecord(ctx context.Context, id int64) error {
	records, err := c.repo.ListRecords(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(records, func(r domain.Record) bool { return r.ID == id }) {
		return fmt.Errorf("row %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func targetAttr(p domain.Placement) any {
	if p.TargetID == nil {
		return "append"
	}
	return *p.TargetID
}

// Measurement is the handle of one started measurement.
type Measurement struct {
	id         string
	placement  domain.Placement
	process    *domain.Process
	feed       *feed
	controller *Controller

	seen     uint64
	finished bool
}

func (m *Measurement) ID() string {
	return m.id
}

// Next blocks until a newer snapshot than the last returned one exists.
func (m *Measurement) Next(ctx context.Context) (domain.Snapshot, error) {
	if m.finished {
		return domain.Snapshot{}, io.EOF
	}
	snap, version, err := m.feed.next(ctx, m.seen)
	if err != nil {
		return domain.Snapshot{}, err
	}
	m.seen = version
	if snap.Terminal() {
		m.finished = true
	}
	return snap, nil
}

func (m *Measurement) Close() error {
	m.controller.abandon(m)
	return nil
}

