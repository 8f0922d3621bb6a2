package usecase

import (
	"context"

	batchdomain "rescollect/internal/modules/batch/domain"
	"rescollect/internal/modules/collector/domain"
	"rescollect/internal/modules/collector/dto"
	collectorin "rescollect/internal/modules/collector/port/in"
	"rescollect/internal/modules/collector/service"
)

type Interactor struct {
	ctrl *service.Controller
}

func NewInteractor(ctrl *service.Controller) collectorin.Usecase {
	return &Interactor{ctrl: ctrl}
}

func (i *Interactor) StartMeasurement(ctx context.Context, input dto.StartInput) (collectorin.Measurement, error) {
	placement := domain.Placement{InsertBefore: input.InsertBefore}
	if input.TargetID != nil {
		target := *input.TargetID
		placement.TargetID = &target
	} else {
		placement.InsertBefore = false
	}
	m, err := i.ctrl.Start(ctx, placement)
	if err != nil {
		return nil, err
	}
	return measurement{m: m}, nil
}

func (i *Interactor) CancelMeasurement(context.Context) error {
	return i.ctrl.Cancel()
}

func (i *Interactor) ListRecords(ctx context.Context) ([]dto.Record, error) {
	records, err := i.ctrl.Records(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Record, 0, len(records))
	for _, r := range records {
		out = append(out, dto.Record(r))
	}
	return out, nil
}

func (i *Interactor) DeleteRecord(ctx context.Context, id int64) error {
	return i.ctrl.DeleteRecord(ctx, id)
}

func (i *Interactor) UpdateComment(ctx context.Context, id int64, comment string) error {
	return i.ctrl.UpdateComment(ctx, id, comment)
}

func (i *Interactor) GetMetadata(ctx context.Context) (dto.Metadata, error) {
	m, err := i.ctrl.Metadata(ctx)
	if err != nil {
		return dto.Metadata{}, err
	}
	return dto.Metadata(m), nil
}

func (i *Interactor) PutMetadata(ctx context.Context, input dto.Metadata) error {
	return i.ctrl.PutMetadata(ctx, batchdomain.Metadata(input))
}

func (i *Interactor) Reset(ctx context.Context) error {
	return i.ctrl.Reset(ctx)
}

type measurement struct {
	m *service.Measurement
}

func (m measurement) ID() string {
	return m.m.ID()
}

func (m measurement) Next(ctx context.Context) (dto.Snapshot, error) {
	s, err := m.m.Next(ctx)
	if err != nil {
		return dto.Snapshot{}, err
	}
	return dto.Snapshot{
		Timestamp:   s.Timestamp,
		State:       string(s.State),
		Freqs:       s.Freqs,
		Rks:         s.Rks,
		FreqSummary: s.FreqSummary,
		RkSummary:   s.RkSummary,
	}, nil
}

func (m measurement) Close() error {
	return m.m.Close()
}
