package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"rescollect/internal/modules/measurement/domain"
	measurementout "rescollect/internal/modules/measurement/port/out"
	apperrors "rescollect/internal/platform/errors"
	"rescollect/internal/platform/wire"
)

const maxErrorBody = 64 << 10

var errClosedEarly = errors.New("stream closed before a terminal phase")

type HTTPAcquisitionSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPAcquisitionSource talks to the collector's measurement resource. The
// client must not carry an overall timeout since a stream lives as long as
// the measurement does.
func NewHTTPAcquisitionSource(baseURL string, client *http.Client) measurementout.AcquisitionSource {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPAcquisitionSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *HTTPAcquisitionSource) Start(ctx context.Context, request domain.Request) (measurementout.SnapshotStream, error) {
	path := wire.PathMeasurements
	var body io.Reader
	if request.TargetID != nil {
		path += "/" + strconv.FormatInt(*request.TargetID, 10)
		body = strings.NewReader(strconv.FormatBool(request.InsertBefore))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create measurement request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", wire.ContentTypeNDJSON)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.StreamFailure{Err: fmt.Errorf("POST %s: %w", path, err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.StreamFailure{Status: resp.StatusCode, Body: wire.ErrorMessage(resp.StatusCode, raw)}
	}
	return newSnapshotStream(resp), nil
}

func (s *HTTPAcquisitionSource) Cancel(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+wire.PathMeasurements, nil)
	if err != nil {
		return fmt.Errorf("create cancel request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("DELETE %s: %w", wire.PathMeasurements, err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("cancel measurement: %w", apperrors.ErrNoActiveSession)
	default:
		return fmt.Errorf("cancel measurement (status %d): %s", resp.StatusCode, wire.ErrorMessage(resp.StatusCode, raw))
	}
}

// snapshotStream decodes one JSON object per Next call from the response
// body. It owns the body and closes it on the terminal snapshot or failure.
type snapshotStream struct {
	status int
	body   io.ReadCloser
	dec    *json.Decoder
	done   bool
	err    error
}

func newSnapshotStream(resp *http.Response) *snapshotStream {
	return &snapshotStream{status: resp.StatusCode, body: resp.Body, dec: json.NewDecoder(resp.Body)}
}

func (s *snapshotStream) Next(ctx context.Context) (domain.Snapshot, error) {
	if s.err != nil {
		return domain.Snapshot{}, s.err
	}
	if s.done {
		return domain.Snapshot{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, s.fail(err)
	}

	stop := context.AfterFunc(ctx, func() { _ = s.body.Close() })
	var payload wire.Snapshot
	err := s.dec.Decode(&payload)
	stop()
	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = ctx.Err()
		case errors.Is(err, io.EOF):
			err = errClosedEarly
		}
		return domain.Snapshot{}, s.fail(err)
	}

	snapshot, err := toDomain(payload)
	if err != nil {
		return domain.Snapshot{}, s.fail(err)
	}
	if snapshot.Phase.Terminal() {
		s.done = true
		_ = s.body.Close()
	}
	return snapshot, nil
}

func (s *snapshotStream) Close() error {
	s.done = true
	return s.body.Close()
}

func (s *snapshotStream) fail(err error) error {
	_ = s.body.Close()
	s.err = &domain.StreamFailure{Status: s.status, Body: err.Error(), Err: err}
	return s.err
}

func toDomain(payload wire.Snapshot) (domain.Snapshot, error) {
	phase, err := domain.ParsePhase(payload.State)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return domain.Snapshot{
		Timestamp:         wire.FromUnixMilli(payload.Timestamp),
		Phase:             phase,
		Frequencies:       payload.Freqs,
		Resistances:       payload.Rks,
		FrequencySummary:  payload.FreqsAvg,
		ResistanceSummary: payload.RksAvg,
	}, nil
}
