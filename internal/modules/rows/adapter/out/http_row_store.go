package out

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rescollect/internal/modules/rows/domain"
	rowsout "rescollect/internal/modules/rows/port/out"
	"rescollect/internal/platform/wire"
)

const maxBody = 4 << 20

type HTTPRowStore struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRowStore(baseURL string, timeout time.Duration) rowsout.RowStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRowStore{baseURL: strings.TrimRight(baseURL, "/"), client: &http.Client{Timeout: timeout}}
}

func (s *HTTPRowStore) List(ctx context.Context) ([]domain.Row, error) {
	var list wire.RecordList
	if err := s.do(ctx, "list rows", http.MethodGet, wire.PathMeasurements, nil, &list); err != nil {
		return nil, err
	}
	rows := make([]domain.Row, 0, len(list.Records))
	for _, rec := range list.Records {
		rows = append(rows, domain.Row{
			ID:                  rec.ID,
			Timestamp:           rec.Timestamp,
			Frequency:           rec.Frequency,
			FrequencyDeviation:  rec.FrequencyDeviation,
			Resistance:          rec.Resistance,
			ResistanceDeviation: rec.ResistanceDeviation,
			Comment:             rec.Comment,
		})
	}
	return rows, nil
}

func (s *HTTPRowStore) Delete(ctx context.Context, id int64) error {
	return s.do(ctx, fmt.Sprintf("delete row %d", id), http.MethodDelete, rowPath(id), nil, nil)
}

func (s *HTTPRowStore) UpdateComment(ctx context.Context, id int64, comment string) error {
	return s.do(ctx, fmt.Sprintf("update comment of row %d", id), http.MethodPut, rowPath(id), strings.NewReader(comment), nil)
}

func (s *HTTPRowStore) Reset(ctx context.Context) error {
	return s.do(ctx, "reset rows", http.MethodDelete, wire.PathGlobal, nil, nil)
}

func (s *HTTPRowStore) do(ctx context.Context, op, method, path string, body io.Reader, dest any) error {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return &domain.StoreRequestFailure{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return &domain.StoreRequestFailure{Op: op, Err: fmt.Errorf("%s %s: %w", method, path, err)}
	}
	defer func() { _ = resp.Body.Close() }()
	return handleResponse(op, resp, dest)
}

func handleResponse(op string, resp *http.Response, dest any) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &domain.StoreRequestFailure{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.StoreRequestFailure{Op: op, Status: resp.StatusCode, Message: wire.ErrorMessage(resp.StatusCode, raw)}
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &domain.StoreRequestFailure{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func rowPath(id int64) string {
	return wire.PathMeasurements + "/" + strconv.FormatInt(id, 10)
}
