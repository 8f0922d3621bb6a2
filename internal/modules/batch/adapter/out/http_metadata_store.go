package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rescollect/internal/modules/batch/domain"
	batchout "rescollect/internal/modules/batch/port/out"
	"rescollect/internal/platform/wire"
)

type HTTPMetadataStore struct {
	baseURL string
	client  *http.Client
}

func NewHTTPMetadataStore(baseURL string, timeout time.Duration) batchout.MetadataStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPMetadataStore{baseURL: strings.TrimRight(baseURL, "/"), client: &http.Client{Timeout: timeout}}
}

func (s *HTTPMetadataStore) Get(ctx context.Context) (domain.Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+wire.PathGlobal, nil)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("create request: %w", err)
	}
	var payload wire.Metadata
	if err := s.doRequest(req, &payload); err != nil {
		return domain.Metadata{}, err
	}
	return domain.Metadata{
		DataType:                payload.DataType,
		RouteID:                 payload.RouteID,
		AmbientTemperatureRange: payload.AmbientTemperatureRange,
		Date:                    payload.Date,
		Comment:                 payload.Comment,
	}, nil
}

func (s *HTTPMetadataStore) Put(ctx context.Context, m domain.Metadata) error {
	encoded, err := json.Marshal(wire.Metadata{
		DataType:                m.DataType,
		RouteID:                 m.RouteID,
		AmbientTemperatureRange: m.AmbientTemperatureRange,
		Date:                    m.Date,
		Comment:                 m.Comment,
	})
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+wire.PathGlobal, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.doRequest(req, nil)
}

func (s *HTTPMetadataStore) doRequest(req *http.Request, dest any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s (status %d): %s", req.Method, req.URL.Path, resp.StatusCode, wire.ErrorMessage(resp.StatusCode, raw))
	}
	if dest == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	return nil
}
