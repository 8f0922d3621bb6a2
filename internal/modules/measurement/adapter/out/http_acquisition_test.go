package out_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	measurementadapter "rescollect/internal/modules/measurement/adapter/out"
	"rescollect/internal/modules/measurement/domain"
	apperrors "rescollect/internal/platform/errors"
	"rescollect/internal/platform/wire"
)

func mockServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func streamSnapshots(snapshots ...wire.Snapshot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", wire.ContentTypeNDJSON)
		w.WriteHeader(http.StatusOK)
		enc := json.NewEncoder(w)
		for _, snap := range snapshots {
			_ = enc.Encode(snap)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}

func drain(t *testing.T, stream interface {
	Next(context.Context) (domain.Snapshot, error)
}) ([]domain.Snapshot, error) {
	t.Helper()
	var got []domain.Snapshot
	for {
		snap, err := stream.Next(context.Background())
		if err != nil {
			return got, err
		}
		got = append(got, snap)
	}
}

func TestStartAppendStreamsSnapshotsInOrder(t *testing.T) {
	t.Parallel()
	bodies := make(chan string, 1)
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /Measurements": func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			bodies <- string(raw)
			streamSnapshots(
				wire.Snapshot{Timestamp: 1_772_000_000_000, State: "Running", Freqs: []float64{100}},
				wire.Snapshot{State: "Running", Freqs: []float64{100, 101}, Rks: []float64{20}},
				wire.Snapshot{State: "Finished", Freqs: []float64{100, 101}, Rks: []float64{20}},
			)(w, r)
		},
	})

	source := measurementadapter.NewHTTPAcquisitionSource(srv.URL+"/", nil)
	stream, err := source.Start(context.Background(), domain.Request{})
	require.NoError(t, err)

	got, err := drain(t, stream)
	require.ErrorIs(t, err, io.EOF)
	require.Len(t, got, 3)
	assert.Empty(t, <-bodies)
	assert.Equal(t, domain.PhaseRunning, got[0].Phase)
	assert.Equal(t, int64(1_772_000_000_000), got[0].Timestamp.UnixMilli())
	assert.Equal(t, []float64{100, 101}, got[1].Frequencies)
	assert.Equal(t, domain.PhaseFinished, got[2].Phase)

	_, err = stream.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF, "terminal stream keeps reporting EOF")
	assert.NoError(t, stream.Close())
}

func TestStartTargetedSendsInsertBeforeFlag(t *testing.T) {
	t.Parallel()
	requests := make(chan [2]string, 1)
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /Measurements/{id}": func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			requests <- [2]string{r.PathValue("id"), string(raw)}
			streamSnapshots(wire.Snapshot{State: "Interrupted"})(w, r)
		},
	})
	source := measurementadapter.NewHTTPAcquisitionSource(srv.URL, nil)

	target := int64(5)
	stream, err := source.Start(context.Background(), domain.NewRequest(&target, true))
	require.NoError(t, err)
	snap, err := stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseInterrupted, snap.Phase)
	assert.Equal(t, [2]string{"5", "true"}, <-requests)
}

func TestStartAcceptsConcatenatedObjectsAndSummaries(t *testing.T) {
	t.Parallel()
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /Measurements": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"timestamp":0,"state":"Running","freqs":[10,12],"rks":[],"freqs_avg":{"median":11,"q1":10.5,"q3":11.5,"iqr":1,"lower_bound":9,"upper_bound":13},"extra":"ignored"}{"state":"Finished","freqs":[10,12],"rks":[]}`)
		},
	})
	stream, err := measurementadapter.NewHTTPAcquisitionSource(srv.URL, nil).Start(context.Background(), domain.Request{})
	require.NoError(t, err)

	got, err := drain(t, stream)
	require.ErrorIs(t, err, io.EOF)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].FrequencySummary)
	assert.Equal(t, 11.0, got[0].FrequencySummary.Median)
	assert.Nil(t, got[0].ResistanceSummary)
	assert.True(t, got[0].Timestamp.IsZero())
	assert.Nil(t, got[1].FrequencySummary)
}

func TestStartRejectedReportsStatusAndBody(t *testing.T) {
	t.Parallel()
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /Measurements": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(wire.Error{Error: "measurement process is already running"})
		},
	})
	_, err := measurementadapter.NewHTTPAcquisitionSource(srv.URL, nil).Start(context.Background(), domain.Request{})

	var failure *domain.StreamFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, http.StatusConflict, failure.Status)
	assert.Equal(t, "measurement process is already running", failure.Body)
}

func TestStreamClosedBeforeTerminalPhaseFails(t *testing.T) {
	t.Parallel()
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /Measurements": streamSnapshots(wire.Snapshot{State: "Running", Freqs: []float64{100}}),
	})
	stream, err := measurementadapter.NewHTTPAcquisitionSource(srv.URL, nil).Start(context.Background(), domain.Request{})
	require.NoError(t, err)

	got, err := drain(t, stream)
	require.Len(t, got, 1)
	var failure *domain.StreamFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, http.StatusOK, failure.Status)
	assert.Contains(t, failure.Error(), "terminal phase")
	assert.Equal(t, failure.Err.Error(), failure.Body, "transport text travels in the body")

	_, again := stream.Next(context.Background())
	assert.Same(t, err, again, "failed stream stops producing")
}

func TestStreamRejectsUnknownState(t *testing.T) {
	t.Parallel()
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /Measurements": streamSnapshots(wire.Snapshot{State: "Paused"}),
	})
	stream, err := measurementadapter.NewHTTPAcquisitionSource(srv.URL, nil).Start(context.Background(), domain.Request{})
	require.NoError(t, err)

	_, err = stream.Next(context.Background())
	var failure *domain.StreamFailure
	require.ErrorAs(t, err, &failure)
	assert.Contains(t, err.Error(), "Paused")
}

func TestStreamNextHonoursContext(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /Measurements": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			select {
			case <-release:
			case <-r.Context().Done():
			}
		},
	})
	defer close(release)
	stream, err := measurementadapter.NewHTTPAcquisitionSource(srv.URL, nil).Start(context.Background(), domain.Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = stream.Next(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCancelMapsStatuses(t *testing.T) {
	t.Parallel()
	var cancelled atomic.Bool
	srv := mockServer(t, map[string]http.HandlerFunc{
		"DELETE /Measurements": func(w http.ResponseWriter, r *http.Request) {
			if cancelled.Swap(true) {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		},
	})
	source := measurementadapter.NewHTTPAcquisitionSource(srv.URL, nil)

	require.NoError(t, source.Cancel(context.Background()))
	err := source.Cancel(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoActiveSession)
}
