// Package httpapi exposes the collector over HTTP: a streaming measurement
// endpoint plus row and batch metadata management.
package httpapi

import (
	"log/slog"
	"net/http"

	collectorin "rescollect/internal/modules/collector/port/in"
	"rescollect/internal/platform/wire"
)

type Handlers struct {
	collector collectorin.Usecase
	logger    *slog.Logger
}

// New returns the root handler with every route and middleware attached.
func New(collector collectorin.Usecase, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handlers{collector: collector, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+wire.PathMeasurements, h.HandleStartMeasurement)
	mux.HandleFunc("POST "+wire.PathMeasurements+"/{id}", h.HandleStartMeasurement)
	mux.HandleFunc("DELETE "+wire.PathMeasurements, h.HandleCancelMeasurement)
	mux.HandleFunc("GET "+wire.PathMeasurements, h.HandleListRecords)
	mux.HandleFunc("DELETE "+wire.PathMeasurements+"/{id}", h.HandleDeleteRecord)
	mux.HandleFunc("PUT "+wire.PathMeasurements+"/{id}", h.HandleUpdateComment)
	mux.HandleFunc("GET "+wire.PathGlobal, h.HandleGetMetadata)
	mux.HandleFunc("PUT "+wire.PathGlobal, h.HandlePutMetadata)
	mux.HandleFunc("DELETE "+wire.PathGlobal, h.HandleReset)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	var handler http.Handler = mux
	handler = tracingMiddleware(handler)
	handler = loggingMiddleware(logger, handler)
	handler = requestIDMiddleware(handler)
	return handler
}
