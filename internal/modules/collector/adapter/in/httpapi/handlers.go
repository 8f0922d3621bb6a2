package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rescollect/internal/modules/collector/dto"
	apperrors "rescollect/internal/platform/errors"
	"rescollect/internal/platform/wire"
)

const maxBodyBytes = 64 << 10

// HandleStartMeasurement starts a measurement and streams its snapshots as
// newline-delimited JSON until a terminal one was written. POST /Measurements
// appends; POST /Measurements/{id} re-measures row id, or inserts before it
// when the body is "true".
func (h *Handlers) HandleStartMeasurement(w http.ResponseWriter, r *http.Request) {
	input := dto.StartInput{}
	if raw := r.PathValue("id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		before, err := readInsertBefore(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		input.TargetID, input.InsertBefore = &id, before
	}

	m, err := h.collector.StartMeasurement(r.Context(), input)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	defer func() { _ = m.Close() }()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", wire.ContentTypeNDJSON)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set(wire.HeaderMeasurement, m.ID())
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	encoder := json.NewEncoder(w)
	for {
		snap, err := m.Next(r.Context())
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			h.logger.Warn("measurement stream ended", "id", m.ID(), "error", err)
			return
		}
		if err := encoder.Encode(toWireSnapshot(snap)); err != nil {
			h.logger.Warn("measurement client went away", "id", m.ID(), "error", err)
			return
		}
		flusher.Flush()
	}
}

func (h *Handlers) HandleCancelMeasurement(w http.ResponseWriter, r *http.Request) {
	if err := h.collector.CancelMeasurement(r.Context()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.collector.ListRecords(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	list := wire.RecordList{Records: make([]wire.Record, 0, len(records)), Total: len(records)}
	for _, rec := range records {
		list.Records = append(list.Records, wire.Record{
			ID:                  rec.ID,
			Timestamp:           rec.Timestamp,
			Frequency:           rec.Frequency,
			FrequencyDeviation:  rec.FrequencyDeviation,
			Resistance:          rec.Resistance,
			ResistanceDeviation: rec.ResistanceDeviation,
			Comment:             rec.Comment,
		})
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) HandleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.collector.DeleteRecord(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateComment replaces the comment of a row with the plain text body.
func (h *Handlers) HandleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read comment")
		return
	}
	if err := h.collector.UpdateComment(r.Context(), id, string(raw)); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleGetMetadata(w http.ResponseWriter, r *http.Request) {
	m, err := h.collector.GetMetadata(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.Metadata(m))
}

func (h *Handlers) HandlePutMetadata(w http.ResponseWriter, r *http.Request) {
	var body wire.Metadata
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid metadata body: "+err.Error())
		return
	}
	if err := h.collector.PutMetadata(r.Context(), dto.Metadata(body)); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReset clears every row and the batch metadata.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.collector.Reset(r.Context()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrMeasureRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrNoActiveSession):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toWireSnapshot(s dto.Snapshot) wire.Snapshot {
	out := wire.Snapshot{
		Timestamp: wire.UnixMilli(s.Timestamp),
		State:     s.State,
		Freqs:     s.Freqs,
		Rks:       s.Rks,
		FreqsAvg:  s.FreqSummary,
		RksAvg:    s.RkSummary,
	}
	if out.Freqs == nil {
		out.Freqs = []float64{}
	}
	if out.Rks == nil {
		out.Rks = []float64{}
	}
	return out
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid row id %q", raw)
	}
	return id, nil
}

func readInsertBefore(r *http.Request) (bool, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return false, fmt.Errorf("read body: %w", err)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return false, nil
	}
	before, err := strconv.ParseBool(text)
	if err != nil {
		return false, fmt.Errorf("body must be true or false, got %q", text)
	}
	return before, nil
}
