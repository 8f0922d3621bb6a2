// Package wire holds the JSON shapes exchanged between the collector server
// and its clients.
package wire

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"rescollect/internal/platform/boxplot"
)

const (
	PathMeasurements = "/Measurements"
	PathGlobal       = "/global"

	ContentTypeNDJSON = "application/x-ndjson"
	HeaderMeasurement = "X-Measurement-Id"
)

// Snapshot is one line of the measurement stream. Timestamp is unix
// milliseconds.
type Snapshot struct {
	Timestamp int64            `json:"timestamp"`
	State     string           `json:"state"`
	Freqs     []float64        `json:"freqs"`
	Rks       []float64        `json:"rks"`
	FreqsAvg  *boxplot.BoxPlot `json:"freqs_avg,omitempty"`
	RksAvg    *boxplot.BoxPlot `json:"rks_avg,omitempty"`
}

type Record struct {
	ID                  int64     `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	Frequency           float64   `json:"F"`
	FrequencyDeviation  float64   `json:"F_deviation"`
	Resistance          float64   `json:"Rk"`
	ResistanceDeviation float64   `json:"Rk_deviation"`
	Comment             string    `json:"Comment"`
}

type RecordList struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}

type Metadata struct {
	DataType                string `json:"data_type"`
	RouteID                 string `json:"route_id"`
	AmbientTemperatureRange string `json:"ambient_temperature_range"`
	Date                    string `json:"date"`
	Comment                 string `json:"comment"`
}

// Error is the JSON body of a rejected request.
type Error struct {
	Error string `json:"error"`
}

func UnixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func FromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// ErrorMessage extracts a human readable message from a rejected response,
// falling back to the raw body and then to the status text.
func ErrorMessage(status int, body []byte) string {
	var parsed Error
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}
