package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "rescollect/internal/platform/errors"
)

// DateLayouts lists the accepted spellings of Metadata.Date.
var DateLayouts = []string{"2006-01-02", "02.01.2006", "01/02/2006"}

// Metadata describes the batch the current rows belong to.
type Metadata struct {
	DataType                string
	RouteID                 string
	AmbientTemperatureRange string
	Date                    string
	Comment                 string
}

// ValidationFailure maps field names to what is wrong with them.
type ValidationFailure struct {
	Fields map[string]string
}

func (e *ValidationFailure) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid batch metadata: " + strings.Join(parts, "; ")
}

// Is lets callers outside the batch module match it as invalid input.
func (e *ValidationFailure) Is(target error) bool {
	return target == apperrors.ErrInvalidInput
}

func (m Metadata) Validate() error {
	fields := map[string]string{}
	required := []struct{ name, value string }{
		{"data_type", m.DataType},
		{"route_id", m.RouteID},
		{"ambient_temperature_range", m.AmbientTemperatureRange},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			fields[f.name] = "is required"
		}
	}
	if strings.TrimSpace(m.Date) == "" {
		fields["date"] = "is required"
	} else if _, err := ParseDate(m.Date); err != nil {
		fields["date"] = "must be a date (YYYY-MM-DD)"
	}
	if len(fields) > 0 {
		return &ValidationFailure{Fields: fields}
	}
	return nil
}

func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}
