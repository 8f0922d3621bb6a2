package domain

import (
	"fmt"
	"slices"
	"time"
)

type Row struct {
	ID                  int64
	Timestamp           time.Time
	Frequency           float64
	FrequencyDeviation  float64
	Resistance          float64
	ResistanceDeviation float64
	Comment             string
}

// RowSet is the ordered, store-assigned row collection as last seen by the
// client. Mutating operations return a new set and leave the receiver as is.
type RowSet struct {
	rows []Row
}

func NewRowSet(rows []Row) RowSet {
	return RowSet{rows: slices.Clone(rows)}
}

func (s RowSet) Rows() []Row {
	return slices.Clone(s.rows)
}

func (s RowSet) Len() int {
	return len(s.rows)
}

func (s RowSet) Find(id int64) (Row, bool) {
	idx := s.index(id)
	if idx < 0 {
		return Row{}, false
	}
	return s.rows[idx], true
}

func (s RowSet) Without(id int64) (RowSet, bool) {
	idx := s.index(id)
	if idx < 0 {
		return s, false
	}
	return RowSet{rows: slices.Delete(slices.Clone(s.rows), idx, idx+1)}, true
}

func (s RowSet) WithComment(id int64, comment string) (RowSet, Row, bool) {
	idx := s.index(id)
	if idx < 0 {
		return s, Row{}, false
	}
	rows := slices.Clone(s.rows)
	rows[idx].Comment = comment
	return RowSet{rows: rows}, rows[idx], true
}

func (s RowSet) Equal(other RowSet) bool {
	return slices.EqualFunc(s.rows, other.rows, func(a, b Row) bool {
		return a.ID == b.ID && a.Timestamp.Equal(b.Timestamp) &&
			a.Frequency == b.Frequency && a.FrequencyDeviation == b.FrequencyDeviation &&
			a.Resistance == b.Resistance && a.ResistanceDeviation == b.ResistanceDeviation &&
			a.Comment == b.Comment
	})
}

func (s RowSet) index(id int64) int {
	return slices.IndexFunc(s.rows, func(r Row) bool { return r.ID == id })
}

// StoreRequestFailure is a rejected or failed row store request.
type StoreRequestFailure struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *StoreRequestFailure) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s failed: %s", e.Op, msg)
	}
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Status, msg)
}

func (e *StoreRequestFailure) Unwrap() error {
	return e.Err
}
