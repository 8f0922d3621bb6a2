package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionClosed     = errors.New("measurement session is already closed")
	ErrSnapshotRegressed = errors.New("snapshot dropped previously observed samples")
)

// StreamFailure reports that the snapshot stream ended or was rejected before
// a terminal phase was observed.
type StreamFailure struct {
	Status int
	Body   string
	Err    error
}

func (e *StreamFailure) Error() string {
	msg := e.Body
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status == 0 {
		return fmt.Sprintf("measurement stream failed: %s", msg)
	}
	return fmt.Sprintf("measurement stream failed (status %d): %s", e.Status, msg)
}

func (e *StreamFailure) Unwrap() error {
	return e.Err
}
