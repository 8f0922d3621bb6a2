package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	batchdto "rescollect/internal/modules/batch/dto"
	measurementdto "rescollect/internal/modules/measurement/dto"
	rowsdto "rescollect/internal/modules/rows/dto"
	"rescollect/internal/ui/components"
)

type fakeRows struct {
	started  []rowsdto.StartInput
	removed  []int64
	comments map[int64]string
	resets   int
}

func (f *fakeRows) Start(_ context.Context, in rowsdto.StartInput) (measurementdto.RunOutput, error) {
	f.started = append(f.started, in)
	return measurementdto.RunOutput{}, nil
}

func (f *fakeRows) Cancel(context.Context) error { return nil }

func (f *fakeRows) Remove(_ context.Context, id int64) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeRows) EditComment(_ context.Context, id int64, comment string) error {
	if f.comments == nil {
		f.comments = map[int64]string{}
	}
	f.comments[id] = comment
	return nil
}

func (f *fakeRows) Reset(context.Context) error {
	f.resets++
	return nil
}

func (f *fakeRows) Reload(context.Context) error { return nil }

type fakeBatch struct{}

func (fakeBatch) Show(context.Context) (batchdto.Metadata, error) { return batchdto.Metadata{}, nil }

func (fakeBatch) Update(context.Context, batchdto.Metadata) error { return nil }

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return next.(Model), cmd
}

func run(cmd tea.Cmd) {
	if cmd != nil {
		cmd()
	}
}

func withRows(t *testing.T, rows *fakeRows) Model {
	t.Helper()
	m := NewModel(context.Background(), rows, fakeBatch{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	next, _ = next.Update(rowsShownMsg{rows: []rowsdto.RowOutput{
		{ID: 4, Timestamp: time.Now(), Comment: "old"},
		{ID: 8, Timestamp: time.Now()},
	}})
	return next.(Model)
}

func TestRowKeysTargetSelectedRow(t *testing.T) {
	t.Parallel()
	rows := &fakeRows{}
	m := withRows(t, rows)

	m, cmd := press(t, m, "i")
	run(cmd)
	m, cmd = press(t, m, "r")
	run(cmd)
	_, cmd = press(t, m, "d")
	run(cmd)

	if len(rows.started) != 2 {
		t.Fatalf("expected two measurements, got %+v", rows.started)
	}
	if *rows.started[0].TargetID != 4 || !rows.started[0].InsertBefore {
		t.Fatalf("insert must target the selected row: %+v", rows.started[0])
	}
	if *rows.started[1].TargetID != 4 || rows.started[1].InsertBefore {
		t.Fatalf("re-measure must replace the selected row: %+v", rows.started[1])
	}
	if len(rows.removed) != 1 || rows.removed[0] != 4 {
		t.Fatalf("delete must target the selected row: %v", rows.removed)
	}
}

func TestResetNeedsConfirmation(t *testing.T) {
	t.Parallel()
	rows := &fakeRows{}
	m := withRows(t, rows)

	m, cmd := press(t, m, "R")
	run(cmd)
	m, cmd = press(t, m, "n")
	run(cmd)
	if rows.resets != 0 {
		t.Fatalf("reset must not run without confirmation")
	}
	m, _ = press(t, m, "R")
	_, cmd = press(t, m, "y")
	run(cmd)
	if rows.resets != 1 {
		t.Fatalf("expected one reset, got %d", rows.resets)
	}
}

func TestPaletteCommentKeepsSpaces(t *testing.T) {
	t.Parallel()
	rows := &fakeRows{}
	m := withRows(t, rows)
	next, cmd := m.Update(components.PaletteSubmitMsg{Input: "comment 8 pole 12, north side"})
	run(cmd)
	if got := rows.comments[8]; got != "pole 12, north side" {
		t.Fatalf("unexpected comment %q", got)
	}
	_, cmd = next.Update(components.PaletteSubmitMsg{Input: "remove x"})
	if cmd != nil || len(rows.removed) != 0 {
		t.Fatalf("invalid id must not reach the use case")
	}
}

func TestBridgeMessagesApplyWhilePaletteOpen(t *testing.T) {
	t.Parallel()
	m := withRows(t, &fakeRows{})
	m, _ = press(t, m, ":")
	if !m.palette.Visible() {
		t.Fatalf("palette should be open")
	}
	next, _ := m.Update(rowRemovedMsg{id: 4})
	m = next.(Model)
	if m.rowsView.Len() != 1 || !m.palette.Visible() {
		t.Fatalf("expected row removal with palette still open, rows=%d", m.rowsView.Len())
	}
}
