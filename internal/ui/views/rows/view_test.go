package rows_test

import (
	"strings"
	"testing"
	"time"

	rowsdto "rescollect/internal/modules/rows/dto"
	rowsview "rescollect/internal/ui/views/rows"
)

func TestRowsViewTracksSelectionAcrossEdits(t *testing.T) {
	t.Parallel()
	m := rowsview.New()
	m.SetSize(120, 20)
	if _, ok := m.Selected(); ok {
		t.Fatalf("empty view must have no selection")
	}
	if !strings.Contains(m.View(), "No rows yet") {
		t.Fatalf("expected empty hint")
	}

	now := time.Now()
	m.SetRows([]rowsdto.RowOutput{
		{ID: 3, Timestamp: now, Resistance: 20.5},
		{ID: 5, Timestamp: now, Resistance: 21.5},
	})
	if m.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", m.Len())
	}
	sel, ok := m.Selected()
	if !ok || sel.ID != 3 {
		t.Fatalf("expected first row selected, got %+v", sel)
	}

	m.UpdateRow(rowsdto.RowOutput{ID: 3, Timestamp: now, Resistance: 20.5, Comment: "pole 1"})
	if !strings.Contains(m.View(), "pole 1") {
		t.Fatalf("updated comment not rendered")
	}

	m.RemoveRow(3)
	sel, ok = m.Selected()
	if !ok || sel.ID != 5 {
		t.Fatalf("expected remaining row selected, got %+v %v", sel, ok)
	}
}
