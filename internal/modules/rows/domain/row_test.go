package domain_test

import (
	"errors"
	"testing"
	"time"

	"rescollect/internal/modules/rows/domain"
)

func sampleRows() []domain.Row {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []domain.Row{
		{ID: 1, Timestamp: at, Frequency: 32760.1, Resistance: 20.5, Comment: "first"},
		{ID: 4, Timestamp: at.Add(time.Minute), Frequency: 32761.2, Resistance: 19.9},
		{ID: 2, Timestamp: at.Add(2 * time.Minute), Frequency: 32759.8, Resistance: 21.1},
	}
}

func TestRowSetKeepsStoreOrderAndCopies(t *testing.T) {
	t.Parallel()
	src := sampleRows()
	set := domain.NewRowSet(src)
	src[0].Comment = "mutated"
	rows := set.Rows()
	if rows[0].Comment != "first" {
		t.Fatalf("row set must not alias its input")
	}
	rows[1].Comment = "mutated"
	if r, _ := set.Find(4); r.Comment != "" {
		t.Fatalf("row set must not alias its output")
	}
	if rows[0].ID != 1 || rows[1].ID != 4 || rows[2].ID != 2 {
		t.Fatalf("order must follow the store, got %+v", rows)
	}
}

func TestRowSetWithoutLeavesReceiverIntact(t *testing.T) {
	t.Parallel()
	set := domain.NewRowSet(sampleRows())
	before := domain.NewRowSet(set.Rows())

	next, ok := set.Without(4)
	if !ok || next.Len() != 2 {
		t.Fatalf("expected row 4 removed, got len=%d ok=%v", next.Len(), ok)
	}
	if _, found := next.Find(4); found {
		t.Fatalf("row 4 must be gone")
	}
	if !set.Equal(before) {
		t.Fatalf("receiver must stay unchanged")
	}
	if same, ok := set.Without(99); ok || !same.Equal(set) {
		t.Fatalf("unknown id must be a no-op")
	}
}

func TestRowSetWithComment(t *testing.T) {
	t.Parallel()
	set := domain.NewRowSet(sampleRows())
	next, row, ok := set.WithComment(2, "re-check")
	if !ok || row.Comment != "re-check" || row.Frequency != 32759.8 {
		t.Fatalf("unexpected updated row %+v", row)
	}
	if r, _ := next.Find(2); r.Comment != "re-check" {
		t.Fatalf("new set must carry the comment")
	}
	if r, _ := set.Find(2); r.Comment != "" {
		t.Fatalf("receiver must stay unchanged")
	}
	if _, _, ok := set.WithComment(77, "x"); ok {
		t.Fatalf("unknown id must report false")
	}
}

func TestStoreRequestFailureMessage(t *testing.T) {
	t.Parallel()
	err := error(&domain.StoreRequestFailure{Op: "delete row 3", Status: 404, Message: "row not found"})
	if err.Error() != "delete row 3 failed (status 404): row not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	cause := errors.New("dial tcp: refused")
	err = &domain.StoreRequestFailure{Op: "list rows", Err: cause}
	if !errors.Is(err, cause) || err.Error() != "list rows failed: dial tcp: refused" {
		t.Fatalf("unexpected transport failure %v", err)
	}
}
