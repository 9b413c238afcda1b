package query

import (
	"testing"
	"time"
)

func TestResultPreview(t *testing.T) {
	result := Result{Columns: []string{"a"}, Rows: [][]any{{1}, {2}, {3}}}
	if got := result.Preview(2); len(got.Rows) != 2 || got.Rows[1][0] != 2 {
		t.Fatalf("Preview(2) = %#v", got.Rows)
	}
	if got := result.Preview(10); len(got.Rows) != 3 {
		t.Fatalf("Preview(10) rows = %d", len(got.Rows))
	}
	if got := result.Preview(-1); len(got.Rows) != 3 {
		t.Fatalf("Preview(-1) rows = %d", len(got.Rows))
	}
}

func TestFormatRow(t *testing.T) {
	ts := time.Date(2003, time.February, 24, 0, 0, 0, 0, time.UTC)
	got := FormatRow([]any{nil, "Classic Cars", []byte("raw"), int64(2003), 3.5, ts, true})
	want := []string{"", "Classic Cars", "raw", "2003", "3.5", "2003-02-24 00:00:00", "true"}
	if len(got) != len(want) {
		t.Fatalf("FormatRow() = %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FormatRow()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
