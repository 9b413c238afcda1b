package storage

import (
	"errors"
	"testing"
)

func TestBuildReportObjectPath(t *testing.T) {
	key, err := BuildReportObjectPath("3f1c2a9e-1111-4c1d-9b55-0d7e8c9f0a11", "turn-7", 2, "PNG")
	if err != nil {
		t.Fatalf("BuildReportObjectPath() error = %v", err)
	}
	want := "3f1c2a9e-1111-4c1d-9b55-0d7e8c9f0a11/turn-7/item-2.png"
	if key != want {
		t.Fatalf("BuildReportObjectPath() = %q, want %q", key, want)
	}
}

func TestBuildReportObjectPathRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		session, turn, format string
		item                  int
	}{
		{session: "../oops", turn: "t1", item: 1, format: FormatCSV},
		{session: "s1", turn: "a/b", item: 1, format: FormatCSV},
		{session: "s1", turn: "t1", item: 0, format: FormatCSV},
		{session: "s1", turn: "t1", item: 1, format: "xlsx"},
	}
	for _, tc := range cases {
		if _, err := BuildReportObjectPath(tc.session, tc.turn, tc.item, tc.format); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("BuildReportObjectPath(%q, %q, %d, %q) error = %v, want ErrInvalidPath", tc.session, tc.turn, tc.item, tc.format, err)
		}
	}
}

func TestContentType(t *testing.T) {
	for format, want := range map[string]string{
		"csv":     "text/csv; charset=utf-8",
		"png":     "image/png",
		"Parquet": "application/vnd.apache.parquet",
	} {
		got, ok := ContentType(format)
		if !ok || got != want {
			t.Fatalf("ContentType(%q) = %q/%v", format, got, ok)
		}
	}
	if _, ok := ContentType("xlsx"); ok {
		t.Fatal("ContentType(xlsx) should be unsupported")
	}
}
