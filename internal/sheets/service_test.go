package sheets

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ocrdoc/pkg/models"
)

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0", "1AbC-d_9", false},
		{"https://docs.google.com/spreadsheets/d/xyz", "xyz", false},
		{"https://example.com/not-a-sheet", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := extractSpreadsheetID(tt.url)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("extractSpreadsheetID(%q) = %q, %v", tt.url, got, err)
		}
	}
}

func TestResultRows(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	rows := ResultRows([]models.OCRResult{
		{SequenceIndex: 1, SourceName: "a.png", Text: "hello world"},
		{SequenceIndex: 2, SourceName: "b.png", Text: ""},
	}, BatchInfo{Engine: "tesseract", Languages: []string{"tur", "eng"}, ProcessedAt: at})

	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	want := Row{
		Filename: "a.png", Index: 1, Engine: "tesseract", Languages: "tur+eng",
		Words: 2, Characters: 11, Text: "hello world", ProcessedAt: "2024-03-01 09:30:00",
	}
	if rows[0] != want {
		t.Errorf("row 0 = %+v, want %+v", rows[0], want)
	}
	if rows[1].Words != 0 || rows[1].Index != 2 {
		t.Errorf("row 1 = %+v", rows[1])
	}
	if n := len(rows[0].Values()); n != len(columns) {
		t.Errorf("row has %d cells, header has %d", n, len(columns))
	}
}

func TestTruncateCell(t *testing.T) {
	long := strings.Repeat("ş", maxCellChars+10)
	got := truncateCell(long)
	if n := utf8.RuneCountInString(got); n != maxCellChars {
		t.Errorf("truncated to %d runes", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("missing ellipsis")
	}
	if truncateCell("short") != "short" {
		t.Error("short text changed")
	}
}
