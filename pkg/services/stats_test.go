package services

import (
	"testing"

	"ocrdoc/pkg/models"
)

func TestTextStats(t *testing.T) {
	tests := []struct {
		text                string
		words, chars, lines int
	}{
		{"", 0, 0, 0},
		{"Hello", 1, 5, 1},
		{"Merhaba dünya\nikinci satır", 4, 26, 2},
		{"  spaced   out  ", 2, 16, 1},
	}
	for _, tt := range tests {
		w, c, l := TextStats(tt.text)
		if w != tt.words || c != tt.chars || l != tt.lines {
			t.Errorf("TextStats(%q) = %d, %d, %d; want %d, %d, %d", tt.text, w, c, l, tt.words, tt.chars, tt.lines)
		}
	}
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats([]models.OCRResult{
		{SequenceIndex: 1, SourceName: "a.png", Text: "one two"},
		{SequenceIndex: 2, SourceName: "b.png", Text: "three"},
	})
	if stats.Images != 2 || stats.Words != 3 || stats.Characters != 12 {
		t.Errorf("unexpected totals %+v", stats)
	}
	if len(stats.Results) != 2 || stats.Results[1].SourceName != "b.png" || stats.Results[1].Words != 1 {
		t.Errorf("unexpected per-result stats %+v", stats.Results)
	}

	empty := ComputeStats(nil)
	if empty.Images != 0 || empty.Results == nil {
		t.Errorf("empty stats = %+v", empty)
	}
}
