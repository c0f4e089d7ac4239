package services

import (
	"strings"
	"unicode/utf8"

	"ocrdoc/pkg/models"
)

// ResultStats describes the text recognized from one image.
type ResultStats struct {
	SequenceIndex int    `json:"sequence_index"`
	SourceName    string `json:"source_name"`
	Words         int    `json:"words"`
	Characters    int    `json:"characters"` // Unicode code points, whitespace included
	Lines         int    `json:"lines"`
}

// BatchStats summarizes a result list.
type BatchStats struct {
	Images     int           `json:"images"`
	Words      int           `json:"words"`
	Characters int           `json:"characters"`
	Results    []ResultStats `json:"results"`
}

// TextStats computes word, character and line counts for one text.
func TextStats(text string) (words, characters, lines int) {
	words = len(strings.Fields(text))
	characters = utf8.RuneCountInString(text)
	if text != "" {
		lines = strings.Count(text, "\n") + 1
	}
	return words, characters, lines
}

// ComputeStats summarizes results in their sequence order.
func ComputeStats(results []models.OCRResult) BatchStats {
	stats := BatchStats{
		Images:  len(results),
		Results: make([]ResultStats, 0, len(results)),
	}
	for _, r := range results {
		words, chars, lines := TextStats(r.Text)
		stats.Words += words
		stats.Characters += chars
		stats.Results = append(stats.Results, ResultStats{
			SequenceIndex: r.SequenceIndex,
			SourceName:    r.SourceName,
			Words:         words,
			Characters:    chars,
			Lines:         lines,
		})
	}
	return stats
}
