package models

import "encoding/base64"

// ImageInput is one user-supplied image. The pipeline only reads it.
type ImageInput struct {
	Name      string // Original file name
	MediaType string // Detected media type, e.g. image/png
	Data      []byte // Raw encoded image bytes
}

// DataURL returns the image as a base64 data URL.
func (in ImageInput) DataURL() string {
	mediaType := in.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(in.Data)
}

// OCRResult is the normalized recognition output for one image. A batch
// produces exactly one per input, in input order, and never mutates it.
type OCRResult struct {
	SourceImage   string `json:"source_image,omitempty"` // Base64 data URL of the input image
	Text          string `json:"text"`                   // Recognized text, trimmed
	SequenceIndex int    `json:"sequence_index"`         // 1-based position in upload order
	SourceName    string `json:"source_name"`            // Original file name
}

// CloneResults returns a shallow copy of a result list so callers cannot
// reorder or replace entries of a shared list.
func CloneResults(results []OCRResult) []OCRResult {
	if results == nil {
		return nil
	}
	out := make([]OCRResult, len(results))
	copy(out, results)
	return out
}
