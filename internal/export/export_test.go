package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"ocrdoc/internal/layout"
	"ocrdoc/internal/render"
	"ocrdoc/pkg/models"
)

func results() []models.OCRResult {
	return []models.OCRResult{
		{SequenceIndex: 1, SourceName: "a.png", Text: "Hello"},
		{SequenceIndex: 2, SourceName: "b.png", Text: "World"},
	}
}

func TestArtifactName(t *testing.T) {
	tests := []struct {
		base   string
		format render.Format
		want   string
	}{
		{"ocr-result", render.TXT, "ocr-result.txt"},
		{"", render.PDF, "ocr-result.pdf"},
		{"  report  ", render.DOCX, "report.docx"},
		{"../../etc/passwd", render.TXT, "passwd.txt"},
		{`C:\tmp\scan`, render.PDF, "scan.pdf"},
		{"scan.pdf", render.PDF, "scan.pdf"},
		{"scan.pdf", render.TXT, "scan.pdf.txt"},
		{"..", render.TXT, "ocr-result.txt"},
	}
	for _, tt := range tests {
		if got := ArtifactName(tt.base, tt.format); got != tt.want {
			t.Errorf("ArtifactName(%q, %s) = %q, want %q", tt.base, tt.format, got, tt.want)
		}
	}
}

func TestExportSavesEveryFormat(t *testing.T) {
	dir := t.TempDir()
	e := New(DirSaver{Dir: filepath.Join(dir, "out")})
	in := results()
	snapshot := models.CloneResults(in)

	for _, f := range render.Formats() {
		artifact, err := e.Export(context.Background(), in, f, layout.Defaults(), "batch")
		if err != nil {
			t.Fatalf("Export(%s) error = %v", f, err)
		}
		if artifact.Name != "batch."+string(f) {
			t.Errorf("name = %s", artifact.Name)
		}
		if artifact.ContentType != f.ContentType() {
			t.Errorf("content type = %s", artifact.ContentType)
		}
		saved, err := os.ReadFile(filepath.Join(dir, "out", artifact.Name))
		if err != nil {
			t.Fatalf("artifact not saved: %v", err)
		}
		if !bytes.Equal(saved, artifact.Data) {
			t.Errorf("%s: saved bytes differ from artifact", f)
		}
	}
	if !reflect.DeepEqual(in, snapshot) {
		t.Error("export modified the results")
	}
}

func TestExportIdempotent(t *testing.T) {
	e := New(nil)
	opts := layout.Defaults()
	opts.Layout = layout.Numbered
	for _, f := range render.Formats() {
		a, err := e.Export(context.Background(), results(), f, opts, "x")
		if err != nil {
			t.Fatal(err)
		}
		b, err := e.Export(context.Background(), results(), f, opts, "x")
		if err != nil {
			t.Fatal(err)
		}
		if a.Name != b.Name || !bytes.Equal(a.Data, b.Data) {
			t.Errorf("%s: repeated export differs", f)
		}
	}
}

func TestExportSaveFailure(t *testing.T) {
	boom := errors.New("disk full")
	var calls int
	e := New(SaverFunc(func(ctx context.Context, name string, data []byte) error {
		calls++
		if calls == 1 {
			return boom
		}
		return nil
	}))

	in := results()
	_, err := e.Export(context.Background(), in, render.TXT, layout.Defaults(), "x")
	if !errors.Is(err, ErrExportFailed) || !errors.Is(err, boom) {
		t.Fatalf("expected ExportError wrapping cause, got %v", err)
	}
	var exportErr *ExportError
	if !errors.As(err, &exportErr) || exportErr.Op != "save" || exportErr.Format != render.TXT {
		t.Errorf("unexpected error detail %+v", exportErr)
	}

	// Results stay exportable.
	if _, err := e.Export(context.Background(), in, render.TXT, layout.Defaults(), "x"); err != nil {
		t.Errorf("retry failed: %v", err)
	}
}

func TestExportRejectsBadInput(t *testing.T) {
	e := New(nil)

	opts := layout.Defaults()
	opts.LineSpacing = "triple"
	if _, err := e.Export(context.Background(), results(), render.TXT, opts, "x"); !errors.Is(err, layout.ErrInvalidOptions) {
		t.Errorf("expected ErrInvalidOptions, got %v", err)
	}
	if _, err := e.Export(context.Background(), nil, render.TXT, layout.Defaults(), "x"); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
	if _, err := e.Export(context.Background(), results(), "odt", layout.Defaults(), "x"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}
