package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ocrdoc/internal/export"
	"ocrdoc/internal/language"
	"ocrdoc/internal/layout"
	"ocrdoc/internal/ocr"
	"ocrdoc/internal/pipeline"
	"ocrdoc/internal/render"
	"ocrdoc/pkg/models"
)

// gatedRecognizer echoes the image name and, when gate is set, waits for it
// before answering.
type gatedRecognizer struct {
	mu    sync.Mutex
	gate  chan struct{}
	fail  string
	calls int
}

func (g *gatedRecognizer) Name() string { return "gated" }

func (g *gatedRecognizer) Recognize(ctx context.Context, img models.ImageInput, model string, onProgress ocr.ProgressFunc) (string, error) {
	g.mu.Lock()
	g.calls++
	gate := g.gate
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if img.Name == g.fail {
		return "", ocr.ErrRecognitionFailed
	}
	return "text of " + img.Name, nil
}

func (g *gatedRecognizer) Close() error { return nil }

func image(name string) models.ImageInput {
	return models.ImageInput{Name: name, MediaType: "image/png", Data: []byte(name)}
}

func newSession(rec ocr.Recognizer) *Session {
	return New("test", pipeline.New(rec), export.New(nil), nil)
}

func TestProcessReplacesResults(t *testing.T) {
	s := newSession(&gatedRecognizer{})
	if err := s.AddImages(image("a.png"), image("b.png")); err != nil {
		t.Fatal(err)
	}

	results, err := s.Process(context.Background())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(results) != 2 || results[1].Text != "text of b.png" {
		t.Fatalf("unexpected results %+v", results)
	}

	// Callers get copies.
	results[0].Text = "changed"
	stored, _ := s.Results()
	if stored[0].Text != "text of a.png" {
		t.Error("results returned by Process alias session state")
	}

	snap := s.Snapshot()
	if snap.Status != StatusCompleted || snap.ResultCount != 2 || snap.Progress == nil || !snap.Progress.Done {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestFailedBatchKeepsPreviousResults(t *testing.T) {
	rec := &gatedRecognizer{}
	s := newSession(rec)
	_ = s.AddImages(image("a.png"))
	if _, err := s.Process(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Fail on the same queue; re-adding images would discard results anyway.
	rec.fail = "a.png"
	_, err := s.Process(context.Background())
	var rerr *pipeline.RecognitionError
	if !errors.As(err, &rerr) || rerr.Index != 1 {
		t.Fatalf("expected RecognitionError, got %v", err)
	}

	results, err := s.Results()
	if err != nil || len(results) != 1 || results[0].Text != "text of a.png" {
		t.Errorf("previous results lost: %v %+v", err, results)
	}
	snap := s.Snapshot()
	if snap.Status != StatusFailed || snap.Error == "" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestAddImagesDiscardsResults(t *testing.T) {
	s := newSession(&gatedRecognizer{})
	_ = s.AddImages(image("a.png"))
	if _, err := s.Process(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = s.AddImages(image("b.png"))

	if _, err := s.Results(); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults after new upload, got %v", err)
	}
	if snap := s.Snapshot(); len(snap.Images) != 2 || snap.Status != StatusIdle {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestImageManagement(t *testing.T) {
	s := newSession(&gatedRecognizer{})
	_ = s.AddImages(image("a.png"), image("b.png"), image("c.png"))

	if err := s.RemoveImage(2); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if len(snap.Images) != 2 || snap.Images[0].Name != "a.png" || snap.Images[1].Name != "c.png" || snap.Images[1].Index != 2 {
		t.Errorf("unexpected images %+v", snap.Images)
	}
	for _, idx := range []int{0, 3, -1} {
		if err := s.RemoveImage(idx); !errors.Is(err, ErrImageIndex) {
			t.Errorf("RemoveImage(%d) error = %v", idx, err)
		}
	}

	if err := s.ClearImages(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Process(context.Background()); !errors.Is(err, pipeline.ErrNoImages) {
		t.Errorf("expected ErrNoImages, got %v", err)
	}
}

func TestSetLanguagesAndOptions(t *testing.T) {
	s := newSession(&gatedRecognizer{})

	if got := s.Snapshot().Languages; strings.Join(got, "+") != "tur+eng" {
		t.Errorf("default languages = %v", got)
	}
	if err := s.SetLanguages([]string{"deu", "deu", "eng"}); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Languages; strings.Join(got, "+") != "deu+eng" {
		t.Errorf("languages = %v", got)
	}
	if err := s.SetLanguages([]string{"xx"}); !errors.Is(err, language.ErrUnknownLanguage) {
		t.Errorf("expected ErrUnknownLanguage, got %v", err)
	}
	if err := s.SetLanguages(nil); !errors.Is(err, language.ErrNoLanguages) {
		t.Errorf("expected ErrNoLanguages, got %v", err)
	}

	bad := layout.Defaults()
	bad.FontSize = 40
	if err := s.SetOptions(bad); !errors.Is(err, layout.ErrInvalidOptions) {
		t.Errorf("expected ErrInvalidOptions, got %v", err)
	}
	if s.Options() != layout.Defaults() {
		t.Error("invalid options replaced the current ones")
	}
}

func TestBusy(t *testing.T) {
	rec := &gatedRecognizer{gate: make(chan struct{})}
	s := newSession(rec)
	_ = s.AddImages(image("a.png"))

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Start error = %v, want ErrBusy", err)
	}
	if err := s.AddImages(image("b.png")); !errors.Is(err, ErrBusy) {
		t.Errorf("AddImages while busy = %v", err)
	}
	if err := s.Reset(); !errors.Is(err, ErrBusy) {
		t.Errorf("Reset while busy = %v", err)
	}

	close(rec.gate)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Busy() {
		t.Error("session still busy after Wait")
	}
	if _, err := s.Results(); err != nil {
		t.Errorf("Results() error = %v", err)
	}
}

func TestCancel(t *testing.T) {
	rec := &gatedRecognizer{gate: make(chan struct{})}
	s := newSession(rec)
	_ = s.AddImages(image("a.png"))

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if snap := s.Snapshot(); snap.Status != StatusFailed {
		t.Errorf("status after cancel = %s", snap.Status)
	}
}

func TestExportAndCombinedText(t *testing.T) {
	s := newSession(&gatedRecognizer{})
	if _, err := s.Export(context.Background(), render.TXT, "x"); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
	if _, err := s.CombinedText(); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}

	_ = s.AddImages(image("a.png"), image("b.png"))
	if _, err := s.Process(context.Background()); err != nil {
		t.Fatal(err)
	}
	opts := layout.Defaults()
	opts.Layout = layout.Numbered
	_ = s.SetOptions(opts)

	text, err := s.CombinedText()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "[1] a.png") || !strings.Contains(text, "text of b.png") {
		t.Errorf("unexpected combined text %q", text)
	}

	artifact, err := s.Export(context.Background(), render.TXT, "")
	if err != nil {
		t.Fatal(err)
	}
	if artifact.Name != "ocr-result.txt" || !strings.HasPrefix(string(artifact.Data), "[1] a.png\n\ntext of a.png\n") {
		t.Errorf("unexpected export %s: %q", artifact.Name, artifact.Data)
	}
}

func TestReset(t *testing.T) {
	s := newSession(&gatedRecognizer{})
	_ = s.AddImages(image("a.png"))
	_, _ = s.Process(context.Background())

	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if len(snap.Images) != 0 || snap.ResultCount != 0 || snap.Status != StatusIdle || snap.Progress != nil {
		t.Errorf("unexpected snapshot after reset %+v", snap)
	}
}

func TestManager(t *testing.T) {
	m := NewManager(pipeline.New(&gatedRecognizer{}), export.New(nil), []string{"eng"})
	s := m.Create()

	got, err := m.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if langs := s.Snapshot().Languages; len(langs) != 1 || langs[0] != "eng" {
		t.Errorf("languages = %v", langs)
	}
	if _, err := m.Get("not-a-uuid"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	if n := m.Prune(time.Hour); n != 0 {
		t.Errorf("Prune pruned %d fresh sessions", n)
	}
	if n := m.Prune(-time.Second); n != 1 || m.Len() != 0 {
		t.Errorf("Prune(-1s) = %d, Len = %d", n, m.Len())
	}

	s = m.Create()
	if err := m.Delete(s.ID); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete error = %v", err)
	}
}
