// Package session holds the state of one interactive OCR workflow: the
// uploaded images, the language selection, the format options and the
// results of the last successful batch.
//
// All state lives in an explicit Session guarded by a mutex. Only one batch
// runs per session at a time, and a batch replaces the results only when it
// succeeds.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ocrdoc/internal/export"
	"ocrdoc/internal/language"
	"ocrdoc/internal/layout"
	"ocrdoc/internal/logger"
	"ocrdoc/internal/pipeline"
	"ocrdoc/internal/progress"
	"ocrdoc/internal/render"
	"ocrdoc/pkg/models"
)

var (
	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrBusy is returned when a batch is already running.
	ErrBusy = errors.New("a recognition batch is already running")

	// ErrNoResults is returned when results are requested before a batch succeeded.
	ErrNoResults = export.ErrNoResults

	// ErrImageIndex is returned when removing an image that does not exist.
	ErrImageIndex = errors.New("image index out of range")
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ImageInfo describes a queued image without its bytes.
type ImageInfo struct {
	Index     int    `json:"index"` // 1-based queue position
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Size      int    `json:"size"`
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID          string          `json:"id"`
	Status      Status          `json:"status"`
	Images      []ImageInfo     `json:"images"`
	Languages   []string        `json:"languages"`
	Options     layout.Options  `json:"options"`
	ResultCount int             `json:"result_count"`
	Error       string          `json:"error,omitempty"`
	Progress    *progress.Event `json:"progress,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Session is one user's workflow state.
type Session struct {
	ID        string
	CreatedAt time.Time

	pipeline *pipeline.Pipeline
	exporter *export.Exporter
	progress *progress.Broadcaster

	mu        sync.Mutex
	images    []models.ImageInput
	languages []string
	options   layout.Options
	results   []models.OCRResult
	status    Status
	lastErr   error
	cancel    context.CancelFunc
	done      chan struct{}
	updatedAt time.Time
}

// New creates a session with the default language selection and options.
func New(id string, p *pipeline.Pipeline, e *export.Exporter, languages []string) *Session {
	if len(languages) == 0 {
		languages = language.DefaultCodes
	}
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		pipeline:  p,
		exporter:  e,
		progress:  progress.NewBroadcaster(),
		languages: append([]string(nil), languages...),
		options:   layout.Defaults(),
		status:    StatusIdle,
		updatedAt: now,
	}
}

// touch must be called with mu held.
func (s *Session) touch() {
	s.updatedAt = time.Now()
}

// discardResults starts a new batch. Must be called with mu held.
func (s *Session) discardResults() {
	s.results = nil
	s.status = StatusIdle
	s.lastErr = nil
	s.progress.Reset()
}

// AddImages appends images to the queue. Previous results are discarded.
func (s *Session) AddImages(images ...models.ImageInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusProcessing {
		return ErrBusy
	}
	s.images = append(s.images, images...)
	s.discardResults()
	s.touch()
	return nil
}

// RemoveImage removes the image at the 1-based index.
func (s *Session) RemoveImage(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusProcessing {
		return ErrBusy
	}
	if index < 1 || index > len(s.images) {
		return fmt.Errorf("%w: %d", ErrImageIndex, index)
	}
	s.images = append(s.images[:index-1:index-1], s.images[index:]...)
	s.touch()
	return nil
}

// ClearImages empties the queue.
func (s *Session) ClearImages() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusProcessing {
		return ErrBusy
	}
	s.images = nil
	s.touch()
	return nil
}

// SetLanguages replaces the language selection after validating it.
func (s *Session) SetLanguages(codes []string) error {
	norm, err := language.Normalize(codes)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusProcessing {
		return ErrBusy
	}
	s.languages = norm
	s.touch()
	return nil
}

// SetOptions replaces the format options. Invalid options are rejected and
// leave the current ones in place.
func (s *Session) SetOptions(opts layout.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = opts
	s.touch()
	return nil
}

// Options returns the current format options.
func (s *Session) Options() layout.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// Process runs a batch and waits for it to finish.
func (s *Session) Process(ctx context.Context) ([]models.OCRResult, error) {
	b, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	return s.run(b)
}

// Start runs a batch in the background. Validation and busy errors are
// returned immediately; the outcome is visible through Snapshot and the
// progress stream. ctx must outlive the batch.
func (s *Session) Start(ctx context.Context) error {
	b, err := s.begin(ctx)
	if err != nil {
		return err
	}
	go func() {
		_, _ = s.run(b)
	}()
	return nil
}

// batch is the input snapshot of one run.
type batch struct {
	ctx       context.Context
	cancel    context.CancelFunc
	images    []models.ImageInput
	languages []string
	done      chan struct{}
}

// begin snapshots the inputs and marks the session as processing.
func (s *Session) begin(ctx context.Context) (batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusProcessing {
		return batch{}, ErrBusy
	}
	if len(s.images) == 0 {
		return batch{}, pipeline.ErrNoImages
	}
	if len(s.languages) == 0 {
		return batch{}, pipeline.ErrNoLanguages
	}

	b := batch{
		images:    make([]models.ImageInput, len(s.images)),
		languages: append([]string(nil), s.languages...),
		done:      make(chan struct{}),
	}
	copy(b.images, s.images)
	b.ctx, b.cancel = context.WithCancel(ctx)

	s.cancel = b.cancel
	s.done = b.done
	s.status = StatusProcessing
	s.lastErr = nil
	s.progress.Reset()
	s.touch()
	return b, nil
}

func (s *Session) run(b batch) ([]models.OCRResult, error) {
	log := logger.WithSession("session", s.ID)
	defer close(b.done)
	defer b.cancel()

	results, err := s.pipeline.Run(b.ctx, b.images, b.languages, s.progress.Publish)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = nil
	s.touch()
	if err != nil {
		s.status = StatusFailed
		s.lastErr = err
		log.Warn().Err(err).Msg("Batch failed, keeping previous results")
		return nil, err
	}
	s.results = results
	s.status = StatusCompleted
	log.Info().Int("results", len(results)).Msg("Batch completed")
	return models.CloneResults(results), nil
}

// Cancel stops a running batch. It is a no-op when idle.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the running batch, if any, has finished.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results returns a copy of the current results.
func (s *Session) Results() ([]models.OCRResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return nil, ErrNoResults
	}
	return models.CloneResults(s.results), nil
}

// CombinedText joins the current results with the current options.
func (s *Session) CombinedText() (string, error) {
	s.mu.Lock()
	results := models.CloneResults(s.results)
	opts := s.options
	s.mu.Unlock()

	if len(results) == 0 {
		return "", ErrNoResults
	}
	return render.CombinedText(results, opts), nil
}

// Export renders the current results with a snapshot of the options taken
// when the call starts.
func (s *Session) Export(ctx context.Context, format render.Format, baseName string) (export.Artifact, error) {
	s.mu.Lock()
	results := models.CloneResults(s.results)
	opts := s.options
	s.mu.Unlock()

	if len(results) == 0 {
		return export.Artifact{}, ErrNoResults
	}
	return s.exporter.Export(ctx, results, format, opts, baseName)
}

// Reset discards images and results and starts a new batch.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusProcessing {
		return ErrBusy
	}
	s.images = nil
	s.discardResults()
	s.touch()
	return nil
}

// Subscribe streams progress events of the current and later batches.
func (s *Session) Subscribe() (<-chan progress.Event, func()) {
	return s.progress.Subscribe()
}

// Snapshot returns the current state without image bytes or result texts.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.ID,
		Status:      s.status,
		Images:      make([]ImageInfo, 0, len(s.images)),
		Languages:   append([]string(nil), s.languages...),
		Options:     s.options,
		ResultCount: len(s.results),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.updatedAt,
	}
	for i, img := range s.images {
		snap.Images = append(snap.Images, ImageInfo{
			Index:     i + 1,
			Name:      img.Name,
			MediaType: img.MediaType,
			Size:      len(img.Data),
		})
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	if ev, ok := s.progress.Latest(); ok {
		snap.Progress = &ev
	}
	return snap
}

// LastActive returns the time of the last state change.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Busy reports whether a batch is running.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusProcessing
}

// Close cancels a running batch and ends all progress streams.
func (s *Session) Close() {
	s.Cancel()
	s.progress.Close()
}
