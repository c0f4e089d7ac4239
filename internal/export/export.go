// Package export renders result lists into named artifacts and saves them.
//
// Exporting never modifies the results, so a failed export can be retried
// or followed by an export to another format.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ocrdoc/internal/layout"
	"ocrdoc/internal/logger"
	"ocrdoc/internal/render"
	"ocrdoc/pkg/models"
)

// DefaultBaseName is used when no artifact name is given.
const DefaultBaseName = "ocr-result"

var (
	// ErrExportFailed is the root of every rendering or saving failure.
	ErrExportFailed = errors.New("export failed")

	// ErrNoResults is returned when there is nothing to export.
	ErrNoResults = errors.New("no recognition results to export")

	// ErrUnknownFormat is returned for unsupported export formats.
	ErrUnknownFormat = render.ErrUnknownFormat
)

// ExportError wraps a failure in the render or save step.
type ExportError struct {
	Op     string // "render" or "save"
	Format render.Format
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export: %s %s failed: %v", e.Op, e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Is reports ErrExportFailed for every ExportError.
func (e *ExportError) Is(target error) bool {
	return target == ErrExportFailed
}

// Artifact is a rendered export.
type Artifact struct {
	Name        string
	ContentType string
	Format      render.Format
	Data        []byte
}

// Saver persists a named blob.
type Saver interface {
	Save(ctx context.Context, name string, data []byte) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, name string, data []byte) error

func (f SaverFunc) Save(ctx context.Context, name string, data []byte) error {
	return f(ctx, name, data)
}

// DirSaver writes artifacts into a directory, creating it when needed.
type DirSaver struct {
	Dir string
}

func (s DirSaver) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Exporter selects a renderer per format and hands the payload to a Saver.
type Exporter struct {
	saver      Saver
	renderOpts []render.Option
}

// New creates an exporter. saver may be nil when artifacts are only rendered.
func New(saver Saver, opts ...render.Option) *Exporter {
	return &Exporter{saver: saver, renderOpts: opts}
}

// Render produces the artifact without saving it. Options are validated first
// and rejected with layout.ErrInvalidOptions.
func (e *Exporter) Render(results []models.OCRResult, format render.Format, opts layout.Options, baseName string) (Artifact, error) {
	log := logger.WithComponent("export")

	if err := opts.Validate(); err != nil {
		return Artifact{}, err
	}
	if len(results) == 0 {
		return Artifact{}, ErrNoResults
	}
	renderer, err := render.ForFormat(format, e.renderOpts...)
	if err != nil {
		return Artifact{}, err
	}

	start := time.Now()
	data, err := renderer.Render(results, opts)
	if err != nil {
		log.Error().Err(err).Str("format", string(format)).Msg("Rendering failed")
		return Artifact{}, &ExportError{Op: "render", Format: format, Err: err}
	}

	name := ArtifactName(baseName, format)
	log.Debug().
		Str("format", string(format)).
		Str("name", name).
		Int("results", len(results)).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Artifact rendered")

	return Artifact{
		Name:        name,
		ContentType: format.ContentType(),
		Format:      format,
		Data:        data,
	}, nil
}

// Export renders and saves one artifact.
func (e *Exporter) Export(ctx context.Context, results []models.OCRResult, format render.Format, opts layout.Options, baseName string) (Artifact, error) {
	artifact, err := e.Render(results, format, opts, baseName)
	if err != nil {
		return Artifact{}, err
	}
	if e.saver == nil {
		return artifact, nil
	}
	log := logger.WithFields(map[string]interface{}{
		"component": "export",
		"name":      artifact.Name,
		"format":    string(format),
	})
	if err := e.saver.Save(ctx, artifact.Name, artifact.Data); err != nil {
		log.Error().Err(err).Msg("Saving artifact failed")
		return Artifact{}, &ExportError{Op: "save", Format: format, Err: err}
	}

	log.Info().Int("bytes", len(artifact.Data)).Msg("Artifact exported")

	return artifact, nil
}

// ArtifactName returns baseName + "." + extension. Directory components and
// an extension matching the format are stripped from baseName; an empty name
// falls back to DefaultBaseName.
func ArtifactName(baseName string, format render.Format) string {
	base := strings.TrimSpace(baseName)
	base = base[strings.LastIndexAny(base, `/\`)+1:]
	base = strings.TrimSuffix(base, "."+format.Extension())
	if base == "" || base == "." || base == ".." {
		base = DefaultBaseName
	}
	return base + "." + format.Extension()
}
