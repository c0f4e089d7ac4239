package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ocrdoc/internal/config"
	"ocrdoc/internal/export"
	"ocrdoc/internal/ingest"
	"ocrdoc/internal/language"
	"ocrdoc/internal/layout"
	"ocrdoc/internal/logger"
	"ocrdoc/internal/ocr"
	"ocrdoc/internal/pipeline"
	"ocrdoc/internal/progress"
	"ocrdoc/internal/render"
	"ocrdoc/internal/sheets"
	"ocrdoc/pkg/models"
	"ocrdoc/pkg/services"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [images or directories...]",
	Short: "Recognize text in images and export it as txt, docx or pdf",
	Long: `Recognize text in one or more images and export the combined result.

Images are processed in the order given; directories are expanded to the
supported images they contain (png, jpg, gif, bmp, tiff, webp), sorted by
path. Every image uses the same language selection. Progress is written to
stderr.

Engines (--engine or OCR_ENGINE):
  tesseract      local Tesseract, needs trained data for each language
  google-vision  Google Cloud Vision (GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS)
  document-ai    Google Document AI (also GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID)
  openai         OpenAI vision model (OPENAI_API_KEY)`,
	Example: `  # Recognize two scans as Turkish and English and save ocr-result.txt
  ocrdoc ocr page1.png page2.jpg

  # Numbered Word and PDF documents from a directory
  ocrdoc ocr scans/ --format docx,pdf --layout numbered -o out

  # German text with Google Vision, print the combined text only
  ocrdoc ocr letter.png --lang deu --engine google-vision --format "" --print

  # JSON summary with statistics, appended to the configured Google Sheet
  ocrdoc ocr scans/ --json --sheet`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	Engine             string              `json:"engine"`
	Languages          []string            `json:"languages"`
	Results            []models.OCRResult  `json:"results"`
	Stats              services.BatchStats `json:"stats"`
	Text               string              `json:"text,omitempty"`
	Artifacts          []ArtifactOutput    `json:"artifacts,omitempty"`
	ProcessedAt        time.Time           `json:"processed_at"`
	ProcessingDuration string              `json:"processing_duration"`
}

// ArtifactOutput describes one saved export.
type ArtifactOutput struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Bytes  int    `json:"bytes"`
}

// ocrRequest collects the parsed flags of one run.
type ocrRequest struct {
	languages   []string
	formats     []render.Format
	options     layout.Options
	outputDir   string
	baseName    string
	print       bool
	showStats   bool
	jsonOutput  bool
	sheet       bool
	quiet       bool
	timeoutSecs int
}

func init() {
	rootCmd.AddCommand(ocrCmd)
	addOCRFlags(ocrCmd)
}

func addOCRFlags(c *cobra.Command) {
	defaults := layout.Defaults()
	c.Flags().StringP("lang", "l", "", "Recognition languages, comma separated (default: OCR_LANGUAGES or tur,eng)")
	c.Flags().StringP("engine", "e", "", "OCR engine (default: OCR_ENGINE or tesseract)")
	c.Flags().StringSliceP("format", "f", []string{string(render.TXT)}, "Export formats: txt, docx, pdf (empty for none)")
	c.Flags().String("layout", string(defaults.Layout), "Layout: continuous, separated, numbered")
	c.Flags().Bool("headers", defaults.ShowHeaders, "Show a header per image (separated and numbered layouts)")
	c.Flags().String("separator", string(defaults.SeparatorStyle), "Separator between images: line, space, none")
	c.Flags().Int("font-size", defaults.FontSize, "Font size in points (8-18, docx and pdf)")
	c.Flags().String("line-spacing", string(defaults.LineSpacing), "Line spacing: single, normal, double (docx and pdf)")
	c.Flags().StringP("output-dir", "o", "", "Directory for exported files (default: EXPORT_DIR or .)")
	c.Flags().StringP("name", "n", "", "Base name of exported files (default: EXPORT_BASE_NAME or ocr-result)")
	c.Flags().BoolP("print", "p", false, "Print the combined text to stdout")
	c.Flags().Bool("stats", false, "Print word and character counts to stderr")
	c.Flags().Bool("json", false, "Output a JSON summary to stdout")
	c.Flags().Bool("sheet", false, "Append results to GOOGLE_SHEET_URL")
	c.Flags().BoolP("quiet", "q", false, "Do not show progress")
	c.Flags().Int("timeout", 0, "Processing timeout in seconds (default: OCR_TIMEOUT or 600)")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if engine, _ := cmd.Flags().GetString("engine"); engine != "" {
		cfg.Engine = strings.ToLower(engine)
	}

	req, err := parseOCRFlags(cmd, cfg)
	if err != nil {
		return err
	}
	if req.sheet && cfg.GoogleSheetURL == "" {
		return fmt.Errorf("--sheet requires GOOGLE_SHEET_URL to be set")
	}

	paths, err := ingest.ExpandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no supported images found in %s", strings.Join(args, ", "))
	}
	images, err := ingest.LoadPaths(paths)
	if err != nil {
		return err
	}

	log.Info().
		Int("images", len(images)).
		Str("engine", cfg.Engine).
		Strs("languages", req.languages).
		Int("timeout", req.timeoutSecs).
		Msg("Starting OCR processing")

	// Create context with timeout and signal handling
	ctx, cancel := createContextWithTimeout(req.timeoutSecs, log)
	defer cancel()

	rec, err := ocr.New(ctx, cfg)
	if err != nil {
		return handleOCRError(err, cfg.Engine, log)
	}
	defer func() {
		if closeErr := rec.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close recognizer")
		}
	}()

	startTime := time.Now()
	results, err := runWithProgress(ctx, pipeline.New(rec), images, req.languages, req.quiet)
	if err != nil {
		return handleOCRError(err, cfg.Engine, log)
	}
	processingDuration := time.Since(startTime)

	exporter := export.New(export.DirSaver{Dir: req.outputDir}, render.WithPDFFont(cfg.PDFFontPath))
	var artifacts []ArtifactOutput
	for _, f := range req.formats {
		artifact, err := exporter.Export(ctx, results, f, req.options, req.baseName)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", f, err)
		}
		artifacts = append(artifacts, ArtifactOutput{Name: artifact.Name, Format: string(f), Bytes: len(artifact.Data)})
		if !req.jsonOutput {
			fmt.Fprintf(os.Stderr, "Saved %s\n", artifact.Name)
		}
	}

	stats := services.ComputeStats(results)
	if req.sheet {
		if err := publishToSheet(ctx, cfg, results, req.languages); err != nil {
			return err
		}
	}

	log.Info().
		Int("images", len(results)).
		Int("words", stats.Words).
		Dur("duration", processingDuration).
		Msg("OCR processing completed successfully")

	out := cmd.OutOrStdout()
	if req.jsonOutput {
		output := OCROutput{
			Engine:             cfg.Engine,
			Languages:          req.languages,
			Results:            stripImages(results),
			Stats:              stats,
			Artifacts:          artifacts,
			ProcessedAt:        time.Now(),
			ProcessingDuration: processingDuration.String(),
		}
		if req.print {
			output.Text = render.CombinedText(results, req.options)
		}
		return writeJSON(out, output, log)
	}

	if req.print {
		if _, err := fmt.Fprintln(out, render.CombinedText(results, req.options)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if req.showStats {
		printStats(os.Stderr, stats)
	}
	return nil
}

// parseOCRFlags validates flags against the configuration defaults.
func parseOCRFlags(cmd *cobra.Command, cfg *config.Config) (ocrRequest, error) {
	flags := cmd.Flags()
	req := ocrRequest{
		outputDir:   cfg.ExportDir,
		baseName:    cfg.ExportBaseName,
		timeoutSecs: int(cfg.RecognizeWait.Seconds()),
	}

	langFlag, _ := flags.GetString("lang")
	codes := cfg.Languages
	if langFlag != "" {
		codes = language.ParseList(langFlag)
	}
	langs, err := language.Normalize(codes)
	if err != nil {
		return req, err
	}
	req.languages = langs

	formatFlags, _ := flags.GetStringSlice("format")
	for _, s := range formatFlags {
		if strings.TrimSpace(s) == "" {
			continue
		}
		f, err := render.ParseFormat(s)
		if err != nil {
			return req, err
		}
		req.formats = append(req.formats, f)
	}

	layoutFlag, _ := flags.GetString("layout")
	separatorFlag, _ := flags.GetString("separator")
	spacingFlag, _ := flags.GetString("line-spacing")
	if req.options.Layout, err = layout.ParseLayout(layoutFlag); err != nil {
		return req, err
	}
	if req.options.SeparatorStyle, err = layout.ParseSeparator(separatorFlag); err != nil {
		return req, err
	}
	if req.options.LineSpacing, err = layout.ParseLineSpacing(spacingFlag); err != nil {
		return req, err
	}
	req.options.ShowHeaders, _ = flags.GetBool("headers")
	req.options.FontSize, _ = flags.GetInt("font-size")
	if err := req.options.Validate(); err != nil {
		return req, err
	}

	if dir, _ := flags.GetString("output-dir"); dir != "" {
		req.outputDir = dir
	}
	if name, _ := flags.GetString("name"); name != "" {
		req.baseName = name
	}
	if secs, _ := flags.GetInt("timeout"); secs > 0 {
		req.timeoutSecs = secs
	}
	if req.timeoutSecs <= 0 {
		req.timeoutSecs = 600
	}

	req.print, _ = flags.GetBool("print")
	req.showStats, _ = flags.GetBool("stats")
	req.jsonOutput, _ = flags.GetBool("json")
	req.sheet, _ = flags.GetBool("sheet")
	req.quiet, _ = flags.GetBool("quiet")
	return req, nil
}

// runWithProgress runs the batch while a printer goroutine renders the
// latest progress event on stderr.
func runWithProgress(ctx context.Context, p *pipeline.Pipeline, images []models.ImageInput, languages []string, quiet bool) ([]models.OCRResult, error) {
	if quiet {
		return p.Run(ctx, images, languages, nil)
	}

	b := progress.NewBroadcaster()
	events, unsubscribe := b.Subscribe()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		printProgress(os.Stderr, events)
	}()

	results, err := p.Run(ctx, images, languages, b.Publish)
	b.Close()
	unsubscribe()
	<-printed
	return results, err
}

// printProgress redraws one status line per event until events is closed.
func printProgress(w io.Writer, events <-chan progress.Event) {
	drawn := false
	for ev := range events {
		fmt.Fprintf(w, "\r\033[K[%3d%%] %s", ev.Percent(), ev.Status)
		drawn = true
	}
	if drawn {
		fmt.Fprintln(w)
	}
}

func printStats(w io.Writer, stats services.BatchStats) {
	fmt.Fprintf(w, "Images: %d  Words: %d  Characters: %d\n", stats.Images, stats.Words, stats.Characters)
	for _, r := range stats.Results {
		fmt.Fprintf(w, "  [%d] %s: %d words, %d characters, %d lines\n",
			r.SequenceIndex, r.SourceName, r.Words, r.Characters, r.Lines)
	}
}

func stripImages(results []models.OCRResult) []models.OCRResult {
	out := models.CloneResults(results)
	for i := range out {
		out[i].SourceImage = ""
	}
	return out
}

func writeJSON(w io.Writer, v interface{}, log zerolog.Logger) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON output")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func publishToSheet(ctx context.Context, cfg *config.Config, results []models.OCRResult, languages []string) error {
	svc, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
	if err != nil {
		return fmt.Errorf("failed to connect to Google Sheets: %w", err)
	}
	info := sheets.BatchInfo{Engine: cfg.Engine, Languages: languages, ProcessedAt: time.Now()}
	if err := svc.WriteResults(ctx, results, info, cfg.GoogleSheetWorksheet); err != nil {
		return fmt.Errorf("failed to write results to Google Sheets: %w", err)
	}
	return nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling OCR processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, engine string, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	var rerr *pipeline.RecognitionError
	where := ""
	if errors.As(err, &rerr) {
		where = fmt.Sprintf(" (image %d: %s)", rerr.Index, rerr.Name)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out%s. Try increasing --timeout or processing fewer images", where)
	case errors.Is(err, context.Canceled), errors.Is(err, ocr.ErrContextCanceled):
		return fmt.Errorf("OCR processing was canceled%s", where)
	case errors.Is(err, ocr.ErrUnknownEngine):
		return fmt.Errorf("unknown OCR engine %q. Choose one of: %s", engine, strings.Join(config.Engines, ", "))
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("credentials for the %s engine are not configured. Please check:\n\n"+
			"  google-vision, document-ai: GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n"+
			"                              or GOOGLE_CREDENTIALS='{\"type\":\"service_account\",...}'\n"+
			"  document-ai:                GOOGLE_CLOUD_PROJECT and DOCUMENT_AI_PROCESSOR_ID\n"+
			"  openai:                     OPENAI_API_KEY\n\n"+
			"Original error: %v", engine, err)
	case errors.Is(err, ocr.ErrUnsupportedLanguage):
		return fmt.Errorf("the selected languages are not available%s. For tesseract, install the trained data or set TESSDATA_PREFIX: %w", where, err)
	case errors.Is(err, ocr.ErrImageTooLarge):
		return fmt.Errorf("image is too large%s (maximum %d MB). Try downscaling it", where, ocr.MaxImageBytes>>20)
	case errors.Is(err, ocr.ErrEmptyImage), errors.Is(err, ingest.ErrEmptyFile):
		return fmt.Errorf("image is empty%s", where)
	case errors.Is(err, ingest.ErrUnsupportedMediaType):
		return fmt.Errorf("image format is not supported%s: %w", where, err)
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "auth:") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("authentication with the %s engine failed. Please check your credentials.\n\nOriginal error: %v", engine, err)
	case strings.Contains(errStr, "PERMISSION_DENIED") ||
		strings.Contains(errStr, "forbidden"):
		return fmt.Errorf("permission denied by the %s engine. Please check the service account roles", engine)
	case strings.Contains(errStr, "QUOTA_EXCEEDED") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "rate limit"):
		return fmt.Errorf("the %s engine quota is exhausted. Lower OCR_RATE_LIMIT or try again later", engine)
	case errors.Is(err, ocr.ErrRecognitionFailed):
		return fmt.Errorf("OCR processing failed%s. This may be due to network issues, quota limits or service unavailability: %w", where, err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}
