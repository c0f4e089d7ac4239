package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ocrdoc/internal/language"
	"ocrdoc/internal/logger"
)

// Supported recognition engines
const (
	EngineTesseract    = "tesseract"
	EngineGoogleVision = "google-vision"
	EngineDocumentAI   = "document-ai"
	EngineOpenAI       = "openai"
)

// Engines lists every engine name accepted by OCR_ENGINE.
var Engines = []string{EngineTesseract, EngineGoogleVision, EngineDocumentAI, EngineOpenAI}

type Config struct {
	// Recognition Configuration
	Engine        string
	Languages     []string
	TessdataPath  string
	TesseractPSM  int
	RateLimit     float64
	RateBurst     int
	RedisURL      string
	CacheTTL      time.Duration
	RecognizeWait time.Duration

	// Google Cloud Configuration
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// OpenAI Configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Export Configuration
	ExportDir      string
	ExportBaseName string
	PDFFontPath    string

	// HTTP Configuration
	Port           string
	GinMode        string
	AllowedOrigins []string
	MaxUploadMB    int

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		Engine:                strings.ToLower(getEnv("OCR_ENGINE", EngineTesseract)),
		TessdataPath:          getEnv("TESSDATA_PREFIX", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		ExportDir:             getEnv("EXPORT_DIR", "."),
		ExportBaseName:        getEnv("EXPORT_BASE_NAME", "ocr-result"),
		PDFFontPath:           getEnv("PDF_FONT_PATH", ""),
		Port:                  getEnv("PORT", "8080"),
		GinMode:               getEnv("GIN_MODE", "debug"),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:  getEnv("GOOGLE_SHEET_WORKSHEET", "OCR_Results"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.Languages, err = language.Normalize(language.ParseList(getEnv("OCR_LANGUAGES", strings.Join(language.DefaultCodes, ",")))); err != nil {
		return nil, fmt.Errorf("config validation failed: OCR_LANGUAGES: %w", err)
	}
	if config.TesseractPSM, err = getEnvInt("TESSERACT_PSM", 0); err != nil {
		return nil, err
	}
	if config.RateLimit, err = getEnvFloat("OCR_RATE_LIMIT", 0); err != nil {
		return nil, err
	}
	if config.RateBurst, err = getEnvInt("OCR_RATE_BURST", 1); err != nil {
		return nil, err
	}
	if config.CacheTTL, err = getEnvDuration("OCR_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if config.RecognizeWait, err = getEnvDuration("OCR_TIMEOUT", 10*time.Minute); err != nil {
		return nil, err
	}
	if config.MaxUploadMB, err = getEnvInt("MAX_UPLOAD_MB", 32); err != nil {
		return nil, err
	}
	config.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", "*"))

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	known := false
	for _, e := range Engines {
		if c.Engine == e {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("OCR_ENGINE must be one of %s, got %q", strings.Join(Engines, ", "), c.Engine)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	if c.TesseractPSM < 0 || c.TesseractPSM > 13 {
		return fmt.Errorf("TESSERACT_PSM must be between 0 and 13")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("OCR_RATE_LIMIT must not be negative")
	}
	if c.RateBurst < 1 {
		return fmt.Errorf("OCR_RATE_BURST must be at least 1")
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be at least 1")
	}
	if c.ExportBaseName == "" {
		return fmt.Errorf("EXPORT_BASE_NAME is required")
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.GinMode)
	}
	return nil
}

// ValidateEngine checks that the settings required by the selected engine are present.
// Engine credentials are only needed when recognition actually runs, so Load does not enforce them.
func (c *Config) ValidateEngine() error {
	switch c.Engine {
	case EngineDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required")
		}
	case EngineOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
