package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"OCR_ENGINE", "OCR_LANGUAGES", "OCR_CACHE_TTL", "LOG_OUTPUT", "MAX_UPLOAD_MB", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine != EngineTesseract {
		t.Errorf("Engine = %s, want %s", cfg.Engine, EngineTesseract)
	}
	if strings.Join(cfg.Languages, "+") != "tur+eng" {
		t.Errorf("Languages = %v, want [tur eng]", cfg.Languages)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Errorf("CacheTTL = %v, want 24h", cfg.CacheTTL)
	}
	if cfg.LogOutput != "stderr" {
		t.Errorf("LogOutput = %s, want stderr", cfg.LogOutput)
	}
	if cfg.MaxUploadMB != 32 {
		t.Errorf("MaxUploadMB = %d, want 32", cfg.MaxUploadMB)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v, want [*]", cfg.AllowedOrigins)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown engine", "OCR_ENGINE", "abbyy"},
		{"unknown language", "OCR_LANGUAGES", "tur,xxx"},
		{"bad ttl", "OCR_CACHE_TTL", "forever"},
		{"bad psm", "TESSERACT_PSM", "42"},
		{"bad burst", "OCR_RATE_BURST", "0"},
		{"bad level", "LOG_LEVEL", "loud"},
		{"bad gin mode", "GIN_MODE", "production"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s succeeded, want error", tt.key, tt.value)
			}
		})
	}
}

func TestValidateEngine(t *testing.T) {
	cfg := &Config{Engine: EngineOpenAI}
	if err := cfg.ValidateEngine(); err == nil {
		t.Error("expected missing OPENAI_API_KEY error")
	}
	cfg.OpenAIAPIKey = "sk-test"
	if err := cfg.ValidateEngine(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg = &Config{Engine: EngineDocumentAI, GoogleCloudProject: "p"}
	if err := cfg.ValidateEngine(); err == nil {
		t.Error("expected missing DOCUMENT_AI_PROCESSOR_ID error")
	}
}
