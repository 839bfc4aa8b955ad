package config

import (
	"testing"
	"time"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("RequestTimeout = %v, want 60s", cfg.RequestTimeout)
	}
	if cfg.OCRLanguage != "eng" {
		t.Errorf("OCRLanguage = %q, want eng", cfg.OCRLanguage)
	}
	if cfg.StorageBackend != "http" {
		t.Errorf("StorageBackend = %q, want http", cfg.StorageBackend)
	}
	if cfg.GeminiModel == "" {
		t.Error("GeminiModel default missing")
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REQUEST_TIMEOUT", "30s")
	t.Setenv("OCR_LANGUAGE", "deu")
	t.Setenv("MODELS_DIR", "/opt/models")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.OCRLanguage != "deu" {
		t.Errorf("OCRLanguage = %q, want deu", cfg.OCRLanguage)
	}
	if cfg.VectorizerPath != "/opt/models/tfidf_vectorizer.json" {
		t.Errorf("VectorizerPath = %q, models dir not applied", cfg.VectorizerPath)
	}
}

func TestLoadFromEnvInvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestLoadFromEnvAzureRequiresCredentials(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "azure")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("expected error for azure backend without credentials")
	}

	t.Setenv("AZURE_ACCOUNT_NAME", "acct")
	t.Setenv("AZURE_ACCOUNT_KEY", "key")

	if _, err := LoadFromEnv(); err != nil {
		t.Errorf("LoadFromEnv() error = %v, want success with credentials", err)
	}
}

func TestLoadFromEnvUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "ftp")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("expected error for unknown storage backend")
	}
}

func TestServerAddress(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: "8080"}
	if got := cfg.ServerAddress(); got != "0.0.0.0:8080" {
		t.Errorf("ServerAddress() = %q, want 0.0.0.0:8080", got)
	}
}

func TestInvalidDurationFallsBackToDefault(t *testing.T) {
	t.Setenv("LLM_TIMEOUT", "soon")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.LLMTimeout != 20*time.Second {
		t.Errorf("LLMTimeout = %v, want default 20s", cfg.LLMTimeout)
	}
}
