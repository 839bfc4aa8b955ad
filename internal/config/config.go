package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	LLMTimeout         time.Duration
	MaxRequestBodySize int64

	// Model artifacts, loaded once at startup.
	ModelsDir           string
	VectorizerPath      string
	IngredientModelPath string
	NutritionModelPath  string

	// OCR
	OCRLanguage string

	// LLM collaborator
	GeminiAPIKey string
	GeminiModel  string

	// History store
	HistoryDBPath string

	// Image acquisition backend for URL inputs: "http" or "azure".
	StorageBackend   string
	AzureAccountName string
	AzureAccountKey  string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	modelsDir := getEnvOrDefault("MODELS_DIR", "models")

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		LLMTimeout:         parseDurationOrDefault("LLM_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024), // two images per request

		ModelsDir:           modelsDir,
		VectorizerPath:      getEnvOrDefault("VECTORIZER_PATH", filepath.Join(modelsDir, "tfidf_vectorizer.json")),
		IngredientModelPath: getEnvOrDefault("INGREDIENT_MODEL_PATH", filepath.Join(modelsDir, "ingredient_model.onnx")),
		NutritionModelPath:  getEnvOrDefault("NUTRITION_MODEL_PATH", filepath.Join(modelsDir, "nutrition_model.onnx")),

		OCRLanguage: getEnvOrDefault("OCR_LANGUAGE", "eng"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),

		HistoryDBPath: getEnvOrDefault("HISTORY_DB_PATH", "history.db"),

		StorageBackend:   getEnvOrDefault("STORAGE_BACKEND", "http"),
		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.LLMTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, llm=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.LLMTimeout)
	}
	switch cfg.StorageBackend {
	case "http":
	case "azure":
		if cfg.AzureAccountName == "" || cfg.AzureAccountKey == "" {
			return nil, fmt.Errorf("STORAGE_BACKEND=azure requires AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND: %q", cfg.StorageBackend)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
