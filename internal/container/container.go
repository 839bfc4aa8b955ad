package container

import (
	"context"
	"fmt"
	"net/http"

	"go-nutrition-scanner/internal/config"
	"go-nutrition-scanner/internal/extract"
	"go-nutrition-scanner/internal/factory"
	"go-nutrition-scanner/internal/history"
	"go-nutrition-scanner/internal/llm"
	"go-nutrition-scanner/internal/logger"
	"go-nutrition-scanner/internal/observer"
	"go-nutrition-scanner/internal/ocr"
	"go-nutrition-scanner/internal/repository"
	"go-nutrition-scanner/internal/scoring"
	"go-nutrition-scanner/internal/service"
	"go-nutrition-scanner/internal/storage"
	"go-nutrition-scanner/internal/summary"
	"go-nutrition-scanner/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	ocrEngine       *ocr.Engine
	scoringEngine   *scoring.Engine
	historyStore    *history.Store
	imageFetcher    storage.ImageFetcher
	imageRepository repository.ImageRepository
	analysisService *service.AnalysisService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container. Model artifacts
// are loaded here, once; an unloadable model fails startup rather than the
// first request.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	ocrEngine, err := ocr.NewEngine(cfg.OCRLanguage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OCR engine: %w", err)
	}

	scoringEngine, err := scoring.NewEngine(scoring.Config{
		VectorizerPath:      cfg.VectorizerPath,
		IngredientModelPath: cfg.IngredientModelPath,
		NutritionModelPath:  cfg.NutritionModelPath,
	})
	if err != nil {
		ocrEngine.Close()
		return nil, fmt.Errorf("failed to initialize scoring engine: %w", err)
	}

	historyStore, err := history.NewStore(cfg.HistoryDBPath)
	if err != nil {
		ocrEngine.Close()
		scoringEngine.Close()
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	// Without an API key the LLM stages are skipped and every extraction
	// takes the rule-based path.
	var llmClient llm.Client
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.LLMTimeout)
		if err != nil {
			logger.WithError(err).Warn("LLM client unavailable, running rule-based only")
		} else {
			llmClient = client
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, running rule-based only")
	}

	storageFactory := factory.NewStorageFactory(cfg)
	imageFetcher, err := storageFactory.CreateStorage(factory.StorageType(cfg.StorageBackend))
	if err != nil {
		ocrEngine.Close()
		scoringEngine.Close()
		historyStore.Close()
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}
	imageRepository := repository.NewImageRepository(imageFetcher)

	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(observer.NewMetricsObserver())

	analysisService := service.NewAnalysisService(
		service.NewOCRLabelReader(ocrEngine),
		extract.NewIngredientExtractor(llmClient),
		extract.NewNutritionExtractor(llmClient),
		scoringEngine,
		summary.NewSummarizer(llmClient),
		historyStore,
		publisher,
	)
	handler := transport.NewHandler(analysisService, imageRepository, cfg)

	return &Container{
		config:          cfg,
		ocrEngine:       ocrEngine,
		scoringEngine:   scoringEngine,
		historyStore:    historyStore,
		imageFetcher:    imageFetcher,
		imageRepository: imageRepository,
		analysisService: analysisService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases the OCR engine, model sessions and the history database.
func (c *Container) Close() {
	if err := c.ocrEngine.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close OCR engine")
	}
	if err := c.scoringEngine.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close scoring engine")
	}
	if err := c.historyStore.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close history store")
	}
}
