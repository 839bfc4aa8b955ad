// Package service orchestrates the label analysis pipeline: OCR, extraction,
// scoring, narrative summary, and history persistence.
package service

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "go-nutrition-scanner/internal/errors"
	"go-nutrition-scanner/internal/extract"
	"go-nutrition-scanner/internal/llm"
	"go-nutrition-scanner/internal/logger"
	"go-nutrition-scanner/internal/observer"
	"go-nutrition-scanner/pkg/models"
	"go-nutrition-scanner/pkg/validation"
)

// IngredientsExtractor turns OCR text (plus the original photo) into a
// cleaned ingredient list. Implementations never fail; they degrade.
type IngredientsExtractor interface {
	Extract(ctx context.Context, ocrText string, img *llm.Image) []string
}

// NutritionExtractor turns OCR text into a nutrition record and can fill
// gaps in an existing one.
type NutritionExtractor interface {
	Extract(ctx context.Context, ocrText string, img *llm.Image) models.NutritionRecord
	ValidateAndFill(ctx context.Context, record models.NutritionRecord, img *llm.Image) models.NutritionRecord
}

// Scorer runs the two trained models. Scoring failure is fatal to a request;
// a result without scores is worthless to the caller.
type Scorer interface {
	ScoreIngredients(ingredients []string) (float64, error)
	ScoreNutrition(record models.NutritionRecord) (float64, error)
}

// SummaryWriter produces the human-readable explanation of a score.
type SummaryWriter interface {
	Generate(ctx context.Context, ingredients []string, nutrition models.NutritionRecord, scores models.ScoreBundle) string
}

// HistoryStore persists completed analyses.
type HistoryStore interface {
	Create(record *models.HistoryRecord) (int64, error)
	UpdateSummary(id int64, summary string) error
	Query(userID, startDate, endDate string, limit int) ([]*models.HistoryRecord, error)
}

// AnalysisService coordinates a full scan from photo bytes to stored result.
type AnalysisService struct {
	reader      LabelReader
	ingredients IngredientsExtractor
	nutrition   NutritionExtractor
	scorer      Scorer
	summarizer  SummaryWriter
	store       HistoryStore
	validator   *validation.RecordValidator
	publisher   observer.Subject
}

// NewAnalysisService wires the pipeline stages together.
func NewAnalysisService(
	reader LabelReader,
	ingredients IngredientsExtractor,
	nutrition NutritionExtractor,
	scorer Scorer,
	summarizer SummaryWriter,
	store HistoryStore,
	publisher observer.Subject,
) *AnalysisService {
	return &AnalysisService{
		reader:      reader,
		ingredients: ingredients,
		nutrition:   nutrition,
		scorer:      scorer,
		summarizer:  summarizer,
		store:       store,
		validator:   validation.NewRecordValidator(),
		publisher:   publisher,
	}
}

// AnalyzeImages runs the two label photos through the full pipeline. The
// branches run concurrently; a decode failure on either image fails the
// request, while an empty OCR result only degrades that branch.
func (s *AnalysisService) AnalyzeImages(ctx context.Context, userID string, ingredientsImage, nutritionImage []byte) (*models.AnalysisResponse, error) {
	start := time.Now()
	s.notify(ctx, observer.ScanEvent{
		EventType: observer.ScanStarted,
		Timestamp: start,
		UserID:    userID,
	})

	var ingredients []string
	var record models.NutritionRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := s.reader.ReadIngredients(ingredientsImage)
		if err != nil {
			if !apperrors.IsType(err, apperrors.ErrorTypeOCREmpty) {
				return err
			}
			logger.WithField("branch", "ingredients").Warn("OCR found no text, extraction will rely on the photo")
		}
		img := &llm.Image{Data: ingredientsImage, MIMEType: http.DetectContentType(ingredientsImage)}
		ingredients = s.ingredients.Extract(gctx, text, img)
		return nil
	})
	g.Go(func() error {
		text, err := s.reader.ReadNutrition(nutritionImage)
		if err != nil {
			if !apperrors.IsType(err, apperrors.ErrorTypeOCREmpty) {
				return err
			}
			logger.WithField("branch", "nutrition").Warn("OCR found no text, extraction will rely on the photo")
		}
		img := &llm.Image{Data: nutritionImage, MIMEType: http.DetectContentType(nutritionImage)}
		record = s.nutrition.Extract(gctx, text, img)
		record = s.nutrition.ValidateAndFill(gctx, record, img)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.fail(ctx, userID, start, err)
		return nil, err
	}

	return s.scoreAndPersist(ctx, userID, start, ingredients, record)
}

// AnalyzeManual scores directly entered data, bypassing OCR and the LLM
// extraction stages. Out-of-range nutrient values are dropped, not rejected.
func (s *AnalysisService) AnalyzeManual(ctx context.Context, userID string, req models.ManualEntryRequest) (*models.AnalysisResponse, error) {
	start := time.Now()
	s.notify(ctx, observer.ScanEvent{
		EventType: observer.ScanStarted,
		Timestamp: start,
		UserID:    userID,
		Metadata:  map[string]interface{}{"mode": "manual"},
	})

	ingredients := extract.FormatIngredients(req.IngredientsText)
	if len(ingredients) == 0 {
		ingredients = []string{extract.PlaceholderIngredient}
	}

	record := req.NutritionData
	if issues := s.validator.Sanitize(&record); len(issues) > 0 {
		logger.WithField("dropped_fields", len(issues)).Warn("Manual entry contained out-of-range nutrient values")
	}

	return s.scoreAndPersist(ctx, userID, start, ingredients, record)
}

// History returns a user's past analyses, newest first.
func (s *AnalysisService) History(userID, startDate, endDate string, limit int) ([]*models.HistoryRecord, error) {
	return s.store.Query(userID, startDate, endDate, limit)
}

func (s *AnalysisService) scoreAndPersist(ctx context.Context, userID string, start time.Time, ingredients []string, record models.NutritionRecord) (*models.AnalysisResponse, error) {
	ingredientsScore, err := s.scorer.ScoreIngredients(ingredients)
	if err != nil {
		s.fail(ctx, userID, start, err)
		return nil, err
	}
	nutritionScore, err := s.scorer.ScoreNutrition(record)
	if err != nil {
		s.fail(ctx, userID, start, err)
		return nil, err
	}

	scores := models.ScoreBundle{
		IngredientsScore: ingredientsScore,
		NutritionScore:   nutritionScore,
	}
	total := scores.TotalScore()

	// Persist before summarizing so a slow or failing LLM never loses the
	// scored result. Persistence failure itself is non-fatal: the caller
	// still gets the scores, just with a null history id.
	historyRecord := &models.HistoryRecord{
		UserID:      userID,
		Scores:      scores,
		TotalScore:  total,
		Nutrition:   record,
		Ingredients: ingredients,
		CreatedAt:   time.Now().UTC(),
	}
	var historyID *int64
	if id, err := s.store.Create(historyRecord); err != nil {
		logger.WithError(err).Error("Failed to persist analysis history")
		s.notify(ctx, observer.ScanEvent{
			EventType:    observer.HistorySaveFailed,
			Timestamp:    time.Now(),
			UserID:       userID,
			ErrorMessage: err.Error(),
		})
	} else {
		historyID = &id
	}

	summary := s.summarizer.Generate(ctx, ingredients, record, scores)
	if historyID != nil {
		if err := s.store.UpdateSummary(*historyID, summary); err != nil {
			logger.WithError(err).Warn("Failed to attach summary to history record")
		}
	}

	s.notify(ctx, observer.ScanEvent{
		EventType:      observer.ScanCompleted,
		Timestamp:      time.Now(),
		UserID:         userID,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"total_score": total},
	})

	return &models.AnalysisResponse{
		Success:   true,
		HistoryID: historyID,
		Ingredients: models.IngredientsPayload{
			RawData: ingredients,
			Score:   ingredientsScore,
		},
		Nutrition: models.NutritionPayload{
			Data:  record,
			Score: nutritionScore,
		},
		TotalScore:      total,
		AnalysisSummary: summary,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *AnalysisService) fail(ctx context.Context, userID string, start time.Time, err error) {
	s.notify(ctx, observer.ScanEvent{
		EventType:      observer.ScanFailed,
		Timestamp:      time.Now(),
		UserID:         userID,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
}

func (s *AnalysisService) notify(ctx context.Context, event observer.ScanEvent) {
	if s.publisher != nil {
		s.publisher.NotifyObservers(ctx, event)
	}
}
