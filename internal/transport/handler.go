package transport

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-nutrition-scanner/internal/config"
	apperrors "go-nutrition-scanner/internal/errors"
	"go-nutrition-scanner/internal/logger"
	"go-nutrition-scanner/internal/repository"
	"go-nutrition-scanner/internal/service"
	"go-nutrition-scanner/pkg/models"
)

const (
	userIDHeader         = "X-User-ID"
	defaultUserID        = "anonymous"
	defaultHistoryLimit  = 50
	maxHistoryLimit      = 500
	ingredientsFormField = "ingredients_image"
	nutritionFormField   = "nutrition_image"
)

// URLAnalysisRequest is the JSON input path: the client points at two hosted
// label photos instead of uploading them.
type URLAnalysisRequest struct {
	IngredientsURL string `json:"ingredients_url" binding:"required,url"`
	NutritionURL   string `json:"nutrition_url" binding:"required,url"`
}

// NewHandler builds the HTTP surface of the scanner.
func NewHandler(svc *service.AnalysisService, images repository.ImageRepository, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/analyze", analyzeLabels(svc, images, cfg))
	r.POST("/manual", analyzeManual(svc, cfg))
	r.GET("/history", queryHistory(svc))

	return r
}

func analyzeLabels(svc *service.AnalysisService, images repository.ImageRepository, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		userID := requestUserID(c)
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"user_id": userID,
			"ip":      c.ClientIP(),
		}).Info("Processing label analysis request")

		ingredientsImage, nutritionImage, err := readImagePair(ctx, c, images)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid analysis input", err)
			return
		}

		result, err := svc.AnalyzeImages(ctx, userID, ingredientsImage, nutritionImage)
		if err != nil {
			respondError(c, determineStatusCode(err), "label analysis failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"user_id":            userID,
			"total_score":        result.TotalScore,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Label analysis completed successfully")

		c.JSON(http.StatusOK, result)
	}
}

// readImagePair accepts either a multipart upload with two image files or a
// JSON body with two image URLs.
func readImagePair(ctx context.Context, c *gin.Context, images repository.ImageRepository) ([]byte, []byte, error) {
	contentType := c.ContentType()

	if contentType == "multipart/form-data" {
		ingredientsImage, err := formFileBytes(c, ingredientsFormField)
		if err != nil {
			return nil, nil, err
		}
		nutritionImage, err := formFileBytes(c, nutritionFormField)
		if err != nil {
			return nil, nil, err
		}
		return ingredientsImage, nutritionImage, nil
	}

	var req URLAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, nil, apperrors.NewValidationError("expected multipart images or JSON image URLs", err)
	}

	ingredientsImage, err := fetchURL(ctx, images, req.IngredientsURL)
	if err != nil {
		return nil, nil, err
	}
	nutritionImage, err := fetchURL(ctx, images, req.NutritionURL)
	if err != nil {
		return nil, nil, err
	}
	return ingredientsImage, nutritionImage, nil
}

func formFileBytes(c *gin.Context, field string) ([]byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, apperrors.NewValidationError("missing form file: "+field, err)
	}
	return readMultipartFile(fileHeader)
}

func readMultipartFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("unable to open uploaded file", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.NewValidationError("unable to read uploaded file", err)
	}
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("uploaded file is empty", nil)
	}
	return data, nil
}

func fetchURL(ctx context.Context, images repository.ImageRepository, imageURL string) ([]byte, error) {
	data, err := images.FetchImage(ctx, imageURL)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("image fetch timeout", err)
		}
		return nil, err
	}
	return data, nil
}

func analyzeManual(svc *service.AnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		userID := requestUserID(c)

		var req models.ManualEntryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid manual entry", err)
			return
		}

		result, err := svc.AnalyzeManual(ctx, userID, req)
		if err != nil {
			respondError(c, determineStatusCode(err), "manual analysis failed", err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func queryHistory(svc *service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := requestUserID(c)
		startDate := c.Query("start_date")
		endDate := c.Query("end_date")

		limit := defaultHistoryLimit
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				respondError(c, http.StatusBadRequest, "invalid history query",
					apperrors.NewValidationError("limit must be a positive integer", err))
				return
			}
			limit = parsed
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}

		records, err := svc.History(userID, startDate, endDate, limit)
		if err != nil {
			respondError(c, determineStatusCode(err), "history query failed", err)
			return
		}

		history := make([]models.HistoryRecord, 0, len(records))
		for _, record := range records {
			history = append(history, *record)
		}

		c.JSON(http.StatusOK, models.HistoryResponse{
			Success: true,
			Count:   len(history),
			History: history,
		})
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func requestUserID(c *gin.Context) string {
	if userID := c.GetHeader(userIDHeader); userID != "" {
		return userID
	}
	return defaultUserID
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Success: false,
		Error:   message + ": " + err.Error(),
	})
}
