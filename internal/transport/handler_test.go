package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-nutrition-scanner/internal/config"
	"go-nutrition-scanner/internal/llm"
	"go-nutrition-scanner/internal/repository"
	"go-nutrition-scanner/internal/service"
	"go-nutrition-scanner/internal/storage"
	"go-nutrition-scanner/pkg/models"
)

type stubReader struct{}

func (stubReader) ReadIngredients(data []byte) (string, error) { return "INGREDIENTS: Water", nil }
func (stubReader) ReadNutrition(data []byte) (string, error)   { return "Calories 120", nil }

type stubIngredients struct{}

func (stubIngredients) Extract(ctx context.Context, ocrText string, img *llm.Image) []string {
	return []string{"Water"}
}

type stubNutrition struct{}

func (stubNutrition) Extract(ctx context.Context, ocrText string, img *llm.Image) models.NutritionRecord {
	var r models.NutritionRecord
	r.Set("calories", 120)
	return r
}

func (stubNutrition) ValidateAndFill(ctx context.Context, record models.NutritionRecord, img *llm.Image) models.NutritionRecord {
	return record
}

type stubScorer struct{}

func (stubScorer) ScoreIngredients(ingredients []string) (float64, error)    { return 7, nil }
func (stubScorer) ScoreNutrition(record models.NutritionRecord) (float64, error) { return 4, nil }

type stubSummarizer struct{}

func (stubSummarizer) Generate(ctx context.Context, ingredients []string, nutrition models.NutritionRecord, scores models.ScoreBundle) string {
	return "A decent product."
}

type stubStore struct {
	lastUser  string
	lastLimit int
}

func (s *stubStore) Create(record *models.HistoryRecord) (int64, error) { return 1, nil }
func (s *stubStore) UpdateSummary(id int64, summary string) error       { return nil }
func (s *stubStore) Query(userID, startDate, endDate string, limit int) ([]*models.HistoryRecord, error) {
	s.lastUser = userID
	s.lastLimit = limit
	return []*models.HistoryRecord{{ID: 1, UserID: userID, TotalScore: 9}}, nil
}

type stubFetcher struct{}

func (stubFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	return []byte("image-bytes"), nil
}

func newTestHandler(store *stubStore) http.Handler {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		RequestTimeout:     10 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}
	svc := service.NewAnalysisService(
		stubReader{}, stubIngredients{}, stubNutrition{},
		stubScorer{}, stubSummarizer{}, store, nil,
	)
	var fetcher storage.ImageFetcher = stubFetcher{}
	return NewHandler(svc, repository.NewImageRepository(fetcher), cfg)
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(&stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAnalyzeMultipart(t *testing.T) {
	handler := newTestHandler(&stubStore{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, field := range []string{ingredientsFormField, nutritionFormField} {
		part, err := writer.CreateFormFile(field, field+".jpg")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte("fake-image-bytes")); err != nil {
			t.Fatal(err)
		}
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var resp models.AnalysisResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success || resp.TotalScore != 9 {
		t.Errorf("response = %+v", resp)
	}
}

func TestAnalyzeMultipartMissingFile(t *testing.T) {
	handler := newTestHandler(&stubStore{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile(ingredientsFormField, "a.jpg")
	part.Write([]byte("fake"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if resp.Success {
		t.Error("error response must have success=false")
	}
}

func TestAnalyzeByURL(t *testing.T) {
	handler := newTestHandler(&stubStore{})

	payload := `{"ingredients_url": "https://example.com/a.jpg", "nutrition_url": "https://example.com/b.jpg"}`
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
}

func TestAnalyzeByURLMissingField(t *testing.T) {
	handler := newTestHandler(&stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"ingredients_url": "https://example.com/a.jpg"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestManualEntry(t *testing.T) {
	handler := newTestHandler(&stubStore{})

	payload := `{"ingredients_text": "Water, Sugar", "nutrition_data": {"calories": 120}}`
	req := httptest.NewRequest(http.MethodPost, "/manual", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
}

func TestManualEntryRequiresIngredients(t *testing.T) {
	handler := newTestHandler(&stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/manual", strings.NewReader(`{"nutrition_data": {}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	store := &stubStore{}
	handler := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/history?limit=5", nil)
	req.Header.Set(userIDHeader, "user-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.lastUser != "user-42" {
		t.Errorf("queried user = %q, want header value", store.lastUser)
	}
	if store.lastLimit != 5 {
		t.Errorf("limit = %d, want 5", store.lastLimit)
	}

	var resp models.HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success || resp.Count != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestHistoryDefaultsToAnonymous(t *testing.T) {
	store := &stubStore{}
	handler := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if store.lastUser != defaultUserID {
		t.Errorf("queried user = %q, want %q", store.lastUser, defaultUserID)
	}
	if store.lastLimit != defaultHistoryLimit {
		t.Errorf("limit = %d, want default %d", store.lastLimit, defaultHistoryLimit)
	}
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	handler := newTestHandler(&stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/history?limit=-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
