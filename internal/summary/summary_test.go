package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go-nutrition-scanner/internal/llm"
	"go-nutrition-scanner/pkg/models"
)

type fakeClient struct {
	response string
	err      error
}

func (f *fakeClient) Generate(ctx context.Context, prompt string, images ...llm.Image) (string, error) {
	return f.response, f.err
}

func TestCategory(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{9.5, "excellent"},
		{8.0, "excellent"},
		{7.9, "good"},
		{6.0, "good"},
		{5.0, "moderate"},
		{4.0, "moderate"},
		{3.9, "poor"},
		{0, "poor"},
		{-1, "poor"},
	}

	for _, tt := range tests {
		if got := Category(tt.score); got != tt.expected {
			t.Errorf("Category(%v) = %q, want %q", tt.score, got, tt.expected)
		}
	}
}

func TestFallbackText(t *testing.T) {
	got := FallbackText(9.0)
	want := "This product received a excellent health score of 9.0/10."
	if got != want {
		t.Errorf("FallbackText(9.0) = %q, want %q", got, want)
	}
}

func TestGenerateUsesLLMText(t *testing.T) {
	s := NewSummarizer(&fakeClient{response: "A well balanced product."})

	got := s.Generate(context.Background(), []string{"Water"}, models.NutritionRecord{}, models.ScoreBundle{IngredientsScore: 7, NutritionScore: 4})
	if got != "A well balanced product." {
		t.Errorf("Generate() = %q, want LLM text", got)
	}
}

func TestGenerateFallsBackOnError(t *testing.T) {
	s := NewSummarizer(&fakeClient{err: errors.New("model overloaded")})

	got := s.Generate(context.Background(), []string{"Water"}, models.NutritionRecord{}, models.ScoreBundle{IngredientsScore: 7, NutritionScore: 4})
	if !strings.Contains(got, "9.0/10") {
		t.Errorf("Generate() = %q, want templated fallback with the total score", got)
	}
}

func TestGenerateFallsBackOnBlankResponse(t *testing.T) {
	s := NewSummarizer(&fakeClient{response: "   "})

	got := s.Generate(context.Background(), nil, models.NutritionRecord{}, models.ScoreBundle{})
	if !strings.Contains(got, "poor") {
		t.Errorf("Generate() = %q, want templated fallback", got)
	}
}

func TestGenerateWithoutClient(t *testing.T) {
	s := NewSummarizer(nil)

	got := s.Generate(context.Background(), nil, models.NutritionRecord{}, models.ScoreBundle{IngredientsScore: 2, NutritionScore: 2})
	want := FallbackText(3.0)
	if got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}
}
