package extract

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go-nutrition-scanner/internal/llm"
)

// fakeClient is a canned llm.Client for extractor tests.
type fakeClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeClient) Generate(ctx context.Context, prompt string, images ...llm.Image) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestCaptureIngredientLines(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "captures from ingredients line to stop keyword",
			text:     "Best before: see cap\nINGREDIENTS: Water; Sugar;\nSalt.\nNUTRITION INFORMATION\nper 100g",
			expected: []string{"INGREDIENTS: Water; Sugar;", "Salt."},
		},
		{
			name:     "stop line itself is discarded",
			text:     "Ingredients: Water\nContains: milk, soy",
			expected: []string{"Ingredients: Water"},
		},
		{
			name:     "no ingredients line captures nothing",
			text:     "Net weight 500g\nBest served chilled",
			expected: nil,
		},
		{
			name:     "stop keyword before ingredients halts the scan",
			text:     "Calories 100 per serving\nINGREDIENTS: Water",
			expected: nil,
		},
		{
			name:     "line with both ingredients and stop keyword stops without emitting",
			text:     "Ingredients and allergen information:\nWater, Salt",
			expected: nil,
		},
		{
			name:     "lines after stop are never captured",
			text:     "INGREDIENTS: Water\nmay contain traces of nuts\nSugar",
			expected: []string{"INGREDIENTS: Water"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CaptureIngredientLines(tt.text)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("CaptureIngredientLines() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFormatIngredients(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "already clean list passes through",
			text:     "Water, Sugar, Salt",
			expected: []string{"Water", "Sugar", "Salt"},
		},
		{
			name:     "label and structural punctuation",
			text:     "INGREDIENTS: Water; Sugar (5%); Salt.",
			expected: []string{"Water", "Sugar", "Salt"},
		},
		{
			name:     "parenthetical asides dropped",
			text:     "Milk (pasteurized), Cream",
			expected: []string{"Milk", "Cream"},
		},
		{
			name:     "digit-bearing tokens dropped",
			text:     "Vitamin B12, Salt, 20",
			expected: []string{"Vitamin", "Salt"},
		},
		{
			name:     "empty input",
			text:     "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatIngredients(tt.text)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("FormatIngredients(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestFormatIngredientsIdempotent(t *testing.T) {
	first := FormatIngredients("INGREDIENTS: Water; Sugar (5%); Salt.")
	second := FormatIngredients("Water, Sugar, Salt")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("formatting a formatted list changed it: %v vs %v", first, second)
	}
}

func TestExtractIngredientsRule(t *testing.T) {
	text := "Lot 2219/A\nINGREDIENTS: Water; Sugar (5%);\nSalt.\nNUTRITION INFORMATION"
	got := ExtractIngredientsRule(text)
	want := []string{"Water", "Sugar", "Salt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractIngredientsRule() = %v, want %v", got, want)
	}
}

func TestIngredientExtractorUsesLLMResult(t *testing.T) {
	client := &fakeClient{response: `["Water", "Sugar", "Salt"]`}
	extractor := NewIngredientExtractor(client)

	got := extractor.Extract(context.Background(), "INGREDIENTS: something", nil)
	want := []string{"Water", "Sugar", "Salt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
	if client.calls != 1 {
		t.Errorf("expected 1 LLM call, got %d", client.calls)
	}
}

func TestIngredientExtractorFallsBackOnError(t *testing.T) {
	client := &fakeClient{err: errors.New("model overloaded")}
	extractor := NewIngredientExtractor(client)

	got := extractor.Extract(context.Background(), "INGREDIENTS: Water; Salt.", nil)
	want := []string{"Water", "Salt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestIngredientExtractorFallsBackOnMalformedResponse(t *testing.T) {
	client := &fakeClient{response: "I could not find a list, sorry."}
	extractor := NewIngredientExtractor(client)

	got := extractor.Extract(context.Background(), "INGREDIENTS: Water; Salt.", nil)
	want := []string{"Water", "Salt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestIngredientExtractorPlaceholder(t *testing.T) {
	extractor := NewIngredientExtractor(nil)

	got := extractor.Extract(context.Background(), "", nil)
	want := []string{PlaceholderIngredient}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}
