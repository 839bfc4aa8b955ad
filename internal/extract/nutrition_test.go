package extract

import (
	"context"
	"errors"
	"testing"

	"go-nutrition-scanner/pkg/models"
)

func TestNormalizeNutritionText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "lowercases and collapses whitespace",
			text:     "Energy   100 KCAL",
			expected: "energy 100 kcal",
		},
		{
			name:     "decimal comma becomes dot",
			text:     "protein 1,5g",
			expected: "protein 1.5g",
		},
		{
			name:     "parenthetical content removed",
			text:     "total fat 10g (15% daily value)",
			expected: "total fat 10g",
		},
		{
			name:     "noise punctuation stripped",
			text:     "sodium* 80mg!",
			expected: "sodium 80mg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeNutritionText(tt.text); got != tt.expected {
				t.Errorf("NormalizeNutritionText(%q) = %q, want %q", tt.text, got, tt.expected)
			}
		})
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"single value", []float64{5}, 5},
		{"odd count", []float64{12, 10, 11}, 11},
		{"even count averages middle pair", []float64{10, 12}, 11},
		{"rounded to two decimals", []float64{1.111, 1.112}, 1.11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := median(tt.values); got != tt.expected {
				t.Errorf("median(%v) = %v, want %v", tt.values, got, tt.expected)
			}
		})
	}
}

func TestExtractNutritionRule(t *testing.T) {
	text := "Calories 120\nProtein 5g\nTotal Fat 3g\nSugar 12g\nSodium 80mg"
	record := ExtractNutritionRule(text)

	expected := map[string]float64{
		"calories": 120,
		"protein":  5,
		"fats":     3,
		"sugar":    12,
		"sodium":   80,
	}
	for key, want := range expected {
		got, ok := record.Get(key)
		if !ok {
			t.Errorf("expected %s to be extracted", key)
			continue
		}
		if got != want {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
}

func TestExtractNutritionRuleDiscardsOutOfRange(t *testing.T) {
	// The 5000 reading is OCR noise; it must be discarded before the median,
	// not clamped into range.
	text := "sugar 10g sugar 5000g sugar 12g"
	record := ExtractNutritionRule(text)

	got, ok := record.Get("sugar")
	if !ok {
		t.Fatal("expected sugar to be extracted")
	}
	if got != 11 {
		t.Errorf("sugar = %v, want median 11 of in-range values", got)
	}
}

func TestExtractNutritionRuleMasksCompoundFats(t *testing.T) {
	text := "Total Fat 10g\nSaturated Fat 3g\nTrans Fat 1g"
	record := ExtractNutritionRule(text)

	if got, _ := record.Get("fats"); got != 10 {
		t.Errorf("fats = %v, want 10", got)
	}
	if got, _ := record.Get("saturated_fat"); got != 3 {
		t.Errorf("saturated_fat = %v, want 3", got)
	}
	if got, _ := record.Get("trans_fat"); got != 1 {
		t.Errorf("trans_fat = %v, want 1", got)
	}
}

func TestExtractNutritionRuleIgnoresParentheticalValues(t *testing.T) {
	text := "Protein 5g (10g per 100g)"
	record := ExtractNutritionRule(text)

	if got, _ := record.Get("protein"); got != 5 {
		t.Errorf("protein = %v, want 5", got)
	}
}

func TestExtractNutritionRuleServingSize(t *testing.T) {
	text := "Serving Size 30g\nCalories 120"
	record := ExtractNutritionRule(text)

	if got, _ := record.Get("serving_size"); got != 30 {
		t.Errorf("serving_size = %v, want 30", got)
	}
	if record.ServingSizeUnit != string(models.UnitGrams) {
		t.Errorf("serving_size_unit = %q, want %q", record.ServingSizeUnit, models.UnitGrams)
	}
}

func TestCanonicalNutrientKey(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
		ok       bool
	}{
		{"calories", "calories", true},
		{"Total_Fat", "fats", true},
		{"Sugars", "sugar", true},
		{"salt", "sodium", true},
		{"proteins", "protein", true},
		{"saturated fat", "saturated_fat", true},
		{"completely_unknown_thing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := canonicalNutrientKey(tt.raw)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("canonicalNutrientKey(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestNutritionExtractorUsesLLMResult(t *testing.T) {
	client := &fakeClient{response: `{"calories": 120, "protein": 5, "fats": 3}`}
	extractor := NewNutritionExtractor(client)

	record := extractor.Extract(context.Background(), "some label text", nil)
	if got, _ := record.Get("calories"); got != 120 {
		t.Errorf("calories = %v, want 120", got)
	}
	// Unmentioned prompt fields default to zero rather than staying absent.
	if got, ok := record.Get("cholesterol"); !ok || got != 0 {
		t.Errorf("cholesterol = (%v, %v), want explicit zero", got, ok)
	}
}

func TestNutritionExtractorFallsBackOnError(t *testing.T) {
	client := &fakeClient{err: errors.New("model overloaded")}
	extractor := NewNutritionExtractor(client)

	record := extractor.Extract(context.Background(), "Calories 120", nil)
	if got, _ := record.Get("calories"); got != 120 {
		t.Errorf("calories = %v, want rule-based 120", got)
	}
}

func TestValidateAndFillOnlyFillsGaps(t *testing.T) {
	client := &fakeClient{response: `{"calories": 999, "protein": 5}`}
	extractor := NewNutritionExtractor(client)

	var record models.NutritionRecord
	record.Set("calories", 120)

	filled := extractor.ValidateAndFill(context.Background(), record, nil)
	if got, _ := filled.Get("calories"); got != 120 {
		t.Errorf("calories = %v, existing nonzero value must not be overwritten", got)
	}
	if got, _ := filled.Get("protein"); got != 5 {
		t.Errorf("protein = %v, want filled 5", got)
	}
}

func TestValidateAndFillSkipsCompleteRecords(t *testing.T) {
	client := &fakeClient{response: `{}`}
	extractor := NewNutritionExtractor(client)

	var record models.NutritionRecord
	for _, key := range llmNutrientFields {
		record.Set(key, 1)
	}

	extractor.ValidateAndFill(context.Background(), record, nil)
	if client.calls != 0 {
		t.Errorf("expected no LLM call for a complete record, got %d", client.calls)
	}
}

func TestValidateAndFillRejectsOutOfRange(t *testing.T) {
	client := &fakeClient{response: `{"protein": 50000}`}
	extractor := NewNutritionExtractor(client)

	var record models.NutritionRecord
	record.Set("calories", 120)

	filled := extractor.ValidateAndFill(context.Background(), record, nil)
	if _, ok := filled.Get("protein"); ok {
		t.Error("out-of-range fill value must be discarded")
	}
}
