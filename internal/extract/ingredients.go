package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go-nutrition-scanner/internal/llm"
)

// PlaceholderIngredient is substituted when every extraction path yields
// nothing, so downstream scoring never sees an empty list.
const PlaceholderIngredient = "No ingredients detected"

// stopKeywords terminate the capture scan. The stop line itself is discarded
// along with everything after it.
var stopKeywords = []string{
	"allergen information",
	"contains",
	"nutrition",
	"calories",
	"may contain",
	"advice",
	"no artificial",
	"for allergens",
	"flavouring substances",
}

var (
	ingredientLabelPattern = regexp.MustCompile(`(?i)ingredients[:\s]*`)
	structuralPunctPattern = regexp.MustCompile(`\s*[;_|.)(%":/](\s|$)`)
	parentheticalPattern   = regexp.MustCompile(`\([^)]*\)`)
	standaloneNumPattern   = regexp.MustCompile(`\b\d+\b`)
	digitWordPattern       = regexp.MustCompile(`\b\w*\d\w*\b`)
)

type captureState int

const (
	stateScanning captureState = iota
	stateCapturing
	stateStopped
)

// CaptureIngredientLines scans raw OCR lines with a three-state machine:
// SCANNING until a line mentions "ingredients", CAPTURING until a stop
// keyword, STOPPED thereafter. A line that carries both "ingredients" and a
// stop keyword stops the scan without being emitted.
func CaptureIngredientLines(text string) []string {
	var captured []string
	state := stateScanning

	for _, line := range strings.Split(text, "\n") {
		normalized := strings.ToLower(strings.TrimSpace(line))

		if state == stateScanning && strings.Contains(normalized, "ingredients") {
			state = stateCapturing
		}

		stopped := false
		for _, keyword := range stopKeywords {
			if strings.Contains(normalized, keyword) {
				stopped = true
				break
			}
		}
		if stopped {
			state = stateStopped
			break
		}

		if state == stateCapturing {
			captured = append(captured, line)
		}
	}
	return captured
}

// FormatIngredients cleans captured text into an ordered ingredient list:
// the "ingredients" label is stripped, structural punctuation becomes comma
// separators, parenthesized asides and digit-bearing tokens are dropped.
// Already-clean input ("a, b, c") passes through unchanged.
func FormatIngredients(text string) []string {
	text = ingredientLabelPattern.ReplaceAllString(text, "")
	text = structuralPunctPattern.ReplaceAllString(text, ", ")
	text = parentheticalPattern.ReplaceAllString(text, "")
	text = standaloneNumPattern.ReplaceAllString(text, "")
	text = digitWordPattern.ReplaceAllString(text, "")

	var items []string
	for _, item := range strings.Split(text, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// ExtractIngredientsRule is the deterministic path: capture window plus
// normalization.
func ExtractIngredientsRule(text string) []string {
	captured := CaptureIngredientLines(text)
	return FormatIngredients(strings.Join(captured, " "))
}

const ingredientsPrompt = `Extract the ingredient list from this food packaging OCR text.

OCR text:
%s

Return ONLY a JSON array of ingredient name strings, in label order.
Split compound ingredients into separate entries. Remove percentages,
parenthetical annotations, and any non-ingredient text.

Example response:
["Water", "Sugar", "Salt"]`

// IngredientExtractor converts raw OCR text into a clean ordered ingredient
// list. The primary path asks the LLM; any failure degrades to the rule-based
// scan, and an empty result degrades to the single-element placeholder.
type IngredientExtractor struct {
	client llm.Client
}

// NewIngredientExtractor creates an extractor. A nil client disables the
// primary path, leaving only the deterministic one.
func NewIngredientExtractor(client llm.Client) *IngredientExtractor {
	return &IngredientExtractor{client: client}
}

// Extract never fails: it returns the LLM result, the rule-based result, or
// the placeholder list, in that order of preference.
func (e *IngredientExtractor) Extract(ctx context.Context, ocrText string, img *llm.Image) []string {
	pipeline := Pipeline[[]string]{
		Name:    "ingredients",
		Primary: e.primary(ocrText, img),
		Validate: func(items []string) error {
			if len(items) == 0 {
				return errEmptyResult
			}
			return nil
		},
		Fallback: func() []string {
			return ExtractIngredientsRule(ocrText)
		},
	}

	items := pipeline.Run(ctx)
	if len(items) == 0 {
		return []string{PlaceholderIngredient}
	}
	return items
}

func (e *IngredientExtractor) primary(ocrText string, img *llm.Image) func(context.Context) ([]string, error) {
	if e.client == nil || strings.TrimSpace(ocrText) == "" {
		return nil
	}
	return func(ctx context.Context) ([]string, error) {
		prompt := fmt.Sprintf(ingredientsPrompt, ocrText)
		var images []llm.Image
		if img != nil {
			images = append(images, *img)
		}
		response, err := e.client.Generate(ctx, prompt, images...)
		if err != nil {
			return nil, err
		}
		items, err := llm.FirstStringArray(response)
		if err != nil {
			return nil, err
		}
		var cleaned []string
		for _, item := range items {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		return cleaned, nil
	}
}
