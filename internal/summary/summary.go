// Package summary turns a scored analysis into a short human-readable
// explanation.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go-nutrition-scanner/internal/llm"
	"go-nutrition-scanner/internal/logger"
	"go-nutrition-scanner/pkg/models"
)

// Category buckets a total score into a coarse label.
func Category(totalScore float64) string {
	switch {
	case totalScore >= 8:
		return "excellent"
	case totalScore >= 6:
		return "good"
	case totalScore >= 4:
		return "moderate"
	default:
		return "poor"
	}
}

// FallbackText is the templated one-liner used when generation fails.
func FallbackText(totalScore float64) string {
	return fmt.Sprintf("This product received a %s health score of %.1f/10.", Category(totalScore), totalScore)
}

const analysisPrompt = `As a nutritional expert, analyze the following food product based on its ingredients and nutrition facts.

Ingredients: %s

Nutrition Facts: %s

Model Scores:
- Ingredients Quality Score: %.2f/10
- Nutritional Value Score: %.2f/10
- Overall Health Score: %.2f/10
- General Category: %s

Generate a 2-3 sentence analysis summary that explains:
1. Why this product received its score
2. Key concerns or benefits from ingredients
3. A brief recommendation based on the nutritional profile

Keep the summary concise, factual, and actionable.`

// Summarizer produces analysis summaries with an LLM, degrading to the fixed
// template. Generation failure never blocks the rest of the pipeline.
type Summarizer struct {
	client llm.Client
}

// NewSummarizer creates a summarizer. A nil client always yields the
// template.
func NewSummarizer(client llm.Client) *Summarizer {
	return &Summarizer{client: client}
}

// Generate returns a 2-3 sentence explanation of the score, or the fallback
// template on any failure.
func (s *Summarizer) Generate(ctx context.Context, ingredients []string, nutrition models.NutritionRecord, scores models.ScoreBundle) string {
	total := scores.TotalScore()
	if s.client == nil {
		return FallbackText(total)
	}

	nutritionJSON, err := json.Marshal(nutrition)
	if err != nil {
		nutritionJSON = []byte("{}")
	}
	prompt := fmt.Sprintf(analysisPrompt,
		strings.Join(ingredients, ", "),
		string(nutritionJSON),
		scores.IngredientsScore,
		scores.NutritionScore,
		total,
		Category(total),
	)

	text, err := s.client.Generate(ctx, prompt)
	if err != nil {
		logger.WithError(err).Warn("Summary generation failed, using template")
		return FallbackText(total)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackText(total)
	}
	return text
}
