package extract

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/arbovm/levenshtein"

	"go-nutrition-scanner/internal/llm"
	"go-nutrition-scanner/pkg/models"
)

// Values outside this range are treated as OCR noise and discarded, never
// clamped.
const (
	minNutrientValue = 0.0
	maxNutrientValue = 1000.0
)

// nutrientPattern extracts candidate values for one nutrient key.
type nutrientPattern struct {
	key string
	re  *regexp.Regexp
	// maskPhrases are removed from the text before matching, so that e.g.
	// the bare "fat" pattern does not also hit "saturated fat" entries.
	maskPhrases []string
}

var nutrientPatterns = []nutrientPattern{
	{key: "calories", re: regexp.MustCompile(`(?:calories|kcal)[:\s]*?(\d+(?:\.\d+)?)|(\d+(?:\.\d+)?)\s*(?:kcal|calories)\b`)},
	{key: "protein", re: regexp.MustCompile(`proteins?\s*:?\s*(\d+(?:\.\d+)?)\s*(?:g|grams)\b`)},
	{key: "fats", re: regexp.MustCompile(`(?:total fat|lipids|fats?)\s*:?\s*(\d+(?:\.\d+)?)\s*(?:g|grams)\b`),
		maskPhrases: []string{"saturated fat", "trans fat"}},
	{key: "carbohydrates", re: regexp.MustCompile(`(?:total carbohydrates?|carbohydrates?|carbs)\s*:?\s*(\d+(?:\.\d+)?)\s*(?:g|grams)\b`)},
	{key: "sugar", re: regexp.MustCompile(`sugars?\s*:?\s*(\d+(?:\.\d+)?)\s*(?:g|grams)\b`)},
	{key: "sodium", re: regexp.MustCompile(`(?:sodium|salt)\s*:?\s*(\d+(?:\.\d+)?)\s*(?:mg|milligrams)\b`)},
	{key: "fiber", re: regexp.MustCompile(`(?:dietary fib(?:er|re)|fib(?:er|re))\s*:?\s*(\d+(?:\.\d+)?)\s*(?:g|grams)\b`)},
	{key: "energy", re: regexp.MustCompile(`energy\s*:?\s*(\d+(?:\.\d+)?)\s*(?:kcal|kj|calories)\b`)},
	{key: "saturated_fat", re: regexp.MustCompile(`saturated fat\s*:?\s*(\d+(?:\.\d+)?)\s*(?:g|grams)\b`)},
	{key: "trans_fat", re: regexp.MustCompile(`trans fat\s*:?\s*(\d+(?:\.\d+)?)\s*(?:g|grams)\b`)},
	{key: "calcium", re: regexp.MustCompile(`calcium\s*:?\s*(\d+(?:\.\d+)?)\s*(?:mg|milligrams)\b`)},
	{key: "iron", re: regexp.MustCompile(`iron\s*:?\s*(\d+(?:\.\d+)?)\s*(?:mg|milligrams)\b`)},
	{key: "vitamin_a", re: regexp.MustCompile(`vitamin a\s*:?\s*(\d+(?:\.\d+)?)\s*(?:iu|international units|mcg)\b`)},
	{key: "vitamin_c", re: regexp.MustCompile(`vitamin c\s*:?\s*(\d+(?:\.\d+)?)\s*(?:mg|milligrams)\b`)},
	{key: "cholesterol", re: regexp.MustCompile(`cholesterol\s*:?\s*(\d+(?:\.\d+)?)\s*(?:mg|milligrams)\b`)},
}

var servingSizePattern = regexp.MustCompile(`serving size\s*:?\s*(\d+(?:\.\d+)?)\s*(g|grams|ml|milliliters|oz|ounces)\b`)

var (
	decimalCommaPattern = regexp.MustCompile(`(\d),(\d)`)
	bracketedPattern    = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	// Keeps word chars, dots, colons, whitespace, and the paren/bracket
	// delimiters that the parenthetical strip needs.
	noisePunctPattern  = regexp.MustCompile(`[^\w.:\s()\[\]]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	servingUnitAliases = map[string]models.ServingUnit{
		"g": models.UnitGrams, "grams": models.UnitGrams,
		"ml": models.UnitMilliliters, "milliliters": models.UnitMilliliters,
		"oz": models.UnitOunces, "ounces": models.UnitOunces,
	}
)

// NormalizeNutritionText prepares OCR text for pattern matching: lowercase,
// decimal commas to dots, noise punctuation and parenthetical content
// removed, whitespace collapsed. Stripping parentheticals up front is what
// keeps "(15g)" daily-value annotations from matching any nutrient pattern.
func NormalizeNutritionText(text string) string {
	text = strings.ToLower(text)
	text = decimalCommaPattern.ReplaceAllString(text, "$1.$2")
	text = noisePunctPattern.ReplaceAllString(text, " ")
	text = bracketedPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// median aggregates candidate values; it is robust against a stray large
// number that survived normalization.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	var m float64
	if n%2 == 1 {
		m = sorted[n/2]
	} else {
		m = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return math.Round(m*100) / 100
}

func inRange(v float64) bool {
	return v >= minNutrientValue && v <= maxNutrientValue
}

// ExtractNutritionRule is the deterministic path: per-nutrient find-all
// pattern matching, range filtering to [0,1000], and median aggregation.
func ExtractNutritionRule(text string) models.NutritionRecord {
	normalized := NormalizeNutritionText(text)

	var record models.NutritionRecord
	for _, p := range nutrientPatterns {
		haystack := normalized
		for _, phrase := range p.maskPhrases {
			haystack = strings.ReplaceAll(haystack, phrase, " ")
		}

		var candidates []float64
		for _, match := range p.re.FindAllStringSubmatch(haystack, -1) {
			for _, group := range match[1:] {
				if group == "" {
					continue
				}
				value, err := strconv.ParseFloat(group, 64)
				if err != nil || !inRange(value) {
					continue
				}
				candidates = append(candidates, value)
			}
		}
		if len(candidates) > 0 {
			record.Set(p.key, median(candidates))
		}
	}

	if match := servingSizePattern.FindStringSubmatch(normalized); match != nil {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil && inRange(value) {
			record.Set("serving_size", value)
			if unit, ok := servingUnitAliases[match[2]]; ok {
				record.ServingSizeUnit = string(unit)
			}
		}
	}

	return record
}

// nutrientKeySynonyms maps key spellings an LLM tends to use onto the
// canonical schema.
var nutrientKeySynonyms = map[string]string{
	"total_fat":     "fats",
	"fat":           "fats",
	"carbs":         "carbohydrates",
	"total_carbs":   "carbohydrates",
	"carbohydrate":  "carbohydrates",
	"sugars":        "sugar",
	"salt":          "sodium",
	"sat_fat":       "saturated_fat",
	"saturated":     "saturated_fat",
	"transfat":      "trans_fat",
	"kcal":          "calories",
	"dietary_fiber": "fiber",
	"fibre":         "fiber",
}

// canonicalNutrientKey resolves an arbitrary key to the closed schema:
// exact match, then synonym table, then a levenshtein near-miss within
// distance 2 (catches OCR-flavored typos like "proteins" or "sodiumm").
func canonicalNutrientKey(raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "_")

	for _, known := range models.NutrientKeys {
		if key == known {
			return known, true
		}
	}
	if mapped, ok := nutrientKeySynonyms[key]; ok {
		return mapped, true
	}

	best, bestDist := "", 3
	for _, known := range models.NutrientKeys {
		if known == "serving_size_unit" {
			continue
		}
		if d := levenshtein.Distance(key, known); d < bestDist {
			best, bestDist = known, d
		}
	}
	if best != "" {
		return best, true
	}
	return "", false
}

// llmNutrientFields are the fields the primary prompt asks for; anything the
// model leaves out defaults to zero.
var llmNutrientFields = []string{
	"calories", "protein", "fats", "carbohydrates", "sugar",
	"sodium", "saturated_fat", "trans_fat", "cholesterol",
}

const nutritionPrompt = `Extract nutrition facts from this food label OCR text.

OCR text:
%s

Return ONLY a JSON object with exactly these numeric fields (per serving,
use 0 for anything not found on the label):
calories, protein, fats, carbohydrates, sugar, sodium, saturated_fat, trans_fat, cholesterol

Example response:
{"calories": 120, "protein": 5, "fats": 3, "carbohydrates": 20, "sugar": 12, "sodium": 80, "saturated_fat": 1, "trans_fat": 0, "cholesterol": 0}`

const nutritionFillPrompt = `This nutrition data extracted from a food label has missing (zero) fields:

%s

Missing fields: %s

Look at the label again and return ONLY a JSON object containing values for
the missing fields you can determine. Omit fields you cannot determine.`

// NutritionExtractor converts raw OCR text into a normalized nutrient map.
type NutritionExtractor struct {
	client llm.Client
}

// NewNutritionExtractor creates an extractor. A nil client disables the
// primary and validation passes.
func NewNutritionExtractor(client llm.Client) *NutritionExtractor {
	return &NutritionExtractor{client: client}
}

// Extract never fails: on any primary-path error it degrades to the
// deterministic regex result.
func (e *NutritionExtractor) Extract(ctx context.Context, ocrText string, img *llm.Image) models.NutritionRecord {
	pipeline := Pipeline[models.NutritionRecord]{
		Name:    "nutrition",
		Primary: e.primary(ocrText, img),
		Validate: func(record models.NutritionRecord) error {
			if record.IsEmpty() {
				return errEmptyResult
			}
			return nil
		},
		Fallback: func() models.NutritionRecord {
			return ExtractNutritionRule(ocrText)
		},
	}
	return pipeline.Run(ctx)
}

func (e *NutritionExtractor) primary(ocrText string, img *llm.Image) func(context.Context) (models.NutritionRecord, error) {
	if e.client == nil || strings.TrimSpace(ocrText) == "" {
		return nil
	}
	return func(ctx context.Context) (models.NutritionRecord, error) {
		var record models.NutritionRecord

		prompt := fmt.Sprintf(nutritionPrompt, ocrText)
		var images []llm.Image
		if img != nil {
			images = append(images, *img)
		}
		response, err := e.client.Generate(ctx, prompt, images...)
		if err != nil {
			return record, err
		}
		obj, err := llm.FirstObject(response)
		if err != nil {
			return record, err
		}

		for rawKey, rawValue := range obj {
			key, ok := canonicalNutrientKey(rawKey)
			if !ok {
				continue
			}
			value, ok := llm.NumberField(rawValue)
			if !ok || !inRange(value) {
				continue
			}
			record.Set(key, value)
		}
		// Anything the model skipped defaults to zero.
		for _, key := range llmNutrientFields {
			if _, ok := record.Get(key); !ok {
				record.Set(key, 0)
			}
		}
		return record, nil
	}
}

// ValidateAndFill issues a second pass asking the model to fill fields that
// are still zero or missing. Existing nonzero values are never overwritten,
// and only plausible replacements inside [0,1000] are accepted.
func (e *NutritionExtractor) ValidateAndFill(ctx context.Context, record models.NutritionRecord, img *llm.Image) models.NutritionRecord {
	if e.client == nil {
		return record
	}

	var missing []string
	for _, key := range llmNutrientFields {
		if v, ok := record.Get(key); !ok || v == 0 {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return record
	}

	current := make([]string, 0, len(llmNutrientFields))
	for _, key := range llmNutrientFields {
		current = append(current, fmt.Sprintf("%s: %.2f", key, record.ValueOrZero(key)))
	}
	prompt := fmt.Sprintf(nutritionFillPrompt, strings.Join(current, ", "), strings.Join(missing, ", "))

	var images []llm.Image
	if img != nil {
		images = append(images, *img)
	}
	response, err := e.client.Generate(ctx, prompt, images...)
	if err != nil {
		return record
	}
	obj, err := llm.FirstObject(response)
	if err != nil {
		return record
	}

	for rawKey, rawValue := range obj {
		key, ok := canonicalNutrientKey(rawKey)
		if !ok {
			continue
		}
		if existing, present := record.Get(key); present && existing != 0 {
			continue
		}
		value, ok := llm.NumberField(rawValue)
		if !ok || !inRange(value) {
			continue
		}
		record.Set(key, value)
	}
	return record
}
