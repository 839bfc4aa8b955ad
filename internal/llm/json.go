package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	apperrors "go-nutrition-scanner/internal/errors"
)

var (
	arrayPattern  = regexp.MustCompile(`(?s)\[.*?\]`)
	objectPattern = regexp.MustCompile(`(?s)\{.*?\}`)
	// Greedy variant catches objects with nested braces.
	objectPatternGreedy = regexp.MustCompile(`(?s)\{.*\}`)
)

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// FirstStringArray scans free-form text for the first well-formed JSON array
// of strings, tolerating surrounding prose and markdown fences.
func FirstStringArray(text string) ([]string, error) {
	text = stripFences(text)
	for _, candidate := range arrayPattern.FindAllString(text, -1) {
		var items []string
		if err := json.Unmarshal([]byte(candidate), &items); err == nil {
			return items, nil
		}
	}
	return nil, apperrors.NewLLMError("no JSON array found in response", nil)
}

// FirstObject scans free-form text for the first well-formed JSON object and
// returns it as a generic map.
func FirstObject(text string) (map[string]interface{}, error) {
	text = stripFences(text)
	candidates := objectPattern.FindAllString(text, -1)
	if greedy := objectPatternGreedy.FindString(text); greedy != "" {
		candidates = append(candidates, greedy)
	}
	for _, candidate := range candidates {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return obj, nil
		}
	}
	return nil, apperrors.NewLLMError("no JSON object found in response", nil)
}

// NumberField coerces a generic JSON value into a float64 where possible.
func NumberField(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		var f float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(n)), &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
