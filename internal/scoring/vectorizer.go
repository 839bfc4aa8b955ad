package scoring

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	apperrors "go-nutrition-scanner/internal/errors"
	"go-nutrition-scanner/internal/logger"
)

// Vectorizer is the fixed pretrained TF-IDF transform that maps ingredient
// text onto the feature space the ingredient model was trained in.
type Vectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// Tokens of two or more word characters, matching the training-side
// tokenizer.
var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// LoadVectorizer reads a vectorizer artifact, tolerating both supported
// serialization formats: JSON first, then the legacy gob export.
func LoadVectorizer(path string) (*Vectorizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewModelUnavailableError("vectorizer artifact not readable", err)
	}

	var v Vectorizer
	if jsonErr := json.Unmarshal(data, &v); jsonErr == nil {
		if err := v.check(); err != nil {
			return nil, apperrors.NewModelUnavailableError("vectorizer artifact invalid", err)
		}
		return &v, nil
	} else {
		logger.WithError(jsonErr).WithField("path", path).
			Debug("Vectorizer is not JSON, trying gob format")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewModelUnavailableError("vectorizer artifact not readable", err)
	}
	defer f.Close()
	if gobErr := gob.NewDecoder(f).Decode(&v); gobErr != nil {
		return nil, apperrors.NewModelUnavailableError("vectorizer artifact not in any supported format", gobErr)
	}
	if err := v.check(); err != nil {
		return nil, apperrors.NewModelUnavailableError("vectorizer artifact invalid", err)
	}
	return &v, nil
}

func (v *Vectorizer) check() error {
	if len(v.Vocabulary) == 0 {
		return fmt.Errorf("empty vocabulary")
	}
	if len(v.IDF) != len(v.Vocabulary) {
		return fmt.Errorf("idf length %d does not match vocabulary size %d", len(v.IDF), len(v.Vocabulary))
	}
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= len(v.IDF) {
			return fmt.Errorf("term %q maps to out-of-range index %d", term, idx)
		}
	}
	return nil
}

// Size returns the feature-space dimensionality.
func (v *Vectorizer) Size() int {
	return len(v.IDF)
}

// Transform maps text to an L2-normalized TF-IDF feature vector.
func (v *Vectorizer) Transform(text string) []float32 {
	features := make([]float32, len(v.IDF))

	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if idx, ok := v.Vocabulary[token]; ok {
			features[idx] += float32(v.IDF[idx])
		}
	}

	var norm float64
	for _, f := range features {
		norm += float64(f) * float64(f)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range features {
			features[i] *= scale
		}
	}
	return features
}
