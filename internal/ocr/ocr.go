// Package ocr wraps Tesseract for food-label text recognition.
package ocr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"

	apperrors "go-nutrition-scanner/internal/errors"
	"go-nutrition-scanner/internal/preprocess"
)

// Source region tags for recognized fragments.
const (
	RegionFull       = "full"
	RegionBottomCrop = "bottom-crop"
)

// Fragment is one recognized text line, in engine emission order.
type Fragment struct {
	Text       string
	Index      int
	Region     string
	Confidence float64
}

// Result is the recognition output for one image region.
type Result struct {
	Fragments []Fragment
	// Text joins fragments with newlines, preserving reading order.
	Text string
}

// Engine performs text recognition using Tesseract. A gosseract client is
// not safe for concurrent use, so calls are serialized.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewEngine creates a recognition engine for the given Tesseract language.
func NewEngine(language string) (*Engine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	// Uniform block of text matches label panels better than auto layout.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	return &Engine{client: client}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		err := e.client.Close()
		e.client = nil
		return err
	}
	return nil
}

// Recognize runs OCR over one preprocessed image and returns line fragments
// in the order the engine emitted them (no re-sorting). When the engine
// detects zero text regions the returned error is the "no text detected"
// sentinel rather than an empty result.
func (e *Engine) Recognize(img gocv.Mat, region string) (*Result, error) {
	data, err := preprocess.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil, fmt.Errorf("OCR engine is closed")
	}

	if err := e.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set OCR image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	result := &Result{}
	for _, box := range boxes {
		line := strings.TrimSpace(box.Word)
		if line == "" {
			continue
		}
		result.Fragments = append(result.Fragments, Fragment{
			Text:       line,
			Index:      len(result.Fragments),
			Region:     region,
			Confidence: box.Confidence,
		})
	}
	if len(result.Fragments) == 0 {
		return nil, apperrors.NewOCREmptyError("no text detected")
	}

	lines := make([]string, len(result.Fragments))
	for i, f := range result.Fragments {
		lines[i] = f.Text
	}
	result.Text = strings.Join(lines, "\n")
	return result, nil
}

// Merge concatenates results in argument order into one blob, renumbering
// fragment indices. Used by the nutrition branch to combine the full-image
// pass with the bottom-crop pass, full text first.
func Merge(results ...*Result) *Result {
	merged := &Result{}
	var texts []string
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, f := range r.Fragments {
			f.Index = len(merged.Fragments)
			merged.Fragments = append(merged.Fragments, f)
		}
		if r.Text != "" {
			texts = append(texts, r.Text)
		}
	}
	merged.Text = strings.Join(texts, "\n")
	return merged
}
