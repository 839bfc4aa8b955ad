// Package extract converts raw OCR text into structured ingredient and
// nutrition records. Each engine pairs a probabilistic primary extractor
// with a deterministic fallback so that no internal failure ever escapes
// the extraction boundary.
package extract

import (
	"context"
	"errors"

	"go-nutrition-scanner/internal/logger"
)

// errEmptyResult rejects primary results that extracted nothing usable.
var errEmptyResult = errors.New("extraction produced no items")

// Pipeline composes a primary extractor (typically an LLM call plus response
// parsing) with a deterministic fallback. Run never returns an error: a
// failed or invalid primary result degrades to the fallback.
type Pipeline[T any] struct {
	Name     string
	Primary  func(ctx context.Context) (T, error)
	Validate func(T) error
	Fallback func() T
}

// Run executes the primary path and degrades to the fallback on any failure.
func (p Pipeline[T]) Run(ctx context.Context) T {
	if p.Primary != nil {
		result, err := p.Primary(ctx)
		if err == nil && (p.Validate == nil || p.Validate(result) == nil) {
			return result
		}
		if err != nil {
			logger.WithError(err).WithField("extractor", p.Name).
				Info("Primary extraction failed, using deterministic fallback")
		} else {
			logger.WithField("extractor", p.Name).
				Info("Primary extraction result rejected, using deterministic fallback")
		}
	}
	return p.Fallback()
}
