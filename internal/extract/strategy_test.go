package extract

import (
	"context"
	"errors"
	"testing"
)

func TestPipelineUsesPrimaryResult(t *testing.T) {
	p := Pipeline[string]{
		Name:     "test",
		Primary:  func(ctx context.Context) (string, error) { return "primary", nil },
		Fallback: func() string { return "fallback" },
	}
	if got := p.Run(context.Background()); got != "primary" {
		t.Errorf("Run() = %q, want primary result", got)
	}
}

func TestPipelineFallsBackOnError(t *testing.T) {
	p := Pipeline[string]{
		Name:     "test",
		Primary:  func(ctx context.Context) (string, error) { return "", errors.New("boom") },
		Fallback: func() string { return "fallback" },
	}
	if got := p.Run(context.Background()); got != "fallback" {
		t.Errorf("Run() = %q, want fallback result", got)
	}
}

func TestPipelineFallsBackOnRejectedResult(t *testing.T) {
	p := Pipeline[[]string]{
		Name:    "test",
		Primary: func(ctx context.Context) ([]string, error) { return nil, nil },
		Validate: func(items []string) error {
			if len(items) == 0 {
				return errEmptyResult
			}
			return nil
		},
		Fallback: func() []string { return []string{"fallback"} },
	}
	got := p.Run(context.Background())
	if len(got) != 1 || got[0] != "fallback" {
		t.Errorf("Run() = %v, want fallback result", got)
	}
}

func TestPipelineWithoutPrimary(t *testing.T) {
	p := Pipeline[int]{
		Name:     "test",
		Fallback: func() int { return 42 },
	}
	if got := p.Run(context.Background()); got != 42 {
		t.Errorf("Run() = %d, want fallback result", got)
	}
}
