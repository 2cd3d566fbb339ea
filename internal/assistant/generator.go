// Package assistant talks to the hosted text-generation model and builds
// the prompts sent to it.
package assistant

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoAPIKey      = errors.New("no API key configured")
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// Generator turns a prompt into text. Implementations must not retry.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// GenerationError wraps any provider, network, or key failure.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsGeneration reports whether err is (or wraps) a GenerationError.
func IsGeneration(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}
