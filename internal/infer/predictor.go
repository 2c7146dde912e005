package infer

import (
	"context"
	"errors"
)

var (
	// ErrModelInference covers unreachable artifacts, malformed artifact
	// contents, and output shape mismatches. Fatal, never retried.
	ErrModelInference = errors.New("model inference failure")
)

// Predictor maps a batch of decoded sequences to one raw activity vector
// per sequence, one entry per cell class. The loaded model is read-only
// after construction and safe to share across rounds.
type Predictor interface {
	Cells() int
	Alphabet() string
	Predict(ctx context.Context, sequences []string) ([][]float64, error)
}
