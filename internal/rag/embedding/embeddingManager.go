package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var ErrValidation = errors.New("embedding validation failed")

// Embedder maps text to fixed-width vectors. Two interchangeable backends
// exist: the model backend (remote sentence-embedding API) and the hash
// fallback. Callers must not assume semantic similarity when the fallback is
// active - it encodes lexical features only.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Name() string
}

// ValidateVector rejects wrong-width or non-finite vectors. A failed
// validation aborts the caller's whole operation; partial results are never
// indexed.
func ValidateVector(vector []float32, dimension int) error {
	if len(vector) != dimension {
		return fmt.Errorf("%w: got dimension %d, want %d", ErrValidation, len(vector), dimension)
	}
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value at position %d", ErrValidation, i)
		}
	}
	return nil
}

// ValidateBatch additionally requires the batch to be rectangular and to
// match the input count.
func ValidateBatch(vectors [][]float32, count, dimension int) error {
	if len(vectors) != count {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrValidation, len(vectors), count)
	}
	for i, vector := range vectors {
		if err := ValidateVector(vector, dimension); err != nil {
			return fmt.Errorf("vector %d: %w", i, err)
		}
	}
	return nil
}
