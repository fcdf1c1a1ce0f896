package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/customHttpClient"
	"github.com/akolanti/DocQA/internal/rag/embedding"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger = logger_i.NewLogger("openai_embedding")

// Embedder is the model-backed embedding backend. Vectors are requested at
// the configured dimension so they are interchangeable with the fallback
// encoder, and every response is validated before it reaches the index.
type Embedder struct {
	client    openai.Client
	model     string
	dimension int
	batchSize int
}

func NewEmbedder(apiKey string) (*Embedder, error) {
	if apiKey == "" {
		return nil, errors.New("embedding api key is empty")
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(customHttpClient.Pooled()),
	)
	return &Embedder{
		client:    client,
		model:     config.EmbeddingModelName,
		dimension: config.EmbeddingDimension,
		batchSize: config.EmbeddingBatchSize,
	}, nil
}

func (e *Embedder) Name() string   { return e.model }
func (e *Embedder) Dimension() int { return e.dimension }

func (e *Embedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.BatchEmbedding(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
	}

	if err := embedding.ValidateBatch(vectors, len(texts), e.dimension); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
			Model:      e.model,
			Dimensions: openai.Int(int64(e.dimension)),
		})
		if err != nil {
			if isRetryable(err) {
				logger.Warn("Embedding request failed, retrying", "error", err)
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Data) != len(texts) {
			return backoff.Permanent(fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)))
		}

		vectors = make([][]float32, len(texts))
		for _, data := range resp.Data {
			vectors[data.Index] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = config.CompletionTimeout
	if err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.WithContext(b, ctx), config.CompletionMaxRetries)); err != nil {
		return nil, err
	}
	return vectors, nil
}

// isRetryable treats rate limits and server-side failures as transient.
func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
