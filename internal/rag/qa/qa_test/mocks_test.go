package qa_test

import (
	"context"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/rag/vectorindex"
)

// MockEmbedder implements embedding.Embedder
type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, text)
	}
	return make([]float32, config.EmbeddingDimension), nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = make([]float32, config.EmbeddingDimension)
	}
	return vectors, nil
}

func (m *MockEmbedder) Dimension() int { return config.EmbeddingDimension }
func (m *MockEmbedder) Name() string   { return "mock" }

// MockIndex implements qa.Index
type MockIndex struct {
	OnSearch func(documentId string, query []float32, k int, threshold float32) ([]vectorindex.Match, error)
}

func (m *MockIndex) Search(documentId string, query []float32, k int, threshold float32) ([]vectorindex.Match, error) {
	if m.OnSearch != nil {
		return m.OnSearch(documentId, query, k, threshold)
	}
	return nil, vectorindex.ErrIndexNotFound
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnComplete func(ctx context.Context, system string, user string) (string, error)
}

func (m *MockLLM) Complete(ctx context.Context, system string, user string) (string, error) {
	if m.OnComplete != nil {
		return m.OnComplete(ctx, system, user)
	}
	return "mocked llm response", nil
}

func (m *MockLLM) ModelName() string { return "mock-model" }
