package store

import (
	"context"
	"sort"
	"sync"

	"github.com/akolanti/DocQA/internal/domain/docModel"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem DocumentStore")

type InMemoryDocumentStore struct {
	mu        *sync.RWMutex
	documents map[string]docModel.Document
	chunks    map[string][]docModel.Chunk
}

func InitInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		mu:        new(sync.RWMutex),
		documents: make(map[string]docModel.Document),
		chunks:    make(map[string][]docModel.Chunk),
	}
}

func (s *InMemoryDocumentStore) SaveDocument(ctx context.Context, doc docModel.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.Id] = doc
	inMemLogger.Debug("Saved document", "documentId", doc.Id, "status", doc.ProcessingStatus)
	return nil
}

func (s *InMemoryDocumentStore) GetDocument(ctx context.Context, documentId string) (docModel.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, found := s.documents[documentId]
	return result, found
}

func (s *InMemoryDocumentStore) ListDocuments(ctx context.Context) ([]docModel.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]docModel.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *InMemoryDocumentStore) DeleteDocument(ctx context.Context, documentId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, documentId)
	return nil
}

func (s *InMemoryDocumentStore) SaveChunks(ctx context.Context, documentId string, chunks []docModel.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]docModel.Chunk, len(chunks))
	copy(copied, chunks)
	s.chunks[documentId] = copied
	return nil
}

func (s *InMemoryDocumentStore) GetChunks(ctx context.Context, documentId string) ([]docModel.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.chunks[documentId]
	result := make([]docModel.Chunk, len(stored))
	copy(result, stored)
	sort.Slice(result, func(i, j int) bool { return result[i].ChunkIndex < result[j].ChunkIndex })
	return result, nil
}

func (s *InMemoryDocumentStore) DeleteChunks(ctx context.Context, documentId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, documentId)
	return nil
}
