package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/akolanti/DocQA/internal/adapter/utils"
	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/docModel"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/internal/rag/chunker"
	"github.com/akolanti/DocQA/internal/rag/embedding"
	"github.com/akolanti/DocQA/internal/rag/extract"
	"github.com/akolanti/DocQA/internal/rag/vectorindex"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"golang.org/x/sync/semaphore"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrAlreadyProcessing = errors.New("document is already being processed")
)

// Index is the slice of the vector store the pipeline writes through.
type Index interface {
	Rebuild(documentId string, entries []vectorindex.Entry) error
	Delete(documentId string) error
}

// Service drives a document through extract, chunk, embed and index. Exactly
// one terminal status comes out of every run: completed or failed.
type Service interface {
	Process(ctx context.Context, documentId string) error
	Reprocess(ctx context.Context, documentId string) error
	BulkProcess(ctx context.Context, documentIds []string) map[string]error
	Delete(ctx context.Context, documentId string) error
}

type service struct {
	documents docModel.DocumentStore
	embedder  embedding.Embedder
	index     Index
	chunker   *chunker.Chunker
	sem       *semaphore.Weighted
	logger    *logger_i.Logger
}

// NewService constructor
func NewService(documents docModel.DocumentStore, em embedding.Embedder, index Index) Service {
	return &service{
		documents: documents,
		embedder:  em,
		index:     index,
		chunker:   chunker.Default(),
		sem:       semaphore.NewWeighted(config.MaxConcurrentProcessing),
		logger:    logger_i.NewLogger("Pipeline"),
	}
}

func (s *service) Process(ctx context.Context, documentId string) error {
	start := time.Now()

	doc, ok := s.documents.GetDocument(ctx, documentId)
	if !ok {
		return ErrDocumentNotFound
	}
	if doc.ProcessingStatus == docModel.StatusProcessing {
		return ErrAlreadyProcessing
	}

	doc.ProcessingStatus = docModel.StatusProcessing
	doc.ErrorMessage = ""
	if err := s.documents.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("marking document processing: %w", err)
	}

	if err := s.runStages(ctx, &doc); err != nil {
		s.logger.Error("Processing failed", "documentId", documentId, "error", err)
		doc.ProcessingStatus = docModel.StatusFailed
		doc.ErrorMessage = err.Error()
		if saveErr := s.documents.SaveDocument(ctx, doc); saveErr != nil {
			s.logger.Error("Failed to record failure status", "documentId", documentId, "error", saveErr)
		}
		metrics.CountDocumentProcessed("failed")
		return err
	}

	doc.ProcessingStatus = docModel.StatusCompleted
	doc.ProcessedAt = time.Now().UTC()
	if err := s.documents.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("marking document completed: %w", err)
	}

	metrics.CountDocumentProcessed("completed")
	s.logger.Info("Document processed", "documentId", documentId,
		"chunks", doc.ChunkCount, "duration", time.Since(start))
	return nil
}

// Reprocess reruns the pipeline over the stored source file. The old chunks
// and index survive until the rebuild replaces them, so a failed reprocess
// leaves the previous answers intact except for the failed status.
func (s *service) Reprocess(ctx context.Context, documentId string) error {
	return s.Process(ctx, documentId)
}

// BulkProcess runs the pipeline over many documents with bounded
// concurrency. One failed document never stops the rest; the caller gets a
// per-document verdict.
func (s *service) BulkProcess(ctx context.Context, documentIds []string) map[string]error {
	results := make(map[string]error, len(documentIds))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, id := range documentIds {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			results[id] = err
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(documentId string) {
			defer wg.Done()
			defer s.sem.Release(1)
			err := s.Process(ctx, documentId)
			mu.Lock()
			results[documentId] = err
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	return results
}

// Delete removes everything tied to a document: record, chunks, index blob
// and the staged upload. Safe to repeat.
func (s *service) Delete(ctx context.Context, documentId string) error {
	doc, ok := s.documents.GetDocument(ctx, documentId)

	if err := s.index.Delete(documentId); err != nil {
		return fmt.Errorf("deleting index: %w", err)
	}
	if err := s.documents.DeleteChunks(ctx, documentId); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if err := s.documents.DeleteDocument(ctx, documentId); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if ok && doc.FilePath != "" {
		if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove staged upload", "path", doc.FilePath, "error", err)
		}
	}
	return nil
}

func (s *service) runStages(ctx context.Context, doc *docModel.Document) error {
	text, err := s.executeExtractStep(doc)
	if err != nil {
		return err
	}

	chunks := s.executeChunkStep(doc, text)
	if len(chunks) == 0 {
		return errors.New("no usable content after chunking")
	}
	if err := s.documents.SaveChunks(ctx, doc.Id, chunks); err != nil {
		return fmt.Errorf("saving chunks: %w", err)
	}

	vectors, err := s.executeEmbeddingStep(ctx, chunks)
	if err != nil {
		return err
	}

	if err := s.executeIndexStep(doc.Id, chunks, vectors); err != nil {
		return err
	}

	doc.ChunkCount = len(chunks)
	return nil
}

func (s *service) executeExtractStep(doc *docModel.Document) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("extract", time.Since(start)) }()

	data, err := os.ReadFile(doc.FilePath)
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	text, err := extract.Extract(data, doc.FileType)
	if err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}
	return text, nil
}

func (s *service) executeChunkStep(doc *docModel.Document, text string) []docModel.Chunk {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("chunk", time.Since(start)) }()

	chunks := s.chunker.Split(text)
	for i := range chunks {
		chunks[i].Id = utils.GetNewUUID()
		chunks[i].DocumentId = doc.Id
	}
	return chunks
}

func (s *service) executeEmbeddingStep(ctx context.Context, chunks []docModel.Chunk) ([][]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding_batch", time.Since(start)) }()

	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}
	vectors, err := s.embedder.BatchEmbedding(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	return vectors, nil
}

func (s *service) executeIndexStep(documentId string, chunks []docModel.Chunk, vectors [][]float32) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("index_rebuild", time.Since(start)) }()

	entries := make([]vectorindex.Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = vectorindex.Entry{
			ChunkId:    chunk.Id,
			ChunkIndex: chunk.ChunkIndex,
			Vector:     vectors[i],
		}
	}
	if err := s.index.Rebuild(documentId, entries); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}
	return nil
}
