package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/data/redisStore"
	"github.com/akolanti/DocQA/internal/domain/docModel"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

// RedisDocumentStore keeps one JSON record per document and one per-document
// JSON array of chunks. Keys are derived from the document id so cascade
// deletes are two idempotent Del calls.
type RedisDocumentStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisDocumentStore(ctx context.Context) *RedisDocumentStore {
	s := redisStore.GetRedisStore(ctx, config.RedisDocumentStore)
	if s == nil {
		return nil
	}
	return &RedisDocumentStore{
		store:  s,
		logger: logger_i.NewLogger("DocumentStore"),
	}
}

func documentKey(id string) string { return "document:" + id }
func chunksKey(id string) string   { return "chunks:" + id }

func (s *RedisDocumentStore) SaveDocument(ctx context.Context, doc docModel.Document) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", doc.Id)
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	err = s.store.Set(ctx, documentKey(doc.Id), data, 0)
	if err == nil {
		log.Debug("Saved document", "status", doc.ProcessingStatus)
	}
	return err
}

func (s *RedisDocumentStore) GetDocument(ctx context.Context, documentId string) (docModel.Document, bool) {
	var doc docModel.Document
	val, err := s.store.Get(ctx, documentKey(documentId))
	if s.store.IsNil(err) {
		return doc, false
	} else if err != nil {
		s.logger.Error("Error reading document", "documentId", documentId, "error", err)
		return doc, false
	}

	if err = json.Unmarshal([]byte(val), &doc); err != nil {
		return doc, false
	}
	return doc, true
}

func (s *RedisDocumentStore) ListDocuments(ctx context.Context) ([]docModel.Document, error) {
	keys, err := s.store.Keys(ctx, "document:*")
	if err != nil {
		return nil, fmt.Errorf("scanning documents: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.store.MGet(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}

	docs := make([]docModel.Document, 0, len(values))
	for _, val := range values {
		raw, ok := val.(string)
		if !ok {
			continue
		}
		var doc docModel.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			s.logger.Warn("Skipping unreadable document record", "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *RedisDocumentStore) DeleteDocument(ctx context.Context, documentId string) error {
	return s.store.Del(ctx, documentKey(documentId))
}

func (s *RedisDocumentStore) SaveChunks(ctx context.Context, documentId string, chunks []docModel.Chunk) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return err
	}
	// full overwrite so re-processing is idempotent
	return s.store.Set(ctx, chunksKey(documentId), data, 0)
}

func (s *RedisDocumentStore) GetChunks(ctx context.Context, documentId string) ([]docModel.Chunk, error) {
	val, err := s.store.Get(ctx, chunksKey(documentId))
	if s.store.IsNil(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("reading chunks for %s: %w", documentId, err)
	}

	var chunks []docModel.Chunk
	if err = json.Unmarshal([]byte(val), &chunks); err != nil {
		return nil, fmt.Errorf("decoding chunks for %s: %w", documentId, err)
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkIndex < chunks[j].ChunkIndex })
	return chunks, nil
}

func (s *RedisDocumentStore) DeleteChunks(ctx context.Context, documentId string) error {
	return s.store.Del(ctx, chunksKey(documentId))
}

func TestDocumentStore(store *redisStore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}
