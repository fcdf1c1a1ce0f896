package qa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocQA/internal/adapter/utils"
	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/docModel"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/internal/rag/embedding"
	"github.com/akolanti/DocQA/internal/rag/llm"
	"github.com/akolanti/DocQA/internal/rag/vectorindex"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentNotReady = errors.New("document is not yet processed")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
)

const notFoundAnswer = "I couldn't find relevant information in the document to answer your question."

// Index is the slice of the vector store the QA side needs. Narrowing it here
// lets tests swap in a canned searcher.
type Index interface {
	Search(documentId string, query []float32, k int, threshold float32) ([]vectorindex.Match, error)
}

// Source points an answer back at the chunk it came from.
type Source struct {
	ChunkId        string  `json:"chunk_id"`
	PageNumber     int     `json:"page_number"`
	ContentPreview string  `json:"content_preview"`
	RelevanceScore float32 `json:"relevance_score"`
}

// Answer is the full result of one question.
type Answer struct {
	InteractionId   string   `json:"interaction_id"`
	DocumentId      string   `json:"document_id"`
	Answer          string   `json:"answer"`
	ConfidenceScore float32  `json:"confidence_score"`
	Sources         []Source `json:"sources"`
	ChunksUsed      int      `json:"chunks_used"`
	ProcessingTime  float64  `json:"processing_time"`
}

// Passage is one hit from a raw relevance search, no model involved.
type Passage struct {
	Content        string  `json:"content"`
	Preview        string  `json:"preview"`
	PageNumber     int     `json:"page_number"`
	ChunkIndex     int     `json:"chunk_index"`
	RelevanceScore float32 `json:"relevance_score"`
}

// Concept is one extracted topic with a model-assigned importance.
type Concept struct {
	Concept     string  `json:"concept"`
	Description string  `json:"description"`
	Importance  float64 `json:"importance"`
}

type SummaryType string

const (
	SummaryBrief         SummaryType = "brief"
	SummaryComprehensive SummaryType = "comprehensive"
	SummaryKeyPoints     SummaryType = "key_points"
)

// AskOptions tune one question. Zero values fall back to the configured
// retrieval defaults.
type AskOptions struct {
	MaxChunks     int //top-k retrieval cap
	ContextWindow int //token budget for the prompt context
}

// Service answers questions about processed documents. Handlers only see
// this contract; the retrieval machinery stays behind it.
type Service interface {
	Ask(ctx context.Context, documentId string, question string, opts AskOptions) (Answer, error)
	Summarize(ctx context.Context, documentId string, summaryType SummaryType, maxWords int) (string, error)
	ExtractConcepts(ctx context.Context, documentId string, max int) ([]Concept, error)
	SearchPassages(ctx context.Context, documentId string, query string, maxResults int, threshold float32) ([]Passage, error)
	History(ctx context.Context, documentId string, limit int) ([]docModel.QAInteraction, error)
	RateAnswer(ctx context.Context, interactionId string, rating int, feedback string) error
}

type service struct {
	embedder     embedding.Embedder
	index        Index
	llmProvider  llm.Provider
	documents    docModel.DocumentStore
	interactions docModel.InteractionStore
	logger       *logger_i.Logger
}

// NewService constructor
func NewService(em embedding.Embedder, index Index, llm llm.Provider,
	documents docModel.DocumentStore, interactions docModel.InteractionStore) Service {
	return &service{
		embedder:     em,
		index:        index,
		llmProvider:  llm,
		documents:    documents,
		interactions: interactions,
		logger:       logger_i.NewLogger("QA Service"),
	}
}

func (s *service) Ask(ctx context.Context, documentId string, question string, opts AskOptions) (Answer, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("qa_ask", time.Since(start)) }()

	doc, err := s.readyDocument(ctx, documentId)
	if err != nil {
		return Answer{}, err
	}

	topK := opts.MaxChunks
	if topK <= 0 {
		topK = config.SearchTopK
	}
	budget := opts.ContextWindow
	if budget <= 0 {
		budget = config.ContextWindow
	}

	queryVector, err := s.executeEmbeddingStep(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("embedding question: %w", err)
	}

	matches, err := s.executeSearchStep(documentId, queryVector, topK, config.RelevanceThreshold)
	if err != nil && !errors.Is(err, vectorindex.ErrIndexNotFound) {
		return Answer{}, fmt.Errorf("searching index: %w", err)
	}

	if len(matches) == 0 {
		return Answer{
			DocumentId:      documentId,
			Answer:          notFoundAnswer,
			ConfidenceScore: 0.0,
			Sources:         []Source{},
			ChunksUsed:      0,
			ProcessingTime:  time.Since(start).Seconds(),
		}, nil
	}

	chunks, err := s.matchedChunks(ctx, documentId, matches)
	if err != nil {
		return Answer{}, err
	}

	contextChunks, sources := buildContext(chunks, matches, budget)

	system, user := answerPrompt(doc.Title, question, contextChunks)
	answer, err := s.executeLLMStep(ctx, system, user)
	if err != nil {
		return Answer{}, fmt.Errorf("generating answer: %w", err)
	}

	confidence := confidenceScore(answer, len(contextChunks))

	interaction := docModel.QAInteraction{
		Id:              utils.GetNewUUID(),
		DocumentId:      documentId,
		Question:        question,
		Answer:          answer,
		ConfidenceScore: confidence,
		ChunksUsed:      len(contextChunks),
		ProcessingTime:  time.Since(start).Seconds(),
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.interactions.SaveInteraction(ctx, interaction); err != nil {
		// the answer is still good; history just misses an entry
		s.logger.Error("Failed to persist interaction", "error", err, "documentId", documentId)
	}

	return Answer{
		InteractionId:   interaction.Id,
		DocumentId:      documentId,
		Answer:          answer,
		ConfidenceScore: confidence,
		Sources:         sources,
		ChunksUsed:      len(contextChunks),
		ProcessingTime:  time.Since(start).Seconds(),
	}, nil
}

func (s *service) Summarize(ctx context.Context, documentId string, summaryType SummaryType, maxWords int) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("qa_summarize", time.Since(start)) }()

	doc, err := s.readyDocument(ctx, documentId)
	if err != nil {
		return "", err
	}
	if maxWords <= 0 {
		maxWords = 500
	}

	chunks, err := s.documents.GetChunks(ctx, documentId)
	if err != nil {
		return "", fmt.Errorf("loading chunks: %w", err)
	}
	if len(chunks) == 0 {
		return "", errors.New("no content available for summary")
	}
	if len(chunks) > summaryChunkLimit {
		chunks = chunks[:summaryChunkLimit]
	}

	system, user := summaryPrompt(doc.Title, summaryType, maxWords, chunks)
	return s.executeLLMStep(ctx, system, user)
}

func (s *service) ExtractConcepts(ctx context.Context, documentId string, max int) ([]Concept, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("qa_concepts", time.Since(start)) }()

	doc, err := s.readyDocument(ctx, documentId)
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		max = maxConcepts
	}

	// sample representative chunks rather than the whole document
	seed, err := s.executeEmbeddingStep(ctx, "key concepts main topics")
	if err != nil {
		return nil, fmt.Errorf("embedding concept query: %w", err)
	}
	matches, err := s.executeSearchStep(documentId, seed, conceptSampleSize, 0)
	if err != nil {
		if errors.Is(err, vectorindex.ErrIndexNotFound) {
			return []Concept{}, nil
		}
		return nil, fmt.Errorf("sampling chunks: %w", err)
	}
	if len(matches) == 0 {
		return []Concept{}, nil
	}
	chunks, err := s.matchedChunks(ctx, documentId, matches)
	if err != nil {
		return nil, err
	}
	contents := make([]string, 0, len(matches))
	for _, m := range matches {
		if chunk, ok := chunks[m.ChunkId]; ok {
			contents = append(contents, chunk.Content)
		}
	}

	system, user := conceptPrompt(doc.Title, contents)
	raw, err := s.executeLLMStep(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("extracting concepts: %w", err)
	}
	concepts := parseConcepts(raw)
	if len(concepts) > max {
		concepts = concepts[:max]
	}
	return concepts, nil
}

func (s *service) SearchPassages(ctx context.Context, documentId string, query string, maxResults int, threshold float32) ([]Passage, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("qa_search", time.Since(start)) }()

	if _, err := s.readyDocument(ctx, documentId); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	queryVector, err := s.executeEmbeddingStep(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	matches, err := s.executeSearchStep(documentId, queryVector, maxResults, threshold)
	if err != nil {
		if errors.Is(err, vectorindex.ErrIndexNotFound) {
			return []Passage{}, nil
		}
		return nil, fmt.Errorf("searching index: %w", err)
	}

	chunks, err := s.matchedChunks(ctx, documentId, matches)
	if err != nil {
		return nil, err
	}

	passages := make([]Passage, 0, len(matches))
	for _, m := range matches {
		chunk, ok := chunks[m.ChunkId]
		if !ok {
			continue
		}
		passages = append(passages, Passage{
			Content:        chunk.Content,
			Preview:        preview(chunk.Content, 200),
			PageNumber:     chunk.PageNumber,
			ChunkIndex:     chunk.ChunkIndex,
			RelevanceScore: m.Score,
		})
	}
	return passages, nil
}

func (s *service) History(ctx context.Context, documentId string, limit int) ([]docModel.QAInteraction, error) {
	if _, ok := s.documents.GetDocument(ctx, documentId); !ok {
		return nil, ErrDocumentNotFound
	}
	if limit <= 0 {
		limit = 50
	}
	return s.interactions.ListInteractions(ctx, documentId, limit)
}

func (s *service) RateAnswer(ctx context.Context, interactionId string, rating int, feedback string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return s.interactions.UpdateRating(ctx, interactionId, rating, feedback)
}

// readyDocument gates every retrieval path: the document must exist and have
// finished processing.
func (s *service) readyDocument(ctx context.Context, documentId string) (docModel.Document, error) {
	doc, ok := s.documents.GetDocument(ctx, documentId)
	if !ok {
		return docModel.Document{}, ErrDocumentNotFound
	}
	if doc.ProcessingStatus != docModel.StatusCompleted {
		return docModel.Document{}, ErrDocumentNotReady
	}
	return doc, nil
}

// matchedChunks resolves search hits to their stored chunk content.
func (s *service) matchedChunks(ctx context.Context, documentId string, matches []vectorindex.Match) (map[string]docModel.Chunk, error) {
	chunks, err := s.documents.GetChunks(ctx, documentId)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	wanted := make(map[string]bool, len(matches))
	for _, m := range matches {
		wanted[m.ChunkId] = true
	}
	byId := make(map[string]docModel.Chunk, len(matches))
	for _, c := range chunks {
		if wanted[c.Id] {
			byId[c.Id] = c
		}
	}
	return byId, nil
}
