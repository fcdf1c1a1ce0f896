package qa_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/akolanti/DocQA/internal/data/store"
	"github.com/akolanti/DocQA/internal/domain/docModel"
	"github.com/akolanti/DocQA/internal/rag/qa"
	"github.com/akolanti/DocQA/internal/rag/vectorindex"
)

const docId = "doc-1"

func seedDocument(t *testing.T, documents *store.InMemoryDocumentStore, status docModel.ProcessingStatus) {
	t.Helper()
	ctx := context.Background()

	err := documents.SaveDocument(ctx, docModel.Document{
		Id:               docId,
		Title:            "Renewable Energy Report",
		ProcessingStatus: status,
		ChunkCount:       3,
	})
	if err != nil {
		t.Fatalf("seeding document: %v", err)
	}

	err = documents.SaveChunks(ctx, docId, []docModel.Chunk{
		{Id: "c0", DocumentId: docId, ChunkIndex: 0, Content: "Solar capacity grew 24% last year.", TokenCount: 6, PageNumber: 1},
		{Id: "c1", DocumentId: docId, ChunkIndex: 1, Content: "Wind power remains the cheapest source in coastal regions.", TokenCount: 9, PageNumber: 2},
		{Id: "c2", DocumentId: docId, ChunkIndex: 2, Content: "Storage costs fell below the critical threshold.", TokenCount: 7, PageNumber: 3},
	})
	if err != nil {
		t.Fatalf("seeding chunks: %v", err)
	}
}

func matchesFor(ids ...string) []vectorindex.Match {
	matches := make([]vectorindex.Match, len(ids))
	for i, id := range ids {
		matches[i] = vectorindex.Match{ChunkId: id, ChunkIndex: i, Score: 0.9 - float32(i)*0.1}
	}
	return matches
}

func TestAsk_Scenarios(t *testing.T) {
	tests := []struct {
		name            string
		status          docModel.ProcessingStatus
		setupMocks      func(e *MockEmbedder, i *MockIndex, l *MockLLM)
		expectedErr     error
		expectedAnswer  string
		expectedChunks  int
		minConfidence   float32
		maxConfidence   float32
		expectedSources int
	}{
		{
			name:   "Success_Full_Flow",
			status: docModel.StatusCompleted,
			setupMocks: func(e *MockEmbedder, i *MockIndex, l *MockLLM) {
				i.OnSearch = func(id string, q []float32, k int, th float32) ([]vectorindex.Match, error) {
					return matchesFor("c0", "c1", "c2"), nil
				}
				l.OnComplete = func(ctx context.Context, system, user string) (string, error) {
					return "According to Context 1, solar capacity grew 24% last year, while Context 2 notes wind power stays cheapest near the coast.", nil
				}
			},
			expectedAnswer:  "According to Context 1",
			expectedChunks:  3,
			minConfidence:   0.8,
			maxConfidence:   1.0,
			expectedSources: 3,
		},
		{
			name:   "No_Matches_Returns_NotFound_Answer",
			status: docModel.StatusCompleted,
			setupMocks: func(e *MockEmbedder, i *MockIndex, l *MockLLM) {
				i.OnSearch = func(id string, q []float32, k int, th float32) ([]vectorindex.Match, error) {
					return nil, nil
				}
			},
			expectedAnswer: "couldn't find relevant information",
			expectedChunks: 0,
			minConfidence:  0.0,
			maxConfidence:  0.0,
		},
		{
			name:   "Missing_Index_Treated_As_No_Matches",
			status: docModel.StatusCompleted,
			setupMocks: func(e *MockEmbedder, i *MockIndex, l *MockLLM) {
				i.OnSearch = func(id string, q []float32, k int, th float32) ([]vectorindex.Match, error) {
					return nil, vectorindex.ErrIndexNotFound
				}
			},
			expectedAnswer: "couldn't find relevant information",
			expectedChunks: 0,
			minConfidence:  0.0,
			maxConfidence:  0.0,
		},
		{
			name:        "Pending_Document_Rejected",
			status:      docModel.StatusPending,
			setupMocks:  func(e *MockEmbedder, i *MockIndex, l *MockLLM) {},
			expectedErr: qa.ErrDocumentNotReady,
		},
		{
			name:        "Failed_Document_Rejected",
			status:      docModel.StatusFailed,
			setupMocks:  func(e *MockEmbedder, i *MockIndex, l *MockLLM) {},
			expectedErr: qa.ErrDocumentNotReady,
		},
		{
			name:   "Hedged_Answer_Scores_Lower",
			status: docModel.StatusCompleted,
			setupMocks: func(e *MockEmbedder, i *MockIndex, l *MockLLM) {
				i.OnSearch = func(id string, q []float32, k int, th float32) ([]vectorindex.Match, error) {
					return matchesFor("c0"), nil
				}
				l.OnComplete = func(ctx context.Context, system, user string) (string, error) {
					return "It might be related to solar, but this is uncertain.", nil
				}
			},
			expectedAnswer: "might be",
			expectedChunks: 1,
			minConfidence:  0.0,
			maxConfidence:  0.4,
		},
		{
			name:   "Embedding_Failure_Propagates",
			status: docModel.StatusCompleted,
			setupMocks: func(e *MockEmbedder, i *MockIndex, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			expectedErr: errAny,
		},
		{
			name:   "LLM_Failure_Propagates",
			status: docModel.StatusCompleted,
			setupMocks: func(e *MockEmbedder, i *MockIndex, l *MockLLM) {
				i.OnSearch = func(id string, q []float32, k int, th float32) ([]vectorindex.Match, error) {
					return matchesFor("c0"), nil
				}
				l.OnComplete = func(ctx context.Context, system, user string) (string, error) {
					return "", errors.New("provider down")
				}
			},
			expectedErr: errAny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			documents := store.InitInMemoryDocumentStore()
			interactions := store.InitInMemoryInteractionStore()
			seedDocument(t, documents, tt.status)

			mEmbed := &MockEmbedder{}
			mIndex := &MockIndex{}
			mLLM := &MockLLM{}
			tt.setupMocks(mEmbed, mIndex, mLLM)

			s := qa.NewService(mEmbed, mIndex, mLLM, documents, interactions)
			answer, err := s.Ask(context.Background(), docId, "How fast is solar growing?", qa.AskOptions{})

			if tt.expectedErr != nil {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.expectedErr != errAny && !errors.Is(err, tt.expectedErr) {
					t.Errorf("error got %v, want %v", err, tt.expectedErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !strings.Contains(answer.Answer, tt.expectedAnswer) {
				t.Errorf("answer %q does not contain %q", answer.Answer, tt.expectedAnswer)
			}
			if answer.ChunksUsed != tt.expectedChunks {
				t.Errorf("chunks used got %d, want %d", answer.ChunksUsed, tt.expectedChunks)
			}
			if answer.ConfidenceScore < tt.minConfidence || answer.ConfidenceScore > tt.maxConfidence {
				t.Errorf("confidence %f outside [%f, %f]", answer.ConfidenceScore, tt.minConfidence, tt.maxConfidence)
			}
			if len(answer.Sources) != tt.expectedSources {
				t.Errorf("sources got %d, want %d", len(answer.Sources), tt.expectedSources)
			}
		})
	}
}

// errAny is a marker: the scenario expects some error without caring which.
var errAny = errors.New("any error")

func TestAsk_UnknownDocument(t *testing.T) {
	documents := store.InitInMemoryDocumentStore()
	interactions := store.InitInMemoryInteractionStore()

	s := qa.NewService(&MockEmbedder{}, &MockIndex{}, &MockLLM{}, documents, interactions)
	_, err := s.Ask(context.Background(), "no-such-doc", "anything?", qa.AskOptions{})
	if !errors.Is(err, qa.ErrDocumentNotFound) {
		t.Errorf("error got %v, want ErrDocumentNotFound", err)
	}
}

func TestAsk_PersistsInteraction(t *testing.T) {
	documents := store.InitInMemoryDocumentStore()
	interactions := store.InitInMemoryInteractionStore()
	seedDocument(t, documents, docModel.StatusCompleted)

	mIndex := &MockIndex{OnSearch: func(id string, q []float32, k int, th float32) ([]vectorindex.Match, error) {
		return matchesFor("c0", "c1"), nil
	}}

	s := qa.NewService(&MockEmbedder{}, mIndex, &MockLLM{}, documents, interactions)
	answer, err := s.Ask(context.Background(), docId, "What about wind?", qa.AskOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history, err := interactions.ListInteractions(context.Background(), docId, 10)
	if err != nil {
		t.Fatalf("listing interactions: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length got %d, want 1", len(history))
	}
	if history[0].Id != answer.InteractionId {
		t.Errorf("interaction id got %s, want %s", history[0].Id, answer.InteractionId)
	}
	if history[0].Question != "What about wind?" {
		t.Errorf("question got %q", history[0].Question)
	}
}

func TestAsk_SourcePreviews(t *testing.T) {
	documents := store.InitInMemoryDocumentStore()
	interactions := store.InitInMemoryInteractionStore()
	seedDocument(t, documents, docModel.StatusCompleted)

	long := strings.Repeat("verylongword ", 30)
	if err := documents.SaveChunks(context.Background(), docId, []docModel.Chunk{
		{Id: "c0", DocumentId: docId, ChunkIndex: 0, Content: long, TokenCount: 30, PageNumber: 4},
	}); err != nil {
		t.Fatalf("seeding chunks: %v", err)
	}

	mIndex := &MockIndex{OnSearch: func(id string, q []float32, k int, th float32) ([]vectorindex.Match, error) {
		return matchesFor("c0"), nil
	}}

	s := qa.NewService(&MockEmbedder{}, mIndex, &MockLLM{}, documents, interactions)
	answer, err := s.Ask(context.Background(), docId, "question", qa.AskOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(answer.Sources) != 1 {
		t.Fatalf("sources got %d, want 1", len(answer.Sources))
	}
	src := answer.Sources[0]
	if !strings.HasSuffix(src.ContentPreview, "...") {
		t.Errorf("long content should be truncated with ellipsis, got %q", src.ContentPreview)
	}
	if len([]rune(src.ContentPreview)) != 153 {
		t.Errorf("preview length got %d, want 153", len([]rune(src.ContentPreview)))
	}
	if src.PageNumber != 4 {
		t.Errorf("page number got %d, want 4", src.PageNumber)
	}
}

func TestSummarize_Scenarios(t *testing.T) {
	documents := store.InitInMemoryDocumentStore()
	interactions := store.InitInMemoryInteractionStore()
	seedDocument(t, documents, docModel.StatusCompleted)

	var captured string
	mLLM := &MockLLM{OnComplete: func(ctx context.Context, system, user string) (string, error) {
		captured = user
		return "a summary", nil
	}}

	s := qa.NewService(&MockEmbedder{}, &MockIndex{}, mLLM, documents, interactions)

	summary, err := s.Summarize(context.Background(), docId, qa.SummaryBrief, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "a summary" {
		t.Errorf("summary got %q", summary)
	}
	if !strings.Contains(captured, "brief, 2-3 sentence") {
		t.Errorf("brief prompt not used: %q", captured)
	}
	if !strings.Contains(captured, "Solar capacity grew") {
		t.Error("prompt should include chunk content")
	}

	if _, err := s.Summarize(context.Background(), docId, qa.SummaryKeyPoints, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(captured, "bulleted list") {
		t.Errorf("key points prompt not used: %q", captured)
	}

	if _, err := s.Summarize(context.Background(), docId, qa.SummaryComprehensive, 300); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(captured, "approximately 300 words") {
		t.Errorf("comprehensive prompt not used: %q", captured)
	}
}

func TestExtractConcepts_ParsesModelOutput(t *testing.T) {
	documents := store.InitInMemoryDocumentStore()
	interactions := store.InitInMemoryInteractionStore()
	seedDocument(t, documents, docModel.StatusCompleted)

	mIndex := &MockIndex{OnSearch: func(id string, q []float32, k int, th float32) ([]vectorindex.Match, error) {
		return matchesFor("c0", "c1"), nil
	}}
	mLLM := &MockLLM{OnComplete: func(ctx context.Context, system, user string) (string, error) {
		return "Solar Energy - Photovoltaic power generation - Importance (9)\n" +
			"not a concept line\n" +
			"Wind Power - Coastal generation economics - Importance (7)\n" +
			"Storage - Battery cost trends - high", nil
	}}

	s := qa.NewService(&MockEmbedder{}, mIndex, mLLM, documents, interactions)
	concepts, err := s.ExtractConcepts(context.Background(), docId, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(concepts) != 3 {
		t.Fatalf("concepts got %d, want 3", len(concepts))
	}
	if concepts[0].Concept != "Solar Energy" || concepts[0].Importance != 9 {
		t.Errorf("first concept got %+v", concepts[0])
	}
	if concepts[2].Importance != 5.0 {
		t.Errorf("unparseable importance should default to 5.0, got %f", concepts[2].Importance)
	}
}

func TestSearchPassages(t *testing.T) {
	documents := store.InitInMemoryDocumentStore()
	interactions := store.InitInMemoryInteractionStore()
	seedDocument(t, documents, docModel.StatusCompleted)

	mIndex := &MockIndex{OnSearch: func(id string, q []float32, k int, th float32) ([]vectorindex.Match, error) {
		if k != 10 {
			t.Errorf("default max results got %d, want 10", k)
		}
		return matchesFor("c1"), nil
	}}

	s := qa.NewService(&MockEmbedder{}, mIndex, &MockLLM{}, documents, interactions)
	passages, err := s.SearchPassages(context.Background(), docId, "wind", 0, 0.7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("passages got %d, want 1", len(passages))
	}
	if passages[0].PageNumber != 2 || passages[0].ChunkIndex != 1 {
		t.Errorf("passage metadata got %+v", passages[0])
	}
	if !strings.Contains(passages[0].Content, "Wind power") {
		t.Errorf("content got %q", passages[0].Content)
	}
}

func TestRateAnswer(t *testing.T) {
	documents := store.InitInMemoryDocumentStore()
	interactions := store.InitInMemoryInteractionStore()
	seedDocument(t, documents, docModel.StatusCompleted)

	mIndex := &MockIndex{OnSearch: func(id string, q []float32, k int, th float32) ([]vectorindex.Match, error) {
		return matchesFor("c0"), nil
	}}
	s := qa.NewService(&MockEmbedder{}, mIndex, &MockLLM{}, documents, interactions)

	answer, err := s.Ask(context.Background(), docId, "question", qa.AskOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.RateAnswer(context.Background(), answer.InteractionId, 0, ""); !errors.Is(err, qa.ErrInvalidRating) {
		t.Errorf("rating 0 should be rejected, got %v", err)
	}
	if err := s.RateAnswer(context.Background(), answer.InteractionId, 6, ""); !errors.Is(err, qa.ErrInvalidRating) {
		t.Errorf("rating 6 should be rejected, got %v", err)
	}
	if err := s.RateAnswer(context.Background(), answer.InteractionId, 4, "helpful"); err != nil {
		t.Fatalf("valid rating rejected: %v", err)
	}

	history, _ := interactions.ListInteractions(context.Background(), docId, 10)
	if history[0].UserRating != 4 || history[0].Feedback != "helpful" {
		t.Errorf("rating not persisted: %+v", history[0])
	}
}

func TestHistory_LimitAndUnknownDocument(t *testing.T) {
	documents := store.InitInMemoryDocumentStore()
	interactions := store.InitInMemoryInteractionStore()
	seedDocument(t, documents, docModel.StatusCompleted)

	mIndex := &MockIndex{OnSearch: func(id string, q []float32, k int, th float32) ([]vectorindex.Match, error) {
		return matchesFor("c0"), nil
	}}
	s := qa.NewService(&MockEmbedder{}, mIndex, &MockLLM{}, documents, interactions)

	for i := 0; i < 5; i++ {
		if _, err := s.Ask(context.Background(), docId, "question", qa.AskOptions{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	history, err := s.History(context.Background(), docId, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("history length got %d, want 3", len(history))
	}

	if _, err := s.History(context.Background(), "no-such-doc", 3); !errors.Is(err, qa.ErrDocumentNotFound) {
		t.Errorf("error got %v, want ErrDocumentNotFound", err)
	}
}

func TestAsk_OptionsOverrideRetrieval(t *testing.T) {
	documents := store.InitInMemoryDocumentStore()
	interactions := store.InitInMemoryInteractionStore()
	seedDocument(t, documents, docModel.StatusCompleted)

	var gotK int
	mIndex := &MockIndex{OnSearch: func(id string, q []float32, k int, th float32) ([]vectorindex.Match, error) {
		gotK = k
		return matchesFor("c0", "c1"), nil
	}}

	s := qa.NewService(&MockEmbedder{}, mIndex, &MockLLM{}, documents, interactions)
	_, err := s.Ask(context.Background(), docId, "question", qa.AskOptions{MaxChunks: 2, ContextWindow: 1200})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if gotK != 2 {
		t.Errorf("Expected search top-k 2, got %d", gotK)
	}
}

func TestExtractConcepts_CapsResult(t *testing.T) {
	documents := store.InitInMemoryDocumentStore()
	interactions := store.InitInMemoryInteractionStore()
	seedDocument(t, documents, docModel.StatusCompleted)

	mIndex := &MockIndex{OnSearch: func(id string, q []float32, k int, th float32) ([]vectorindex.Match, error) {
		return matchesFor("c0"), nil
	}}
	mLLM := &MockLLM{OnComplete: func(ctx context.Context, system, user string) (string, error) {
		return strings.Join([]string{
			"Solar - growth of capacity - Importance (9)",
			"Wind - cheapest coastal source - Importance (8)",
			"Storage - falling costs - Importance (7)",
		}, "\n"), nil
	}}

	s := qa.NewService(&MockEmbedder{}, mIndex, mLLM, documents, interactions)
	concepts, err := s.ExtractConcepts(context.Background(), docId, 2)
	if err != nil {
		t.Fatalf("ExtractConcepts failed: %v", err)
	}
	if len(concepts) != 2 {
		t.Fatalf("Expected concepts capped at 2, got %d", len(concepts))
	}
	if concepts[0].Concept != "Solar" {
		t.Errorf("Cap must keep the first listed concepts, got %+v", concepts)
	}
}

func TestExtractConcepts_UnindexedDocumentYieldsNone(t *testing.T) {
	documents := store.InitInMemoryDocumentStore()
	interactions := store.InitInMemoryInteractionStore()
	seedDocument(t, documents, docModel.StatusCompleted)

	llmCalled := false
	mLLM := &MockLLM{OnComplete: func(ctx context.Context, system, user string) (string, error) {
		llmCalled = true
		return "", nil
	}}

	// the default mock index behaves like a document with no index blob
	s := qa.NewService(&MockEmbedder{}, &MockIndex{}, mLLM, documents, interactions)
	concepts, err := s.ExtractConcepts(context.Background(), docId, 0)
	if err != nil {
		t.Fatalf("ExtractConcepts failed: %v", err)
	}
	if len(concepts) != 0 {
		t.Errorf("expected no concepts without an index, got %+v", concepts)
	}
	if llmCalled {
		t.Error("completion should not run when nothing was retrieved")
	}
}
