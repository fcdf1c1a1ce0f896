package qa

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/docModel"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/internal/rag/chunker"
	"github.com/akolanti/DocQA/internal/rag/vectorindex"
)

const (
	summaryChunkLimit = 50
	conceptSampleSize = 10
	maxConcepts       = 15
	sourcePreviewLen  = 150
	summaryCharLimit  = 8000
	conceptCharLimit  = 4000
)

func (s *service) executeEmbeddingStep(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.GetEmbedding(ctx, text)
}

func (s *service) executeSearchStep(documentId string, vector []float32, k int, threshold float32) ([]vectorindex.Match, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.index.Search(documentId, vector, k, threshold)
}

func (s *service) executeLLMStep(ctx context.Context, system string, user string) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	answer, err := s.llmProvider.Complete(ctx, system, user)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// buildContext selects chunk contents in relevance order until the token
// budget runs out. The best match always gets in even when it alone blows
// the budget, otherwise a long top chunk would yield an empty context.
func buildContext(chunks map[string]docModel.Chunk, matches []vectorindex.Match, budget int) ([]string, []Source) {
	if budget < config.ContextWindowMin {
		budget = config.ContextWindowMin
	}
	if budget > config.ContextWindowMax {
		budget = config.ContextWindowMax
	}

	var contents []string
	var sources []Source
	used := 0

	for _, m := range matches {
		chunk, ok := chunks[m.ChunkId]
		if !ok {
			continue
		}
		tokens := chunk.TokenCount
		if tokens == 0 {
			tokens = chunker.CountTokens(chunk.Content)
		}
		if len(contents) > 0 && used+tokens > budget {
			break
		}
		used += tokens
		contents = append(contents, chunk.Content)
		sources = append(sources, Source{
			ChunkId:        chunk.Id,
			PageNumber:     chunk.PageNumber,
			ContentPreview: preview(chunk.Content, sourcePreviewLen),
			RelevanceScore: m.Score,
		})
	}
	return contents, sources
}

func answerPrompt(title string, question string, contextChunks []string) (string, string) {
	var contextText strings.Builder
	for i, chunk := range contextChunks {
		if i > 0 {
			contextText.WriteString("\n\n")
		}
		fmt.Fprintf(&contextText, "[Context %d]\n%s", i+1, chunk)
	}

	system := fmt.Sprintf(`You are an expert document analyst. Your task is to answer questions based strictly on the provided context from the document "%s".

IMPORTANT GUIDELINES:
1. ONLY use information from the provided context
2. If the context doesn't contain relevant information, say so clearly
3. Be precise and concise in your answers
4. Include specific references when possible (e.g., "According to Context 1...")
5. If you're uncertain, express that uncertainty
6. Do not make up information not found in the context

CONTEXT FROM DOCUMENT:
%s

Please answer the following question based ONLY on the context provided above.`, title, contextText.String())

	user := fmt.Sprintf("QUESTION: %s\n\nPlease provide a clear, accurate answer based solely on the context provided.", question)
	return system, user
}

func summaryPrompt(title string, summaryType SummaryType, maxWords int, chunks []docModel.Chunk) (string, string) {
	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}
	content := truncate(strings.Join(contents, "\n\n"), summaryCharLimit)

	var instruction string
	switch summaryType {
	case SummaryBrief:
		instruction = fmt.Sprintf("Provide a brief, 2-3 sentence summary of the following document titled '%s'", title)
	case SummaryKeyPoints:
		instruction = fmt.Sprintf("Extract the key points from the following document titled '%s' as a bulleted list", title)
	default:
		instruction = fmt.Sprintf("Provide a comprehensive summary of the following document titled '%s' in approximately %d words", title, maxWords)
	}

	system := "You are an expert document summarizer. Provide accurate, concise summaries based on the given content."
	user := fmt.Sprintf("%s:\n\n%s", instruction, content)
	return system, user
}

func conceptPrompt(title string, contents []string) (string, string) {
	content := truncate(strings.Join(contents, "\n\n"), conceptCharLimit)

	system := "You are an expert document analyst extracting structured topics from documents."
	user := fmt.Sprintf(`Extract the key concepts, topics, and entities from this content of the document titled '%s'.
Return them as a structured list with importance ratings.

Content:
%s

Key Concepts (format: Concept - Brief description - Importance (1-10)):`, title, content)
	return system, user
}

// parseConcepts reads "Concept - description - Importance (n)" lines. Lines
// that don't fit the shape are skipped rather than failing the request.
func parseConcepts(raw string) []Concept {
	var concepts []Concept
	for _, line := range strings.Split(raw, "\n") {
		parts := strings.Split(line, " - ")
		if len(parts) < 3 {
			continue
		}
		name := strings.TrimLeft(strings.TrimSpace(parts[0]), "-*• \t")
		if name == "" {
			continue
		}
		concepts = append(concepts, Concept{
			Concept:     name,
			Description: strings.TrimSpace(parts[1]),
			Importance:  parseImportance(parts[2]),
		})
	}
	return concepts
}

func parseImportance(field string) float64 {
	field = strings.TrimSpace(field)
	if open := strings.LastIndex(field, "("); open != -1 {
		if close := strings.Index(field[open:], ")"); close != -1 {
			field = field[open+1 : open+close]
		}
	}
	field = strings.TrimSuffix(strings.TrimSpace(field), "/10")
	if v, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err == nil && v >= 0 && v <= 10 {
		return v
	}
	return 5.0
}

// confidenceScore is a crude signal for ranking answers, not a calibrated
// probability. It rewards detailed, context-grounded answers and penalizes
// hedging and "not found" responses.
func confidenceScore(answer string, chunksUsed int) float32 {
	score := 0.5
	lower := strings.ToLower(answer)

	if len(answer) > 100 {
		score += 0.1
	}
	if len(answer) > 200 {
		score += 0.1
	}
	if strings.Contains(lower, "context") || strings.Contains(lower, "according to") {
		score += 0.2
	}

	uncertainty := []string{"i'm not sure", "unclear", "uncertain", "might be", "possibly"}
	for _, phrase := range uncertainty {
		if strings.Contains(lower, phrase) {
			score -= 0.2
			break
		}
	}

	notFound := []string{"not found", "doesn't contain", "no information", "cannot find"}
	for _, phrase := range notFound {
		if strings.Contains(lower, phrase) {
			score -= 0.3
			break
		}
	}

	if chunksUsed >= 3 {
		score += 0.1
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return float32(score)
}

func preview(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}

func truncate(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max])
}
