package hashEmbedding

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/rag/embedding"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

const (
	topWordCount = 50
	//word buckets stay clear of the first 10 slots and the 7-feature tail
	bucketOffset = 10
	reservedTail = 20
	featureCount = 7
)

var wordPattern = regexp.MustCompile(`\w+`)

// Embedder is the deterministic fallback used when no model backend is
// configured. It packs lexical statistics into the tail of the vector and
// hashes the most frequent words into buckets of the remaining dimensions.
// It keeps the system functional and testable, but the similarity it yields
// is lexical, not semantic. The statistic tail carries a large share of the
// vector norm, so texts of similar length and shape score close together
// and ranking across many chunks is only approximate.
type Embedder struct {
	dimension int
	logger    *logger_i.Logger
}

func NewEmbedder() *Embedder {
	return &Embedder{
		dimension: config.EmbeddingDimension,
		logger:    logger_i.NewLogger("hash_embedding"),
	}
}

func (e *Embedder) Name() string   { return "hash-fallback" }
func (e *Embedder) Dimension() int { return e.dimension }

func (e *Embedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.BatchEmbedding(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.encode(text)
	}
	if err := embedding.ValidateBatch(vectors, len(texts), e.dimension); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (e *Embedder) encode(text string) []float32 {
	vector := make([]float32, e.dimension)

	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}

	//word buckets, weighted by relative frequency
	for _, word := range topWords(counts, topWordCount) {
		idx := int(hashWord(word)%uint32(e.dimension-reservedTail)) + bucketOffset
		vector[idx] += float32(counts[word]) / float32(len(words))
	}

	//lexical statistics in the reserved tail
	for i, feature := range lexicalFeatures(text, words, counts) {
		vector[e.dimension-1-i] = float32(math.Min(feature, 1.0))
	}

	return normalize(vector)
}

// lexicalFeatures mirrors the feature order the index was built with; changing
// it invalidates every persisted vector.
func lexicalFeatures(text string, words []string, counts map[string]int) [featureCount]float64 {
	var features [featureCount]float64
	features[0] = float64(len(text)) / 1000.0
	features[1] = float64(len(words)) / 100.0
	if len(words) > 0 {
		features[2] = float64(len(counts)) / float64(len(words))
		longWords := 0
		for _, w := range words {
			if len(w) > 6 {
				longWords++
			}
		}
		features[3] = float64(longWords) / float64(len(words))
	}
	if len(text) > 0 {
		features[4] = float64(strings.Count(text, ".")) / float64(len(text))
		features[5] = float64(strings.Count(text, "?")) / float64(len(text))
		features[6] = float64(strings.Count(text, "!")) / float64(len(text))
	}
	return features
}

// topWords returns up to n distinct words ordered by descending count, ties
// broken alphabetically so the encoding stays deterministic.
func topWords(counts map[string]int, n int) []string {
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}

func hashWord(word string) uint32 {
	sum := md5.Sum([]byte(word))
	return binary.BigEndian.Uint32(sum[:4])
}

func normalize(vector []float32) []float32 {
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vector
	}
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector
}
