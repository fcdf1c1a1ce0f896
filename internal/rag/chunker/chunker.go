package chunker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/docModel"
)

var (
	pageMarkerPattern = regexp.MustCompile(`--- Page (\d+) ---`)
	wordPattern       = regexp.MustCompile(`\w+`)
)

// Chunker slides a fixed-width rune window over extracted text. Size and
// Overlap are measured in characters (runes), not model tokens; TokenCount on
// the emitted chunks is a word count from a fixed tokenizer. Identical input
// and parameters always produce identical chunks, which re-indexing relies on.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		size = config.ChunkSize
	}
	if overlap < 0 {
		overlap = config.ChunkOverlap
	}
	if overlap >= size {
		return nil, fmt.Errorf("overlap %d must be smaller than chunk size %d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func Default() *Chunker {
	c, _ := NewChunker(config.ChunkSize, config.ChunkOverlap)
	return c
}

// Split cuts text into overlapping windows. Whitespace-only windows are
// dropped and chunk indices are reassigned densely in emission order, so the
// surviving chunks always count 0..n-1 with no gaps.
func (c *Chunker) Split(text string) []docModel.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []docModel.Chunk
	currentPage := 1

	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		content := string(runes[start:end])

		if page, found := lastPageMarker(content); found {
			currentPage = page
		}

		if strings.TrimSpace(content) != "" {
			chunks = append(chunks, docModel.Chunk{
				ChunkIndex: len(chunks),
				Content:    content,
				TokenCount: CountTokens(content),
				PageNumber: currentPage,
			})
		}

		if end == len(runes) {
			break
		}
	}
	return chunks
}

// CountTokens is the consistent tokenizer used for chunk budgets: a plain
// word-run count, not a model tokenizer.
func CountTokens(text string) int {
	return len(wordPattern.FindAllString(text, -1))
}

// lastPageMarker returns the page number of the most recent page marker
// appearing inside the chunk.
func lastPageMarker(content string) (int, bool) {
	matches := pageMarkerPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return 0, false
	}
	page, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}
