package vectorindex

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/akolanti/DocQA/pkg/logger_i"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrCorruptIndex      = errors.New("index blob is corrupt")
	ErrIndexNotFound     = errors.New("no index for document")
)

var logger = logger_i.NewLogger("vector_index")

// Entry is one stored vector with the metadata search results carry back.
type Entry struct {
	ChunkId    string
	ChunkIndex int
	Vector     []float32
}

// Match is a search hit. Score is the inner product of normalized vectors,
// so it behaves as cosine similarity in [-1, 1].
type Match struct {
	ChunkId    string
	ChunkIndex int
	Score      float32
}

// indexBlob is the on-disk representation. One blob per document.
type indexBlob struct {
	Dimension int
	Entries   []Entry
}

// Store keeps one flat index per document as a gob blob under root.
// Writes go through a temp file and rename, so a crash mid-write leaves the
// previous blob intact. A per-store lock serializes blob replacement; reads
// of distinct documents never contend on disk state.
type Store struct {
	root      string
	dimension int
	mu        sync.RWMutex
}

func NewStore(root string, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid index dimension %d", dimension)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating index root: %w", err)
	}
	return &Store{root: root, dimension: dimension}, nil
}

func (s *Store) Dimension() int { return s.dimension }

func (s *Store) path(documentId string) string {
	return filepath.Join(s.root, "index_"+documentId+".gob")
}

// Rebuild replaces the document's index with the given entries. Vectors are
// normalized on the way in; zero vectors stay zero and simply never match.
func (s *Store) Rebuild(documentId string, entries []Entry) error {
	for i := range entries {
		if len(entries[i].Vector) != s.dimension {
			return fmt.Errorf("%w: entry %d has %d, index expects %d",
				ErrDimensionMismatch, i, len(entries[i].Vector), s.dimension)
		}
		entries[i].Vector = Normalize(entries[i].Vector)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(documentId, &indexBlob{Dimension: s.dimension, Entries: entries})
}

// Append adds entries to an existing index, creating it when absent.
func (s *Store) Append(documentId string, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.load(documentId)
	if errors.Is(err, ErrIndexNotFound) {
		blob = &indexBlob{Dimension: s.dimension}
	} else if err != nil {
		return err
	}

	for i := range entries {
		if len(entries[i].Vector) != s.dimension {
			return fmt.Errorf("%w: entry %d has %d, index expects %d",
				ErrDimensionMismatch, i, len(entries[i].Vector), s.dimension)
		}
		blob.Entries = append(blob.Entries, Entry{
			ChunkId:    entries[i].ChunkId,
			ChunkIndex: entries[i].ChunkIndex,
			Vector:     Normalize(entries[i].Vector),
		})
	}
	return s.persist(documentId, blob)
}

// Search returns up to k matches scoring at or above threshold, best first.
// Ties keep insertion order so repeated queries return identical rankings.
// A document with no index yields no matches rather than an error.
func (s *Store) Search(documentId string, query []float32, k int, threshold float32) ([]Match, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, index expects %d",
			ErrDimensionMismatch, len(query), s.dimension)
	}

	s.mu.RLock()
	blob, err := s.load(documentId)
	s.mu.RUnlock()
	if errors.Is(err, ErrIndexNotFound) {
		return []Match{}, nil
	}
	if err != nil {
		return nil, err
	}

	normalized := Normalize(query)
	matches := make([]Match, 0, len(blob.Entries))
	for _, entry := range blob.Entries {
		score := dot(normalized, entry.Vector)
		if score >= threshold {
			matches = append(matches, Match{
				ChunkId:    entry.ChunkId,
				ChunkIndex: entry.ChunkIndex,
				Score:      score,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Delete removes the document's blob. Deleting a missing index is not an
// error, which keeps document deletion idempotent.
func (s *Store) Delete(documentId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(documentId))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting index blob: %w", err)
	}
	return nil
}

func (s *Store) Exists(documentId string) bool {
	_, err := os.Stat(s.path(documentId))
	return err == nil
}

// IndexStats describes one document's index blob.
type IndexStats struct {
	Vectors   int
	Dimension int
	SizeBytes int64
}

// Stats reports vector count, dimension and on-disk size for one document.
func (s *Store) Stats(documentId string) (IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, err := s.load(documentId)
	if err != nil {
		return IndexStats{}, err
	}
	stats := IndexStats{Vectors: len(blob.Entries), Dimension: blob.Dimension}
	if info, err := os.Stat(s.path(documentId)); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}

// AggregateStats walks the root and totals indexed documents and vectors.
func (s *Store) AggregateStats() (documents int, vectors int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths, err := filepath.Glob(filepath.Join(s.root, "index_*.gob"))
	if err != nil {
		return 0, 0, err
	}
	for _, p := range paths {
		blob, err := s.loadPath(p)
		if err != nil {
			logger.Warn("Skipping unreadable index blob", "path", p, "error", err)
			continue
		}
		documents++
		vectors += len(blob.Entries)
	}
	return documents, vectors, nil
}

func (s *Store) load(documentId string) (*indexBlob, error) {
	return s.loadPath(s.path(documentId))
}

func (s *Store) loadPath(path string) (*indexBlob, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, ErrIndexNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("opening index blob: %w", err)
	}
	defer f.Close()

	var blob indexBlob
	if err := gob.NewDecoder(f).Decode(&blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	if blob.Dimension != s.dimension {
		return nil, fmt.Errorf("%w: blob has %d, store expects %d",
			ErrDimensionMismatch, blob.Dimension, s.dimension)
	}
	return &blob, nil
}

// persist writes the blob next to its final location and renames into place.
func (s *Store) persist(documentId string, blob *indexBlob) error {
	tmp, err := os.CreateTemp(s.root, "index_*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding index blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(documentId)); err != nil {
		return fmt.Errorf("replacing index blob: %w", err)
	}
	return nil
}

// Normalize scales a vector to unit length. A zero-norm input comes back as
// all zeros instead of NaNs.
func Normalize(vector []float32) []float32 {
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(vector))
	if norm == 0 {
		return out
	}
	for i, v := range vector {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
