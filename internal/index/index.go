package index

import (
	"errors"
	"math"
	"sort"
	"sync"
)

// Chunk is one indexed fragment of an ingested document.
type Chunk struct {
	DocumentID   string
	DocumentName string
	ChunkID      string
	Text         string
	PageNumber   int
	Section      string
}

// Result pairs a chunk with its L2 distance to the query vector.
// Lower distance means more similar; callers convert to a similarity
// at their integration point.
type Result struct {
	Chunk    Chunk
	Distance float64
}

// Index is an in-memory brute-force vector index over document chunks.
// Read-mostly after initial ingestion; safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	chunks    []Chunk
}

func New() *Index { return &Index{} }

func (ix *Index) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dimension = dimension
	ix.vectors = nil
	ix.chunks = nil
	return nil
}

func (ix *Index) Upsert(chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.dimension == 0 && len(vectors) > 0 {
		ix.dimension = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != ix.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	ix.chunks = append(ix.chunks, chunks...)
	ix.vectors = append(ix.vectors, vectors...)
	return nil
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// Search returns up to topK chunks ordered by ascending distance.
// A nil filter matches every chunk.
func (ix *Index) Search(vector []float32, topK int, filter func(Chunk) bool) ([]Result, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if topK <= 0 {
		topK = 5
	}

	results := make([]Result, 0, len(ix.chunks))
	for i := range ix.vectors {
		if filter != nil && !filter(ix.chunks[i]) {
			continue
		}
		results = append(results, Result{
			Chunk:    ix.chunks[i],
			Distance: l2Distance(ix.vectors[i], vector),
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Distance < results[b].Distance
	})

	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.vectors = nil
	ix.chunks = nil
}

func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CosineSimilarity is used by callers ranking ad-hoc vectors that never
// enter the index.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
