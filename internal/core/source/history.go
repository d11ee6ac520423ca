package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/mnfctr/datasheet-rag/internal/core/model"
	"github.com/mnfctr/datasheet-rag/internal/index"
	"github.com/mnfctr/datasheet-rag/internal/llm"
	"github.com/mnfctr/datasheet-rag/internal/store"
)

// HistoryStore is the slice of the persistent store this adapter reads.
type HistoryStore interface {
	CompletedDocuments(ctx context.Context) ([]store.DocumentRecord, error)
	RecentHighConfidenceQueries(ctx context.Context, minConfidence float64, limit int) ([]store.QueryLogRecord, error)
}

// HistorySource ranks database metadata and past high-confidence Q/A
// pairs by similarity to the live query. Both corpora are vectorized
// per request; embeddings are cached by content hash because the rows
// change slowly, and computed under a bounded pool so embedding work
// cannot starve request handling.
type HistorySource struct {
	Store         HistoryStore
	Embedder      llm.EmbedderClient
	MinConfidence float64
	HistoryLimit  int
	StoreTimeout  time.Duration

	sem     *semaphore.Weighted
	flight  singleflight.Group
	mu      sync.RWMutex
	vecByID map[string][]float32
}

func NewHistorySource(st HistoryStore, embedder llm.EmbedderClient, minConfidence float64, historyLimit int, storeTimeout time.Duration, embedWorkers int64) *HistorySource {
	if minConfidence == 0 {
		minConfidence = 0.7
	}
	if historyLimit == 0 {
		historyLimit = 50
	}
	if storeTimeout == 0 {
		storeTimeout = 10 * time.Second
	}
	if embedWorkers <= 0 {
		embedWorkers = 2
	}
	return &HistorySource{
		Store:         st,
		Embedder:      embedder,
		MinConfidence: minConfidence,
		HistoryLimit:  historyLimit,
		StoreTimeout:  storeTimeout,
		sem:           semaphore.NewWeighted(embedWorkers),
		vecByID:       make(map[string][]float32),
	}
}

func (s *HistorySource) Type() model.SourceType {
	return model.SourceDatabase
}

type corpusEntry struct {
	item model.EvidenceItem
}

func (s *HistorySource) Search(ctx context.Context, req *model.MultiQueryRequest) ([]model.EvidenceItem, error) {
	if s.Embedder == nil {
		return nil, fmt.Errorf("history search requires an embedding client")
	}

	entries, err := s.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	queryVec, err := s.Embedder.Embed(ctx, req.Question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	type scored struct {
		item  model.EvidenceItem
		score float64
	}

	ranked := make([]scored, 0, len(entries))
	for _, e := range entries {
		vec, err := s.embedCached(ctx, e.item.SourceID, e.item.Content)
		if err != nil {
			// One bad row must not sink the whole source.
			continue
		}
		ranked = append(ranked, scored{
			item:  e.item,
			score: clampScore(index.CosineSimilarity(queryVec, vec)),
		})
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	topK := req.TopKPerSource
	if topK > len(ranked) {
		topK = len(ranked)
	}

	items := make([]model.EvidenceItem, 0, topK)
	for _, r := range ranked[:topK] {
		r.item.RelevanceScore = r.score
		items = append(items, r.item)
	}
	return items, nil
}

func (s *HistorySource) loadCorpus(ctx context.Context) ([]corpusEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	docs, err := s.Store.CompletedDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load document metadata: %w", err)
	}

	history, err := s.Store.RecentHighConfidenceQueries(ctx, s.MinConfidence, s.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load query history: %w", err)
	}

	entries := make([]corpusEntry, 0, len(docs)+len(history))

	for _, d := range docs {
		entries = append(entries, corpusEntry{
			item: model.EvidenceItem{
				SourceType: model.SourceDatabase,
				SourceID:   d.ID,
				Content:    searchableText(d),
				History: &model.HistoryMeta{
					Kind:     "document_metadata",
					Filename: d.Filename,
				},
			},
		})
	}

	for _, q := range history {
		entries = append(entries, corpusEntry{
			item: model.EvidenceItem{
				SourceType: model.SourceDatabase,
				SourceID:   fmt.Sprintf("query_%d", q.ID),
				Content:    fmt.Sprintf("질문: %s\n답변: %s", q.Question, q.Answer),
				History: &model.HistoryMeta{
					Kind:       "query_history",
					Question:   q.Question,
					Answer:     q.Answer,
					Confidence: q.Confidence,
				},
			},
		})
	}

	return entries, nil
}

// embedCached computes the row embedding at most once per content
// hash. Concurrent first access collapses onto a single computation.
func (s *HistorySource) embedCached(ctx context.Context, id, content string) ([]float32, error) {
	sum := sha256.Sum256([]byte(content))
	key := hex.EncodeToString(sum[:])

	s.mu.RLock()
	vec, ok := s.vecByID[key]
	s.mu.RUnlock()
	if ok {
		return vec, nil
	}

	result, err, _ := s.flight.Do(key, func() (interface{}, error) {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer s.sem.Release(1)

		vec, err := s.Embedder.Embed(ctx, content)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.vecByID[key] = vec
		s.mu.Unlock()
		return vec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed corpus row %s: %w", id, err)
	}
	return result.([]float32), nil
}

// searchableText flattens a metadata row into one embeddable line.
func searchableText(d store.DocumentRecord) string {
	name := d.Filename
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}

	parts := []string{"파일명: " + name}
	if d.DocumentType != "" {
		parts = append(parts, "타입: "+d.DocumentType)
	}
	if d.ProductFamily != "" {
		parts = append(parts, "제품군: "+d.ProductFamily)
	}
	if d.ProductModel != "" {
		parts = append(parts, "모델: "+d.ProductModel)
	}
	if d.Version != "" {
		parts = append(parts, "버전: "+d.Version)
	}
	if d.Language != "" {
		parts = append(parts, "언어: "+d.Language)
	}
	if d.PageCount > 0 {
		parts = append(parts, fmt.Sprintf("페이지: %d페이지", d.PageCount))
	}

	return strings.Join(parts, " | ")
}
