package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/mnfctr/datasheet-rag/internal/core/model"
	"github.com/mnfctr/datasheet-rag/internal/index"
	"github.com/mnfctr/datasheet-rag/internal/llm"
)

var roleKeywords = map[model.UserRole][]string{
	model.RoleEngineer: {
		"specifications", "parameters", "design", "technical", "electrical",
		"mechanical", "performance", "characteristics", "dimensions",
	},
	model.RoleQuality: {
		"limits", "tolerance", "standards", "compliance", "testing",
		"quality", "certification", "reliability", "durability",
	},
	model.RoleSales: {
		"features", "benefits", "advantages", "comparison", "competitive",
		"applications", "use cases", "market", "customer value",
	},
	model.RoleSupport: {
		"troubleshooting", "compatibility", "solutions", "problems",
		"issues", "installation", "maintenance", "support", "help",
	},
}

// DocumentSource retrieves datasheet chunks from the vector index.
type DocumentSource struct {
	Index    *index.Index
	Embedder llm.EmbedderClient
	Timeout  time.Duration
}

func NewDocumentSource(ix *index.Index, embedder llm.EmbedderClient, timeout time.Duration) *DocumentSource {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &DocumentSource{Index: ix, Embedder: embedder, Timeout: timeout}
}

func (s *DocumentSource) Type() model.SourceType {
	return model.SourceDocuments
}

func (s *DocumentSource) Search(ctx context.Context, req *model.MultiQueryRequest) ([]model.EvidenceItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if s.Embedder == nil {
		return nil, fmt.Errorf("document search requires an embedding client")
	}

	query := EnhanceQuery(req.Question, req.UserRole)
	if query != req.Question {
		log.Debug().Str("original", req.Question).Str("enhanced", query).Msg("query expanded with role keywords")
	}

	vec, err := s.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var filter func(index.Chunk) bool
	if req.DocumentFilter != "" {
		needle := strings.ToLower(req.DocumentFilter)
		filter = func(c index.Chunk) bool {
			return strings.Contains(strings.ToLower(c.DocumentName), needle) ||
				strings.EqualFold(c.DocumentID, req.DocumentFilter)
		}
	}

	results, err := s.Index.Search(vec, req.TopKPerSource, filter)
	if err != nil {
		return nil, fmt.Errorf("document search failed: %w", err)
	}

	items := make([]model.EvidenceItem, 0, len(results))
	for _, r := range results {
		items = append(items, model.EvidenceItem{
			SourceType: model.SourceDocuments,
			SourceID:   r.Chunk.ChunkID,
			Content:    truncateRunes(r.Chunk.Text, 500),
			// Index scores are distances; this is the single point
			// where they become similarities.
			RelevanceScore: clampScore(1.0 / (1.0 + r.Distance)),
			Document: &model.DocumentMeta{
				DocumentID:   r.Chunk.DocumentID,
				DocumentName: r.Chunk.DocumentName,
				PageNumber:   r.Chunk.PageNumber,
				Section:      r.Chunk.Section,
			},
		})
	}

	return items, nil
}

// EnhanceQuery appends up to two role keywords when the question
// carries fewer than two of them already.
func EnhanceQuery(question string, role model.UserRole) string {
	keywords := roleKeywords[role]
	if len(keywords) == 0 {
		return question
	}

	lower := strings.ToLower(question)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matches++
		}
	}

	if matches < 2 {
		return question + " " + strings.Join(keywords[:2], " ")
	}
	return question
}
