package source

import (
	"context"
	"sort"
	"strings"

	"github.com/mnfctr/datasheet-rag/internal/core/model"
	"github.com/mnfctr/datasheet-rag/internal/websearch"
)

var manufacturingTerms = []string{
	"datasheet", "specification", "technical specs",
	"manufacturing", "industrial", "component",
	"DDR5", "memory", "semiconductor",
}

var domainBonusKeywords = []string{
	"datasheet", "specification", "memory", "DDR", "component",
	"manufacturing", "technical", "industrial", "semiconductor",
}

// WebSearcher is the external search collaborator contract.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]websearch.Result, error)
}

// WebSource searches the open web, biased toward the manufacturing
// domain. Disabled requests short-circuit without any network call.
type WebSource struct {
	Client       WebSearcher
	MinRelevance float64
}

func NewWebSource(client WebSearcher, minRelevance float64) *WebSource {
	if minRelevance == 0 {
		minRelevance = 0.3
	}
	return &WebSource{Client: client, MinRelevance: minRelevance}
}

func (s *WebSource) Type() model.SourceType {
	return model.SourceWebSearch
}

func (s *WebSource) Search(ctx context.Context, req *model.MultiQueryRequest) ([]model.EvidenceItem, error) {
	if !req.EnableWebSearch {
		return nil, ErrDisabled
	}

	query := req.WebSearchQuery
	if query == "" {
		query = req.Question
	}
	query = AnchorQuery(query)

	results, err := s.Client.Search(ctx, query, req.TopKPerSource)
	if err != nil {
		return nil, err
	}

	adjusted := AdjustRelevance(results, s.MinRelevance)

	items := make([]model.EvidenceItem, 0, len(adjusted))
	for _, r := range adjusted {
		items = append(items, model.EvidenceItem{
			SourceType:     model.SourceWebSearch,
			SourceID:       r.URL,
			Content:        r.Content,
			RelevanceScore: r.RelevanceScore,
			Web: &model.WebMeta{
				Title:      r.Title,
				URL:        r.URL,
				Site:       r.Source,
				ResultType: r.Type,
			},
		})
	}
	return items, nil
}

// AnchorQuery appends domain-anchoring terms when the query carries
// none of them, biasing results toward manufacturing content.
func AnchorQuery(query string) string {
	lower := strings.ToLower(query)
	for _, term := range manufacturingTerms {
		if strings.Contains(lower, strings.ToLower(term)) {
			return query
		}
	}
	return query + " manufacturing datasheet specification"
}

// AdjustRelevance adds a 0.1 bonus per domain keyword hit in title or
// content, drops items below the minimum adjusted relevance or with
// near-empty content, and re-sorts by adjusted score.
func AdjustRelevance(results []websearch.Result, minRelevance float64) []websearch.Result {
	validated := make([]websearch.Result, 0, len(results))

	for _, r := range results {
		if len([]rune(r.Content)) < 10 {
			continue
		}

		contentLower := strings.ToLower(r.Content)
		titleLower := strings.ToLower(r.Title)

		bonus := 0.0
		for _, kw := range domainBonusKeywords {
			k := strings.ToLower(kw)
			if strings.Contains(contentLower, k) || strings.Contains(titleLower, k) {
				bonus += 0.1
			}
		}

		r.RelevanceScore = clampScore(r.RelevanceScore + bonus)
		if r.RelevanceScore >= minRelevance {
			validated = append(validated, r)
		}
	}

	sort.SliceStable(validated, func(a, b int) bool {
		return validated[a].RelevanceScore > validated[b].RelevanceScore
	})

	return validated
}
