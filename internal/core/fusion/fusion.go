package fusion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mnfctr/datasheet-rag/internal/core/model"
)

// TopEvidenceLimit bounds how many fused items feed the generation
// context.
const TopEvidenceLimit = 10

// Fused is the merged, ranked evidence set from all successful sources.
type Fused struct {
	// Items is the ranked evidence, capped at TopEvidenceLimit.
	Items []model.EvidenceItem
	// SourcesByType counts contributed items per source, zero for
	// failed or disabled sources.
	SourcesByType map[model.SourceType]int
	// TotalSearched counts all merged evidence before filtering or
	// truncation.
	TotalSearched int
}

// Fuse merges per-source results into one ranked set. Weights rescale
// scores per source; the threshold drops items strictly below it after
// weighting. The sort is stable, so equal scores keep source-arrival
// order, and the whole operation is deterministic for identical input.
func Fuse(results []model.SourceSearchResult, weights *model.SourceWeights, minRelevance *float64) Fused {
	fused := Fused{
		SourcesByType: make(map[model.SourceType]int, len(results)),
	}

	var all []model.EvidenceItem
	for _, sr := range results {
		if sr.Status != model.StatusSuccess {
			fused.SourcesByType[sr.SourceType] = 0
			continue
		}
		fused.SourcesByType[sr.SourceType] = len(sr.Items)
		all = append(all, sr.Items...)
	}
	fused.TotalSearched = len(all)

	if weights != nil {
		for i := range all {
			all[i].RelevanceScore *= weights.For(all[i].SourceType)
		}
	}

	if minRelevance != nil {
		kept := all[:0]
		for _, item := range all {
			if item.RelevanceScore >= *minRelevance {
				kept = append(kept, item)
			}
		}
		all = kept
	}

	sort.SliceStable(all, func(a, b int) bool {
		return all[a].RelevanceScore > all[b].RelevanceScore
	})

	if len(all) > TopEvidenceLimit {
		all = all[:TopEvidenceLimit]
	}
	fused.Items = all

	return fused
}

// BuildContext renders ranked evidence into the generation context,
// one labeled block per item in rank order.
func BuildContext(items []model.EvidenceItem) string {
	parts := make([]string, 0, len(items))
	for i, item := range items {
		label := fmt.Sprintf("[소스 %d]", i+1)
		switch item.SourceType {
		case model.SourceDocuments:
			if item.Document != nil {
				label += fmt.Sprintf(" (문서: %s)", item.Document.DocumentName)
			}
		case model.SourceDatabase:
			kind := "unknown"
			if item.History != nil {
				kind = item.History.Kind
			}
			label += fmt.Sprintf(" (DB: %s)", kind)
		case model.SourceWebSearch:
			if item.Web != nil {
				label += fmt.Sprintf(" (웹: %s)", item.Web.Site)
			}
		}
		parts = append(parts, label+"\n"+item.Content)
	}
	return strings.Join(parts, "\n\n")
}
