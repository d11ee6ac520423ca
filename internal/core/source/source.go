package source

import (
	"context"
	"errors"

	"github.com/mnfctr/datasheet-rag/internal/core/model"
)

// ErrDisabled marks a source that is switched off for the request.
// The orchestrator maps it to StatusDisabled without treating it as a
// failure.
var ErrDisabled = errors.New("source disabled for this request")

// Searcher is one evidence source adapter. Implementations tag every
// returned item with their own source type and never panic across this
// boundary; errors are returned as values.
type Searcher interface {
	Type() model.SourceType
	Search(ctx context.Context, req *model.MultiQueryRequest) ([]model.EvidenceItem, error)
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
