package source

import (
	"context"

	"github.com/mnfctr/datasheet-rag/internal/store"
	"github.com/mnfctr/datasheet-rag/internal/websearch"
)

// MockEmbedder maps exact input text to a fixed vector. Unknown text
// gets the Default vector.
type MockEmbedder struct {
	Vectors map[string][]float32
	Default []float32
	Err     error
	Calls   []string
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Calls = append(m.Calls, text)
	if m.Err != nil {
		return nil, m.Err
	}
	if v, ok := m.Vectors[text]; ok {
		return v, nil
	}
	return m.Default, nil
}

type MockHistoryStore struct {
	Documents  []store.DocumentRecord
	Queries    []store.QueryLogRecord
	DocsErr    error
	QueriesErr error
}

func (m *MockHistoryStore) CompletedDocuments(ctx context.Context) ([]store.DocumentRecord, error) {
	if m.DocsErr != nil {
		return nil, m.DocsErr
	}
	return m.Documents, nil
}

func (m *MockHistoryStore) RecentHighConfidenceQueries(ctx context.Context, minConfidence float64, limit int) ([]store.QueryLogRecord, error) {
	if m.QueriesErr != nil {
		return nil, m.QueriesErr
	}
	return m.Queries, nil
}

type MockWebClient struct {
	Results []websearch.Result
	Err     error
	Queries []string
}

func (m *MockWebClient) Search(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Results, nil
}
