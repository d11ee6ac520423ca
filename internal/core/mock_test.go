package core

import (
	"context"
	"sync"

	"github.com/mnfctr/datasheet-rag/internal/core/model"
	"github.com/mnfctr/datasheet-rag/internal/llm"
	"github.com/mnfctr/datasheet-rag/internal/store"
)

type MockSearcher struct {
	SourceType model.SourceType
	Items      []model.EvidenceItem
	Err        error
}

func (m *MockSearcher) Type() model.SourceType {
	return m.SourceType
}

func (m *MockSearcher) Search(ctx context.Context, req *model.MultiQueryRequest) ([]model.EvidenceItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Items, nil
}

type MockLLM struct {
	Response      string
	ResponseQueue []string
	Err           error
	Prompts       []string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}

func (m *MockLLM) GenerateStream(ctx context.Context, prompt string, opts llm.GenerateOptions, fn func(chunk string) error) error {
	text, err := m.Generate(ctx, prompt, opts)
	if err != nil {
		return err
	}
	return fn(text)
}

func (m *MockLLM) Available(ctx context.Context) bool { return true }
func (m *MockLLM) HasModel(ctx context.Context) bool  { return true }
func (m *MockLLM) ModelName() string                  { return "mock-model" }

type MockMetadataStore struct {
	mu      sync.Mutex
	Docs    map[string]store.DocumentRecord
	Logged  []*store.QueryLogRecord
	DocsErr error
	LogErr  error
}

func (m *MockMetadataStore) DocumentsByID(ctx context.Context, ids []string) (map[string]store.DocumentRecord, error) {
	if m.DocsErr != nil {
		return nil, m.DocsErr
	}
	out := make(map[string]store.DocumentRecord)
	for _, id := range ids {
		if rec, ok := m.Docs[id]; ok {
			out[id] = rec
		}
	}
	return out, nil
}

func (m *MockMetadataStore) AppendQueryLog(ctx context.Context, rec *store.QueryLogRecord) error {
	if m.LogErr != nil {
		return m.LogErr
	}
	m.mu.Lock()
	m.Logged = append(m.Logged, rec)
	m.mu.Unlock()
	return nil
}

func (m *MockMetadataStore) LoggedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Logged)
}
