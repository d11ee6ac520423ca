package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnfctr/datasheet-rag/internal/core"
	"github.com/mnfctr/datasheet-rag/internal/core/answer"
	"github.com/mnfctr/datasheet-rag/internal/core/model"
	"github.com/mnfctr/datasheet-rag/internal/core/quality"
	"github.com/mnfctr/datasheet-rag/internal/core/source"
	"github.com/mnfctr/datasheet-rag/internal/llm"
)

type stubSearcher struct {
	sourceType model.SourceType
	items      []model.EvidenceItem
	err        error
}

func (s *stubSearcher) Type() model.SourceType { return s.sourceType }

func (s *stubSearcher) Search(ctx context.Context, req *model.MultiQueryRequest) ([]model.EvidenceItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

type stubLLM struct {
	response string
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	return s.response, nil
}

func (s *stubLLM) GenerateStream(ctx context.Context, prompt string, opts llm.GenerateOptions, fn func(chunk string) error) error {
	return fn(s.response)
}

func (s *stubLLM) Available(ctx context.Context) bool { return true }
func (s *stubLLM) HasModel(ctx context.Context) bool  { return true }
func (s *stubLLM) ModelName() string                  { return "stub-model" }

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	docs := &stubSearcher{
		sourceType: model.SourceDocuments,
		items: []model.EvidenceItem{{
			SourceType:     model.SourceDocuments,
			SourceID:       "c1",
			Content:        "DDR5 동작전압 1.1V입니다 표준사양",
			RelevanceScore: 0.9,
			Document:       &model.DocumentMeta{DocumentID: "doc-1", DocumentName: "ddr5_datasheet.pdf"},
		}},
	}
	web := &stubSearcher{sourceType: model.SourceWebSearch, err: source.ErrDisabled}

	pipeline := core.NewPipeline(
		[]source.Searcher{docs, web},
		answer.NewGenerator(&stubLLM{response: "DDR5 동작전압 1.1V입니다"}, time.Second),
		quality.NewValidator(),
		nil,
		time.Second,
		time.Second,
	)

	return NewServer(pipeline).SetupRouter()
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestQueryEndpoint(t *testing.T) {
	r := newTestRouter()

	w := postJSON(t, r, "/api/query", gin.H{
		"question":  "DDR5의 동작 전압은?",
		"user_role": "engineer",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp model.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "DDR5 동작전압 1.1V입니다", resp.Answer)
	assert.Equal(t, "stub-model", resp.ModelUsed)
	assert.Greater(t, resp.Confidence, 0.0)
	assert.Len(t, resp.Sources, 1)
}

func TestQueryEndpointRejectsBlankQuestion(t *testing.T) {
	r := newTestRouter()

	w := postJSON(t, r, "/api/query", gin.H{"question": "   "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryEndpointRejectsUnknownRole(t *testing.T) {
	r := newTestRouter()

	w := postJSON(t, r, "/api/query", gin.H{
		"question":  "DDR5의 동작 전압은?",
		"user_role": "visitor",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryStreamEndpoint(t *testing.T) {
	r := newTestRouter()

	w := postJSON(t, r, "/api/query/stream", gin.H{
		"question": "DDR5의 동작 전압은?",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DDR5 동작전압 1.1V입니다", w.Body.String())
}

func TestMultiQueryEndpointCombined(t *testing.T) {
	r := newTestRouter()

	w := postJSON(t, r, "/api/query/multi", gin.H{
		"question":     "DDR5의 동작 전압은?",
		"data_sources": []string{"documents"},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp model.MultiQueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "DDR5 동작전압 1.1V입니다", resp.Answer)
	assert.Equal(t, "fast", resp.SearchStrategy)
	assert.Equal(t, 1, resp.SourcesByType[model.SourceDocuments])
}

func TestMultiQueryEndpointUncombined(t *testing.T) {
	r := newTestRouter()

	w := postJSON(t, r, "/api/query/multi", gin.H{
		"question":          "DDR5의 동작 전압은?",
		"data_sources":      []string{"documents", "web_search"},
		"combine_results":   false,
		"enable_web_search": false,
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp model.MultiSearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.SourceResults, 2)
	assert.Equal(t, 1, resp.SuccessfulSources)
	assert.Equal(t, 0, resp.FailedSources)
	assert.Equal(t, model.StatusDisabled, resp.SourceResults[1].Status)
}

func TestMultiQueryEndpointRejectsUnknownSource(t *testing.T) {
	r := newTestRouter()

	w := postJSON(t, r, "/api/query/multi", gin.H{
		"question":     "질문입니다",
		"data_sources": []string{"telepathy"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelfTestRunEndpoint(t *testing.T) {
	r := newTestRouter()

	w := postJSON(t, r, "/api/selftest/run", gin.H{"test_suite": "manufacturing"})

	require.Equal(t, http.StatusOK, w.Code)

	var summary model.SelfTestSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 8, summary.TotalTests)
	// The stub pipeline produces a grounded answer for every suite
	// question, so only the expect-valid ones pass.
	assert.Equal(t, 5, summary.Passed)
	assert.Equal(t, 3, summary.Failed)
	assert.Equal(t, "DDR5 동작전압 1.1V입니다", summary.TestResults[0].ActualAnswer)
}

func TestSelfTestRunEndpointCustomCases(t *testing.T) {
	r := newTestRouter()

	w := postJSON(t, r, "/api/selftest/run", gin.H{
		"custom_cases": []gin.H{
			{"question": "DDR5의 동작 전압은?", "expected_validation": true},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var summary model.SelfTestSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalTests)
	assert.Equal(t, 1, summary.Passed)
}

func TestSelfTestRunEndpointUnknownSuite(t *testing.T) {
	r := newTestRouter()

	w := postJSON(t, r, "/api/selftest/run", gin.H{"test_suite": "telepathy"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSelfTestSuitesEndpoint(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/selftest/suites", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		TestSuites []quality.SuiteInfo `json:"test_suites"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.TestSuites, 4)
	assert.Equal(t, "manufacturing", body.TestSuites[0].Name)
	assert.Equal(t, 8, body.TestSuites[0].TestCount)
}

func TestSelfTestValidateEndpoint(t *testing.T) {
	r := newTestRouter()

	w := postJSON(t, r, "/api/selftest/validate", gin.H{
		"question":   "DDR6의 출시일은?",
		"answer":     "N/A",
		"confidence": 0.2,
	})

	require.Equal(t, http.StatusOK, w.Code)

	var result model.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Issues, "정보를 찾을 수 없음")
}
