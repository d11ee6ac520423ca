package core

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/mnfctr/datasheet-rag/internal/core/answer"
	"github.com/mnfctr/datasheet-rag/internal/core/fusion"
	"github.com/mnfctr/datasheet-rag/internal/core/model"
	"github.com/mnfctr/datasheet-rag/internal/core/quality"
	"github.com/mnfctr/datasheet-rag/internal/core/source"
	"github.com/mnfctr/datasheet-rag/internal/store"
)

const (
	noEvidenceAnswer = "관련된 정보를 찾을 수 없습니다. 다른 질문을 시도하거나 관련 문서를 업로드해 주세요."
	lowQualityAnswer = "생성된 답변이 품질 기준에 미치지 못했습니다. 질문을 더 구체적으로 작성해 주시거나 다른 방식으로 문의해 주세요."

	// Raw confidence handed to validation on the fused path, before
	// the validator adjusts it.
	fusedBaseConfidence = 0.8

	lowQualityScoreFloor = 0.3
	fallbackConfidence   = 0.1

	// Stand-in answer for a self-test case whose pipeline query
	// errored; it surfaces in the summary as a failed test.
	selfTestFailureAnswer = "테스트 실행 실패"
)

// MetadataStore is the slice of the SQL store the pipeline needs.
type MetadataStore interface {
	DocumentsByID(ctx context.Context, ids []string) (map[string]store.DocumentRecord, error)
	AppendQueryLog(ctx context.Context, rec *store.QueryLogRecord) error
}

// Pipeline wires evidence sources, fusion, answer generation and
// quality validation into the query operations the server exposes.
type Pipeline struct {
	searchers map[model.SourceType]source.Searcher
	generator *answer.Generator
	validator *quality.Validator
	metadata  MetadataStore

	storeTimeout    time.Duration
	logWriteTimeout time.Duration
}

func NewPipeline(searchers []source.Searcher, gen *answer.Generator, val *quality.Validator, meta MetadataStore, storeTimeout, logWriteTimeout time.Duration) *Pipeline {
	byType := make(map[model.SourceType]source.Searcher, len(searchers))
	for _, s := range searchers {
		byType[s.Type()] = s
	}
	if storeTimeout == 0 {
		storeTimeout = 10 * time.Second
	}
	if logWriteTimeout == 0 {
		logWriteTimeout = 5 * time.Second
	}
	return &Pipeline{
		searchers:       byType,
		generator:       gen,
		validator:       val,
		metadata:        meta,
		storeTimeout:    storeTimeout,
		logWriteTimeout: logWriteTimeout,
	}
}

// searchAll fans the request out to every selected source and collects
// typed per-source results in request order. A source failing never
// aborts the others.
func (p *Pipeline) searchAll(ctx context.Context, req *model.MultiQueryRequest) []model.SourceSearchResult {
	results := make([]model.SourceSearchResult, len(req.DataSources))

	var wg sync.WaitGroup
	for i, st := range req.DataSources {
		wg.Add(1)
		go func(i int, st model.SourceType) {
			defer wg.Done()
			results[i] = p.searchOne(ctx, st, req)
		}(i, st)
	}
	wg.Wait()

	return results
}

func (p *Pipeline) searchOne(ctx context.Context, st model.SourceType, req *model.MultiQueryRequest) model.SourceSearchResult {
	s, ok := p.searchers[st]
	if !ok {
		return model.SourceSearchResult{
			SourceType:   st,
			Status:       model.StatusFailed,
			ErrorMessage: "no searcher registered for source",
		}
	}

	start := time.Now()
	items, err := s.Search(ctx, req)
	switch {
	case errors.Is(err, source.ErrDisabled):
		return model.SourceSearchResult{SourceType: st, Status: model.StatusDisabled}
	case err != nil:
		log.Warn().Str("source", string(st)).Err(err).Msg("source search failed")
		return model.SourceSearchResult{
			SourceType:   st,
			Status:       model.StatusFailed,
			ErrorMessage: err.Error(),
		}
	}

	return model.SourceSearchResult{
		SourceType:   st,
		Items:        items,
		SearchTimeMs: time.Since(start).Milliseconds(),
		TotalFound:   len(items),
		Status:       model.StatusSuccess,
	}
}

// determineStrategy labels the search plan for response telemetry.
// It never changes behavior.
func determineStrategy(req *model.MultiQueryRequest) string {
	if len(req.DataSources) == 1 {
		return "fast"
	}
	for _, st := range req.DataSources {
		if st == model.SourceWebSearch {
			return "comprehensive"
		}
	}
	if req.TopKPerSource <= 3 {
		return "fast"
	}
	return "balanced"
}

// MultiQuery searches all selected sources, fuses the evidence and
// generates one answer over the combined context.
func (p *Pipeline) MultiQuery(ctx context.Context, req *model.MultiQueryRequest) (*model.MultiQueryResponse, error) {
	start := time.Now()
	qid := uuid.NewString()
	log.Info().Str("query_id", qid).Str("question", req.Question).Int("sources", len(req.DataSources)).Msg("multi-source query started")

	results := p.searchAll(ctx, req)
	fused := fusion.Fuse(results, req.SourceWeights, req.MinRelevance)

	if len(fused.Items) == 0 {
		return &model.MultiQueryResponse{
			Answer:               noEvidenceAnswer,
			Confidence:           0,
			Sources:              []model.EvidenceItem{},
			QueryTimeMs:          time.Since(start).Milliseconds(),
			ModelUsed:            "N/A",
			SourcesByType:        fused.SourcesByType,
			SearchStrategy:       determineStrategy(req),
			TotalSourcesSearched: fused.TotalSearched,
		}, nil
	}

	contextText := fusion.BuildContext(fused.Items)

	ans, err := p.generator.Generate(ctx, req.Question, contextText, req.UserRole)
	confidence := fusedBaseConfidence
	if err != nil {
		log.Error().Str("query_id", qid).Err(err).Msg("answer generation failed")
		ans = answer.Categorize(err)
		confidence = 0
	} else if p.validator != nil {
		validation := p.validator.ValidateAnswer(req.Question, ans, fused.Items, confidence)
		confidence = validation.ConfidenceAdjusted
		if !validation.IsValid {
			log.Warn().Float64("quality_score", validation.QualityScore).Strs("issues", validation.Issues).Msg("fused answer failed validation")
		}
	}

	return &model.MultiQueryResponse{
		Answer:               ans,
		Confidence:           confidence,
		Sources:              fused.Items,
		QueryTimeMs:          time.Since(start).Milliseconds(),
		ModelUsed:            p.generator.LLM.ModelName(),
		SourcesByType:        fused.SourcesByType,
		SearchStrategy:       determineStrategy(req),
		TotalSourcesSearched: fused.TotalSearched,
	}, nil
}

// SearchSources runs the fan-out without fusion or generation, for
// requests with combine_results=false.
func (p *Pipeline) SearchSources(ctx context.Context, req *model.MultiQueryRequest) *model.MultiSearchResponse {
	start := time.Now()
	results := p.searchAll(ctx, req)

	resp := &model.MultiSearchResponse{
		Question:          req.Question,
		SourceResults:     results,
		TotalSearchTimeMs: time.Since(start).Milliseconds(),
	}
	for _, r := range results {
		switch r.Status {
		case model.StatusSuccess:
			resp.SuccessfulSources++
		case model.StatusFailed:
			resp.FailedSources++
		}
	}
	return resp
}

// Query answers a single question over the document index only.
func (p *Pipeline) Query(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	start := time.Now()
	qid := uuid.NewString()
	log.Info().Str("query_id", qid).Str("question", req.Question).Str("role", string(req.UserRole)).Msg("query started")

	docs, ok := p.searchers[model.SourceDocuments]
	if !ok {
		return nil, errors.New("document source not configured")
	}

	items, err := docs.Search(ctx, &model.MultiQueryRequest{
		Question:       req.Question,
		UserRole:       req.UserRole,
		DocumentFilter: req.DocumentFilter,
		TopKPerSource:  req.TopK,
	})
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return &model.QueryResponse{
			Answer:      noEvidenceAnswer,
			Confidence:  0,
			Sources:     []model.EvidenceItem{},
			QueryTimeMs: time.Since(start).Milliseconds(),
			ModelUsed:   "N/A",
		}, nil
	}

	p.enrichDocumentMeta(ctx, items)

	contextText := fusion.BuildContext(items)
	ans, err := p.generator.Generate(ctx, req.Question, contextText, req.UserRole)
	if err != nil {
		log.Error().Str("query_id", qid).Err(err).Msg("answer generation failed")
		return &model.QueryResponse{
			Answer:      answer.Categorize(err),
			Confidence:  0,
			Sources:     items,
			QueryTimeMs: time.Since(start).Milliseconds(),
			ModelUsed:   p.generator.LLM.ModelName(),
		}, nil
	}

	confidence := computeConfidence(items, ans)
	if p.validator != nil {
		validation := p.validator.ValidateAnswer(req.Question, ans, items, confidence)
		if !validation.IsValid || validation.QualityScore < lowQualityScoreFloor {
			log.Warn().Float64("quality_score", validation.QualityScore).Strs("issues", validation.Issues).Msg("answer replaced after failed validation")
			ans = lowQualityAnswer
			confidence = fallbackConfidence
		} else {
			confidence = validation.ConfidenceAdjusted
		}
	}

	resp := &model.QueryResponse{
		Answer:      ans,
		Confidence:  confidence,
		Sources:     items,
		QueryTimeMs: time.Since(start).Milliseconds(),
		ModelUsed:   p.generator.LLM.ModelName(),
	}

	p.logQuery(req, resp)

	return resp, nil
}

// QueryStream answers over the document index, delivering the answer
// incrementally. No validation or query logging runs on this path;
// chunks are forwarded as the generator produces them.
func (p *Pipeline) QueryStream(ctx context.Context, req *model.QueryRequest, fn func(chunk string) error) error {
	docs, ok := p.searchers[model.SourceDocuments]
	if !ok {
		return errors.New("document source not configured")
	}

	items, err := docs.Search(ctx, &model.MultiQueryRequest{
		Question:       req.Question,
		UserRole:       req.UserRole,
		DocumentFilter: req.DocumentFilter,
		TopKPerSource:  req.TopK,
	})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fn(noEvidenceAnswer)
	}

	contextText := fusion.BuildContext(items)
	return p.generator.GenerateStream(ctx, req.Question, contextText, req.UserRole, fn)
}

// enrichDocumentMeta attaches product metadata from the SQL store to
// document evidence. Failures degrade to unenriched items.
func (p *Pipeline) enrichDocumentMeta(ctx context.Context, items []model.EvidenceItem) {
	if p.metadata == nil {
		return
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, it := range items {
		if it.Document == nil || it.Document.DocumentID == "" {
			continue
		}
		if _, dup := seen[it.Document.DocumentID]; dup {
			continue
		}
		seen[it.Document.DocumentID] = struct{}{}
		ids = append(ids, it.Document.DocumentID)
	}
	if len(ids) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	recs, err := p.metadata.DocumentsByID(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Msg("document metadata lookup failed")
		return
	}

	for i := range items {
		d := items[i].Document
		if d == nil {
			continue
		}
		rec, found := recs[d.DocumentID]
		if !found {
			continue
		}
		if items[i].Extra == nil {
			items[i].Extra = make(map[string]string, 4)
		}
		items[i].Extra["document_type"] = rec.DocumentType
		items[i].Extra["product_family"] = rec.ProductFamily
		items[i].Extra["product_model"] = rec.ProductModel
		items[i].Extra["version"] = rec.Version
	}
}

// logQuery records the answered query best-effort; a write failure is
// logged and swallowed.
func (p *Pipeline) logQuery(req *model.QueryRequest, resp *model.QueryResponse) {
	if p.metadata == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.logWriteTimeout)
	defer cancel()

	err := p.metadata.AppendQueryLog(ctx, &store.QueryLogRecord{
		Question:    req.Question,
		UserRole:    string(req.UserRole),
		Answer:      resp.Answer,
		Confidence:  resp.Confidence,
		QueryTimeMs: resp.QueryTimeMs,
		ModelUsed:   resp.ModelUsed,
		SourceCount: len(resp.Sources),
	})
	if err != nil {
		log.Warn().Err(err).Msg("query log write failed")
	}
}

// computeConfidence blends mean source relevance with answer length.
func computeConfidence(items []model.EvidenceItem, ans string) float64 {
	var sum float64
	for _, it := range items {
		sum += it.RelevanceScore
	}
	avg := sum / float64(len(items))

	lengthFactor := math.Min(float64(len([]rune(ans)))/100.0, 1.0)

	c := 0.7*avg + 0.3*lengthFactor
	return math.Round(c*1000) / 1000
}

// RunSelfTest executes a self-test run. Custom cases take precedence;
// otherwise the named predefined suite is used. Either way every case
// without an actual answer is answered through the live pipeline
// before validation. A case whose query fails is recorded as a failed
// dummy case instead of aborting the run.
func (p *Pipeline) RunSelfTest(ctx context.Context, suite string, cases []model.SelfTestCase) (*model.SelfTestSummary, error) {
	if len(cases) == 0 {
		questions, err := quality.SuiteQuestions(suite)
		if err != nil {
			return nil, err
		}
		cases = make([]model.SelfTestCase, 0, len(questions))
		for _, q := range questions {
			cases = append(cases, model.SelfTestCase{
				Question:           q.Question,
				ExpectedValidation: q.ExpectedValid,
			})
		}
	}

	for i := range cases {
		if cases[i].ActualAnswer != "" {
			continue
		}
		resp, err := p.Query(ctx, &model.QueryRequest{
			Question: cases[i].Question,
			UserRole: model.RoleEngineer,
			TopK:     5,
		})
		if err != nil {
			log.Warn().Str("question", cases[i].Question).Err(err).Msg("self-test query failed")
			cases[i].ActualAnswer = selfTestFailureAnswer
			cases[i].ExpectedValidation = false
			cases[i].Sources = nil
			cases[i].Confidence = 0
			continue
		}
		cases[i].ActualAnswer = resp.Answer
		cases[i].Sources = resp.Sources
		cases[i].Confidence = resp.Confidence
	}

	return p.validator.RunSelfTest(cases), nil
}

// ValidateAnswer exposes standalone validation of a caller-provided
// answer, without any retrieval or generation.
func (p *Pipeline) ValidateAnswer(question, ans string, sources []model.EvidenceItem, confidence float64) *model.ValidationResult {
	return p.validator.ValidateAnswer(question, ans, sources, confidence)
}
