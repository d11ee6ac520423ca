package model

// QueryResponse is the single-source answer bundle.
type QueryResponse struct {
	Answer      string         `json:"answer"`
	Confidence  float64        `json:"confidence"`
	Sources     []EvidenceItem `json:"sources"`
	QueryTimeMs int64          `json:"query_time_ms"`
	ModelUsed   string         `json:"model_used"`
}

// MultiQueryResponse is the fused multi-source answer bundle.
type MultiQueryResponse struct {
	Answer               string             `json:"answer"`
	Confidence           float64            `json:"confidence"`
	Sources              []EvidenceItem     `json:"sources"`
	QueryTimeMs          int64              `json:"query_time_ms"`
	ModelUsed            string             `json:"model_used"`
	SourcesByType        map[SourceType]int `json:"sources_by_type"`
	SearchStrategy       string             `json:"search_strategy"`
	TotalSourcesSearched int                `json:"total_sources_searched"`
}

// MultiSearchResponse returns per-source results without fusion, for
// callers that asked not to combine.
type MultiSearchResponse struct {
	Question          string               `json:"question"`
	SourceResults     []SourceSearchResult `json:"source_results"`
	TotalSearchTimeMs int64                `json:"total_search_time_ms"`
	SuccessfulSources int                  `json:"successful_sources"`
	FailedSources     int                  `json:"failed_sources"`
}
