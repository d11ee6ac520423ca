package model

// SourceType identifies which evidence source produced an item.
type SourceType string

const (
	SourceDocuments SourceType = "documents"
	SourceDatabase  SourceType = "database"
	SourceWebSearch SourceType = "web_search"
)

func (s SourceType) Valid() bool {
	switch s {
	case SourceDocuments, SourceDatabase, SourceWebSearch:
		return true
	}
	return false
}

// SourceStatus reports how one source's search ended.
type SourceStatus string

const (
	StatusSuccess  SourceStatus = "success"
	StatusPartial  SourceStatus = "partial"
	StatusFailed   SourceStatus = "failed"
	StatusDisabled SourceStatus = "disabled"
)

// DocumentMeta carries document-source identifying fields.
type DocumentMeta struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	PageNumber   int    `json:"page_number,omitempty"`
	Section      string `json:"section,omitempty"`
}

// HistoryMeta carries metadata/history-source identifying fields.
// Kind is "document_metadata" or "query_history".
type HistoryMeta struct {
	Kind       string  `json:"kind"`
	Filename   string  `json:"filename,omitempty"`
	Question   string  `json:"question,omitempty"`
	Answer     string  `json:"answer,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// WebMeta carries web-source identifying fields.
type WebMeta struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Site       string `json:"site"`
	ResultType string `json:"result_type"`
}

// EvidenceItem is one scored text fragment from one source. Exactly one
// of Document/History/Web is set, matching SourceType. Extra is an open
// bag for fields that fit none of the typed structs.
type EvidenceItem struct {
	SourceType     SourceType        `json:"source_type"`
	SourceID       string            `json:"source_id"`
	Content        string            `json:"content"`
	RelevanceScore float64           `json:"relevance_score"`
	Document       *DocumentMeta     `json:"document,omitempty"`
	History        *HistoryMeta      `json:"history,omitempty"`
	Web            *WebMeta          `json:"web,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// SourceSearchResult is one adapter's complete response.
// StatusFailed implies an empty Items slice.
type SourceSearchResult struct {
	SourceType   SourceType     `json:"source_type"`
	Items        []EvidenceItem `json:"results"`
	SearchTimeMs int64          `json:"search_time_ms"`
	TotalFound   int            `json:"total_found"`
	Status       SourceStatus   `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
}
