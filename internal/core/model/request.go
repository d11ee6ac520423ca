package model

import (
	"fmt"
	"strings"
)

// UserRole selects the answer-instruction template.
type UserRole string

const (
	RoleEngineer UserRole = "engineer"
	RoleQuality  UserRole = "quality"
	RoleSales    UserRole = "sales"
	RoleSupport  UserRole = "support"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleEngineer, RoleQuality, RoleSales, RoleSupport:
		return true
	}
	return false
}

const MaxQuestionLength = 1000

// QueryRequest is a single-source (document) query.
type QueryRequest struct {
	Question       string   `json:"question" binding:"required,min=1,max=1000"`
	UserRole       UserRole `json:"user_role"`
	DocumentFilter string   `json:"document_filter,omitempty"`
	TopK           int      `json:"top_k" binding:"omitempty,min=1,max=20"`
}

// Default per-source weights, applied when a weight is omitted from
// the request.
const (
	DefaultDocumentsWeight = 0.6
	DefaultDatabaseWeight  = 0.3
	DefaultWebSearchWeight = 0.1
)

// SourceWeights rescales per-source relevance scores. Independent
// scalars in [0,1]; they are not required to sum to 1. An omitted
// field means the default weight for that source, never zero.
type SourceWeights struct {
	Documents *float64 `json:"documents" binding:"omitempty,min=0,max=1"`
	Database  *float64 `json:"database" binding:"omitempty,min=0,max=1"`
	WebSearch *float64 `json:"web_search" binding:"omitempty,min=0,max=1"`
}

func (w *SourceWeights) For(t SourceType) float64 {
	switch t {
	case SourceDocuments:
		return weightOr(w.Documents, DefaultDocumentsWeight)
	case SourceDatabase:
		return weightOr(w.Database, DefaultDatabaseWeight)
	case SourceWebSearch:
		return weightOr(w.WebSearch, DefaultWebSearchWeight)
	}
	return 1.0
}

func weightOr(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

// MultiQueryRequest is a multi-source fusion query.
type MultiQueryRequest struct {
	Question        string         `json:"question" binding:"required,min=1,max=1000"`
	UserRole        UserRole       `json:"user_role"`
	DataSources     []SourceType   `json:"data_sources"`
	DocumentFilter  string         `json:"document_filter,omitempty"`
	TopKPerSource   int            `json:"top_k_per_source" binding:"omitempty,min=1,max=10"`
	EnableWebSearch bool           `json:"enable_web_search"`
	WebSearchQuery  string         `json:"web_search_query,omitempty"`
	CombineResults  *bool          `json:"combine_results,omitempty"`
	SourceWeights   *SourceWeights `json:"source_weights,omitempty"`
	MinRelevance    *float64       `json:"min_relevance_threshold,omitempty" binding:"omitempty,min=0,max=1"`
}

// Normalize fills defaults and rejects malformed input before any
// collaborator is invoked.
func (r *MultiQueryRequest) Normalize() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return fmt.Errorf("question must not be blank")
	}
	if len([]rune(r.Question)) > MaxQuestionLength {
		return fmt.Errorf("question exceeds %d characters", MaxQuestionLength)
	}
	if r.UserRole == "" {
		r.UserRole = RoleEngineer
	}
	if !r.UserRole.Valid() {
		return fmt.Errorf("unknown user role: %s", r.UserRole)
	}
	if len(r.DataSources) == 0 {
		r.DataSources = []SourceType{SourceDocuments}
	}
	for _, s := range r.DataSources {
		if !s.Valid() {
			return fmt.Errorf("unknown data source: %s", s)
		}
	}
	if r.TopKPerSource == 0 {
		r.TopKPerSource = 3
	}
	if r.TopKPerSource < 1 || r.TopKPerSource > 10 {
		return fmt.Errorf("top_k_per_source out of range [1,10]: %d", r.TopKPerSource)
	}
	return nil
}

// Combine reports whether fused answer generation was requested.
// Defaults to true when the field is omitted.
func (r *MultiQueryRequest) Combine() bool {
	return r.CombineResults == nil || *r.CombineResults
}

// Normalize fills defaults and validates the single-source request.
func (r *QueryRequest) Normalize() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return fmt.Errorf("question must not be blank")
	}
	if len([]rune(r.Question)) > MaxQuestionLength {
		return fmt.Errorf("question exceeds %d characters", MaxQuestionLength)
	}
	if r.UserRole == "" {
		r.UserRole = RoleEngineer
	}
	if !r.UserRole.Valid() {
		return fmt.Errorf("unknown user role: %s", r.UserRole)
	}
	if r.TopK == 0 {
		r.TopK = 5
	}
	if r.TopK < 1 || r.TopK > 20 {
		return fmt.Errorf("top_k out of range [1,20]: %d", r.TopK)
	}
	return nil
}
