package model

// RiskLevel grades hallucination risk and confidence-keyword strength.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type BasicCheck struct {
	IsValid bool            `json:"is_valid"`
	Issues  []string        `json:"issues"`
	Checks  map[string]bool `json:"checks"`
}

type HallucinationCheck struct {
	RiskLevel       RiskLevel `json:"risk_level"`
	IndicatorsFound []string  `json:"indicators_found"`
	RiskScore       float64   `json:"risk_score"`
}

type ConsistencyCheck struct {
	IsConsistent     bool    `json:"is_consistent"`
	ConsistencyScore float64 `json:"consistency_score"`
	SourceCoverage   float64 `json:"source_coverage"`
}

type KeywordCheck struct {
	ConfidenceLevel RiskLevel           `json:"confidence_level"`
	KeywordsFound   map[string][]string `json:"keywords_found"`
}

type ValidationDetails struct {
	Basic              BasicCheck         `json:"basic"`
	Hallucination      HallucinationCheck `json:"hallucination"`
	SourceConsistency  ConsistencyCheck   `json:"source_consistency"`
	ConfidenceKeywords KeywordCheck       `json:"confidence_keywords"`
}

// ValidationResult is the quality engine's verdict on one answer.
type ValidationResult struct {
	IsValid            bool              `json:"is_valid"`
	QualityScore       float64           `json:"quality_score"`
	Issues             []string          `json:"issues"`
	Suggestions        []string          `json:"suggestions"`
	ConfidenceAdjusted float64           `json:"confidence_adjusted"`
	Details            ValidationDetails `json:"validation_details"`
}

// SelfTestCase is one labeled question for the self-test runner.
type SelfTestCase struct {
	Question           string         `json:"question"`
	ExpectedAnswer     string         `json:"expected_answer,omitempty"`
	ActualAnswer       string         `json:"actual_answer,omitempty"`
	ExpectedValidation bool           `json:"expected_validation"`
	Sources            []EvidenceItem `json:"sources,omitempty"`
	Confidence         float64        `json:"confidence,omitempty"`
}

// SelfTestResult is the judged outcome of one case.
type SelfTestResult struct {
	TestID             int               `json:"test_id"`
	Question           string            `json:"question"`
	ExpectedAnswer     string            `json:"expected_answer"`
	ActualAnswer       string            `json:"actual_answer"`
	ExpectedValidation bool              `json:"expected_validation"`
	Passed             bool              `json:"passed"`
	Validation         *ValidationResult `json:"validation_result"`
}

// SelfTestSummary aggregates a self-test run.
type SelfTestSummary struct {
	TotalTests   int              `json:"total_tests"`
	Passed       int              `json:"passed"`
	Failed       int              `json:"failed"`
	TestResults  []SelfTestResult `json:"test_results"`
	OverallScore float64          `json:"overall_score"`
	Timestamp    string           `json:"timestamp"`
}
