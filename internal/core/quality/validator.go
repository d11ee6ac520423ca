package quality

import (
	"regexp"
	"strings"

	"github.com/mnfctr/datasheet-rag/internal/core/model"
)

// Validator grades answers with deterministic, rule-based checks.
// It holds compiled patterns only and is safe for concurrent use.
type Validator struct {
	boilerplatePatterns     []*regexp.Regexp
	hallucinationIndicators []*regexp.Regexp
	confidenceKeywords      map[model.RiskLevel][]string
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]{3,}`)

func NewValidator() *Validator {
	boilerplate := []string{
		`도와드릴 수 있`, `어떻게.*도와`, `무엇.*원하시`,
		`As an AI`, `I'm an AI`, `assist you`,
		`죄송합니다.*도와드리지`, `더 구체적으로.*말씀해`,
	}

	hallucination := []string{
		`확실하지.*않지만`, `추측.*입니다`, `아마도`,
		`것 같습니다`, `생각됩니다`, `추정.*됩니다`,
	}

	v := &Validator{
		confidenceKeywords: map[model.RiskLevel][]string{
			model.RiskHigh:   {"정확히", "명시되어", "문서에 따르면", "사양서에서"},
			model.RiskMedium: {"일반적으로", "보통", "대체로"},
			model.RiskLow:    {"가능성이", "추정", "예상", "것으로 보임"},
		},
	}
	for _, p := range boilerplate {
		v.boilerplatePatterns = append(v.boilerplatePatterns, regexp.MustCompile(`(?i)`+p))
	}
	for _, p := range hallucination {
		v.hallucinationIndicators = append(v.hallucinationIndicators, regexp.MustCompile(`(?i)`+p))
	}
	return v
}

// ValidateAnswer runs the four checks and combines them into one
// quality score and an adjusted confidence.
func (v *Validator) ValidateAnswer(question, answer string, sources []model.EvidenceItem, confidence float64) *model.ValidationResult {
	result := &model.ValidationResult{
		IsValid:            true,
		Issues:             []string{},
		Suggestions:        []string{},
		ConfidenceAdjusted: confidence,
	}

	basic := v.validateBasicAnswer(answer)
	result.Details.Basic = basic
	if !basic.IsValid {
		result.IsValid = false
		result.Issues = append(result.Issues, basic.Issues...)
	}

	hallucination := v.checkHallucination(answer)
	result.Details.Hallucination = hallucination
	if hallucination.RiskLevel == model.RiskHigh {
		result.ConfidenceAdjusted *= 0.5
		result.Issues = append(result.Issues, "높은 환각 위험 감지")
	}

	consistency := v.validateSourceConsistency(answer, sources)
	result.Details.SourceConsistency = consistency
	if !consistency.IsConsistent {
		result.ConfidenceAdjusted *= 0.7
		result.Issues = append(result.Issues, "소스와의 일치성 부족")
	}

	keywords := v.analyzeConfidenceKeywords(answer)
	result.Details.ConfidenceKeywords = keywords

	result.QualityScore = calculateQualityScore(basic, hallucination, consistency, keywords)
	result.Suggestions = generateSuggestions(result)

	return result
}

func (v *Validator) validateBasicAnswer(answer string) model.BasicCheck {
	check := model.BasicCheck{
		IsValid: true,
		Issues:  []string{},
		Checks:  map[string]bool{},
	}

	trimmed := strings.TrimSpace(answer)

	if len([]rune(trimmed)) < 5 {
		check.IsValid = false
		check.Issues = append(check.Issues, "답변이 너무 짧거나 비어있음")
		check.Checks["length"] = false
	} else {
		check.Checks["length"] = true
	}

	if strings.EqualFold(trimmed, "N/A") {
		check.IsValid = false
		check.Issues = append(check.Issues, "정보를 찾을 수 없음")
		check.Checks["not_na"] = false
	} else {
		check.Checks["not_na"] = true
	}

	isBoilerplate := false
	for _, pattern := range v.boilerplatePatterns {
		if pattern.MatchString(answer) {
			isBoilerplate = true
			break
		}
	}
	if isBoilerplate {
		check.IsValid = false
		check.Issues = append(check.Issues, "일반적인 AI 응답 템플릿 감지")
		check.Checks["not_boilerplate"] = false
	} else {
		check.Checks["not_boilerplate"] = true
	}

	return check
}

func (v *Validator) checkHallucination(answer string) model.HallucinationCheck {
	check := model.HallucinationCheck{
		RiskLevel:       model.RiskLow,
		IndicatorsFound: []string{},
	}

	for _, pattern := range v.hallucinationIndicators {
		if pattern.MatchString(answer) {
			check.IndicatorsFound = append(check.IndicatorsFound, pattern.String())
			check.RiskScore += 0.2
		}
	}

	switch {
	case check.RiskScore >= 0.6:
		check.RiskLevel = model.RiskHigh
	case check.RiskScore >= 0.3:
		check.RiskLevel = model.RiskMedium
	}

	return check
}

func (v *Validator) validateSourceConsistency(answer string, sources []model.EvidenceItem) model.ConsistencyCheck {
	check := model.ConsistencyCheck{
		IsConsistent:     true,
		ConsistencyScore: 1.0,
	}

	if len(sources) == 0 {
		check.IsConsistent = false
		check.ConsistencyScore = 0.0
		return check
	}

	answerWords := wordSet(answer)

	sourceWords := make(map[string]struct{})
	for _, source := range sources {
		for w := range wordSet(source.Content) {
			sourceWords[w] = struct{}{}
		}
	}

	if len(answerWords) > 0 && len(sourceWords) > 0 {
		overlap := 0
		for w := range answerWords {
			if _, ok := sourceWords[w]; ok {
				overlap++
			}
		}
		check.SourceCoverage = float64(overlap) / float64(len(answerWords))

		if check.SourceCoverage < 0.3 {
			check.IsConsistent = false
			check.ConsistencyScore = check.SourceCoverage
		}
	}

	return check
}

func (v *Validator) analyzeConfidenceKeywords(answer string) model.KeywordCheck {
	check := model.KeywordCheck{
		ConfidenceLevel: model.RiskMedium,
		KeywordsFound: map[string][]string{
			"high":   {},
			"medium": {},
			"low":    {},
		},
	}

	for level, keywords := range v.confidenceKeywords {
		for _, keyword := range keywords {
			if strings.Contains(answer, keyword) {
				check.KeywordsFound[string(level)] = append(check.KeywordsFound[string(level)], keyword)
			}
		}
	}

	if len(check.KeywordsFound["high"]) > 0 {
		check.ConfidenceLevel = model.RiskHigh
	} else if len(check.KeywordsFound["low"]) > 0 {
		check.ConfidenceLevel = model.RiskLow
	}

	return check
}

// Composite weights: basic 40%, hallucination 30%, consistency 20%,
// confidence keywords 10%.
func calculateQualityScore(basic model.BasicCheck, hallucination model.HallucinationCheck, consistency model.ConsistencyCheck, keywords model.KeywordCheck) float64 {
	score := 0.0

	if basic.IsValid {
		score += 0.4
	}

	switch hallucination.RiskLevel {
	case model.RiskLow:
		score += 0.3
	case model.RiskMedium:
		score += 0.15
	}

	score += 0.2 * consistency.ConsistencyScore

	switch keywords.ConfidenceLevel {
	case model.RiskHigh:
		score += 0.1
	case model.RiskMedium:
		score += 0.05
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func generateSuggestions(result *model.ValidationResult) []string {
	suggestions := []string{}

	if result.QualityScore < 0.5 {
		suggestions = append(suggestions, "답변 품질이 낮습니다. 더 구체적인 정보가 필요합니다.")
	}
	if result.Details.Hallucination.RiskLevel == model.RiskHigh {
		suggestions = append(suggestions, "추측성 표현을 줄이고 확실한 정보만 제공하세요.")
	}
	if !result.Details.SourceConsistency.IsConsistent {
		suggestions = append(suggestions, "소스 문서의 내용을 더 정확히 반영하세요.")
	}
	if result.ConfidenceAdjusted < 0.5 {
		suggestions = append(suggestions, "신뢰도가 낮습니다. 더 정확한 소스가 필요합니다.")
	}

	return suggestions
}

func wordSet(text string) map[string]struct{} {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
