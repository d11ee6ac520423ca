package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mnfctr/datasheet-rag/internal/core/model"
	"github.com/mnfctr/datasheet-rag/internal/llm"
)

var roleInstructions = map[model.UserRole]string{
	model.RoleEngineer: "기술적 세부사항, 사양, 설계 파라미터에 집중하여 정확한 수치와 조건을 포함해 답변하세요.",
	model.RoleQuality:  "품질 기준, 한계치, 테스트 조건, 규격 준수 사항에 중점을 두어 답변하세요.",
	model.RoleSales:    "제품의 특징, 장점, 경쟁 우위를 강조하여 고객 가치 중심으로 답변하세요.",
	model.RoleSupport:  "문제해결 방법, 호환성 정보, 실용적인 해결책에 초점을 맞춰 답변하세요.",
}

// Generator builds the role-aware grounded prompt and obtains one
// answer from the text-generation collaborator. It performs no
// validation of the result.
type Generator struct {
	LLM     llm.LLMClient
	Timeout time.Duration
}

func NewGenerator(client llm.LLMClient, timeout time.Duration) *Generator {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Generator{LLM: client, Timeout: timeout}
}

// BuildPrompt embeds the fused context and the question into the fixed
// instruction template for the given role.
func BuildPrompt(question, contextText string, role model.UserRole) string {
	instruction, ok := roleInstructions[role]
	if !ok {
		instruction = roleInstructions[model.RoleEngineer]
	}

	return fmt.Sprintf(`다음 질문에 대해 제공된 정보를 바탕으로 정확하고 유용한 답변을 제공하세요.

질문: %s

역할 지침: %s

참고 정보:
%s

답변 지침:
1. 제공된 정보만을 바탕으로 답변하세요
2. 추측이나 불확실한 정보는 언급하지 마세요
3. 관련 소스를 적절히 인용하세요
4. 간결하고 명확하게 답변하세요

답변:`, question, instruction, contextText)
}

// Generate issues one call to the generation collaborator under the
// configured timeout. Generation failures are fatal to the request;
// callers surface them via Categorize.
func (g *Generator) Generate(ctx context.Context, question, contextText string, role model.UserRole) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	prompt := BuildPrompt(question, contextText, role)

	text, err := g.LLM.Generate(ctx, prompt, llm.GenerateOptions{
		Temperature: 0.1,
		MaxTokens:   512,
	})
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// GenerateStream is the streaming variant of Generate.
func (g *Generator) GenerateStream(ctx context.Context, question, contextText string, role model.UserRole, fn func(chunk string) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	prompt := BuildPrompt(question, contextText, role)

	err := g.LLM.GenerateStream(ctx, prompt, llm.GenerateOptions{
		Temperature: 0.1,
		MaxTokens:   512,
	}, fn)
	if err != nil {
		return fmt.Errorf("streaming generation failed: %w", err)
	}
	return nil
}

// Categorize maps a generation error onto a user-readable message;
// stack traces and raw errors never reach the caller.
func Categorize(err error) string {
	msg := "질의 처리 중 오류가 발생했습니다. "
	errText := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(errText, "timeout"):
		msg += "응답 시간이 초과되었습니다. 더 구체적인 질문으로 다시 시도해주세요."
	case strings.Contains(errText, "connection") || strings.Contains(errText, "connect"):
		msg += "서비스 연결에 문제가 있습니다. 잠시 후 다시 시도해주세요."
	case strings.Contains(errText, "model") || strings.Contains(errText, "load"):
		msg += "AI 모델 로드 중입니다. 잠시 후 다시 시도해주세요."
	default:
		msg += "관리자에게 문의하거나 잠시 후 다시 시도해주세요."
	}

	return msg
}
