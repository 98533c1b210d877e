package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/codegate/api/internal/infra/llm"
	"github.com/codegate/api/internal/metrics"
	"github.com/codegate/api/pkg/domain/vulnerability"
	"github.com/codegate/api/pkg/logger"
)

const aiValidatorSystemPrompt = `You are a security vulnerability validator. You receive one candidate vulnerability found by static analysis and must judge whether it is actually exploitable.

Respond with strict JSON only, no prose, in exactly this shape:
{
  "is_exploitable": boolean,
  "severity": "critical" | "high" | "medium" | "low" | "info",
  "reasoning": string,
  "patch_suggestion": string,
  "confidence": number between 0 and 1
}`

// AIValidator validates vulnerability hypotheses through an LLM provider.
// Validate never returns an error: any call or parse failure resolves to
// the safe default verdict so the scan pipeline always receives a result.
type AIValidator struct {
	provider  llm.Provider
	sanitizer *PromptSanitizer
	maxTokens int
	logger    *logger.Logger
}

// NewAIValidator creates a new AIValidator.
func NewAIValidator(provider llm.Provider, maxTokens int, log *logger.Logger) *AIValidator {
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &AIValidator{
		provider:  provider,
		sanitizer: NewPromptSanitizer(),
		maxTokens: maxTokens,
		logger:    log.With("service", "ai_validator"),
	}
}

// Validate judges one hypothesis. exploit carries the exploit validator's
// matching result as corroborating context when present.
func (v *AIValidator) Validate(ctx context.Context, hyp vulnerability.Hypothesis, exploit *vulnerability.ExploitResult) vulnerability.AIVerdict {
	if v.provider == nil {
		return vulnerability.SafeDefaultVerdict("AI validation unavailable: no provider configured")
	}

	resp, err := v.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: aiValidatorSystemPrompt,
		UserPrompt:   v.buildPrompt(hyp, exploit),
		MaxTokens:    v.maxTokens,
		JSONMode:     true,
	})
	if err != nil {
		metrics.AIValidationsTotal.WithLabelValues("call_failed").Inc()
		v.logger.Warn("AI validation call failed",
			"file", hyp.FilePath,
			"vuln_type", hyp.VulnType,
			"error", err)
		return vulnerability.SafeDefaultVerdict(fmt.Sprintf("AI validation call failed: %v", err))
	}

	parsed := ParseVerdictResponse(resp.Content)
	metrics.AIValidationsTotal.WithLabelValues(string(parsed.Shape)).Inc()
	if parsed.Shape == VerdictShapeUnparseable {
		v.logger.Warn("AI validation response unparseable",
			"file", hyp.FilePath,
			"vuln_type", hyp.VulnType,
			"response_length", len(parsed.Raw))
		return vulnerability.SafeDefaultVerdict("AI response could not be parsed as a verdict")
	}

	v.logger.Debug("AI validation verdict",
		"file", hyp.FilePath,
		"vuln_type", hyp.VulnType,
		"shape", string(parsed.Shape),
		"exploitable", parsed.Verdict.Exploitable,
		"ai_confidence", parsed.Verdict.Confidence)

	return parsed.Verdict
}

// buildPrompt assembles the deterministic validation prompt. All
// hypothesis fields pass through the sanitizer first.
func (v *AIValidator) buildPrompt(hyp vulnerability.Hypothesis, exploit *vulnerability.ExploitResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Vulnerability type: %s\n", v.sanitizer.Sanitize(hyp.VulnType))
	fmt.Fprintf(&b, "Detected pattern: %s\n", v.sanitizer.Sanitize(hyp.Pattern))
	fmt.Fprintf(&b, "Location: %s lines %d-%d\n", v.sanitizer.Sanitize(hyp.FilePath), hyp.StartLine, hyp.EndLine)
	fmt.Fprintf(&b, "Taint source: %s\n", v.sanitizer.Sanitize(hyp.Source))
	fmt.Fprintf(&b, "Taint sink: %s\n", v.sanitizer.Sanitize(hyp.Sink))
	fmt.Fprintf(&b, "Data flow: %s\n\n", v.sanitizer.Sanitize(hyp.DataFlow))
	fmt.Fprintf(&b, "Code snippet:\n```\n%s\n```\n", v.sanitizer.SanitizeSnippet(hyp.Snippet))

	if exploit != nil && exploit.Confirmed {
		fmt.Fprintf(&b, "\nAn independent exploit-validation service confirmed this finding with confidence %.2f: %s\n",
			exploit.Confidence, v.sanitizer.Sanitize(exploit.Details))
	}

	b.WriteString("\nIs this vulnerability exploitable in practice? Answer with the JSON verdict only.")
	return b.String()
}
