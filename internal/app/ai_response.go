package app

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/codegate/api/pkg/domain/vulnerability"
)

// =============================================================================
// AI Response Parsing
// =============================================================================

// verdictPayload is the strict JSON shape the AI validator must return.
type verdictPayload struct {
	IsExploitable   bool    `json:"is_exploitable"`
	Severity        string  `json:"severity"`
	Reasoning       string  `json:"reasoning"`
	PatchSuggestion string  `json:"patch_suggestion"`
	Confidence      float64 `json:"confidence"`
}

// ParsedVerdict is the outcome of parsing one AI response. Exactly one of
// the shapes applies; Unparseable carries the raw text for logging.
type ParsedVerdict struct {
	Shape   VerdictShape
	Verdict vulnerability.AIVerdict
	Raw     string
}

// VerdictShape identifies which parse attempt succeeded.
type VerdictShape string

const (
	VerdictShapeClean       VerdictShape = "clean"
	VerdictShapeFenced      VerdictShape = "fenced"
	VerdictShapeEmbedded    VerdictShape = "embedded"
	VerdictShapeUnparseable VerdictShape = "unparseable"
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ParseVerdictResponse parses an AI response into a verdict, attempting in
// order: clean JSON, JSON inside code fences, JSON embedded in prose
// (first '{' to last '}'). Responses failing all three come back as
// unparseable with the raw text attached; they never produce an error.
func ParseVerdictResponse(content string) ParsedVerdict {
	trimmed := strings.TrimSpace(content)

	if v, ok := tryUnmarshalVerdict(trimmed); ok {
		return ParsedVerdict{Shape: VerdictShapeClean, Verdict: v}
	}

	if m := fencedJSONRe.FindStringSubmatch(trimmed); m != nil {
		if v, ok := tryUnmarshalVerdict(strings.TrimSpace(m[1])); ok {
			return ParsedVerdict{Shape: VerdictShapeFenced, Verdict: v}
		}
	}

	if start, end := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}"); start >= 0 && end > start {
		if v, ok := tryUnmarshalVerdict(trimmed[start : end+1]); ok {
			return ParsedVerdict{Shape: VerdictShapeEmbedded, Verdict: v}
		}
	}

	return ParsedVerdict{Shape: VerdictShapeUnparseable, Raw: content}
}

func tryUnmarshalVerdict(s string) (vulnerability.AIVerdict, bool) {
	var payload verdictPayload
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return vulnerability.AIVerdict{}, false
	}
	return vulnerability.AIVerdict{
		Exploitable:     payload.IsExploitable,
		Severity:        vulnerability.NormalizeSeverity(payload.Severity),
		Reasoning:       payload.Reasoning,
		PatchSuggestion: payload.PatchSuggestion,
		Confidence:      clampConfidence(payload.Confidence),
	}, true
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
