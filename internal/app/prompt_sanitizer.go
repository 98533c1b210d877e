package app

import (
	"regexp"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// Prompt Injection Protection
// =============================================================================

// PromptSanitizer sanitizes scanned source data before it is embedded in
// an LLM prompt. Hypothesis fields come straight from customer code, so
// they are treated as hostile input.
type PromptSanitizer struct {
	maxFieldLength   int
	maxSnippetLength int
	patterns         []*regexp.Regexp
}

var injectionPatterns = []string{
	`(?i)ignore (previous|above|all|prior|system) instructions?`,
	`(?i)disregard (previous|above|all|prior|system) instructions?`,
	`(?i)forget (previous|above|all|prior|system) instructions?`,
	`(?i)override (previous|above|all|prior|system) instructions?`,
	`(?i)new instructions?:`,
	`(?i)system prompt:`,
	`(?i)system message:`,
	`(?i)you are now`,
	`(?i)from now on,? you`,
	`(?i)pretend (that|to be|you)`,
	`(?i)\[SYSTEM\]`,
	`(?i)\[INST\]`,
	`(?i)<\|im_start\|>`,
	`(?i)<\|im_end\|>`,
	`(?i)<\|system\|>`,
	`(?i)<<SYS>>`,
	`(?i)### (System|Instruction|Human|Assistant):?`,
}

// NewPromptSanitizer creates a new prompt sanitizer.
func NewPromptSanitizer() *PromptSanitizer {
	compiled := make([]*regexp.Regexp, 0, len(injectionPatterns))
	for _, p := range injectionPatterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return &PromptSanitizer{
		maxFieldLength:   10000,
		maxSnippetLength: 5000,
		patterns:         compiled,
	}
}

// Sanitize normalizes unicode and filters injection patterns from a
// free-text field before prompt inclusion.
func (s *PromptSanitizer) Sanitize(text string) string {
	if text == "" {
		return ""
	}

	text = normalizeUnicode(text)

	if len(text) > s.maxFieldLength {
		text = text[:s.maxFieldLength] + "\n[TRUNCATED]"
	}

	for _, re := range s.patterns {
		text = re.ReplaceAllString(text, "[FILTERED]")
	}
	return text
}

// SanitizeSnippet bounds a code snippet for prompt inclusion. Snippets
// keep their exact bytes apart from truncation: rewriting code would
// invalidate the verdict.
func (s *PromptSanitizer) SanitizeSnippet(code string) string {
	if len(code) > s.maxSnippetLength {
		return code[:s.maxSnippetLength] + "\n// [TRUNCATED]"
	}
	return code
}

// normalizeUnicode applies NFKC normalization and strips invisible
// characters, so fullwidth or zero-width variants cannot smuggle
// instructions past the pattern filters.
func normalizeUnicode(text string) string {
	t := transform.Chain(
		norm.NFKC,
		runes.Remove(runes.Predicate(func(r rune) bool {
			if r == '\n' || r == '\r' || r == '\t' {
				return false
			}
			if unicode.IsControl(r) {
				return true
			}
			if r == '\u200B' || r == '\u200C' || r == '\u200D' || r == '\uFEFF' {
				return true
			}
			if r >= '\u202A' && r <= '\u202E' {
				return true
			}
			return false
		})),
	)

	result, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return result
}
