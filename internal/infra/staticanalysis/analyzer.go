// Package staticanalysis provides the built-in hypothesis generator: a
// source-to-sink pattern matcher over submitted files. It deliberately
// over-reports; everything it emits is a candidate for the validators,
// never a finding on its own.
package staticanalysis

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/codegate/api/pkg/domain/scan"
	"github.com/codegate/api/pkg/domain/vulnerability"
	"github.com/codegate/api/pkg/logger"
)

// snippetContext is the number of lines captured around a sink match.
const snippetContext = 3

// sourceWindow is how many lines above a sink a taint source may sit.
const sourceWindow = 10

type patternDef struct {
	vulnType  string
	pattern   string
	languages []string
	source    *regexp.Regexp
	sink      *regexp.Regexp
	narrative string
}

var patterns = []patternDef{
	{
		vulnType:  "sql_injection",
		pattern:   "string-concatenated query",
		languages: []string{"javascript", "typescript", "python", "go", "java", "php"},
		source:    regexp.MustCompile(`(?i)(req\.(body|params|query)|request\.(form|args|GET|POST)|r\.(URL\.Query|FormValue)|\$_(GET|POST|REQUEST)|input\()`),
		sink:      regexp.MustCompile(`(?i)(query|execute|exec)\s*\(\s*["'` + "`" + `].*["'` + "`" + `]\s*(\+|%|\.format|\$\{)`),
		narrative: "request-derived value reaches a SQL query built by string concatenation",
	},
	{
		vulnType:  "command_injection",
		pattern:   "shell execution with dynamic input",
		languages: []string{"javascript", "typescript", "python", "go", "php"},
		source:    regexp.MustCompile(`(?i)(req\.(body|params|query)|request\.(form|args)|os\.Args|\$_(GET|POST)|input\()`),
		sink:      regexp.MustCompile(`(?i)(child_process\.(exec|spawn)|os\.system|subprocess\.(run|call|Popen)|exec\.Command|shell_exec|popen)\s*\(`),
		narrative: "request-derived value reaches a shell or process execution call",
	},
	{
		vulnType:  "cross_site_scripting",
		pattern:   "unescaped output of request data",
		languages: []string{"javascript", "typescript", "php"},
		source:    regexp.MustCompile(`(?i)(req\.(body|params|query)|location\.(search|hash)|\$_(GET|POST|REQUEST))`),
		sink:      regexp.MustCompile(`(?i)(innerHTML\s*=|document\.write\s*\(|res\.send\s*\(|dangerouslySetInnerHTML|echo\s)`),
		narrative: "request-derived value is written into HTML output without escaping",
	},
	{
		vulnType:  "path_traversal",
		pattern:   "filesystem access with dynamic path",
		languages: []string{"javascript", "typescript", "python", "go", "java", "php"},
		source:    regexp.MustCompile(`(?i)(req\.(body|params|query)|request\.(form|args)|\$_(GET|POST)|r\.(URL\.Query|FormValue))`),
		sink:      regexp.MustCompile(`(?i)(readFile(Sync)?|open|os\.Open|ioutil\.ReadFile|file_get_contents|createReadStream)\s*\(`),
		narrative: "request-derived value is used as a filesystem path without normalization",
	},
	{
		vulnType:  "server_side_request_forgery",
		pattern:   "outbound request with dynamic URL",
		languages: []string{"javascript", "typescript", "python", "go"},
		source:    regexp.MustCompile(`(?i)(req\.(body|params|query)|request\.(form|args)|r\.(URL\.Query|FormValue))`),
		sink:      regexp.MustCompile(`(?i)(fetch|axios\.(get|post)|http\.Get|requests\.(get|post)|urllib\.request)\s*\(`),
		narrative: "request-derived value is used as the target of a server-side request",
	},
}

// Analyzer is the built-in HypothesisSource implementation.
type Analyzer struct {
	logger *logger.Logger
}

// NewAnalyzer creates a new pattern-matching analyzer.
func NewAnalyzer(log *logger.Logger) *Analyzer {
	return &Analyzer{logger: log.With("service", "static_analysis")}
}

// Hypotheses scans each file for sink matches with a taint source in the
// preceding window and emits one hypothesis per correlated pair.
func (a *Analyzer) Hypotheses(ctx context.Context, files []scan.SourceFile) ([]vulnerability.Hypothesis, error) {
	var hypotheses []vulnerability.Hypothesis

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lang := strings.ToLower(file.Language)
		lines := strings.Split(file.Content, "\n")

		for _, def := range patterns {
			if !languageMatches(def.languages, lang) {
				continue
			}
			hypotheses = append(hypotheses, a.matchFile(file.Path, lines, def)...)
		}
	}

	a.logger.Debug("static analysis complete",
		"files", len(files),
		"hypotheses", len(hypotheses))
	return hypotheses, nil
}

func (a *Analyzer) matchFile(path string, lines []string, def patternDef) []vulnerability.Hypothesis {
	var out []vulnerability.Hypothesis

	for i, line := range lines {
		sink := def.sink.FindString(line)
		if sink == "" {
			continue
		}

		sourceLine, sourceExpr := -1, ""
		lo := i - sourceWindow
		if lo < 0 {
			lo = 0
		}
		for j := i; j >= lo; j-- {
			if m := def.source.FindString(lines[j]); m != "" {
				sourceLine, sourceExpr = j, m
				break
			}
		}
		if sourceLine < 0 {
			continue
		}

		start := sourceLine
		end := i
		snippetStart := start - snippetContext
		if snippetStart < 0 {
			snippetStart = 0
		}
		snippetEnd := end + snippetContext
		if snippetEnd >= len(lines) {
			snippetEnd = len(lines) - 1
		}

		out = append(out, vulnerability.Hypothesis{
			FilePath:  path,
			StartLine: start + 1,
			EndLine:   end + 1,
			Snippet:   strings.Join(lines[snippetStart:snippetEnd+1], "\n"),
			VulnType:  def.vulnType,
			Pattern:   def.pattern,
			Source:    sourceExpr,
			Sink:      strings.TrimSpace(sink),
			DataFlow: fmt.Sprintf("%s: %q at line %d flows to %q at line %d",
				def.narrative, sourceExpr, start+1, strings.TrimSpace(sink), end+1),
		})
	}
	return out
}

func languageMatches(languages []string, lang string) bool {
	if lang == "" {
		return true
	}
	for _, l := range languages {
		if l == lang {
			return true
		}
	}
	return false
}
