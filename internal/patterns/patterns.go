// File path: internal/patterns/patterns.go
package patterns

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

// Verb and keyword tables for workflow text classification. The tables are
// static; Overlay can extend them once at startup before any classification
// runs. Matching is case-insensitive substring or anchored regex.

var (
	ProcessVerbs = []string{
		"process", "calculate", "validate", "transform", "convert",
		"update", "create", "generate", "execute", "perform",
		"compute", "determine", "analyze", "evaluate", "modify",
		"change", "set", "configure", "initialize", "prepare",
	}

	// Verbs that read like checks but are process actions unless the line
	// carries an explicit conditional phrase.
	ProcessCheckVerbs = []string{
		"check", "verify", "validate", "confirm", "inspect",
		"review", "examine", "test", "assess",
	}

	IOVerbs = []string{
		"read", "write", "input", "output", "receive", "send",
		"get", "put", "accept", "return", "submit", "enter",
		"collect", "gather", "obtain", "provide", "upload",
		"download", "import", "export", "scan", "capture", "transmit",
	}

	DatabaseVerbs = []string{
		"query", "select", "insert", "update", "delete", "save",
		"fetch", "retrieve", "store", "persist", "load", "find",
		"search", "lookup", "add to database", "remove from database",
		"cache", "index",
	}

	DisplayVerbs = []string{
		"display", "show", "render", "present", "visualize",
		"draw", "print to screen", "output to screen",
		"alert", "notify", "prompt", "preview",
	}

	DocumentVerbs = []string{
		"print", "export", "generate report", "create document",
		"produce document", "write to file", "save report",
		"log", "record", "archive", "document",
	}

	TerminatorKeywords = []string{
		"start", "begin", "end", "finish", "stop", "terminate",
		"exit", "complete", "done",
	}

	PositiveBranchWords = []string{"yes", "true", "valid", "success", "pass", "approved", "correct", "complete"}
	NegativeBranchWords = []string{"no", "false", "invalid", "failure", "fail", "rejected", "incorrect", "incomplete"}
)

// Decision patterns require either question format or explicit conditional
// phrasing; bare check/verify/validate lines classify as process actions.
var decisionPatterns = compileAll(
	`\?$`,
	`\bis\b.*\?`, `\bdoes\b.*\?`, `\bcan\b.*\?`,
	`\bshould\b.*\?`, `\bhas\b.*\?`, `\bare\b.*\?`,
	`\bif\s+.+\s+(?:then|:)\s*$`,
	`\bwhether\b`,
	`\bin case\b`,
	`\bdepending on\b`,
	`\bselect\s+(?:one|from|between)\b`,
	`\bchoose\b`,
	`\bcheck\s+if\b`,
	`\bverify\s+(?:if|whether|that)\b`,
	`\bconfirm\s+(?:if|whether|that)\b`,
	`\bensure\s+(?:if|whether|that)\b`,
	`\bvalidate\s+(?:if|whether|that)\b`,
)

// Phrases that look conditional but are temporal or plain process actions.
var decisionExclusions = compileAll(
	`\bwhen\s+prompted\b`,
	`\bwhen\s+asked\b`,
	`\bwhen\s+finished\b`,
	`\bwhen\s+done\b`,
	`\bwhen\s+complete\b`,
	`\bwhen\s+ready\b`,
	`\benter\s+.+\s+when\s+prompted\b`,
	`\binput\s+.+\s+when\b`,
	`\bcheck\s+current\b`,
	`\bverify\s+(?:hardware|software|system|settings?)\b`,
	`\bvalidate\s+(?:credentials|data|input)\s+against\b`,
	`^(?:check|verify|validate|confirm)\s+(?:the\s+)?[a-z]+(?:\s+[a-z]+)?\s+(?:via|by|using|from|in|at)\b`,
)

var loopPatterns = compileAll(
	`\bfor each\b`, `\bwhile\b`, `\brepeat\b`, `\bloop\b`,
	`\biterate\b`, `\buntil\b`, `\breturn to step\b`,
	`\bgo back to\b`, `\bcontinue\b`,
	`\brepeat\s+(?:from\s+)?step\s+\d+\b`,
	`\bloop\s+back\s+to\b`,
	`\brestart\s+(?:at|from)\b`,
	`\bresume\s+(?:at|from)\b`,
	`\bretry\b`,
	`\bredo\b`,
	`\bretry\s+(?:from\s+)?step\s+\d+\b`,
	`\bredo\s+(?:from\s+)?step\s+\d+\b`,
	`\bcycle\s+(?:back|through)\b`,
)

var crossrefPatterns = compileAll(
	`\bsee\s+section\b`,
	`\brefer\s+to\b`,
	`\bas\s+described\s+in\b`,
	`\bfollow\s+procedure\b`,
	`\bper\s+(?:section|procedure|protocol|guideline)\b`,
	`\busing\s+(?:method|protocol)\b`,
	`\baccording\s+to\s+(?:section|procedure)\b`,
)

var parallelPatterns = compileAll(
	`\bmeanwhile\b`,
	`\bsimultaneously\b`,
	`\bat\s+the\s+same\s+time\b`,
	`\bin\s+parallel\b`,
	`\bconcurrently\b`,
)

var (
	stepNumberRe     = regexp.MustCompile(`^(\d+)[.)]\s*`)
	checkVerbLeadRe  = regexp.MustCompile(`^(?:check|verify|validate|confirm)\b`)
	conditionalCueRe = regexp.MustCompile(`\b(?:if|whether|that)\b`)
	inlineIfRe       = regexp.MustCompile(`if\s+(.+?)[:,]`)
	loopTargetRe     = regexp.MustCompile(`(?i)(?:return|go back|repeat from|loop back to|restart at|resume from|retry from|redo from)\s+(?:to\s+)?step\s+(\d+)`)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

func anyMatch(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func anyContains(keywords []string, text string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// DetectNodeType classifies text into an ISO 5807 category by keyword
// priority: terminator, cross-reference, decision, then database, display,
// document and I/O verbs, defaulting to process.
func DetectNodeType(text string) flowchart.NodeType {
	lower := strings.ToLower(text)
	switch {
	case anyContains(TerminatorKeywords, lower):
		return flowchart.NodeTerminator
	case IsCrossref(lower):
		return flowchart.NodePredefined
	case IsDecision(lower):
		return flowchart.NodeDecision
	case anyContains(DatabaseVerbs, lower):
		return flowchart.NodeDatabase
	case anyContains(DisplayVerbs, lower):
		return flowchart.NodeDisplay
	case anyContains(DocumentVerbs, lower):
		return flowchart.NodeDocument
	case anyContains(IOVerbs, lower):
		return flowchart.NodeIO
	}
	return flowchart.NodeProcess
}

// IsDecision reports whether text represents a genuine decision point.
// Exclusions run first so temporal "when prompted" phrasing and check-verb
// process actions do not register as conditionals.
func IsDecision(text string) bool {
	lower := strings.TrimSpace(strings.ToLower(text))
	if anyMatch(decisionExclusions, lower) {
		return false
	}
	if strings.HasSuffix(lower, "?") {
		return true
	}
	if anyMatch(decisionPatterns, lower) {
		return true
	}
	if checkVerbLeadRe.MatchString(lower) {
		return conditionalCueRe.MatchString(lower)
	}
	return false
}

// IsLoop reports whether text contains loop or repeat phrasing.
func IsLoop(text string) bool {
	return anyMatch(loopPatterns, strings.ToLower(text))
}

// IsCrossref reports whether text references another procedure or section.
func IsCrossref(text string) bool {
	return anyMatch(crossrefPatterns, strings.ToLower(text))
}

// IsParallel reports whether text indicates a concurrent action.
func IsParallel(text string) bool {
	return anyMatch(parallelPatterns, strings.ToLower(text))
}

// ExtractLoopTarget pulls the step number out of loop-back or retry
// references such as "return to step 3". Zero means no target stated.
func ExtractLoopTarget(text string) int {
	m := loopTargetRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// ExtractDecisionBranches derives branch labels from decision text. Inline
// "If X:" phrasing and mixed positive/negative wording both collapse to the
// canonical Yes/No pair. A decision always carries at least two branches,
// so a single matched polarity still pairs with its opposite.
func ExtractDecisionBranches(text string) []string {
	lower := strings.ToLower(text)

	if inlineIfRe.MatchString(lower) {
		return []string{"Yes", "No"}
	}

	var branches []string
	if anyContains(PositiveBranchWords, lower) {
		branches = append(branches, "Yes")
	}
	if anyContains(NegativeBranchWords, lower) {
		branches = append(branches, "No")
	}
	if len(branches) < 2 {
		branches = []string{"Yes", "No"}
	}
	return branches
}

// NormalizeStepText strips a leading step number, collapses whitespace and
// capitalizes the first letter.
func NormalizeStepText(text string) string {
	text = stepNumberRe.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	if text != "" {
		text = strings.ToUpper(text[:1]) + text[1:]
	}
	return strings.TrimSpace(text)
}

// ExtractStepNumber returns the stated step number, or zero when the line
// carries none.
func ExtractStepNumber(text string) int {
	m := stepNumberRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
