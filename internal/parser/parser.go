// File path: internal/parser/parser.go
package parser

import (
	"regexp"
	"strings"
	"sync"

	"github.com/nicodishanthj/flowforge/internal/common"
	"github.com/nicodishanthj/flowforge/internal/flowchart"
	"github.com/nicodishanthj/flowforge/internal/patterns"
)

// WorkflowStep is one parsed step of a workflow description, carrying the
// extracted grammatical components and the symbol classification.
type WorkflowStep struct {
	StepNumber   int
	Text         string
	Action       string
	Subject      string
	Object       string
	IsDecision   bool
	IsLoop       bool
	Branches     []string
	NodeType     flowchart.NodeType
	Confidence   float64
	Alternatives []flowchart.NodeType
}

// ComponentExtractor pulls the action, subject and object phrases out of a
// normalized step line. Implementations may use external NLP tooling; the
// default is positional.
type ComponentExtractor interface {
	Extract(text string) (action, subject, object string)
}

// Parser turns free-form workflow text into structured steps.
type Parser struct {
	extractor ComponentExtractor
}

// New returns a Parser using the given component extractor. A nil extractor
// selects the positional default.
func New(extractor ComponentExtractor) *Parser {
	if extractor == nil {
		extractor = defaultExtractor()
	}
	return &Parser{extractor: extractor}
}

var (
	letterBulletRe = regexp.MustCompile(`^[a-z]\.\s`)
	numberedLineRe = regexp.MustCompile(`^\d+[.)]\s`)

	branchPrefixRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^if\s+(yes|no|true|false)`),
		regexp.MustCompile(`(?i)^(yes|no|true|false)\s*:`),
		regexp.MustCompile(`(?i)^(valid|invalid)\s*:`),
		regexp.MustCompile(`(?i)^(success|failure)\s*:`),
		regexp.MustCompile(`(?i)^(pass|fail)\s*:`),
	}

	branchKeywords = []string{"if yes", "if no", "yes:", "no:", "otherwise"}

	bulletMarkerRe = regexp.MustCompile(`^[-•*]\s*`)
	letterMarkRe   = regexp.MustCompile(`(?i)^[a-z]\.\s*`)

	positivePrefixRe = regexp.MustCompile(`(?i)^(?:if\s+)?(?:yes|true|valid|success|pass|approved)\s*[:,]\s*`)
	negativePrefixRe = regexp.MustCompile(`(?i)^(?:if\s+)?(?:no|false|invalid|failure|fail|rejected)\s*[:,]\s*`)
)

type branchPolarity int

const (
	branchUnknown branchPolarity = iota
	branchPositive
	branchNegative
)

type branchEntry struct {
	text     string
	polarity branchPolarity
}

// Parse converts workflow text into an ordered step list. Branch sub-bullets
// and indented branch lines attach to the preceding decision step; decisions
// left without explicit branches default to Yes/No. Unparseable lines are
// logged and skipped.
func (p *Parser) Parse(text string) []WorkflowStep {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	logger := common.Logger()
	var steps []WorkflowStep
	current := -1
	var pending []branchEntry

	flush := func() {
		if current >= 0 && len(pending) > 0 {
			steps[current].Branches = orderBranches(pending)
		}
		pending = nil
	}

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		// All-caps headers without digits are section titles, not steps.
		if isUpperHeader(stripped) {
			continue
		}

		if isBranchLine(line) {
			if current >= 0 && steps[current].IsDecision {
				if entry, ok := extractBranch(line); ok {
					pending = append(pending, entry)
				}
			}
			continue
		}

		// Parenthetical annotation lines such as "(Example: ...)".
		if strings.HasPrefix(stripped, "(") {
			continue
		}

		step, ok := p.parseLine(line)
		if !ok {
			logger.Warn("parser: skipped line", "line", truncate(stripped, 50))
			continue
		}
		flush()
		steps = append(steps, step)
		current = len(steps) - 1
	}
	flush()

	// Decisions without sub-bullets fall back to inline phrasing or the
	// default Yes/No pair.
	for i := range steps {
		if steps[i].IsDecision && len(steps[i].Branches) == 0 {
			steps[i].Branches = patterns.ExtractDecisionBranches(steps[i].Text)
		}
	}

	return steps
}

// orderBranches puts positively labeled branches ahead of negatively labeled
// ones so downstream edge labeling by position assigns Yes to the affirmative
// path even when the source lists "If no" first. Unlabeled branches keep
// their source order between the two groups.
func orderBranches(entries []branchEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.polarity == branchPositive {
			out = append(out, e.text)
		}
	}
	for _, e := range entries {
		if e.polarity == branchUnknown {
			out = append(out, e.text)
		}
	}
	for _, e := range entries {
		if e.polarity == branchNegative {
			out = append(out, e.text)
		}
	}
	return out
}

func (p *Parser) parseLine(line string) (WorkflowStep, bool) {
	// The number and normalization regexes are anchored, so indentation
	// has to go before they run.
	line = strings.TrimSpace(line)
	stepNumber := patterns.ExtractStepNumber(line)
	normalized := patterns.NormalizeStepText(line)
	if normalized == "" {
		return WorkflowStep{}, false
	}

	action, subject, object := p.extractor.Extract(normalized)

	var objects []string
	if object != "" {
		objects = append(objects, object)
	}
	class := patterns.Map(action, objects, normalized)

	isDecision := patterns.IsDecision(normalized)
	if isDecision {
		class.Type = flowchart.NodeDecision
		if class.Confidence < 0.85 {
			class.Confidence = 0.85
		}
	}

	return WorkflowStep{
		StepNumber:   stepNumber,
		Text:         normalized,
		Action:       action,
		Subject:      subject,
		Object:       object,
		IsDecision:   isDecision,
		IsLoop:       patterns.IsLoop(normalized),
		NodeType:     class.Type,
		Confidence:   class.Confidence,
		Alternatives: class.Alternatives,
	}, true
}

func isUpperHeader(stripped string) bool {
	if stripped == "" {
		return false
	}
	hasLetter := false
	for _, r := range stripped {
		if r >= '0' && r <= '9' {
			return false
		}
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func isBranchLine(line string) bool {
	stripped := strings.TrimSpace(line)

	if strings.HasPrefix(stripped, "-") || strings.HasPrefix(stripped, "•") || strings.HasPrefix(stripped, "*") {
		return true
	}
	if letterBulletRe.MatchString(stripped) {
		return true
	}
	for _, re := range branchPrefixRes {
		if re.MatchString(stripped) {
			return true
		}
	}

	// Indented 4+ spaces, not a numbered step, with branch wording.
	leading := len(line) - len(strings.TrimLeft(line, " "))
	if leading >= 4 && !numberedLineRe.MatchString(stripped) {
		lower := strings.ToLower(stripped)
		for _, kw := range branchKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func extractBranch(line string) (branchEntry, bool) {
	text := strings.TrimSpace(line)
	text = bulletMarkerRe.ReplaceAllString(text, "")
	text = letterMarkRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	entry := branchEntry{polarity: branchUnknown}
	if positivePrefixRe.MatchString(text) {
		entry.polarity = branchPositive
		text = strings.TrimSpace(positivePrefixRe.ReplaceAllString(text, ""))
		if text == "" {
			text = "Yes"
		}
	} else if negativePrefixRe.MatchString(text) {
		entry.polarity = branchNegative
		text = strings.TrimSpace(negativePrefixRe.ReplaceAllString(text, ""))
		if text == "" {
			text = "No"
		}
	}
	if text == "" {
		return branchEntry{}, false
	}
	entry.text = text
	return entry, true
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// positionalExtractor splits the line by word position: with three or more
// words the first is the subject, second the action and the rest the object;
// with two the first is the action and the second the object.
type positionalExtractor struct{}

func (positionalExtractor) Extract(text string) (string, string, string) {
	words := strings.Fields(text)
	switch {
	case len(words) == 0:
		return "Process", "", ""
	case len(words) >= 3:
		return words[1], words[0], strings.Join(words[2:], " ")
	case len(words) == 2:
		return words[0], "", words[1]
	default:
		return words[0], "", ""
	}
}

var (
	defaultOnce sync.Once
	defaultExt  ComponentExtractor
)

func defaultExtractor() ComponentExtractor {
	defaultOnce.Do(func() {
		defaultExt = positionalExtractor{}
	})
	return defaultExt
}
