// File path: internal/detector/confidence.go
package detector

import (
	"regexp"
	"strings"
)

// Confidence is derived from step count, keyword density, decision density
// and start/end cues. It is advisory and always within [0,1].

var workflowKeywords = []string{
	"workflow", "process", "procedure", "steps", "flow",
	"algorithm", "sequence", "instructions", "guide",
	"start", "begin", "initialize", "end", "finish",
}

var (
	decisionWordRe = regexp.MustCompile(`(?i)\b(if|then|else|check|validate|whether)\b`)
	startWordRe    = regexp.MustCompile(`(?i)\b(start|begin)\b`)
	endWordRe      = regexp.MustCompile(`(?i)\b(end|finish|complete)\b`)
)

func analyzeSection(section *WorkflowSection) {
	combined := section.Content
	for _, sub := range section.Subsections {
		combined += "\n" + sub.Content
	}

	steps, decisions := 0, 0
	for _, line := range strings.Split(combined, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if isStepLine(stripped) {
			steps++
		}
		if decisionWordRe.MatchString(stripped) {
			decisions++
		}
	}
	section.StepCount = steps
	section.DecisionCount = decisions
	section.Confidence = calculateConfidence(combined, steps, decisions)
}

func calculateConfidence(content string, steps, decisions int) float64 {
	if len(strings.TrimSpace(content)) < 20 {
		return 0
	}

	score := 0.0

	// Numbered steps are the strongest workflow signal.
	switch {
	case steps >= 3:
		score += 0.4
	case steps == 2:
		score += 0.2
	}

	lower := strings.ToLower(content)
	keywords := 0
	for _, kw := range workflowKeywords {
		if strings.Contains(lower, kw) {
			keywords++
		}
	}
	score += minFloat(float64(keywords)*0.1, 0.3)

	score += minFloat(float64(decisions)*0.1, 0.2)

	if startWordRe.MatchString(content) {
		score += 0.1
	}
	if endWordRe.MatchString(content) {
		score += 0.1
	}

	return minFloat(score, 1.0)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
