// File path: internal/detector/filter.go
package detector

import (
	"regexp"
	"strings"

	"github.com/nicodishanthj/flowforge/internal/common"
)

// Section filtering keeps only actionable workflow candidates. Reference
// material such as overviews, indexes and glossaries is dropped; if nothing
// survives, the highest-confidence candidate is returned so callers always
// have something to parse.

var (
	referenceTitleWords = []string{
		"overview", "table of contents", "contents", "index",
		"glossary", "introduction", "references", "appendix",
		"quick reference",
	}
	seeSectionRe = regexp.MustCompile(`(?i)\bsee\s+section\s+\d+`)
)

// AnalyzeAndFilter selects the sections worth parsing. Subsections with
// strong step counts win over their parent; the parent is dropped entirely
// rather than double-counted.
func (d *Detector) AnalyzeAndFilter(sections []WorkflowSection) []WorkflowSection {
	if len(sections) == 0 {
		return nil
	}

	var kept []WorkflowSection
	for _, section := range sections {
		promoted := false
		for _, sub := range section.Subsections {
			if sub.StepCount >= 3 && sub.Confidence > 0.25 {
				kept = append(kept, sub)
				promoted = true
			}
		}
		if promoted {
			continue
		}
		if section.StepCount >= 2 && section.Confidence > 0.25 && !isReferenceSection(section) {
			kept = append(kept, section)
		}
	}

	if len(kept) == 0 {
		best := sections[0]
		for _, section := range sections[1:] {
			if section.Confidence > best.Confidence {
				best = section
			}
		}
		common.Logger().Debug("detector: filter kept nothing, falling back", "section", best.Title)
		return []WorkflowSection{best}
	}
	return kept
}

func isReferenceSection(section WorkflowSection) bool {
	titleLower := strings.ToLower(section.Title)
	contentLower := strings.ToLower(section.Content)
	for _, word := range referenceTitleWords {
		if strings.Contains(titleLower, word) {
			return true
		}
	}
	if strings.Contains(contentLower, "table of contents") {
		return true
	}

	if len(seeSectionRe.FindAllString(section.Content, -1)) >= 2 {
		return true
	}

	nonBlank := 0
	for _, line := range strings.Split(section.Content, "\n") {
		if strings.TrimSpace(line) != "" {
			nonBlank++
		}
	}
	return nonBlank < 3
}
