// File path: internal/detector/headers.go
package detector

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Header-based segmentation. Content assigned to a header runs from the line
// after it to the next header of equal or higher level; nested headers become
// subsections and their lines are excluded from the parent's own content.

type headerInfo struct {
	line  int
	title string
	level int
}

var (
	markdownHeaderRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	sectionTitleRe   = regexp.MustCompile(`(?i)^section\s+(\d+)\s*[:\-]\s*(.+)$`)
	underlineEqRe    = regexp.MustCompile(`^={3,}$`)
	underlineDashRe  = regexp.MustCompile(`^-{3,}$`)
	allCapsHeaderRe  = regexp.MustCompile(`^[A-Z][A-Z\s]{2,59}$`)
)

func (d *Detector) headerSections(lines []string, flattenLevel int) []WorkflowSection {
	headers := detectHeaders(lines)
	if len(headers) == 0 {
		return []WorkflowSection{wholeDocument(strings.Join(lines, "\n"), lines)}
	}

	tree := buildSectionTree(lines, headers, 0, len(headers), len(lines))
	if flattenLevel <= 1 {
		return tree
	}

	// Subsection mode surfaces nested workflows as standalone sections.
	var out []WorkflowSection
	for _, section := range tree {
		if len(section.Subsections) > 0 {
			out = append(out, section.Subsections...)
		} else {
			out = append(out, section)
		}
	}
	return out
}

func detectHeaders(lines []string) []headerInfo {
	var headers []headerInfo
	skipNext := false

	for i, line := range lines {
		if skipNext {
			skipNext = false
			continue
		}
		stripped := strings.TrimSpace(line)
		if len(stripped) < 3 {
			continue
		}
		// Table formatting is never a header.
		if strings.HasPrefix(stripped, "+") && strings.Contains(stripped, "-") {
			continue
		}
		if strings.HasPrefix(stripped, "|") && strings.HasSuffix(stripped, "|") {
			continue
		}
		if specialCharRatio(stripped) > 0.3 {
			continue
		}
		// Numbered step lines are workflow content, not headers.
		if isStepLine(stripped) {
			continue
		}

		if m := markdownHeaderRe.FindStringSubmatch(stripped); m != nil {
			level := len(m[1])
			if level > 3 {
				level = 3
			}
			headers = append(headers, headerInfo{line: i, title: strings.TrimSpace(m[2]), level: level})
			continue
		}
		if m := sectionTitleRe.FindStringSubmatch(stripped); m != nil {
			headers = append(headers, headerInfo{line: i, title: strings.TrimSpace(m[2]), level: 1})
			continue
		}
		if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if underlineEqRe.MatchString(next) {
				headers = append(headers, headerInfo{line: i, title: stripped, level: 1})
				skipNext = true
				continue
			}
			if underlineDashRe.MatchString(next) {
				headers = append(headers, headerInfo{line: i, title: stripped, level: 2})
				skipNext = true
				continue
			}
		}
		if allCapsHeaderRe.MatchString(stripped) {
			headers = append(headers, headerInfo{line: i, title: stripped, level: 1})
		}
	}
	return headers
}

func specialCharRatio(s string) float64 {
	count := 0
	for _, r := range s {
		switch r {
		case '+', '-', '=', '|':
			count++
		}
	}
	return float64(count) / float64(len(s))
}

// buildSectionTree groups headers[lo:hi] into sibling sections, recursing
// into deeper headers as subsections. endLine bounds the final sibling.
func buildSectionTree(lines []string, headers []headerInfo, lo, hi, endLine int) []WorkflowSection {
	var out []WorkflowSection
	for i := lo; i < hi; {
		level := headers[i].level
		j := i + 1
		for j < hi && headers[j].level > level {
			j++
		}
		regionEnd := endLine
		if j < hi {
			regionEnd = headers[j].line
		}
		ownEnd := regionEnd
		if i+1 < j {
			ownEnd = headers[i+1].line
		}

		section := WorkflowSection{
			ID:        uuid.NewString(),
			Title:     headers[i].title,
			Content:   strings.TrimRight(strings.Join(lines[headers[i].line+1:ownEnd], "\n"), "\n"),
			Level:     level,
			StartLine: headers[i].line,
			EndLine:   regionEnd,
		}
		section.Subsections = buildSectionTree(lines, headers, i+1, j, regionEnd)
		analyzeSection(&section)
		out = append(out, section)
		i = j
	}
	return out
}
