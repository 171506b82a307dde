// File path: internal/detector/detector.go
package detector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/nicodishanthj/flowforge/internal/common"
)

// SplitMode selects the strategy for dividing a document into independent
// workflows before per-workflow parsing.
type SplitMode string

const (
	ModeAuto       SplitMode = "auto"
	ModeSection    SplitMode = "section"
	ModeSubsection SplitMode = "subsection"
	ModeProcedure  SplitMode = "procedure"
	ModeNone       SplitMode = "none"
)

// ParseSplitMode validates a mode string, defaulting empty input to auto.
func ParseSplitMode(s string) (SplitMode, error) {
	switch SplitMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return ModeAuto, nil
	case ModeAuto:
		return ModeAuto, nil
	case ModeSection:
		return ModeSection, nil
	case ModeSubsection:
		return ModeSubsection, nil
	case ModeProcedure:
		return ModeProcedure, nil
	case ModeNone:
		return ModeNone, nil
	}
	return "", fmt.Errorf("detector: invalid split mode %q", s)
}

// WorkflowSection is a candidate workflow found inside a larger document.
// Sections are immutable once created; filtering produces new lists.
type WorkflowSection struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	Level         int               `json:"level"`
	StartLine     int               `json:"start_line"`
	EndLine       int               `json:"end_line"`
	StepCount     int               `json:"step_count"`
	DecisionCount int               `json:"decision_count"`
	Confidence    float64           `json:"confidence"`
	Subsections   []WorkflowSection `json:"subsections,omitempty"`
}

// Detector segments documents into candidate workflow sections. It holds no
// mutable state and is safe for concurrent use.
type Detector struct{}

func New() *Detector {
	return &Detector{}
}

var (
	numberedStepRe = regexp.MustCompile(`^\s*\d+[.)]\s+`)
	stepWordRe     = regexp.MustCompile(`(?i)^\s*step\s+\d+`)

	procedureHeadRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(procedure|process|workflow)\s*[:\-]\s*(.*)$`),
		regexp.MustCompile(`(?i)^(step-by-step|instructions|setup|steps)\s*[:\-]\s*(.*)$`),
		regexp.MustCompile(`(?i)^(how\s+to)\s+(.+)$`),
	}
)

func isStepLine(line string) bool {
	return numberedStepRe.MatchString(line) || stepWordRe.MatchString(line)
}

// Detect finds candidate workflow sections using the given split mode.
// Empty input yields an empty list for every mode.
func (d *Detector) Detect(text string, mode SplitMode) []WorkflowSection {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")

	var sections []WorkflowSection
	switch mode {
	case ModeNone:
		section := wholeDocument(text, lines)
		section.Confidence = 0
		sections = []WorkflowSection{section}
	case ModeSection:
		sections = d.headerSections(lines, 1)
	case ModeSubsection:
		sections = d.headerSections(lines, 2)
	case ModeProcedure:
		sections = d.procedureSections(lines)
	default:
		sections = d.autoDetect(text, lines)
	}

	common.Logger().Debug("detector: detected sections", "mode", string(mode), "count", len(sections))
	return sections
}

// autoDetect runs the cascade of segmentation strategies, accepting the
// first qualifying result.
func (d *Detector) autoDetect(text string, lines []string) []WorkflowSection {
	// A document dominated by numbered lines is one continuous workflow;
	// header detection would only produce spurious splits.
	if numberedDominance(lines) > 0.6 {
		return []WorkflowSection{wholeDocument(text, lines)}
	}

	if sections := d.headerSections(lines, 1); len(sections) >= 2 {
		return sections
	}

	if section, ok := largestNumberedRun(lines); ok {
		return []WorkflowSection{section}
	}

	if chunks := semanticChunks(lines); len(chunks) > 0 {
		return chunks
	}

	return []WorkflowSection{wholeDocument(text, lines)}
}

func numberedDominance(lines []string) float64 {
	nonBlank, numbered := 0, 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		nonBlank++
		if isStepLine(line) {
			numbered++
		}
	}
	if nonBlank == 0 {
		return 0
	}
	return float64(numbered) / float64(nonBlank)
}

// largestNumberedRun finds the longest contiguous run of numbered step
// lines, tolerating single-line gaps, and widens it by up to two trailing
// lines when they read like an ending.
func largestNumberedRun(lines []string) (WorkflowSection, bool) {
	bestStart, bestEnd, bestCount := -1, -1, 0
	runStart, count, gap := -1, 0, 0

	flushRun := func(end int) {
		if runStart >= 0 && count > bestCount {
			bestStart, bestEnd, bestCount = runStart, end, count
		}
		runStart, count, gap = -1, 0, 0
	}

	lastNumbered := -1
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		switch {
		case isStepLine(line):
			if runStart < 0 {
				runStart = i
			}
			count++
			gap = 0
			lastNumbered = i
		case stripped == "":
			// Blank lines do not count toward the gap budget.
		default:
			gap++
			if gap > 1 {
				flushRun(lastNumbered)
			}
		}
	}
	flushRun(lastNumbered)

	if bestCount < 3 {
		return WorkflowSection{}, false
	}

	// Capture an unnumbered "End" line directly after the run.
	end := bestEnd
	trailing := 0
	for i := bestEnd + 1; i < len(lines) && trailing < 2; i++ {
		stripped := strings.TrimSpace(lines[i])
		if stripped == "" {
			continue
		}
		trailing++
		lower := strings.ToLower(stripped)
		if strings.Contains(lower, "end") || strings.Contains(lower, "finish") ||
			strings.Contains(lower, "stop") || strings.Contains(lower, "done") ||
			strings.Contains(lower, "complete") {
			end = i
		}
	}

	content := strings.Join(lines[bestStart:end+1], "\n")
	section := WorkflowSection{
		ID:        uuid.NewString(),
		Title:     "Workflow",
		Content:   content,
		Level:     0,
		StartLine: bestStart,
		EndLine:   end + 1,
	}
	analyzeSection(&section)
	return section, true
}

func (d *Detector) procedureSections(lines []string) []WorkflowSection {
	var sections []WorkflowSection
	title := ""
	start := 0
	var content []string

	flush := func(end int) {
		if title == "" {
			return
		}
		section := WorkflowSection{
			ID:        uuid.NewString(),
			Title:     title,
			Content:   strings.Join(content, "\n"),
			Level:     1,
			StartLine: start,
			EndLine:   end,
		}
		analyzeSection(&section)
		sections = append(sections, section)
	}

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		matched := false
		for _, re := range procedureHeadRes {
			m := re.FindStringSubmatch(stripped)
			if m == nil {
				continue
			}
			flush(i)
			title = strings.TrimSpace(m[2])
			if title == "" {
				title = strings.TrimSpace(m[1])
			}
			start = i + 1
			content = nil
			matched = true
			break
		}
		if !matched {
			content = append(content, line)
		}
	}
	flush(len(lines))

	if len(sections) == 0 {
		return []WorkflowSection{wholeDocument(strings.Join(lines, "\n"), lines)}
	}
	return sections
}

func wholeDocument(text string, lines []string) WorkflowSection {
	section := WorkflowSection{
		ID:        uuid.NewString(),
		Title:     "Workflow",
		Content:   text,
		Level:     0,
		StartLine: 0,
		EndLine:   len(lines),
	}
	analyzeSection(&section)
	return section
}
