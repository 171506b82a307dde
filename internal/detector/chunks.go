// File path: internal/detector/chunks.go
package detector

import (
	"strings"

	"github.com/google/uuid"

	"github.com/nicodishanthj/flowforge/internal/patterns"
)

// Semantic chunking is the last specialized strategy before the whole
// document fallback: paragraphs are scored by procedural signals and
// consecutive high scorers merge into one candidate workflow.

type paragraph struct {
	lines     []string
	startLine int
	endLine   int
	score     float64
}

func semanticChunks(lines []string) []WorkflowSection {
	paras := splitParagraphs(lines)
	if len(paras) == 0 {
		return nil
	}
	for i := range paras {
		paras[i].score = scoreParagraph(paras[i].lines)
	}

	var sections []WorkflowSection
	var run []paragraph
	flush := func() {
		if len(run) == 0 {
			return
		}
		keep := len(run) >= 2 || run[0].score > 0.4
		if keep {
			sections = append(sections, chunkSection(run))
		}
		run = nil
	}
	for _, para := range paras {
		if para.score > 0.25 {
			run = append(run, para)
			continue
		}
		flush()
	}
	flush()
	return sections
}

func splitParagraphs(lines []string) []paragraph {
	var paras []paragraph
	var current []string
	start := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paras = append(paras, paragraph{lines: current, startLine: start, endLine: i})
				current = nil
			}
			continue
		}
		if len(current) == 0 {
			start = i
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paras = append(paras, paragraph{lines: current, startLine: start, endLine: len(lines)})
	}
	return paras
}

// scoreParagraph weighs procedural signals: action-verb density up to 0.4,
// list markers 0.25, decision wording 0.15 and imperative sentences up to 0.2.
func scoreParagraph(lines []string) float64 {
	text := strings.Join(lines, "\n")
	lower := strings.ToLower(text)
	words := strings.Fields(lower)
	if len(words) == 0 {
		return 0
	}

	actionWords := 0
	for _, w := range words {
		if isActionVerb(strings.Trim(w, ".,:;!?")) {
			actionWords++
		}
	}
	density := float64(actionWords) / float64(len(words))
	score := minFloat(density*2, 0.4)

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if isStepLine(stripped) || strings.HasPrefix(stripped, "-") ||
			strings.HasPrefix(stripped, "*") || strings.HasPrefix(stripped, "•") {
			score += 0.25
			break
		}
	}

	if decisionWordRe.MatchString(lower) {
		score += 0.15
	}

	imperative := 0
	for _, line := range lines {
		fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
		if len(fields) > 0 && isActionVerb(strings.Trim(fields[0], ".,:;")) {
			imperative++
		}
	}
	ratio := float64(imperative) / float64(len(lines))
	score += minFloat(ratio*0.2, 0.2)

	return score
}

func isActionVerb(word string) bool {
	for _, table := range [][]string{patterns.ProcessVerbs, patterns.IOVerbs, patterns.DatabaseVerbs} {
		for _, v := range table {
			if word == v {
				return true
			}
		}
	}
	return false
}

func chunkSection(run []paragraph) WorkflowSection {
	var parts []string
	for _, para := range run {
		parts = append(parts, strings.Join(para.lines, "\n"))
	}
	section := WorkflowSection{
		ID:        uuid.NewString(),
		Title:     "Workflow",
		Content:   strings.Join(parts, "\n\n"),
		Level:     0,
		StartLine: run[0].startLine,
		EndLine:   run[len(run)-1].endLine,
	}
	analyzeSection(&section)
	return section
}
