// File path: internal/renderer/mermaid.go
package renderer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/nicodishanthj/flowforge/internal/common"
	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

// Nodes below this confidence get dashed-border styling in every backend.
const lowConfidenceThreshold = 0.7

const (
	maxNodeLabelLength = 120
	maxEdgeLabelLength = 50
)

var mermaidShapes = map[flowchart.NodeType]string{
	flowchart.NodeTerminator: "([%s])",
	flowchart.NodeProcess:    "[%s]",
	flowchart.NodeDecision:   "{%s}",
	flowchart.NodeIO:         "[/%s/]",
	flowchart.NodeDatabase:   "[(%s)]",
	flowchart.NodeDisplay:    "{{%s}}",
	flowchart.NodeDocument:   "[[%s]]",
	flowchart.NodePredefined: "[[%s]]",
	flowchart.NodeManual:     "[/%s\\]",
	flowchart.NodeConnector:  "((%s))",
}

var (
	disallowedRe = regexp.MustCompile(`[^a-zA-Z0-9\s.,;:!?'"\-_/\\=+]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

var arrowReplacer = strings.NewReplacer(
	"→", "->", "←", "<-", "↑", "^", "↓", "v",
	"⇒", "=>", "⇐", "<=", "➔", "->", "➞", "->",
	"➜", "->", "▶", "->", "◀", "<-",
)

var labelEscaper = strings.NewReplacer(
	`"`, "&quot;", "'", "&#39;", "#", "&num;",
	"(", "&#40;", ")", "&#41;", "[", "&#91;", "]", "&#93;",
	"{", "&#123;", "}", "&#125;", "|", "&#124;",
)

// GenerateMermaid produces Mermaid.js flowchart source. Direction is a
// Mermaid orientation keyword; "TD" when empty.
func GenerateMermaid(fc *flowchart.Flowchart, direction string) string {
	if direction == "" {
		direction = "TD"
	}
	var lines []string
	lines = append(lines, "flowchart "+direction)
	if fc.Title != "" {
		lines = append(lines, "    %% "+sanitizeText(fc.Title))
	}

	for _, n := range fc.Nodes {
		lines = append(lines, "    "+mermaidNode(n))
	}
	lines = append(lines, "")
	for _, c := range fc.Connections {
		lines = append(lines, "    "+mermaidConnection(c))
	}
	lines = append(lines, "")
	lines = append(lines, mermaidStyles(fc)...)

	return strings.Join(lines, "\n")
}

// GenerateMermaidThemed prefixes the source with a Mermaid theme init block.
func GenerateMermaidThemed(fc *flowchart.Flowchart, theme string) string {
	if theme == "" {
		theme = "default"
	}
	return fmt.Sprintf("%%%%{init: {'theme':'%s'}}%%%%\n%s", theme, GenerateMermaid(fc, "TD"))
}

func mermaidNode(n flowchart.Node) string {
	shape, ok := mermaidShapes[n.Type]
	if !ok {
		shape = "[%s]"
	}
	label := labelEscaper.Replace(sanitizeText(n.Label))
	if len(label) > maxNodeLabelLength {
		label = label[:maxNodeLabelLength-3] + "..."
	}
	return n.ID + fmt.Sprintf(shape, label)
}

func mermaidConnection(c flowchart.Connection) string {
	arrow := "-->"
	if c.Type == flowchart.ConnLoop {
		arrow = "-.->"
	}
	if c.Label == "" {
		return fmt.Sprintf("%s %s %s", c.From, arrow, c.To)
	}
	label := labelEscaper.Replace(sanitizeText(c.Label))
	if len(label) > maxEdgeLabelLength {
		label = label[:maxEdgeLabelLength-3] + "..."
	}
	return fmt.Sprintf("%s %s|%s| %s", c.From, arrow, label, c.To)
}

// sanitizeText strips characters Mermaid cannot parse: non-ASCII runes are
// dropped after common arrow glyphs are rewritten to ASCII equivalents.
func sanitizeText(text string) string {
	if text == "" {
		return text
	}
	text = arrowReplacer.Replace(text)
	var b strings.Builder
	for _, r := range text {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	text = disallowedRe.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

type styleBuckets struct {
	start, end, decision, predefined, lowConfidence []string
	critical, warning, note                         []string
}

func classifyStyles(fc *flowchart.Flowchart) styleBuckets {
	var b styleBuckets
	for _, n := range fc.Nodes {
		switch n.WarningLevel {
		case "critical":
			b.critical = append(b.critical, n.ID)
		case "warning":
			b.warning = append(b.warning, n.ID)
		case "note":
			b.note = append(b.note, n.ID)
		}
		switch n.Type {
		case flowchart.NodeTerminator:
			label := strings.ToLower(n.Label)
			if strings.Contains(label, "start") || strings.Contains(label, "begin") {
				b.start = append(b.start, n.ID)
			} else if strings.Contains(label, "end") || strings.Contains(label, "finish") {
				b.end = append(b.end, n.ID)
			}
		case flowchart.NodeDecision:
			b.decision = append(b.decision, n.ID)
		case flowchart.NodePredefined:
			b.predefined = append(b.predefined, n.ID)
		}
		if n.Confidence < lowConfidenceThreshold {
			b.lowConfidence = append(b.lowConfidence, n.ID)
		}
	}
	return b
}

func mermaidStyles(fc *flowchart.Flowchart) []string {
	b := classifyStyles(fc)
	var styles []string
	appendGroup := func(ids []string, suffix string) {
		for _, id := range ids {
			styles = append(styles, fmt.Sprintf("    style %s %s", id, suffix))
		}
	}

	appendGroup(b.start, "fill:#90EE90,stroke:#333,stroke-width:2px")
	appendGroup(b.end, "fill:#FFB6C1,stroke:#333,stroke-width:2px")
	appendGroup(b.decision, "fill:#FFE4B5,stroke:#333,stroke-width:2px")
	appendGroup(b.predefined, "fill:#B0E0E6,stroke:#2196F3,stroke-width:2px")
	appendGroup(b.lowConfidence, "stroke:#FF9800,stroke-width:3px,stroke-dasharray: 5 5")

	terminators := make(map[string]bool, len(b.start)+len(b.end))
	for _, id := range b.start {
		terminators[id] = true
	}
	for _, id := range b.end {
		terminators[id] = true
	}
	seen := make(map[string]bool)
	for _, c := range fc.Connections {
		if c.Type != flowchart.ConnLoop || terminators[c.To] || seen[c.To] {
			continue
		}
		seen[c.To] = true
		styles = append(styles, fmt.Sprintf("    style %s fill:#E8D5F5,stroke:#9C27B0,stroke-width:2px", c.To))
	}

	appendGroup(b.critical, "stroke:#D32F2F,stroke-width:4px,fill:#FFCDD2")
	appendGroup(b.warning, "stroke:#F57C00,stroke-width:3px,fill:#FFE0B2")
	appendGroup(b.note, "stroke:#1976D2,stroke-width:2px,fill:#BBDEFB")

	return styles
}

// Mermaid renders via the mermaid-cli (mmdc) binary when present.
type Mermaid struct {
	Theme      string
	Background string

	once      sync.Once
	available bool
}

func NewMermaid() *Mermaid {
	return &Mermaid{Theme: "default", Background: "white"}
}

func (m *Mermaid) Name() string { return "mermaid" }

func (m *Mermaid) Available() bool {
	m.once.Do(func() {
		_, err := exec.LookPath("mmdc")
		m.available = err == nil
	})
	return m.available
}

func (m *Mermaid) Render(ctx context.Context, fc *flowchart.Flowchart, path string, format string) error {
	if !m.Available() {
		return fmt.Errorf("renderer: mmdc binary not found")
	}
	switch format {
	case "png", "svg", "pdf":
	default:
		return fmt.Errorf("renderer: mermaid does not support format %q", format)
	}

	source := GenerateMermaid(fc, "TD")
	tmp := strings.TrimSuffix(path, filepath.Ext(path)) + ".mmd"
	if err := os.WriteFile(tmp, []byte(source), 0o644); err != nil {
		return fmt.Errorf("renderer: write mermaid source: %w", err)
	}
	defer os.Remove(tmp)

	args := []string{"-i", tmp, "-o", path, "-b", m.Background, "-t", m.Theme}
	if format != "svg" {
		args = append(args, "-w", "3000", "-H", "2000")
	}
	cmd := exec.CommandContext(ctx, "mmdc", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("renderer: mmdc failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	common.Logger().Info("renderer: mermaid rendered", "path", path, "format", format)
	return nil
}
