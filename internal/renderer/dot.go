// File path: internal/renderer/dot.go
package renderer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/nicodishanthj/flowforge/internal/common"
	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

var dotShapes = map[flowchart.NodeType]string{
	flowchart.NodeTerminator: "oval",
	flowchart.NodeProcess:    "box",
	flowchart.NodeDecision:   "diamond",
	flowchart.NodeIO:         "parallelogram",
	flowchart.NodeDatabase:   "cylinder",
	flowchart.NodeDisplay:    "hexagon",
	flowchart.NodeDocument:   "note",
	flowchart.NodePredefined: "doubleoctagon",
	flowchart.NodeManual:     "trapezium",
	flowchart.NodeConnector:  "circle",
}

var dotFills = map[flowchart.NodeType]string{
	flowchart.NodeTerminator: "#90EE90",
	flowchart.NodeDecision:   "#FFE4B5",
	flowchart.NodePredefined: "#B0E0E6",
	flowchart.NodeDatabase:   "#E8E8E8",
	flowchart.NodeDocument:   "#FAFAD2",
	flowchart.NodeIO:         "#E0E0FF",
	flowchart.NodeManual:     "#FFE4E1",
	flowchart.NodeDisplay:    "#E0FFE0",
}

// GenerateDOT produces Graphviz DOT source using the Sugiyama hierarchical
// layout settings that suit top-to-bottom flowcharts.
func GenerateDOT(fc *flowchart.Flowchart, rankdir string) string {
	if rankdir == "" {
		rankdir = "TB"
	}
	var b strings.Builder
	name := fc.Title
	if name == "" {
		name = "Flowchart"
	}
	fmt.Fprintf(&b, "digraph %q {\n", name)
	fmt.Fprintf(&b, "    rankdir=%s;\n", rankdir)
	b.WriteString("    splines=ortho;\n")
	b.WriteString("    nodesep=0.8;\n")
	b.WriteString("    ranksep=1.0;\n")
	b.WriteString("    bgcolor=white;\n")
	b.WriteString("    node [style=\"filled,rounded\" fontname=Helvetica fontsize=11 fillcolor=\"#FFFFFF\" color=\"#333333\" penwidth=1.5];\n")
	b.WriteString("    edge [fontname=Helvetica fontsize=10 color=\"#555555\" arrowsize=0.8];\n")

	for _, n := range fc.Nodes {
		b.WriteString("    " + dotNode(n) + "\n")
	}
	for _, c := range fc.Connections {
		b.WriteString("    " + dotEdge(c) + "\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func dotNode(n flowchart.Node) string {
	shape, ok := dotShapes[n.Type]
	if !ok {
		shape = "box"
	}
	fill := dotFills[n.Type]
	if n.Type == flowchart.NodeTerminator && isEndLabel(n.Label) {
		fill = "#FFB6C1"
	}

	attrs := []string{
		fmt.Sprintf("shape=%s", shape),
		fmt.Sprintf("label=%q", wrapLabel(n.Label, 40)),
	}
	if fill != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill), `fontcolor="#333333"`)
	}
	if n.Confidence < lowConfidenceThreshold {
		attrs = append(attrs, `style="filled,dashed"`, `color="#FF9800"`, "penwidth=2.5")
	}
	return fmt.Sprintf("%q [%s];", n.ID, strings.Join(attrs, " "))
}

func dotEdge(c flowchart.Connection) string {
	var attrs []string
	if c.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", " "+c.Label+" "))
	}
	if c.Type == flowchart.ConnLoop {
		attrs = append(attrs, "style=dashed", `color="#9C27B0"`)
	}
	if len(attrs) == 0 {
		return fmt.Sprintf("%q -> %q;", c.From, c.To)
	}
	return fmt.Sprintf("%q -> %q [%s];", c.From, c.To, strings.Join(attrs, " "))
}

func isEndLabel(label string) bool {
	label = strings.ToLower(label)
	for _, kw := range []string{"end", "stop", "finish"} {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}

// wrapLabel breaks long labels into up to three lines at word boundaries.
// The line separator is an escaped newline so it survives DOT quoting.
func wrapLabel(label string, maxLen int) string {
	if len(label) <= maxLen {
		return label
	}
	var lines []string
	current := ""
	for _, word := range strings.Fields(label) {
		if len(current)+len(word)+1 > maxLen && current != "" {
			lines = append(lines, current)
			current = word
			continue
		}
		current = strings.TrimSpace(current + " " + word)
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) > 3 {
		lines = lines[:3]
	}
	return strings.Join(lines, "\\n")
}

// Graphviz renders via the dot binary.
type Graphviz struct {
	Rankdir string

	once      sync.Once
	available bool
}

func NewGraphviz() *Graphviz {
	return &Graphviz{Rankdir: "TB"}
}

func (g *Graphviz) Name() string { return "graphviz" }

func (g *Graphviz) Available() bool {
	g.once.Do(func() {
		_, err := exec.LookPath("dot")
		g.available = err == nil
	})
	return g.available
}

func (g *Graphviz) Render(ctx context.Context, fc *flowchart.Flowchart, path string, format string) error {
	if !g.Available() {
		return fmt.Errorf("renderer: dot binary not found")
	}
	switch format {
	case "png", "svg", "pdf":
	default:
		return fmt.Errorf("renderer: graphviz does not support format %q", format)
	}

	cmd := exec.CommandContext(ctx, "dot", "-T"+format, "-o", path)
	cmd.Stdin = strings.NewReader(GenerateDOT(fc, g.Rankdir))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("renderer: dot failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	common.Logger().Info("renderer: graphviz rendered", "path", path, "format", format)
	return nil
}
