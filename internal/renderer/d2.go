// File path: internal/renderer/d2.go
package renderer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nicodishanthj/flowforge/internal/common"
	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

const d2RenderTimeout = 30 * time.Second

var d2Shapes = map[flowchart.NodeType]string{
	flowchart.NodeTerminator: "oval",
	flowchart.NodeProcess:    "rectangle",
	flowchart.NodeDecision:   "diamond",
	flowchart.NodeIO:         "parallelogram",
	flowchart.NodeDatabase:   "cylinder",
	flowchart.NodeDisplay:    "hexagon",
	flowchart.NodeDocument:   "page",
	flowchart.NodePredefined: "double",
	// Closest D2 approximation to a trapezoid.
	flowchart.NodeManual:    "queue",
	flowchart.NodeConnector: "circle",
}

var d2Fills = map[flowchart.NodeType]string{
	flowchart.NodeTerminator: "#90EE90",
	flowchart.NodeDecision:   "#FFE4B5",
	flowchart.NodePredefined: "#B0E0E6",
	flowchart.NodeDatabase:   "#E8E8E8",
	flowchart.NodeDocument:   "#FAFAD2",
}

// GenerateD2 produces D2 declarative diagram source.
func GenerateD2(fc *flowchart.Flowchart) string {
	var lines []string
	if fc.Title != "" {
		lines = append(lines, "# "+fc.Title, "")
	}
	lines = append(lines, "direction: down", "")

	for _, n := range fc.Nodes {
		shape, ok := d2Shapes[n.Type]
		if !ok {
			shape = "rectangle"
		}
		lines = append(lines, fmt.Sprintf("%s: \"%s\" {", n.ID, escapeD2(n.Label)))
		lines = append(lines, "  shape: "+shape)
		if fill := d2Fill(n); fill != "" {
			lines = append(lines, fmt.Sprintf("  style.fill: %q", fill))
			lines = append(lines, `  style.font-color: "#333333"`)
		}
		if n.Confidence < lowConfidenceThreshold {
			lines = append(lines, "  style.stroke-dash: 5")
			lines = append(lines, `  style.stroke: "#FF9800"`)
		}
		lines = append(lines, "}", "")
	}

	for _, c := range fc.Connections {
		edge := fmt.Sprintf("%s -> %s", c.From, c.To)
		if c.Label != "" {
			edge += ": " + escapeD2(c.Label)
		}
		if c.Type == flowchart.ConnLoop {
			lines = append(lines, edge+" {")
			lines = append(lines, "  style.stroke-dash: 5")
			lines = append(lines, `  style.stroke: "#9C27B0"`)
			lines = append(lines, "}")
			continue
		}
		lines = append(lines, edge)
	}
	return strings.Join(lines, "\n")
}

func d2Fill(n flowchart.Node) string {
	if n.Type == flowchart.NodeTerminator && isEndLabel(n.Label) {
		return "#FFB6C1"
	}
	return d2Fills[n.Type]
}

func escapeD2(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, `"`, `\"`), "\n", " ")
}

// D2 renders via the d2 binary with the ELK layout engine.
type D2 struct {
	Layout string
	Theme  int

	once      sync.Once
	available bool
}

func NewD2() *D2 {
	return &D2{Layout: "elk"}
}

func (d *D2) Name() string { return "d2" }

func (d *D2) Available() bool {
	d.once.Do(func() {
		_, err := exec.LookPath("d2")
		d.available = err == nil
	})
	return d.available
}

func (d *D2) Render(ctx context.Context, fc *flowchart.Flowchart, path string, format string) error {
	if !d.Available() {
		return fmt.Errorf("renderer: d2 binary not found")
	}
	switch format {
	case "png", "svg", "pdf":
	default:
		return fmt.Errorf("renderer: d2 does not support format %q", format)
	}

	tmp := strings.TrimSuffix(path, filepath.Ext(path)) + ".d2"
	if err := os.WriteFile(tmp, []byte(GenerateD2(fc)), 0o644); err != nil {
		return fmt.Errorf("renderer: write d2 source: %w", err)
	}
	defer os.Remove(tmp)

	ctx, cancel := context.WithTimeout(ctx, d2RenderTimeout)
	defer cancel()

	args := []string{"--layout=" + d.Layout, "--theme=" + strconv.Itoa(d.Theme), tmp, path}
	cmd := exec.CommandContext(ctx, "d2", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("renderer: d2 timed out after %s", d2RenderTimeout)
		}
		return fmt.Errorf("renderer: d2 failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	common.Logger().Info("renderer: d2 rendered", "path", path, "format", format, "layout", d.Layout)
	return nil
}
