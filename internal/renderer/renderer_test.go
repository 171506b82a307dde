// File path: internal/renderer/renderer_test.go
package renderer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

func sampleChart() *flowchart.Flowchart {
	fc := &flowchart.Flowchart{Title: "Order Intake"}
	fc.AddNode(flowchart.Node{ID: "START", Type: flowchart.NodeTerminator, Label: "Start", Confidence: 1.0})
	fc.AddNode(flowchart.Node{ID: "STEP_1", Type: flowchart.NodeDecision, Label: "Payment valid?", Confidence: 0.9})
	fc.AddNode(flowchart.Node{ID: "STEP_2", Type: flowchart.NodeDatabase, Label: "Store order record", Confidence: 0.5})
	fc.AddNode(flowchart.Node{ID: "END", Type: flowchart.NodeTerminator, Label: "End", Confidence: 1.0})
	fc.AddConnection(flowchart.Connection{From: "START", To: "STEP_1", Type: flowchart.ConnNormal})
	fc.AddConnection(flowchart.Connection{From: "STEP_1", To: "STEP_2", Label: "Yes", Type: flowchart.ConnYes})
	fc.AddConnection(flowchart.Connection{From: "STEP_1", To: "START", Label: "No", Type: flowchart.ConnLoop})
	fc.AddConnection(flowchart.Connection{From: "STEP_2", To: "END", Type: flowchart.ConnNormal})
	return fc
}

func TestGenerateMermaidShapes(t *testing.T) {
	out := GenerateMermaid(sampleChart(), "TD")
	if !strings.HasPrefix(out, "flowchart TD") {
		t.Fatalf("expected flowchart TD header, got %q", out[:20])
	}
	for _, want := range []string{
		"START([Start])",
		"STEP_1{Payment valid?}",
		"STEP_2[(Store order record)]",
		"END([End])",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in mermaid output:\n%s", want, out)
		}
	}
}

func TestGenerateMermaidLoopAndLabels(t *testing.T) {
	out := GenerateMermaid(sampleChart(), "TD")
	if !strings.Contains(out, "STEP_1 -.->|No| START") {
		t.Fatalf("expected dotted loop edge, got:\n%s", out)
	}
	if !strings.Contains(out, "STEP_1 -->|Yes| STEP_2") {
		t.Fatalf("expected labeled yes edge, got:\n%s", out)
	}
}

func TestGenerateMermaidStyles(t *testing.T) {
	out := GenerateMermaid(sampleChart(), "TD")
	if !strings.Contains(out, "style START fill:#90EE90") {
		t.Fatalf("expected start styling, got:\n%s", out)
	}
	if !strings.Contains(out, "style END fill:#FFB6C1") {
		t.Fatalf("expected end styling, got:\n%s", out)
	}
	if !strings.Contains(out, "style STEP_2 stroke:#FF9800") {
		t.Fatalf("expected low-confidence styling, got:\n%s", out)
	}
}

func TestSanitizeTextStripsUnicode(t *testing.T) {
	got := sanitizeText("Validate → café <input>")
	if got != "Validate - caf input" {
		t.Fatalf("unexpected sanitized text: %q", got)
	}
}

func TestMermaidEscapesLabelCharacters(t *testing.T) {
	fc := &flowchart.Flowchart{}
	fc.AddNode(flowchart.Node{ID: "P1", Type: flowchart.NodeProcess, Label: `Read "config" [v2]`, Confidence: 1.0})
	out := GenerateMermaid(fc, "TD")
	if !strings.Contains(out, "P1[Read &quot;config&quot; v2]") {
		t.Fatalf("expected escaped label, got:\n%s", out)
	}
}

func TestGenerateDOT(t *testing.T) {
	out := GenerateDOT(sampleChart(), "TB")
	for _, want := range []string{
		`digraph "Order Intake" {`,
		"rankdir=TB;",
		`"STEP_1" [shape=diamond`,
		`"STEP_2" [shape=cylinder`,
		`"START" -> "STEP_1";`,
		`"STEP_1" -> "START" [label=" No " style=dashed`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in dot output:\n%s", want, out)
		}
	}
	if !strings.Contains(out, `style="filled,dashed"`) {
		t.Fatalf("expected low-confidence dashed node, got:\n%s", out)
	}
}

func TestGenerateDOTEndFill(t *testing.T) {
	out := GenerateDOT(sampleChart(), "TB")
	if !strings.Contains(out, `"END" [shape=oval label="End" fillcolor="#FFB6C1"`) {
		t.Fatalf("expected pink end terminator, got:\n%s", out)
	}
}

func TestWrapLabel(t *testing.T) {
	got := wrapLabel("validate the incoming request payload against the published schema definition", 40)
	lines := strings.Split(got, "\\n")
	if len(lines) < 2 || len(lines) > 3 {
		t.Fatalf("expected 2-3 wrapped lines, got %d: %q", len(lines), got)
	}
	for _, line := range lines {
		if len(line) > 40 {
			t.Fatalf("line exceeds wrap width: %q", line)
		}
	}
}

func TestGenerateD2(t *testing.T) {
	out := GenerateD2(sampleChart())
	for _, want := range []string{
		"direction: down",
		`STEP_1: "Payment valid?" {`,
		"shape: diamond",
		"shape: cylinder",
		"STEP_1 -> STEP_2: Yes",
		"style.stroke-dash: 5",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in d2 output:\n%s", want, out)
		}
	}
}

func TestHTMLRendererWritesPage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.html")

	if err := NewHTML().Render(context.Background(), sampleChart(), path, "html"); err != nil {
		t.Fatalf("html render failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rendered html: %v", err)
	}
	page := string(data)
	if !strings.Contains(page, "<title>Order Intake</title>") {
		t.Fatalf("expected title in page, got:\n%s", page)
	}
	if !strings.Contains(page, "flowchart TD") {
		t.Fatalf("expected embedded mermaid source, got:\n%s", page)
	}
}

func TestChainPutsPreferredFirst(t *testing.T) {
	chain := Chain("mermaid")
	if chain[0].Name() != "mermaid" {
		t.Fatalf("expected mermaid first, got %s", chain[0].Name())
	}
	if chain[len(chain)-1].Name() == "mermaid" {
		t.Fatal("preferred renderer duplicated at end of chain")
	}
	if len(chain) != 4 {
		t.Fatalf("expected 4 renderers in chain, got %d", len(chain))
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("kroki"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	r, err := ByName("html")
	if err != nil || r.Name() != "html" {
		t.Fatalf("expected html renderer, got %v / %v", r, err)
	}
}
