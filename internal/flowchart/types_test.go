// File path: internal/flowchart/types_test.go
package flowchart

import (
	"strings"
	"testing"
)

func soundChart() *Flowchart {
	fc := &Flowchart{Title: "Sample"}
	fc.AddNode(Node{ID: "START", Type: NodeTerminator, Label: "Start"})
	fc.AddNode(Node{ID: "STEP_1", Type: NodeProcess, Label: "Do work"})
	fc.AddNode(Node{ID: "END", Type: NodeTerminator, Label: "End"})
	fc.AddConnection(Connection{From: "START", To: "STEP_1", Type: ConnNormal})
	fc.AddConnection(Connection{From: "STEP_1", To: "END", Type: ConnNormal})
	return fc
}

func TestNodeTypeValid(t *testing.T) {
	for _, nt := range NodeTypes() {
		if !nt.Valid() {
			t.Fatalf("declared node type %q reported invalid", nt)
		}
	}
	if NodeType("hexagram").Valid() {
		t.Fatal("unknown node type reported valid")
	}
}

func TestNodeLookupAndEdges(t *testing.T) {
	fc := soundChart()
	if fc.Node("STEP_1") == nil || fc.Node("GHOST") != nil {
		t.Fatal("node lookup mismatch")
	}
	if got := fc.Incoming("END"); len(got) != 1 || got[0].From != "STEP_1" {
		t.Fatalf("unexpected incoming edges: %v", got)
	}
	if got := fc.Outgoing("START"); len(got) != 1 || got[0].To != "STEP_1" {
		t.Fatalf("unexpected outgoing edges: %v", got)
	}
	if got := fc.TerminatorsLabeled("start"); len(got) != 1 || got[0].ID != "START" {
		t.Fatalf("unexpected start terminators: %v", got)
	}
}

func TestCheckStructureSound(t *testing.T) {
	if errs := soundChart().CheckStructure(); len(errs) != 0 {
		t.Fatalf("expected sound structure, got %v", errs)
	}
}

func TestCheckStructureFindsDefects(t *testing.T) {
	fc := soundChart()
	fc.AddNode(Node{ID: "LOST", Type: NodeProcess, Label: "Unreachable"})
	fc.AddNode(Node{ID: "DEC_1", Type: NodeDecision, Label: "Choice"})
	fc.AddConnection(Connection{From: "END", To: "DEC_1", Type: ConnNormal})

	errs := fc.CheckStructure()
	if len(errs) != 3 {
		t.Fatalf("expected 3 structure errors, got %v", errs)
	}
	joined := strings.Join(errs, "\n")
	for _, want := range []string{"Orphaned nodes found: [LOST]", "END node 'END' has outgoing", "fewer than 2 branches"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %v", want, errs)
		}
	}
}

func TestCheckStructureAllowsStartSelfLoop(t *testing.T) {
	fc := soundChart()
	fc.AddConnection(Connection{From: "START", To: "START", Type: ConnLoop})
	if errs := fc.CheckStructure(); len(errs) != 0 {
		t.Fatalf("start self-loop must not be an error, got %v", errs)
	}

	fc.AddConnection(Connection{From: "STEP_1", To: "START", Type: ConnNormal})
	errs := fc.CheckStructure()
	found := false
	for _, e := range errs {
		if strings.Contains(e, "START node 'START' has incoming") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected incoming-edge error for non-loop edge, got %v", errs)
	}
}

func TestCheckStructureMultipleStarts(t *testing.T) {
	fc := soundChart()
	fc.AddNode(Node{ID: "START_2", Type: NodeTerminator, Label: "Start over"})
	fc.AddConnection(Connection{From: "START_2", To: "STEP_1", Type: ConnNormal})
	errs := fc.CheckStructure()
	found := false
	for _, e := range errs {
		if strings.Contains(e, "2 start terminators") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected multiple start terminator error, got %v", errs)
	}
}
