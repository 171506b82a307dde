// File path: internal/validator/validator_test.go
package validator

import (
	"strings"
	"testing"

	"github.com/nicodishanthj/flowforge/internal/builder"
	"github.com/nicodishanthj/flowforge/internal/flowchart"
	"github.com/nicodishanthj/flowforge/internal/parser"
)

func node(id string, t flowchart.NodeType, label string) flowchart.Node {
	return flowchart.Node{ID: id, Type: t, Label: label, Confidence: 1.0}
}

func conn(from, to, label string, t flowchart.ConnectionType) flowchart.Connection {
	return flowchart.Connection{From: from, To: to, Label: label, Type: t}
}

func containsSubstring(list []string, fragment string) bool {
	for _, s := range list {
		if strings.Contains(s, fragment) {
			return true
		}
	}
	return false
}

func TestValidateBuilderOutputPasses(t *testing.T) {
	steps := parser.New(nil).Parse("1. Start\n2. Process data\n3. End")
	fc := builder.New().Build(steps, "test")

	result := New().Validate(fc)
	if !result.Valid {
		t.Fatalf("expected valid flowchart, got errors: %v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
}

func TestValidatePositiveWordDecisionPasses(t *testing.T) {
	steps := parser.New(nil).Parse("1. Start\n2. Check if user is valid\n3. Notify user\n4. End")
	fc := builder.New().Build(steps, "test")

	if got := len(fc.Outgoing("STEP_2")); got != 2 {
		t.Fatalf("expected 2 branches out of the decision, got %d", got)
	}
	result := New().Validate(fc)
	if !result.Valid {
		t.Fatalf("expected valid flowchart, got errors: %v", result.Errors)
	}
}

func TestValidateEmptyFlowchart(t *testing.T) {
	result := New().Validate(&flowchart.Flowchart{})
	if result.Valid {
		t.Fatal("expected empty flowchart to be invalid")
	}
	if !containsSubstring(result.Errors, "Flowchart has no nodes") {
		t.Fatalf("expected no-nodes error, got %v", result.Errors)
	}
}

func TestValidateConvergingBranchesError(t *testing.T) {
	fc := &flowchart.Flowchart{}
	fc.AddNode(node("START", flowchart.NodeTerminator, "Start"))
	fc.AddNode(node("D1", flowchart.NodeDecision, "Payment valid?"))
	fc.AddNode(node("P1", flowchart.NodeProcess, "Record result"))
	fc.AddNode(node("END", flowchart.NodeTerminator, "End"))
	fc.AddConnection(conn("START", "D1", "", flowchart.ConnNormal))
	fc.AddConnection(conn("D1", "P1", "Yes", flowchart.ConnYes))
	fc.AddConnection(conn("D1", "P1", "No", flowchart.ConnNo))
	fc.AddConnection(conn("P1", "END", "", flowchart.ConnNormal))

	result := New().Validate(fc)
	if result.Valid {
		t.Fatal("expected converging branches to invalidate the flowchart")
	}
	if !containsSubstring(result.Errors, "P1") {
		t.Fatalf("expected error naming the shared target, got %v", result.Errors)
	}
}

func TestValidateBothBranchesToEndIsWarning(t *testing.T) {
	fc := &flowchart.Flowchart{}
	fc.AddNode(node("START", flowchart.NodeTerminator, "Start"))
	fc.AddNode(node("D1", flowchart.NodeDecision, "All records processed?"))
	fc.AddNode(node("END", flowchart.NodeTerminator, "End"))
	fc.AddConnection(conn("START", "D1", "", flowchart.ConnNormal))
	fc.AddConnection(conn("D1", "END", "Yes", flowchart.ConnYes))
	fc.AddConnection(conn("D1", "END", "No", flowchart.ConnNo))

	result := New().Validate(fc)
	if !result.Valid {
		t.Fatalf("expected branches converging on END to stay valid, got errors: %v", result.Errors)
	}
	if !containsSubstring(result.Warnings, "Both branches lead to END") {
		t.Fatalf("expected convergence warning, got %v", result.Warnings)
	}
}

func TestValidateCycleIsWarning(t *testing.T) {
	fc := &flowchart.Flowchart{}
	fc.AddNode(node("START", flowchart.NodeTerminator, "Start"))
	fc.AddNode(node("P1", flowchart.NodeProcess, "Fetch batch"))
	fc.AddNode(node("P2", flowchart.NodeProcess, "Process batch"))
	fc.AddNode(node("END", flowchart.NodeTerminator, "End"))
	fc.AddConnection(conn("START", "P1", "", flowchart.ConnNormal))
	fc.AddConnection(conn("P1", "P2", "", flowchart.ConnNormal))
	fc.AddConnection(conn("P2", "P1", "Retry", flowchart.ConnLoop))
	fc.AddConnection(conn("P2", "END", "", flowchart.ConnNormal))

	result := New().Validate(fc)
	if !result.Valid {
		t.Fatalf("expected loop to stay valid, got errors: %v", result.Errors)
	}
	if !containsSubstring(result.Warnings, "cycles") {
		t.Fatalf("expected cycle warning, got %v", result.Warnings)
	}
}

func TestValidateDanglingConnection(t *testing.T) {
	fc := &flowchart.Flowchart{}
	fc.AddNode(node("START", flowchart.NodeTerminator, "Start"))
	fc.AddNode(node("END", flowchart.NodeTerminator, "End"))
	fc.AddConnection(conn("START", "GHOST", "", flowchart.ConnNormal))
	fc.AddConnection(conn("START", "END", "", flowchart.ConnNormal))

	result := New().Validate(fc)
	if result.Valid {
		t.Fatal("expected dangling connection to invalidate the flowchart")
	}
	if !containsSubstring(result.Errors, "non-existent target node: GHOST") {
		t.Fatalf("expected dangling-target error, got %v", result.Errors)
	}
}

func TestValidateDecisionWithSingleBranch(t *testing.T) {
	fc := &flowchart.Flowchart{}
	fc.AddNode(node("START", flowchart.NodeTerminator, "Start"))
	fc.AddNode(node("D1", flowchart.NodeDecision, "Is valid?"))
	fc.AddNode(node("END", flowchart.NodeTerminator, "End"))
	fc.AddConnection(conn("START", "D1", "", flowchart.ConnNormal))
	fc.AddConnection(conn("D1", "END", "Yes", flowchart.ConnYes))

	result := New().Validate(fc)
	if result.Valid {
		t.Fatal("expected single-branch decision to be invalid")
	}
	if !containsSubstring(result.Errors, "expected at least 2") {
		t.Fatalf("expected branch-count error, got %v", result.Errors)
	}
}

func TestValidateUnlabeledBranchesWarning(t *testing.T) {
	fc := &flowchart.Flowchart{}
	fc.AddNode(node("START", flowchart.NodeTerminator, "Start"))
	fc.AddNode(node("D1", flowchart.NodeDecision, "In stock?"))
	fc.AddNode(node("P1", flowchart.NodeProcess, "Ship order"))
	fc.AddNode(node("P2", flowchart.NodeProcess, "Backorder item"))
	fc.AddNode(node("END", flowchart.NodeTerminator, "End"))
	fc.AddConnection(conn("START", "D1", "", flowchart.ConnNormal))
	fc.AddConnection(conn("D1", "P1", "", flowchart.ConnNormal))
	fc.AddConnection(conn("D1", "P2", "", flowchart.ConnNormal))
	fc.AddConnection(conn("P1", "END", "", flowchart.ConnNormal))
	fc.AddConnection(conn("P2", "END", "", flowchart.ConnNormal))

	result := New().Validate(fc)
	if !containsSubstring(result.Warnings, "2 unlabeled branch(es)") {
		t.Fatalf("expected unlabeled-branch warning, got %v", result.Warnings)
	}
}

func TestValidateMultipleStartNodes(t *testing.T) {
	fc := &flowchart.Flowchart{}
	fc.AddNode(node("START", flowchart.NodeTerminator, "Start"))
	fc.AddNode(node("START2", flowchart.NodeTerminator, "Start here"))
	fc.AddNode(node("END", flowchart.NodeTerminator, "End"))
	fc.AddConnection(conn("START", "END", "", flowchart.ConnNormal))
	fc.AddConnection(conn("START2", "END", "", flowchart.ConnNormal))

	result := New().Validate(fc)
	if result.Valid {
		t.Fatal("expected multiple starts to be invalid")
	}
	if !containsSubstring(result.Errors, "Multiple START nodes found: 2") {
		t.Fatalf("expected multiple-start error, got %v", result.Errors)
	}
}

func TestValidateEndWithOutgoing(t *testing.T) {
	fc := &flowchart.Flowchart{}
	fc.AddNode(node("START", flowchart.NodeTerminator, "Start"))
	fc.AddNode(node("END", flowchart.NodeTerminator, "End"))
	fc.AddNode(node("P1", flowchart.NodeProcess, "Cleanup"))
	fc.AddConnection(conn("START", "END", "", flowchart.ConnNormal))
	fc.AddConnection(conn("END", "P1", "", flowchart.ConnNormal))

	result := New().Validate(fc)
	if result.Valid {
		t.Fatal("expected end node with outgoing edge to be invalid")
	}
	if !containsSubstring(result.Errors, "outgoing connection(s)") {
		t.Fatalf("expected end-outgoing error, got %v", result.Errors)
	}
}

func TestValidateMissingStartIsWarning(t *testing.T) {
	fc := &flowchart.Flowchart{}
	fc.AddNode(node("P1", flowchart.NodeProcess, "Load data"))
	fc.AddNode(node("END", flowchart.NodeTerminator, "End"))
	fc.AddConnection(conn("P1", "END", "", flowchart.ConnNormal))

	result := New().Validate(fc)
	if !result.Valid {
		t.Fatalf("expected missing start to stay valid, got errors: %v", result.Errors)
	}
	if !containsSubstring(result.Warnings, "No explicit START terminator") {
		t.Fatalf("expected missing-start warning, got %v", result.Warnings)
	}
}

func TestValidateLongLabelWarning(t *testing.T) {
	fc := &flowchart.Flowchart{}
	fc.AddNode(node("START", flowchart.NodeTerminator, "Start"))
	fc.AddNode(node("P1", flowchart.NodeProcess, strings.Repeat("x", 120)))
	fc.AddNode(node("END", flowchart.NodeTerminator, "End"))
	fc.AddConnection(conn("START", "P1", "", flowchart.ConnNormal))
	fc.AddConnection(conn("P1", "END", "", flowchart.ConnNormal))

	result := New().Validate(fc)
	if !result.Valid {
		t.Fatalf("expected long label to stay valid, got errors: %v", result.Errors)
	}
	if !containsSubstring(result.Warnings, "very long") {
		t.Fatalf("expected long-label warning, got %v", result.Warnings)
	}
}

func TestValidateInvalidNodeType(t *testing.T) {
	fc := &flowchart.Flowchart{}
	fc.AddNode(node("START", flowchart.NodeTerminator, "Start"))
	fc.AddNode(flowchart.Node{ID: "X1", Type: "hexagram", Label: "Mystery"})
	fc.AddNode(node("END", flowchart.NodeTerminator, "End"))
	fc.AddConnection(conn("START", "X1", "", flowchart.ConnNormal))
	fc.AddConnection(conn("X1", "END", "", flowchart.ConnNormal))

	result := New().Validate(fc)
	if result.Valid {
		t.Fatal("expected unknown node type to be invalid")
	}
	if !containsSubstring(result.Errors, "Invalid node type 'hexagram'") {
		t.Fatalf("expected node-type error, got %v", result.Errors)
	}
}
