// File path: internal/builder/builder_test.go
package builder

import (
	"reflect"
	"testing"

	"github.com/nicodishanthj/flowforge/internal/flowchart"
	"github.com/nicodishanthj/flowforge/internal/parser"
)

func TestBuildSimpleSequence(t *testing.T) {
	steps := parser.New(nil).Parse("1. Start\n2. Process data\n3. End")
	fc := New().Build(steps, "Demo")

	if len(fc.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d: %+v", len(fc.Nodes), fc.Nodes)
	}
	if len(fc.Connections) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(fc.Connections))
	}
	ids := []string{fc.Nodes[0].ID, fc.Nodes[1].ID, fc.Nodes[2].ID}
	if ids[0] != "START" || ids[1] != "STEP_2" || ids[2] != "END" {
		t.Fatalf("unexpected node ids: %v", ids)
	}
	if fc.Nodes[0].Type != flowchart.NodeTerminator || fc.Nodes[2].Type != flowchart.NodeTerminator {
		t.Fatalf("start and end must be terminators")
	}
	if len(fc.Incoming("START")) != 0 {
		t.Fatalf("START must have no incoming edges")
	}
	if len(fc.Outgoing("END")) != 0 {
		t.Fatalf("END must have no outgoing edges")
	}
}

func TestBuildDeterministic(t *testing.T) {
	steps := parser.New(nil).Parse("1. Start\n2. Check if data valid\n   - If yes: Continue\n   - If no: Stop\n3. End")
	a := New().Build(steps, "")
	b := New().Build(steps, "")
	if !reflect.DeepEqual(a.Nodes, b.Nodes) {
		t.Fatalf("node lists differ between builds")
	}
	if !reflect.DeepEqual(a.Connections, b.Connections) {
		t.Fatalf("connection lists differ between builds")
	}
}

func TestBuildDecisionBranchNodes(t *testing.T) {
	steps := []parser.WorkflowStep{
		{
			Text:       "Check if user is valid",
			StepNumber: 2,
			IsDecision: true,
			Branches:   []string{"Continue", "Stop"},
			NodeType:   flowchart.NodeDecision,
			Confidence: 0.85,
		},
	}
	fc := New().Build(steps, "")

	outgoing := fc.Outgoing("STEP_2")
	if len(outgoing) != 2 {
		t.Fatalf("expected 2 decision exits, got %d", len(outgoing))
	}
	if outgoing[0].Label != "Yes" || outgoing[0].Type != flowchart.ConnYes {
		t.Fatalf("first exit should be Yes/YES, got %+v", outgoing[0])
	}
	if outgoing[1].Label != "No" || outgoing[1].Type != flowchart.ConnNo {
		t.Fatalf("second exit should be No/NO, got %+v", outgoing[1])
	}
	if outgoing[0].To == outgoing[1].To {
		t.Fatalf("branches must lead to different nodes, both hit %s", outgoing[0].To)
	}

	yes := fc.Node("STEP_2_BRANCH_0")
	no := fc.Node("STEP_2_BRANCH_1")
	if yes == nil || no == nil {
		t.Fatalf("expected synthesized branch nodes")
	}
	if yes.Type != flowchart.NodeProcess {
		t.Fatalf("continue branch should be a process node, got %v", yes.Type)
	}
	if no.Type != flowchart.NodeTerminator {
		t.Fatalf("stop branch should be a terminator node, got %v", no.Type)
	}
	if len(fc.Outgoing("STEP_2_BRANCH_1")) != 0 {
		t.Fatalf("terminator branch must not continue the flow")
	}
	// The open thread resumes from the continue branch only.
	if got := fc.Outgoing("STEP_2_BRANCH_0"); len(got) != 1 || got[0].To != "END" {
		t.Fatalf("continue branch should thread to END, got %+v", got)
	}
}

func TestBuildEmptySteps(t *testing.T) {
	fc := New().Build(nil, "")
	if len(fc.Nodes) != 2 || len(fc.Connections) != 1 {
		t.Fatalf("expected minimal START-END graph, got %d nodes %d connections", len(fc.Nodes), len(fc.Connections))
	}
	if fc.Connections[0].From != "START" || fc.Connections[0].To != "END" {
		t.Fatalf("unexpected connection: %+v", fc.Connections[0])
	}
}

func TestBuildSkipBranchTargetsStep(t *testing.T) {
	steps := []parser.WorkflowStep{
		{Text: "Receive request", StepNumber: 1, NodeType: flowchart.NodeIO, Confidence: 0.85},
		{
			Text:       "Check if user is valid",
			StepNumber: 2,
			IsDecision: true,
			Branches:   []string{"Continue to step 4", "Reject request"},
			NodeType:   flowchart.NodeDecision,
			Confidence: 0.85,
		},
		{Text: "Send response", StepNumber: 4, NodeType: flowchart.NodeIO, Confidence: 0.85},
	}
	fc := New().Build(steps, "")

	outgoing := fc.Outgoing("STEP_2")
	if len(outgoing) != 2 {
		t.Fatalf("expected 2 exits, got %+v", outgoing)
	}
	if outgoing[0].To != "STEP_4" || outgoing[0].Label != "Yes" {
		t.Fatalf("skip branch should jump straight to STEP_4, got %+v", outgoing[0])
	}
	if outgoing[1].To != "STEP_2_BRANCH_1" {
		t.Fatalf("reject branch should synthesize a node, got %+v", outgoing[1])
	}
	// The reject path rejoins the flow at the next step.
	if got := fc.Outgoing("STEP_2_BRANCH_1"); len(got) != 1 || got[0].To != "STEP_4" {
		t.Fatalf("expected branch endpoint to thread to STEP_4, got %+v", got)
	}
}

func TestBuildRetryBranchLoopEdge(t *testing.T) {
	steps := []parser.WorkflowStep{
		{Text: "Attempt upload", StepNumber: 1, NodeType: flowchart.NodeIO, Confidence: 0.85},
		{
			Text:       "Check if upload succeeded",
			StepNumber: 2,
			IsDecision: true,
			Branches:   []string{"Proceed with import", "Retry from step 1"},
			NodeType:   flowchart.NodeDecision,
			Confidence: 0.85,
		},
	}
	fc := New().Build(steps, "")

	outgoing := fc.Outgoing("STEP_2")
	if len(outgoing) != 2 {
		t.Fatalf("expected 2 exits, got %+v", outgoing)
	}
	if outgoing[1].To != "STEP_1" || outgoing[1].Type != flowchart.ConnLoop {
		t.Fatalf("retry branch should loop back to STEP_1, got %+v", outgoing[1])
	}
}

func TestBuildLoopStepEdge(t *testing.T) {
	steps := parser.New(nil).Parse("1. Process item\n2. Repeat from step 1 until queue empty")
	fc := New().Build(steps, "")

	var loop *flowchart.Connection
	for i, c := range fc.Connections {
		if c.Type == flowchart.ConnLoop {
			loop = &fc.Connections[i]
		}
	}
	if loop == nil {
		t.Fatalf("expected a loop connection: %+v", fc.Connections)
	}
	if loop.From != "STEP_2" || loop.To != "STEP_1" {
		t.Fatalf("unexpected loop edge: %+v", loop)
	}
}

func TestBuildCrossrefBecomesPredefined(t *testing.T) {
	steps := parser.New(nil).Parse("1. Prepare sample per section 4.2 guidance")
	fc := New().Build(steps, "")
	node := fc.Node("STEP_1")
	if node == nil {
		t.Fatalf("missing STEP_1: %+v", fc.Nodes)
	}
	if node.Type != flowchart.NodePredefined {
		t.Fatalf("cross-reference should map to predefined process, got %v", node.Type)
	}
	if node.Confidence < 0.85 {
		t.Fatalf("cross-reference confidence should be raised, got %v", node.Confidence)
	}
}

func TestBuildLayoutPositions(t *testing.T) {
	steps := parser.New(nil).Parse("1. Start\n2. Process data\n3. End")
	fc := New().Build(steps, "")
	for _, n := range fc.Nodes {
		if n.Position == nil {
			t.Fatalf("node %s missing layout position", n.ID)
		}
	}
	start := fc.Node("START")
	end := fc.Node("END")
	if start.Position.Y != 0 {
		t.Fatalf("START should sit at level 0, got %d", start.Position.Y)
	}
	if end.Position.Y != 2*ySpacing {
		t.Fatalf("END should sit two levels down, got %d", end.Position.Y)
	}
}
