// File path: internal/quality/snapshot.go
package quality

import (
	"github.com/nicodishanthj/flowforge/internal/flowchart"
	"github.com/nicodishanthj/flowforge/internal/parser"
)

// SnapshotStep is the audited view of one parsed step.
type SnapshotStep struct {
	StepNumber int      `json:"step_number"`
	Text       string   `json:"text"`
	NodeType   string   `json:"node_type"`
	Confidence float64  `json:"confidence"`
	IsDecision bool     `json:"is_decision"`
	Branches   []string `json:"branches,omitempty"`
}

// Snapshot is the auditable source bundle exported alongside certified
// artifacts: the text that produced the graph, the intermediate steps, and
// the pipeline settings in effect.
type Snapshot struct {
	WorkflowText   string               `json:"workflow_text"`
	Steps          []SnapshotStep       `json:"steps"`
	Graph          *flowchart.Flowchart `json:"graph"`
	PipelineConfig map[string]any       `json:"pipeline_config"`
}

// BuildSnapshot assembles the export bundle for one workflow artifact.
func BuildSnapshot(text string, steps []parser.WorkflowStep, fc *flowchart.Flowchart, config map[string]any) Snapshot {
	snap := Snapshot{
		WorkflowText:   text,
		Steps:          make([]SnapshotStep, 0, len(steps)),
		Graph:          fc,
		PipelineConfig: config,
	}
	for _, step := range steps {
		snap.Steps = append(snap.Steps, SnapshotStep{
			StepNumber: step.StepNumber,
			Text:       step.Text,
			NodeType:   string(step.NodeType),
			Confidence: step.Confidence,
			IsDecision: step.IsDecision,
			Branches:   step.Branches,
		})
	}
	return snap
}
