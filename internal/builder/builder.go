// File path: internal/builder/builder.go
package builder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nicodishanthj/flowforge/internal/common/telemetry"
	"github.com/nicodishanthj/flowforge/internal/flowchart"
	"github.com/nicodishanthj/flowforge/internal/parser"
	"github.com/nicodishanthj/flowforge/internal/patterns"
)

// Builder converts an ordered step list into a directed flowchart graph.
// Node and connection insertion order is deterministic and follows the
// input step order plus synthesized terminators and branch nodes.
type Builder struct{}

func New() *Builder {
	return &Builder{}
}

var (
	skipTargetRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:skip|jump|go)\s+(?:to\s+)?step\s+(\d+)`),
		regexp.MustCompile(`(?i)continue\s+to\s+step\s+(\d+)`),
		regexp.MustCompile(`(?i)proceed\s+(?:to\s+)?step\s+(\d+)`),
	}
	goToEndRe = regexp.MustCompile(`(?i)go\s+to\s+end`)

	terminatorPhrases = []string{
		"setup complete", "process complete", "complete", "done",
		"finished", "end", "stop", "terminate", "exit",
	}

	startTexts = map[string]bool{"start": true, "begin": true}
	endTexts   = map[string]bool{
		"end": true, "finish": true, "stop": true, "done": true,
		"terminate": true, "complete": true, "setup complete": true, "exit": true,
	}
)

// Build assembles a flowchart from steps. A START terminator is synthesized
// unless the first step already reads as one, and likewise END for the last;
// even an empty step list yields a minimal START to END graph.
func (b *Builder) Build(steps []parser.WorkflowStep, title string) *flowchart.Flowchart {
	fc := &flowchart.Flowchart{Title: title}
	defer func() {
		applyLayout(fc)
		telemetry.RecordBuild(len(fc.Nodes), len(fc.Connections))
	}()

	if len(steps) == 0 {
		fc.AddNode(terminatorNode("START", "Start"))
		fc.AddNode(terminatorNode("END", "End"))
		fc.AddConnection(flowchart.Connection{From: "START", To: "END", Type: flowchart.ConnNormal})
		return fc
	}

	stepIDs := make(map[int]string)

	hasStart := startTexts[strings.ToLower(strings.TrimSpace(steps[0].Text))]
	hasEnd := endTexts[strings.ToLower(strings.TrimSpace(steps[len(steps)-1].Text))]

	fc.AddNode(terminatorNode("START", "Start"))
	if hasStart {
		if n := steps[0].StepNumber; n > 0 {
			stepIDs[n] = "START"
		}
		steps = steps[1:]
	}

	var endStep *parser.WorkflowStep
	if hasEnd && len(steps) > 0 {
		endStep = &steps[len(steps)-1]
		steps = steps[:len(steps)-1]
	}

	prev := "START"
	var endpoints []string

	for i := range steps {
		step := steps[i]
		nodeID := nodeIDFor(step, i)

		nodeType := step.NodeType
		if !nodeType.Valid() {
			nodeType = flowchart.NodeProcess
		}
		confidence := step.Confidence
		if confidence <= 0 {
			confidence = 1.0
		}
		if patterns.IsCrossref(step.Text) {
			nodeType = flowchart.NodePredefined
			if confidence < 0.85 {
				confidence = 0.85
			}
		}

		fc.AddNode(flowchart.Node{
			ID:           nodeID,
			Type:         nodeType,
			Label:        nodeLabel(step),
			OriginalText: step.Text,
			Confidence:   confidence,
		})
		if step.StepNumber > 0 {
			stepIDs[step.StepNumber] = nodeID
		}

		// Thread from open branch endpoints, or chain from the previous
		// node. Decisions never auto-chain; their branches are the exits.
		if len(endpoints) > 0 && prev == "" {
			for _, ep := range endpoints {
				fc.AddConnection(flowchart.Connection{From: ep, To: nodeID, Type: flowchart.ConnNormal})
			}
			endpoints = nil
		} else if prev != "" {
			fc.AddConnection(flowchart.Connection{From: prev, To: nodeID, Type: flowchart.ConnNormal})
		}

		if step.IsLoop {
			if target := patterns.ExtractLoopTarget(step.Text); target > 0 {
				fc.AddConnection(flowchart.Connection{
					From: nodeID, To: stepIDOr(stepIDs, target), Type: flowchart.ConnLoop,
				})
			}
		}

		if step.IsDecision && len(step.Branches) > 0 {
			endpoints = b.applyBranches(fc, nodeID, step.Branches, stepIDs, confidence)
			prev = ""
		} else {
			prev = nodeID
		}
	}

	fc.AddNode(terminatorNode("END", "End"))
	if endStep != nil && endStep.StepNumber > 0 {
		stepIDs[endStep.StepNumber] = "END"
	}

	if len(endpoints) > 0 {
		for _, ep := range endpoints {
			fc.AddConnection(flowchart.Connection{From: ep, To: "END", Type: flowchart.ConnNormal})
		}
	} else if prev != "" {
		fc.AddConnection(flowchart.Connection{From: prev, To: "END", Type: flowchart.ConnNormal})
	}

	return fc
}

type branchKind int

const (
	branchAction branchKind = iota
	branchTerminator
	branchSkip
	branchRetry
	branchGoEnd
)

type branchInfo struct {
	kind   branchKind
	target int
	text   string
}

// applyBranches fans a decision out into labeled exits. Jump phrasing wires
// directly to the referenced step; everything else synthesizes a child node.
// Edge labels are positional: the first branch is Yes, the rest No.
func (b *Builder) applyBranches(fc *flowchart.Flowchart, nodeID string, branches []string, stepIDs map[int]string, confidence float64) []string {
	var endpoints []string
	for k, raw := range branches {
		label, ctype := "Yes", flowchart.ConnYes
		if k > 0 {
			label, ctype = "No", flowchart.ConnNo
		}

		info := classifyBranch(raw)
		switch info.kind {
		case branchGoEnd:
			fc.AddConnection(flowchart.Connection{From: nodeID, To: "END", Label: label, Type: ctype})
		case branchSkip:
			fc.AddConnection(flowchart.Connection{From: nodeID, To: stepIDOr(stepIDs, info.target), Label: label, Type: ctype})
		case branchRetry:
			fc.AddConnection(flowchart.Connection{From: nodeID, To: stepIDOr(stepIDs, info.target), Label: label, Type: flowchart.ConnLoop})
		case branchTerminator:
			childID := fmt.Sprintf("%s_BRANCH_%d", nodeID, k)
			fc.AddNode(flowchart.Node{
				ID:           childID,
				Type:         flowchart.NodeTerminator,
				Label:        capitalize(info.text),
				OriginalText: raw,
				Confidence:   confidence * 0.9,
			})
			fc.AddConnection(flowchart.Connection{From: nodeID, To: childID, Label: label, Type: ctype})
		default:
			childID := fmt.Sprintf("%s_BRANCH_%d", nodeID, k)
			text := capitalize(info.text)
			if text == "" {
				text = "Process"
			}
			fc.AddNode(flowchart.Node{
				ID:           childID,
				Type:         flowchart.NodeProcess,
				Label:        text,
				OriginalText: raw,
				Confidence:   confidence * 0.9,
			})
			fc.AddConnection(flowchart.Connection{From: nodeID, To: childID, Label: label, Type: ctype})
			endpoints = append(endpoints, childID)
		}
	}
	return endpoints
}

func classifyBranch(text string) branchInfo {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if goToEndRe.MatchString(lower) {
		return branchInfo{kind: branchGoEnd}
	}
	if target := patterns.ExtractLoopTarget(trimmed); target > 0 {
		return branchInfo{kind: branchRetry, target: target}
	}
	for _, re := range skipTargetRes {
		if m := re.FindStringSubmatch(trimmed); m != nil {
			target := 0
			fmt.Sscanf(m[1], "%d", &target)
			return branchInfo{kind: branchSkip, target: target}
		}
	}
	for _, phrase := range terminatorPhrases {
		if strings.Contains(lower, phrase) {
			return branchInfo{kind: branchTerminator, text: trimmed}
		}
	}
	return branchInfo{kind: branchAction, text: trimmed}
}

func nodeIDFor(step parser.WorkflowStep, index int) string {
	if step.StepNumber > 0 {
		return fmt.Sprintf("STEP_%d", step.StepNumber)
	}
	return fmt.Sprintf("NODE_%d", index)
}

func nodeLabel(step parser.WorkflowStep) string {
	text := step.Text
	if step.IsDecision && !strings.HasSuffix(text, "?") {
		text += "?"
	}
	if step.StepNumber > 0 {
		return fmt.Sprintf("%d. %s", step.StepNumber, text)
	}
	return text
}

func stepIDOr(stepIDs map[int]string, target int) string {
	if id, ok := stepIDs[target]; ok {
		return id
	}
	return fmt.Sprintf("STEP_%d", target)
}

func terminatorNode(id, label string) flowchart.Node {
	return flowchart.Node{
		ID:           id,
		Type:         flowchart.NodeTerminator,
		Label:        label,
		OriginalText: label,
		Confidence:   1.0,
	}
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
