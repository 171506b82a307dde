// File path: internal/extractor/llm.go
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nicodishanthj/flowforge/internal/common"
	"github.com/nicodishanthj/flowforge/internal/extractor/providers"
	"github.com/nicodishanthj/flowforge/internal/flowchart"
	"github.com/nicodishanthj/flowforge/internal/parser"
)

const (
	chunkMaxTokens     = 6000
	chunkOverlapTokens = 500
	llmStepConfidence  = 0.90
)

const systemPrompt = `You are a workflow extraction engine. Analyze the given text and extract a structured flowchart.

Rules:
1. Extract each procedural step chronologically.
2. For every conditional decision, explicitly identify the 'True'/'Yes' pathway and the 'False'/'No' pathway.
3. Every workflow MUST start with a terminator (start) and end with a terminator (end).
4. Categorize each step strictly using these ISO 5807 types:
   - terminator: Start/End points
   - process: Standard processing steps
   - decision: Conditional branching (if/when/whether)
   - io: Input/Output operations (read/write/send/receive)
   - database: Database operations (query/insert/update/delete)
   - display: Display/notification operations
   - document: Document/report generation
   - predefined: Subroutine/API calls
   - manual: Manual/human intervention steps
   - connector: Flow connectors
5. Use concise, imperative labels (max 10 words per step).
6. Return ONLY valid JSON matching this schema:
   {"title": "...", "steps": [{"step_id": "step_1", "description": "...", "iso_shape": "process", "connected_to": ["step_2"], "edge_label": null}]}`

type llmStep struct {
	StepID      string   `json:"step_id"`
	Description string   `json:"description"`
	ISOShape    string   `json:"iso_shape"`
	ConnectedTo []string `json:"connected_to"`
	EdgeLabel   string   `json:"edge_label"`
}

type llmExtraction struct {
	Title string    `json:"title"`
	Steps []llmStep `json:"steps"`
}

// LLM extracts workflow structure with a chat provider returning strict
// JSON. Any provider failure degrades permanently to the heuristic
// extractor for the life of the instance.
type LLM struct {
	provider providers.Provider
	fallback *Heuristic
	degraded bool
}

func NewLLM(provider providers.Provider, fallback *Heuristic) *LLM {
	if fallback == nil {
		fallback = NewHeuristic(nil)
	}
	return &LLM{provider: provider, fallback: fallback}
}

func (l *LLM) Name() string {
	if l.provider == nil {
		return "heuristic"
	}
	return l.provider.Name()
}

func (l *LLM) Extract(ctx context.Context, text string) ([]parser.WorkflowStep, bool, error) {
	if l.provider == nil || l.degraded {
		steps, _, err := l.fallback.Extract(ctx, text)
		return steps, true, err
	}

	var collected []llmStep
	chunks := ChunkDocument(text, chunkMaxTokens, chunkOverlapTokens)
	for i, chunk := range chunks {
		extraction, err := l.extractChunk(ctx, chunk)
		if err != nil {
			common.Logger().Warn("extractor: llm chunk failed", "chunk", i, "error", err)
			continue
		}
		collected = append(collected, extraction.Steps...)
	}

	if len(collected) == 0 {
		common.Logger().Warn("extractor: llm produced no steps, degrading to heuristic", "provider", l.provider.Name())
		l.degraded = true
		steps, _, err := l.fallback.Extract(ctx, text)
		return steps, true, err
	}
	return toWorkflowSteps(collected), false, nil
}

func (l *LLM) extractChunk(ctx context.Context, chunk string) (*llmExtraction, error) {
	raw, err := l.provider.Complete(ctx, systemPrompt, "Extract the workflow from this text:\n\n"+chunk)
	if err != nil {
		return nil, err
	}
	return parseExtraction(raw)
}

// parseExtraction tolerates code fences and leading prose around the JSON
// object models tend to emit.
func parseExtraction(raw string) (*llmExtraction, error) {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "{"); idx > 0 {
		raw = raw[idx:]
	}
	if idx := strings.LastIndex(raw, "}"); idx >= 0 {
		raw = raw[:idx+1]
	}
	var extraction llmExtraction
	if err := json.Unmarshal([]byte(raw), &extraction); err != nil {
		return nil, fmt.Errorf("extractor: parse llm output: %w", err)
	}
	if len(extraction.Steps) == 0 {
		return nil, fmt.Errorf("extractor: llm output contained no steps")
	}
	return &extraction, nil
}

func toWorkflowSteps(llmSteps []llmStep) []parser.WorkflowStep {
	steps := make([]parser.WorkflowStep, 0, len(llmSteps))
	for i, ls := range llmSteps {
		nodeType := flowchart.NodeType(strings.ToLower(strings.TrimSpace(ls.ISOShape)))
		if !nodeType.Valid() {
			nodeType = flowchart.NodeProcess
		}
		isDecision := nodeType == flowchart.NodeDecision

		var branches []string
		if isDecision {
			if len(ls.ConnectedTo) > 0 {
				for _, conn := range ls.ConnectedTo {
					label := ls.EdgeLabel
					if label == "" {
						label = "Yes"
					}
					branches = append(branches, fmt.Sprintf("%s: %s", label, conn))
				}
			} else {
				branches = []string{"Yes", "No"}
			}
		}

		action := "Process"
		if words := strings.Fields(ls.Description); len(words) > 0 {
			action = words[0]
		}

		steps = append(steps, parser.WorkflowStep{
			StepNumber: i + 1,
			Text:       ls.Description,
			Action:     action,
			IsDecision: isDecision,
			Branches:   branches,
			NodeType:   nodeType,
			Confidence: llmStepConfidence,
		})
	}
	return steps
}
