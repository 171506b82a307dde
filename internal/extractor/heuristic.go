// File path: internal/extractor/heuristic.go
package extractor

import (
	"context"

	"github.com/nicodishanthj/flowforge/internal/common"
	"github.com/nicodishanthj/flowforge/internal/flowchart"
	"github.com/nicodishanthj/flowforge/internal/parser"
	"github.com/nicodishanthj/flowforge/internal/patterns"
)

// Heuristic extracts steps with the rule-based parser, then runs the
// entity rule table as an upgrade pass: a domain phrase match with higher
// confidence than the verb tables overrides the symbol choice.
type Heuristic struct {
	parser *parser.Parser
}

func NewHeuristic(p *parser.Parser) *Heuristic {
	if p == nil {
		p = parser.New(nil)
	}
	return &Heuristic{parser: p}
}

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) Extract(ctx context.Context, text string) ([]parser.WorkflowStep, bool, error) {
	steps := h.parser.Parse(text)
	upgraded := 0
	for i := range steps {
		rule, ok := patterns.ClassifyEntities(steps[i].Text)
		if !ok || rule.Confidence <= steps[i].Confidence {
			continue
		}
		// Decisions keep their symbol; branch handling depends on it.
		if steps[i].IsDecision && rule.Type != flowchart.NodeDecision {
			continue
		}
		steps[i].NodeType = rule.Type
		steps[i].Confidence = rule.Confidence
		upgraded++
	}
	if upgraded > 0 {
		common.Logger().Debug("extractor: entity rules upgraded steps", "count", upgraded)
	}
	return steps, false, nil
}
