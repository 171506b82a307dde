// File path: internal/extractor/extractor.go
package extractor

import (
	"context"

	"github.com/nicodishanthj/flowforge/internal/parser"
)

// Extractor converts free text into parsed workflow steps. The fallback
// flag reports whether a degraded path produced the result; quality gating
// treats fallback output as uncertified.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, text string) (steps []parser.WorkflowStep, fallback bool, err error)
}
