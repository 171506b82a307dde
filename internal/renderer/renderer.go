// File path: internal/renderer/renderer.go
package renderer

import (
	"context"
	"fmt"

	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

// Renderer turns a flowchart into an image file on disk. Implementations
// wrap external rendering binaries and report availability so callers can
// fall back down the chain when a backend is missing.
type Renderer interface {
	// Name identifies the backend ("graphviz", "d2", "mermaid", "html").
	Name() string
	// Available reports whether the backend's binary is usable on this host.
	Available() bool
	// Render writes the flowchart to path in the given format. Format
	// support varies per backend; unsupported formats return an error.
	Render(ctx context.Context, fc *flowchart.Flowchart, path string, format string) error
}

// Chain returns the renderer with the given name followed by the remaining
// fallbacks in preference order: graphviz, d2, mermaid, html. The HTML
// renderer is always last because it never fails.
func Chain(preferred string) []Renderer {
	order := []Renderer{NewGraphviz(), NewD2(), NewMermaid(), NewHTML()}
	if preferred == "" || preferred == "auto" {
		return order
	}
	chain := make([]Renderer, 0, len(order))
	for _, r := range order {
		if r.Name() == preferred {
			chain = append(chain, r)
		}
	}
	for _, r := range order {
		if r.Name() != preferred {
			chain = append(chain, r)
		}
	}
	return chain
}

// ByName returns the single renderer with the given name.
func ByName(name string) (Renderer, error) {
	for _, r := range Chain("") {
		if r.Name() == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("renderer: unknown backend %q", name)
}
