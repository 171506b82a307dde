// File path: internal/renderer/html.go
package renderer

import (
	"context"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/nicodishanthj/flowforge/internal/common"
	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <script type="module">
        import mermaid from 'https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.esm.min.mjs';
        mermaid.initialize({ startOnLoad: true, theme: 'default' });
    </script>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; background-color: #f5f5f5; }
        .container { max-width: 1200px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #333; border-bottom: 2px solid #4CAF50; padding-bottom: 10px; }
        .mermaid { text-align: center; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <div class="mermaid">
%s
        </div>
    </div>
</body>
</html>
`

// HTML writes a standalone page that renders the Mermaid source in the
// browser. It needs no local binaries and serves as the floor of the
// fallback chain.
type HTML struct{}

func NewHTML() *HTML {
	return &HTML{}
}

func (h *HTML) Name() string { return "html" }

func (h *HTML) Available() bool { return true }

func (h *HTML) Render(ctx context.Context, fc *flowchart.Flowchart, path string, format string) error {
	if format != "html" && format != "" {
		return fmt.Errorf("renderer: html backend only writes html, got %q", format)
	}
	title := fc.Title
	if title == "" {
		title = "Flowchart"
	}
	page := fmt.Sprintf(htmlPage, html.EscapeString(title), html.EscapeString(title), GenerateMermaid(fc, "TD"))
	if !strings.HasSuffix(path, ".html") {
		path += ".html"
	}
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return fmt.Errorf("renderer: write html: %w", err)
	}
	common.Logger().Info("renderer: html rendered", "path", path)
	return nil
}
