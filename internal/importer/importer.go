// File path: internal/importer/importer.go
package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nicodishanthj/flowforge/internal/common"
)

// Importer extracts plain workflow text from one document format.
type Importer interface {
	Name() string
	Match(path string, data []byte) bool
	Parse(ctx context.Context, path string, data []byte) (*Result, error)
}

// Result is the extracted document: raw text plus format metadata.
type Result struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Format   string         `json:"format"`
}

// Registry dispatches documents to the first importer whose Match accepts
// them, in registration order.
type Registry struct {
	importers []Importer
}

func NewRegistry() *Registry {
	return &Registry{importers: defaultImporters()}
}

func defaultImporters() []Importer {
	return []Importer{
		&pdfImporter{},
		&docxImporter{},
		&textImporter{},
	}
}

// Supported lists the importer names in dispatch order.
func (r *Registry) Supported() []string {
	names := make([]string, 0, len(r.importers))
	for _, imp := range r.importers {
		names = append(names, imp.Name())
	}
	return names
}

// Parse extracts text from the document using the first matching importer.
func (r *Registry) Parse(ctx context.Context, path string, data []byte) (*Result, error) {
	for _, imp := range r.importers {
		if !imp.Match(path, data) {
			continue
		}
		common.Logger().Debug("importer: dispatching document", "importer", imp.Name(), "path", path)
		result, err := imp.Parse(ctx, path, data)
		if err != nil {
			return nil, fmt.Errorf("importer: %s: %w", imp.Name(), err)
		}
		result.Text = CleanText(result.Text)
		return result, nil
	}
	return nil, fmt.Errorf("importer: unsupported format %q", filepath.Ext(path))
}

var (
	blankRunsRe  = regexp.MustCompile(`\n\s*\n\s*\n+`)
	pageNumberRe = regexp.MustCompile(`(?i)Page \d+`)
	headerRe     = regexp.MustCompile(`(?mi)^\s*(Page|Document|Section)\s+\d+.*$`)
	numberedRe   = regexp.MustCompile(`^(\d+)[.)]\s+(.+)$`)
)

// CleanText normalizes extracted document text: line endings, page
// numbers, repeated headers and blank-line runs.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = headerRe.ReplaceAllString(text, "")
	text = pageNumberRe.ReplaceAllString(text, "")
	text = blankRunsRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// PreprocessForParser prepares extracted workflow text for step parsing:
// blank lines are dropped and numbered steps get the canonical "N. text"
// form regardless of the original delimiter.
func PreprocessForParser(text string) string {
	text = CleanText(text)
	var processed []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := numberedRe.FindStringSubmatch(line); m != nil {
			processed = append(processed, m[1]+". "+m[2])
			continue
		}
		processed = append(processed, line)
	}
	return strings.Join(processed, "\n")
}
