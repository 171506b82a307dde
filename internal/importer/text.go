// File path: internal/importer/text.go
package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// textImporter handles plain text and Markdown. It is the catch-all for
// any payload that looks like valid UTF-8 text.
type textImporter struct{}

func (t *textImporter) Name() string { return "text" }

func (t *textImporter) Match(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown", "":
		return utf8.Valid(data)
	}
	return false
}

func (t *textImporter) Parse(ctx context.Context, path string, data []byte) (*Result, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("not valid utf-8 text")
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		format = "txt"
	}
	return &Result{
		Text:   string(data),
		Format: format,
		Metadata: map[string]any{
			"filename": filepath.Base(path),
			"size":     len(data),
		},
	}, nil
}
