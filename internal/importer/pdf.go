// File path: internal/importer/pdf.go
package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// pdfImporter extracts text from PDF page content streams. Only the
// text-showing operators are interpreted: each Tj/TJ/' string is emitted,
// and text positioning operators that move to a new line emit newlines.
type pdfImporter struct{}

var (
	// (string) Tj  and  (string) '
	pdfShowTextRe = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)\s*(?:Tj|')`)
	// [ ...(a)...(b)... ] TJ
	pdfShowArrayRe  = regexp.MustCompile(`\[((?:\\.|[^\]])*)\]\s*TJ`)
	pdfArrayStrRe   = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)
	pdfNewlineOpRe  = regexp.MustCompile(`(?:T\*|\-?\d+(?:\.\d+)?\s+\-?\d+(?:\.\d+)?\s+T[dD])`)
	pdfEscapeUnquot = strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, "\n", `\t`, "\t")
)

func (p *pdfImporter) Name() string { return "pdf" }

func (p *pdfImporter) Match(path string, data []byte) bool {
	if strings.ToLower(filepath.Ext(path)) == ".pdf" {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func (p *pdfImporter) Parse(ctx context.Context, path string, data []byte) (*Result, error) {
	pageCount, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("read pdf context: %w", err)
	}

	var out strings.Builder
	for page := 1; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reader, err := pdfcpu.ExtractPageContent(pdfCtx, page)
		if err != nil || reader == nil {
			continue
		}
		content, err := io.ReadAll(reader)
		if err != nil {
			continue
		}
		pageText := decodeContentStream(string(content))
		if pageText != "" {
			out.WriteString(pageText)
			out.WriteString("\n")
		}
	}

	text := out.String()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no extractable text in %d page(s)", pageCount)
	}
	return &Result{
		Text:   text,
		Format: "pdf",
		Metadata: map[string]any{
			"filename": filepath.Base(path),
			"size":     len(data),
			"pages":    pageCount,
		},
	}, nil
}

// decodeContentStream walks one content stream in order, emitting shown
// strings and converting line-advance positioning operators to newlines.
func decodeContentStream(content string) string {
	type fragment struct {
		pos  int
		text string
	}
	var fragments []fragment

	for _, m := range pdfShowTextRe.FindAllStringSubmatchIndex(content, -1) {
		fragments = append(fragments, fragment{pos: m[0], text: pdfEscapeUnquot.Replace(content[m[2]:m[3]])})
	}
	for _, m := range pdfShowArrayRe.FindAllStringSubmatchIndex(content, -1) {
		array := content[m[2]:m[3]]
		var parts []string
		for _, s := range pdfArrayStrRe.FindAllStringSubmatch(array, -1) {
			parts = append(parts, pdfEscapeUnquot.Replace(s[1]))
		}
		fragments = append(fragments, fragment{pos: m[0], text: strings.Join(parts, "")})
	}
	for _, m := range pdfNewlineOpRe.FindAllStringIndex(content, -1) {
		fragments = append(fragments, fragment{pos: m[0], text: "\n"})
	}

	// Content order equals stream order.
	for i := 1; i < len(fragments); i++ {
		for j := i; j > 0 && fragments[j-1].pos > fragments[j].pos; j-- {
			fragments[j-1], fragments[j] = fragments[j], fragments[j-1]
		}
	}

	var out strings.Builder
	for _, f := range fragments {
		out.WriteString(f.text)
	}
	return strings.TrimSpace(whitespaceOnlyLines(out.String()))
}

func whitespaceOnlyLines(text string) string {
	lines := strings.Split(text, "\n")
	var kept []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
