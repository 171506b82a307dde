// File path: internal/importer/docx.go
package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// docxImporter reads the WordprocessingML body out of .docx archives.
// Paragraphs become lines; table cells are pipe-joined so tabular step
// lists survive as one line per row.
type docxImporter struct{}

func (d *docxImporter) Name() string { return "docx" }

func (d *docxImporter) Match(path string, data []byte) bool {
	if strings.ToLower(filepath.Ext(path)) != ".docx" {
		return false
	}
	// Zip magic.
	return len(data) >= 4 && bytes.HasPrefix(data, []byte("PK"))
}

func (d *docxImporter) Parse(ctx context.Context, path string, data []byte) (*Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}

	var document *zip.File
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return nil, fmt.Errorf("word/document.xml missing")
	}

	rc, err := document.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	text, paragraphs, err := extractDocumentXML(rc)
	if err != nil {
		return nil, err
	}
	return &Result{
		Text:   text,
		Format: "docx",
		Metadata: map[string]any{
			"filename":   filepath.Base(path),
			"size":       len(data),
			"paragraphs": paragraphs,
		},
	}, nil
}

// extractDocumentXML walks the WordprocessingML token stream collecting
// run text. Paragraph ends emit newlines and table cell ends emit pipe
// separators; nothing else in the markup is interpreted.
func extractDocumentXML(r io.Reader) (string, int, error) {
	decoder := xml.NewDecoder(r)

	var (
		out        strings.Builder
		cell       strings.Builder
		inText     bool
		inCell     bool
		row        []string
		paragraphs int
	)

	flushRow := func() {
		if len(row) == 0 {
			return
		}
		out.WriteString(strings.Join(row, " | "))
		out.WriteString("\n")
		row = nil
	}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("decode document.xml: %w", err)
		}

		switch tok := token.(type) {
		case xml.StartElement:
			switch tok.Name.Local {
			case "t":
				inText = true
			case "tc":
				inCell = true
				cell.Reset()
			}
		case xml.EndElement:
			switch tok.Name.Local {
			case "t":
				inText = false
			case "p":
				if !inCell {
					out.WriteString("\n")
					paragraphs++
				} else {
					cell.WriteString(" ")
				}
			case "tc":
				inCell = false
				row = append(row, strings.TrimSpace(cell.String()))
			case "tr":
				flushRow()
			}
		case xml.CharData:
			if !inText {
				continue
			}
			if inCell {
				cell.Write(tok)
			} else {
				out.Write(tok)
			}
		}
	}
	flushRow()
	return out.String(), paragraphs, nil
}
