// File path: internal/patterns/overlay.go
package patterns

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Overlay extends the static pattern tables with deployment-specific verbs
// and keywords. Overlays must be applied at startup, before concurrent
// classification begins; the tables are read-only afterwards.
type Overlay struct {
	ProcessVerbs       []string `yaml:"process_verbs"`
	IOVerbs            []string `yaml:"io_verbs"`
	DatabaseVerbs      []string `yaml:"database_verbs"`
	DisplayVerbs       []string `yaml:"display_verbs"`
	DocumentVerbs      []string `yaml:"document_verbs"`
	TerminatorKeywords []string `yaml:"terminator_keywords"`
	PositiveBranches   []string `yaml:"positive_branches"`
	NegativeBranches   []string `yaml:"negative_branches"`
}

var overlayMu sync.Mutex

// LoadOverlay reads an overlay YAML file and merges it into the tables.
// A missing path is not an error; deployments without overlays are the
// common case.
func LoadOverlay(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read pattern overlay: %w", err)
	}
	var ov Overlay
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("parse pattern overlay: %w", err)
	}
	Apply(ov)
	return nil
}

// Apply merges the overlay into the package tables, lower-casing and
// de-duplicating entries.
func Apply(ov Overlay) {
	overlayMu.Lock()
	defer overlayMu.Unlock()
	ProcessVerbs = mergeKeywords(ProcessVerbs, ov.ProcessVerbs)
	IOVerbs = mergeKeywords(IOVerbs, ov.IOVerbs)
	DatabaseVerbs = mergeKeywords(DatabaseVerbs, ov.DatabaseVerbs)
	DisplayVerbs = mergeKeywords(DisplayVerbs, ov.DisplayVerbs)
	DocumentVerbs = mergeKeywords(DocumentVerbs, ov.DocumentVerbs)
	TerminatorKeywords = mergeKeywords(TerminatorKeywords, ov.TerminatorKeywords)
	PositiveBranchWords = mergeKeywords(PositiveBranchWords, ov.PositiveBranches)
	NegativeBranchWords = mergeKeywords(NegativeBranchWords, ov.NegativeBranches)
}

func mergeKeywords(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base))
	for _, kw := range base {
		seen[kw] = struct{}{}
	}
	for _, kw := range extra {
		trimmed := strings.ToLower(strings.TrimSpace(kw))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		base = append(base, trimmed)
		seen[trimmed] = struct{}{}
	}
	return base
}
