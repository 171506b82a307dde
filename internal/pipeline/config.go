// File path: internal/pipeline/config.go
package pipeline

import (
	"fmt"
	"os"
	"strings"
)

// Config controls one conversion. Zero values select sensible defaults:
// auto split detection, capability-driven extraction and rendering, SVG
// output.
type Config struct {
	ProjectID  string `json:"project_id"`
	Title      string `json:"title"`
	SplitMode  string `json:"split_mode"`
	Extraction string `json:"extraction"`
	Renderer   string `json:"renderer"`
	Format     string `json:"format"`
	Direction  string `json:"direction"`
	OutputDir  string `json:"output_dir"`
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.ProjectID) == "" {
		c.ProjectID = "default"
	}
	if strings.TrimSpace(c.SplitMode) == "" {
		c.SplitMode = "auto"
	}
	if strings.TrimSpace(c.Extraction) == "" {
		c.Extraction = "auto"
	}
	if strings.TrimSpace(c.Renderer) == "" {
		c.Renderer = "auto"
	}
	if strings.TrimSpace(c.Format) == "" {
		c.Format = "svg"
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		c.OutputDir = "."
	}
	return c
}

func (c Config) validate() error {
	switch c.Extraction {
	case "auto", "heuristic", "openai", "ollama":
	default:
		return fmt.Errorf("pipeline: invalid extraction mode %q", c.Extraction)
	}
	switch c.Renderer {
	case "auto", "graphviz", "d2", "mermaid", "html":
	default:
		return fmt.Errorf("pipeline: invalid renderer %q", c.Renderer)
	}
	switch c.Format {
	case "svg", "png", "pdf", "html":
	default:
		return fmt.Errorf("pipeline: invalid output format %q", c.Format)
	}
	switch c.Direction {
	case "", "TD", "LR", "BT", "RL":
	default:
		return fmt.Errorf("pipeline: invalid diagram direction %q", c.Direction)
	}
	return nil
}

func ollamaBaseURL() string {
	if url := strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL")); url != "" {
		return url
	}
	return "http://localhost:11434"
}

func ollamaModel(available []string) string {
	if model := strings.TrimSpace(os.Getenv("OLLAMA_MODEL")); model != "" {
		return model
	}
	if len(available) > 0 {
		return available[0]
	}
	return ""
}
