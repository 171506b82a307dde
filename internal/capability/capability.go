// File path: internal/capability/capability.go
package capability

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nicodishanthj/flowforge/internal/common"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	probeTimeout         = 3 * time.Second
)

// Capabilities is a snapshot of the host: hardware, installed rendering
// binaries, reachable services, and the routing recommendations derived
// from them.
type Capabilities struct {
	Platform       string  `json:"platform"`
	Arch           string  `json:"arch"`
	CPUCount       int     `json:"cpu_count"`
	TotalRAMGB     float64 `json:"total_ram_gb"`
	AvailableRAMGB float64 `json:"available_ram_gb"`

	HasGraphvizBinary bool `json:"has_graphviz_binary"`
	HasD2Binary       bool `json:"has_d2_binary"`
	HasMmdcBinary     bool `json:"has_mmdc_binary"`

	HasOpenAIKey    bool     `json:"has_openai_key"`
	OllamaBaseURL   string   `json:"ollama_base_url"`
	OllamaReachable bool     `json:"ollama_reachable"`
	OllamaModels    []string `json:"ollama_models,omitempty"`

	RecommendedExtraction string   `json:"recommended_extraction"`
	RecommendedRenderer   string   `json:"recommended_renderer"`
	AvailableExtractors   []string `json:"available_extractors"`
	AvailableRenderers    []string `json:"available_renderers"`
	Warnings              []string `json:"warnings,omitempty"`
}

// Detector probes the host once and caches the result. Refresh discards
// the cache when the environment is known to have changed.
type Detector struct {
	ollamaBaseURL string

	mu    sync.Mutex
	cache *Capabilities
}

func NewDetector(ollamaBaseURL string) *Detector {
	if ollamaBaseURL == "" {
		ollamaBaseURL = defaultOllamaBaseURL
	}
	return &Detector{ollamaBaseURL: ollamaBaseURL}
}

// Detect returns the cached snapshot, probing on first call.
func (d *Detector) Detect(ctx context.Context) *Capabilities {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cache == nil {
		d.cache = d.probe(ctx)
	}
	return d.cache
}

// Refresh discards the cache and probes again.
func (d *Detector) Refresh(ctx context.Context) *Capabilities {
	d.mu.Lock()
	d.cache = nil
	d.mu.Unlock()
	return d.Detect(ctx)
}

func (d *Detector) probe(ctx context.Context) *Capabilities {
	caps := &Capabilities{
		Platform:      runtime.GOOS,
		Arch:          runtime.GOARCH,
		CPUCount:      runtime.NumCPU(),
		OllamaBaseURL: d.ollamaBaseURL,
	}

	detectRAM(caps)
	detectBinaries(caps)
	d.detectServices(ctx, caps)
	computeRecommendations(caps)

	common.Logger().Info("capability: probe complete",
		"extraction", caps.RecommendedExtraction,
		"renderer", caps.RecommendedRenderer,
		"warnings", len(caps.Warnings))
	return caps
}

// detectRAM reads /proc/meminfo; on other platforms RAM stays zero with a
// warning rather than failing the probe.
func detectRAM(caps *Capabilities) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		caps.Warnings = append(caps.Warnings, "Could not detect RAM: "+err.Error())
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		kb, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			caps.TotalRAMGB = roundGB(kb)
		case "MemAvailable:":
			caps.AvailableRAMGB = roundGB(kb)
		}
	}
}

func roundGB(kb float64) float64 {
	gb := kb / (1024 * 1024)
	return float64(int(gb*10+0.5)) / 10
}

func detectBinaries(caps *Capabilities) {
	lookup := func(name string) bool {
		_, err := exec.LookPath(name)
		return err == nil
	}
	caps.HasGraphvizBinary = lookup("dot")
	caps.HasD2Binary = lookup("d2")
	caps.HasMmdcBinary = lookup("mmdc")
}

func (d *Detector) detectServices(ctx context.Context, caps *Capabilities) {
	caps.HasOpenAIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) != ""

	reachable, models, err := probeOllama(ctx, d.ollamaBaseURL)
	caps.OllamaReachable = reachable
	caps.OllamaModels = models
	if !reachable {
		caps.Warnings = append(caps.Warnings, fmt.Sprintf(
			"Ollama not reachable at %s. Start Ollama to enable ollama extraction.", d.ollamaBaseURL))
		if err != nil {
			common.Logger().Debug("capability: ollama probe failed", "error", err)
		}
	}
}

func probeOllama(ctx context.Context, baseURL string) (bool, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/tags", nil)
	if err != nil {
		return false, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, nil, fmt.Errorf("capability: ollama status %d", resp.StatusCode)
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return true, nil, err
	}
	names := make([]string, 0, len(payload.Models))
	for _, m := range payload.Models {
		names = append(names, m.Name)
	}
	return true, names, nil
}

func computeRecommendations(caps *Capabilities) {
	caps.AvailableExtractors = []string{"heuristic"}
	if caps.HasOpenAIKey {
		caps.AvailableExtractors = append(caps.AvailableExtractors, "openai")
	}
	if caps.OllamaReachable && len(caps.OllamaModels) > 0 {
		caps.AvailableExtractors = append(caps.AvailableExtractors, "ollama")
	}

	caps.AvailableRenderers = []string{"html", "mermaid"}
	if !caps.HasMmdcBinary {
		caps.Warnings = append(caps.Warnings,
			"mermaid-cli not found. Mermaid will use HTML output only. Install: npm install -g @mermaid-js/mermaid-cli")
	}
	if caps.HasGraphvizBinary {
		caps.AvailableRenderers = append(caps.AvailableRenderers, "graphviz")
	}
	if caps.HasD2Binary {
		caps.AvailableRenderers = append(caps.AvailableRenderers, "d2")
	}

	switch {
	case caps.HasOpenAIKey:
		caps.RecommendedExtraction = "openai"
	case caps.OllamaReachable && len(caps.OllamaModels) > 0:
		caps.RecommendedExtraction = "ollama"
	default:
		caps.RecommendedExtraction = "heuristic"
	}

	switch {
	case caps.HasGraphvizBinary:
		caps.RecommendedRenderer = "graphviz"
	case caps.HasD2Binary:
		caps.RecommendedRenderer = "d2"
	case caps.HasMmdcBinary:
		caps.RecommendedRenderer = "mermaid"
	default:
		caps.RecommendedRenderer = "html"
	}
}
