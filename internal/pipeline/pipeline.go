// File path: internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nicodishanthj/flowforge/internal/archive"
	"github.com/nicodishanthj/flowforge/internal/builder"
	"github.com/nicodishanthj/flowforge/internal/capability"
	"github.com/nicodishanthj/flowforge/internal/catalog"
	"github.com/nicodishanthj/flowforge/internal/common"
	"github.com/nicodishanthj/flowforge/internal/common/telemetry"
	"github.com/nicodishanthj/flowforge/internal/detector"
	"github.com/nicodishanthj/flowforge/internal/extractor"
	"github.com/nicodishanthj/flowforge/internal/extractor/providers"
	"github.com/nicodishanthj/flowforge/internal/flowchart"
	"github.com/nicodishanthj/flowforge/internal/importer"
	"github.com/nicodishanthj/flowforge/internal/parser"
	"github.com/nicodishanthj/flowforge/internal/quality"
	"github.com/nicodishanthj/flowforge/internal/renderer"
	"github.com/nicodishanthj/flowforge/internal/validator"
)

const batchConcurrency = 4

// Request is one document to convert. Exactly one of Text or Data should be
// set; Path (or SourceName) identifies the format for the importer.
type Request struct {
	Path       string `json:"path,omitempty"`
	SourceName string `json:"source_name,omitempty"`
	Text       string `json:"text,omitempty"`
	Data       []byte `json:"-"`
	Config     Config `json:"config"`
}

// SectionResult is the outcome for one detected workflow section.
type SectionResult struct {
	Section       detector.WorkflowSection `json:"section"`
	Steps         []parser.WorkflowStep    `json:"steps"`
	Flowchart     *flowchart.Flowchart     `json:"flowchart"`
	Validation    validator.Result         `json:"validation"`
	Quality       quality.Report           `json:"quality"`
	MermaidSource string                   `json:"mermaid_source"`
	OutputPath    string                   `json:"output_path,omitempty"`
	RendererUsed  string                   `json:"renderer_used,omitempty"`
	RenderError   string                   `json:"render_error,omitempty"`
}

// Result is the outcome of processing one request end to end.
type Result struct {
	RunID      string          `json:"run_id"`
	SourceName string          `json:"source_name"`
	Extraction string          `json:"extraction"`
	Sections   []SectionResult `json:"sections"`
	Duration   time.Duration   `json:"duration"`
}

// Pipeline wires the importer, detector, extractors, builder, validator,
// renderers and stores into the document-to-flowchart conversion flow.
// Stores are optional; a nil archive or catalog simply skips persistence.
type Pipeline struct {
	importer  *importer.Registry
	detector  *detector.Detector
	builder   *builder.Builder
	validator *validator.Validator
	gate      *quality.Gate
	caps      *capability.Detector
	archive   *archive.Store
	catalog   *catalog.Store
	logger    *slog.Logger
}

// Option customises pipeline construction.
type Option func(*Pipeline)

// WithArchive attaches a JSONL artifact archive.
func WithArchive(store *archive.Store) Option {
	return func(p *Pipeline) { p.archive = store }
}

// WithCatalog attaches a SQLite run catalog.
func WithCatalog(store *catalog.Store) Option {
	return func(p *Pipeline) { p.catalog = store }
}

// WithCapabilities overrides the default capability detector.
func WithCapabilities(d *capability.Detector) Option {
	return func(p *Pipeline) { p.caps = d }
}

// New constructs a pipeline with default components.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		importer:  importer.NewRegistry(),
		detector:  detector.New(),
		builder:   builder.New(),
		validator: validator.New(),
		gate:      quality.New(quality.DefaultThresholds()),
		caps:      capability.NewDetector(ollamaBaseURL()),
		logger:    common.Logger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Process converts one document into validated, rendered, archived
// flowcharts, one per detected workflow section.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	cfg := req.Config.withDefaults()
	if err := cfg.validate(); err != nil {
		telemetry.RecordConvert(time.Since(start), true)
		return nil, err
	}

	text, sourceName, err := p.resolveText(ctx, req)
	if err != nil {
		telemetry.RecordConvert(time.Since(start), true)
		return nil, err
	}
	text = importer.PreprocessForParser(text)

	mode, err := detector.ParseSplitMode(cfg.SplitMode)
	if err != nil {
		telemetry.RecordConvert(time.Since(start), true)
		return nil, err
	}
	sections := p.detector.AnalyzeAndFilter(p.detector.Detect(text, mode))
	telemetry.RecordDetection(string(mode), len(sections))
	if len(sections) == 0 {
		telemetry.RecordConvert(time.Since(start), true)
		return nil, fmt.Errorf("pipeline: no workflow sections detected in %s", sourceName)
	}

	ext, err := p.selectExtractor(ctx, cfg.Extraction)
	if err != nil {
		telemetry.RecordConvert(time.Since(start), true)
		return nil, err
	}

	rendererName := cfg.Renderer
	if rendererName == "auto" {
		rendererName = p.caps.Detect(ctx).RecommendedRenderer
	}

	result := &Result{
		SourceName: sourceName,
		Extraction: ext.Name(),
		Sections:   make([]SectionResult, 0, len(sections)),
	}
	failed := false
	for _, section := range sections {
		sec, err := p.processSection(ctx, cfg, ext, rendererName, sourceName, section)
		if err != nil {
			telemetry.RecordConvert(time.Since(start), true)
			return nil, err
		}
		if !sec.Validation.Valid || sec.RenderError != "" {
			failed = true
		}
		result.Sections = append(result.Sections, sec)
	}

	runID, err := p.record(ctx, cfg, ext.Name(), sourceName, result)
	if err != nil {
		p.logger.Warn("pipeline: record run failed", "error", err)
	}
	result.RunID = runID
	result.Duration = time.Since(start)
	telemetry.RecordConvert(result.Duration, failed)
	p.logger.Info("pipeline: conversion complete",
		"source", sourceName,
		"sections", len(result.Sections),
		"extraction", ext.Name(),
		"duration", result.Duration)
	return result, nil
}

// ProcessBatch converts several documents concurrently with bounded
// parallelism. The first failure cancels the remaining work.
func (p *Pipeline) ProcessBatch(ctx context.Context, reqs []Request) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(batchConcurrency)
	for i, req := range reqs {
		i, req := i, req
		group.Go(func() error {
			res, err := p.Process(ctx, req)
			if err != nil {
				return fmt.Errorf("process %s: %w", requestName(req), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) processSection(ctx context.Context, cfg Config, ext extractor.Extractor, rendererName, sourceName string, section detector.WorkflowSection) (SectionResult, error) {
	steps, fallback, err := ext.Extract(ctx, section.Content)
	if err != nil {
		return SectionResult{}, fmt.Errorf("extract section %s: %w", section.ID, err)
	}
	telemetry.RecordExtraction(ext.Name())

	title := cfg.Title
	if title == "" {
		title = section.Title
	}
	// Build and Validate record their own telemetry.
	fc := p.builder.Build(steps, title)
	validation := p.validator.Validate(fc)

	sec := SectionResult{
		Section:       section,
		Steps:         steps,
		Flowchart:     fc,
		Validation:    validation,
		MermaidSource: renderer.GenerateMermaid(fc, cfg.Direction),
	}

	outputPath := p.outputPath(cfg, title, section.ID)
	usedName, writtenPath, renderErr := p.render(ctx, fc, rendererName, outputPath, cfg.Format)
	if renderErr != nil {
		sec.RenderError = renderErr.Error()
		p.logger.Warn("pipeline: render failed", "section", section.ID, "error", renderErr)
	} else {
		sec.OutputPath = writtenPath
		sec.RendererUsed = usedName
	}

	sec.Quality = p.gate.Evaluate(quality.Input{
		DetectionConfidence: section.Confidence,
		Flowchart:           fc,
		ValidationErrors:    validation.Errors,
		ValidationWarnings:  validation.Warnings,
		FallbackUsed:        fallback,
		RenderAttempted:     true,
		RenderFailed:        renderErr != nil,
		OutputPath:          sec.OutputPath,
	})

	// Certified artifacts get a source snapshot alongside the image so the
	// conversion can be audited or re-rendered later.
	if sec.Quality.Certified && sec.OutputPath != "" {
		snapshot := quality.BuildSnapshot(section.Content, steps, fc, map[string]any{
			"split_mode": cfg.SplitMode,
			"extraction": ext.Name(),
			"renderer":   sec.RendererUsed,
			"format":     cfg.Format,
			"direction":  cfg.Direction,
		})
		if err := writeSnapshot(sec.OutputPath+".snapshot.json", snapshot); err != nil {
			p.logger.Warn("pipeline: snapshot write failed", "section", section.ID, "error", err)
		}
	}
	return sec, nil
}

func writeSnapshot(path string, snapshot quality.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (p *Pipeline) render(ctx context.Context, fc *flowchart.Flowchart, preferred, path, format string) (string, string, error) {
	var lastErr error
	for _, r := range renderer.Chain(preferred) {
		if !r.Available() {
			continue
		}
		target := path
		if r.Name() == "html" && format != "html" {
			target = strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
		}
		if err := r.Render(ctx, fc, target, format); err != nil {
			lastErr = err
			p.logger.Debug("pipeline: renderer failed, trying next", "renderer", r.Name(), "error", err)
			continue
		}
		telemetry.RecordRender(r.Name(), r.Name() != preferred)
		return r.Name(), target, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no renderer available for format %s", format)
	}
	return "", "", lastErr
}

func (p *Pipeline) resolveText(ctx context.Context, req Request) (string, string, error) {
	if strings.TrimSpace(req.Text) != "" {
		name := req.SourceName
		if name == "" {
			name = "inline"
		}
		return importer.CleanText(req.Text), name, nil
	}
	name := req.SourceName
	if name == "" {
		name = filepath.Base(req.Path)
	}
	data := req.Data
	if data == nil && req.Path != "" {
		loaded, err := os.ReadFile(req.Path)
		if err != nil {
			return "", "", fmt.Errorf("read input: %w", err)
		}
		data = loaded
	}
	if data == nil {
		return "", "", fmt.Errorf("pipeline: request has no text, data or path")
	}
	parsed, err := p.importer.Parse(ctx, name, data)
	if err != nil {
		return "", "", err
	}
	return parsed.Text, name, nil
}

func (p *Pipeline) selectExtractor(ctx context.Context, mode string) (extractor.Extractor, error) {
	heuristic := extractor.NewHeuristic(nil)
	if mode == "auto" {
		mode = p.caps.Detect(ctx).RecommendedExtraction
	}
	switch mode {
	case "heuristic":
		return heuristic, nil
	case "openai":
		provider, err := providers.NewOpenAIProvider()
		if err != nil {
			return nil, fmt.Errorf("select openai extractor: %w", err)
		}
		return extractor.NewLLM(provider, heuristic), nil
	case "ollama":
		model := ollamaModel(p.caps.Detect(ctx).OllamaModels)
		provider, err := providers.NewOllamaProvider(ollamaBaseURL(), model)
		if err != nil {
			return nil, fmt.Errorf("select ollama extractor: %w", err)
		}
		return extractor.NewLLM(provider, heuristic), nil
	default:
		return nil, fmt.Errorf("pipeline: unknown extraction mode %q", mode)
	}
}

func (p *Pipeline) record(ctx context.Context, cfg Config, extraction, sourceName string, result *Result) (string, error) {
	var run catalog.Run
	nodes, edges, steps := 0, 0, 0
	errorCount, warningCount := 0, 0
	valid := true
	fallback := false
	tier := quality.TierCertified
	confidence := 0.0
	var artifacts []archive.Artifact
	for _, sec := range result.Sections {
		nodes += len(sec.Flowchart.Nodes)
		edges += len(sec.Flowchart.Connections)
		steps += len(sec.Steps)
		errorCount += len(sec.Validation.Errors)
		warningCount += len(sec.Validation.Warnings)
		confidence += sec.Quality.DetectionScore
		if !sec.Validation.Valid {
			valid = false
		}
		if !sec.Quality.Certified {
			tier = quality.TierDraft
		}
		if hasFlag(sec.Quality.Warnings, "extraction_fallback_used") {
			fallback = true
		}
		artifacts = append(artifacts, archive.Artifact{
			Title:         sec.Flowchart.Title,
			SourceName:    sourceName,
			Renderer:      sec.RendererUsed,
			Format:        cfg.Format,
			Tier:          sec.Quality.Tier,
			Confidence:    sec.Quality.DetectionScore,
			Flowchart:     sec.Flowchart,
			MermaidSource: sec.MermaidSource,
		})
	}
	if len(result.Sections) > 0 {
		confidence /= float64(len(result.Sections))
	}

	if p.archive != nil {
		if err := p.archive.Append(ctx, cfg.ProjectID, artifacts); err != nil {
			return "", fmt.Errorf("archive artifacts: %w", err)
		}
	}
	if p.catalog == nil {
		return "", nil
	}
	run = catalog.Run{
		ProjectID:    cfg.ProjectID,
		Title:        cfg.Title,
		SourceName:   sourceName,
		SplitMode:    cfg.SplitMode,
		Extraction:   extraction,
		Renderer:     cfg.Renderer,
		Format:       cfg.Format,
		Sections:     len(result.Sections),
		Steps:        steps,
		Nodes:        nodes,
		Edges:        edges,
		Valid:        valid,
		Tier:         tier,
		Confidence:   confidence,
		ErrorCount:   errorCount,
		WarningCount: warningCount,
		FallbackUsed: fallback,
		OutputPath:   firstOutput(result.Sections),
	}
	stored, err := p.catalog.RecordRun(ctx, run)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return stored.ID, nil
}

var unsafePathRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func (p *Pipeline) outputPath(cfg Config, title, sectionID string) string {
	base := unsafePathRe.ReplaceAllString(strings.TrimSpace(title), "_")
	if base == "" || base == "_" {
		base = "flowchart"
	}
	name := fmt.Sprintf("%s_%s.%s", base, sectionID, cfg.Format)
	return filepath.Join(cfg.OutputDir, name)
}

func requestName(req Request) string {
	if req.SourceName != "" {
		return req.SourceName
	}
	if req.Path != "" {
		return filepath.Base(req.Path)
	}
	return "inline"
}

func firstOutput(sections []SectionResult) string {
	for _, sec := range sections {
		if sec.OutputPath != "" {
			return sec.OutputPath
		}
	}
	return ""
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
