// File path: internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"expvar"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nicodishanthj/flowforge/internal/archive"
	"github.com/nicodishanthj/flowforge/internal/catalog"
)

const orderWorkflow = "1. Receive the purchase order\n" +
	"2. Validate the order details\n" +
	"3. Check if the order is approved\n" +
	"   - If yes: Continue to step 4\n" +
	"   - If no: Reject the order\n" +
	"4. Reserve inventory\n" +
	"5. Ship the order\n" +
	"6. End\n"

func testPipeline(t *testing.T) (*Pipeline, *archive.Store, *catalog.Store, string) {
	t.Helper()
	dir := t.TempDir()
	arch, err := archive.NewStore(filepath.Join(dir, "archive"))
	if err != nil {
		t.Fatalf("archive store: %v", err)
	}
	cfg := catalog.Config{Path: filepath.Join(dir, "catalog.db")}
	cat, err := catalog.OpenWithConfig(cfg)
	if err != nil {
		t.Fatalf("catalog store: %v", err)
	}
	t.Cleanup(func() { cat.Close() })
	return New(WithArchive(arch), WithCatalog(cat)), arch, cat, dir
}

func textRequest(dir string) Request {
	return Request{
		SourceName: "orders.txt",
		Text:       orderWorkflow,
		Config: Config{
			ProjectID:  "orders",
			Title:      "Order Intake",
			Extraction: "heuristic",
			Renderer:   "html",
			Format:     "html",
			OutputDir:  dir,
		},
	}
}

func TestProcessInlineText(t *testing.T) {
	p, arch, cat, dir := testPipeline(t)
	ctx := context.Background()

	result, err := p.Process(ctx, textRequest(dir))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(result.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(result.Sections))
	}
	sec := result.Sections[0]
	if !sec.Validation.Valid {
		t.Fatalf("expected valid flowchart, errors: %v", sec.Validation.Errors)
	}
	if len(sec.Flowchart.Nodes) < 6 {
		t.Fatalf("expected at least 6 nodes, got %d", len(sec.Flowchart.Nodes))
	}
	if sec.RendererUsed != "html" {
		t.Fatalf("expected html renderer, got %q", sec.RendererUsed)
	}
	info, err := os.Stat(sec.OutputPath)
	if err != nil {
		t.Fatalf("expected rendered artifact at %s: %v", sec.OutputPath, err)
	}
	if info.Size() == 0 {
		t.Fatal("expected non-empty rendered artifact")
	}
	if sec.MermaidSource == "" || !strings.Contains(sec.MermaidSource, "flowchart TD") {
		t.Fatalf("expected mermaid source, got %q", sec.MermaidSource)
	}

	if result.RunID == "" {
		t.Fatal("expected a catalog run id")
	}
	run, err := cat.GetRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.ProjectID != "orders" || run.Sections != 1 {
		t.Fatalf("unexpected catalog run: %+v", run)
	}
	if run.Nodes != len(sec.Flowchart.Nodes) {
		t.Fatalf("expected %d nodes recorded, got %d", len(sec.Flowchart.Nodes), run.Nodes)
	}

	artifacts, err := arch.All(ctx, "orders")
	if err != nil {
		t.Fatalf("archive all: %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 archived artifact, got %d", len(artifacts))
	}
	if artifacts[0].Flowchart == nil || artifacts[0].MermaidSource == "" {
		t.Fatalf("expected archived flowchart and mermaid source: %+v", artifacts[0])
	}
}

func TestProcessFileInput(t *testing.T) {
	p, _, _, dir := testPipeline(t)
	path := filepath.Join(dir, "workflow.md")
	if err := os.WriteFile(path, []byte(orderWorkflow), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	req := textRequest(dir)
	req.Text = ""
	req.SourceName = ""
	req.Path = path
	result, err := p.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("process file: %v", err)
	}
	if result.SourceName != "workflow.md" {
		t.Fatalf("expected source name from path, got %q", result.SourceName)
	}
	if len(result.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(result.Sections))
	}
}

func TestProcessRejectsInvalidConfig(t *testing.T) {
	p, _, _, dir := testPipeline(t)
	req := textRequest(dir)
	req.Config.Format = "tiff"
	if _, err := p.Process(context.Background(), req); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	req = textRequest(dir)
	req.Config.Extraction = "psychic"
	if _, err := p.Process(context.Background(), req); err == nil {
		t.Fatal("expected error for unknown extraction mode")
	}
}

func TestProcessRequiresInput(t *testing.T) {
	p, _, _, dir := testPipeline(t)
	req := textRequest(dir)
	req.Text = ""
	req.Path = ""
	if _, err := p.Process(context.Background(), req); err == nil {
		t.Fatal("expected error for empty request")
	}
}

func TestProcessBatch(t *testing.T) {
	p, _, cat, dir := testPipeline(t)
	ctx := context.Background()

	reqs := []Request{textRequest(dir), textRequest(dir), textRequest(dir)}
	for i := range reqs {
		reqs[i].SourceName = filepath.Join("batch", "doc"+string(rune('a'+i))+".txt")
	}
	results, err := p.ProcessBatch(ctx, reqs)
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res == nil || len(res.Sections) != 1 {
			t.Fatalf("result %d incomplete: %+v", i, res)
		}
	}
	page, err := cat.ListRuns(ctx, "orders", 10, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("expected 3 catalog runs, got %d", page.Total)
	}
}

func expvarInt(t *testing.T, name string) int64 {
	t.Helper()
	v := expvar.Get(name)
	if v == nil {
		return 0
	}
	iv, ok := v.(*expvar.Int)
	if !ok {
		t.Fatalf("expected %s to be an Int, got %T", name, v)
	}
	return iv.Value()
}

func TestProcessCountsOneValidationPerSection(t *testing.T) {
	p, _, _, dir := testPipeline(t)

	validateBefore := expvarInt(t, "flowforge_validate_total")
	result, err := p.Process(context.Background(), textRequest(dir))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	delta := expvarInt(t, "flowforge_validate_total") - validateBefore
	if want := int64(len(result.Sections)); delta != want {
		t.Fatalf("expected %d validation pass(es) recorded, got %d", want, delta)
	}
}

func TestProcessBatchPropagatesFailure(t *testing.T) {
	p, _, _, dir := testPipeline(t)
	bad := textRequest(dir)
	bad.Text = ""
	bad.Path = filepath.Join(dir, "missing.txt")
	if _, err := p.ProcessBatch(context.Background(), []Request{textRequest(dir), bad}); err == nil {
		t.Fatal("expected batch failure for unreadable input")
	}
}
