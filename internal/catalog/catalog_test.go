// File path: internal/catalog/catalog_test.go
package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := Config{Path: filepath.Join(t.TempDir(), "catalog.db")}
	cfg.applyDefaults()
	store, err := OpenWithConfig(cfg)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun(project, tier string, confidence float64) Run {
	return Run{
		ProjectID:  project,
		Title:      "Deployment workflow",
		SourceName: "deploy.txt",
		SplitMode:  "auto",
		Extraction: "heuristic",
		Renderer:   "graphviz",
		Format:     "svg",
		Sections:   1,
		Steps:      5,
		Nodes:      7,
		Edges:      7,
		Valid:      true,
		Tier:       tier,
		Confidence: confidence,
	}
}

func TestRecordRunFillsDefaults(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stored, err := store.RecordRun(ctx, sampleRun("", "certified", 0.82))
	if err != nil {
		t.Fatalf("record run: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("expected generated run id")
	}
	if stored.ProjectID != "default" {
		t.Fatalf("expected default project, got %q", stored.ProjectID)
	}
	if stored.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be populated")
	}

	fetched, err := store.GetRun(ctx, stored.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if fetched.Title != "Deployment workflow" || fetched.Confidence != 0.82 {
		t.Fatalf("unexpected run round trip: %+v", fetched)
	}
	if !fetched.Valid {
		t.Fatal("expected valid flag to survive storage")
	}
}

func TestGetRunMissing(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetRun(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for missing run")
	} else if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListRunsPaginates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		run := sampleRun("alpha", "draft", 0.4)
		run.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := store.RecordRun(ctx, run); err != nil {
			t.Fatalf("record run %d: %v", i, err)
		}
	}
	if _, err := store.RecordRun(ctx, sampleRun("beta", "certified", 0.9)); err != nil {
		t.Fatalf("record beta run: %v", err)
	}

	page, err := store.ListRuns(ctx, "alpha", 2, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if page.Total != 5 {
		t.Fatalf("expected total 5, got %d", page.Total)
	}
	if len(page.Runs) != 2 {
		t.Fatalf("expected 2 runs in page, got %d", len(page.Runs))
	}
	if !page.Runs[0].CreatedAt.After(page.Runs[1].CreatedAt) {
		t.Fatalf("expected newest-first ordering, got %v then %v", page.Runs[0].CreatedAt, page.Runs[1].CreatedAt)
	}

	last, err := store.ListRuns(ctx, "alpha", 2, 4)
	if err != nil {
		t.Fatalf("list last page: %v", err)
	}
	if len(last.Runs) != 1 {
		t.Fatalf("expected 1 run on last page, got %d", len(last.Runs))
	}

	all, err := store.ListRuns(ctx, "", 50, 0)
	if err != nil {
		t.Fatalf("list all runs: %v", err)
	}
	if all.Total != 6 {
		t.Fatalf("expected total 6 across projects, got %d", all.Total)
	}
}

func TestProjectsSummarises(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.RecordRun(ctx, sampleRun("alpha", "certified", 0.8)); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if _, err := store.RecordRun(ctx, sampleRun("alpha", "draft", 0.4)); err != nil {
		t.Fatalf("record run: %v", err)
	}

	summaries, err := store.Projects(ctx)
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 project summary, got %d", len(summaries))
	}
	got := summaries[0]
	if got.ProjectID != "alpha" || got.Runs != 2 || got.Certified != 1 {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if got.AvgConfidence < 0.59 || got.AvgConfidence > 0.61 {
		t.Fatalf("unexpected average confidence: %f", got.AvgConfidence)
	}
}
