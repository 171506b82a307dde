// File path: internal/archive/archive_test.go
package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

func artifact(id, title string) Artifact {
	return Artifact{
		ID:        id,
		Title:     title,
		Flowchart: &flowchart.Flowchart{Title: title},
		CreatedAt: time.Now().UTC(),
	}
}

func TestAppendAccumulatesArtifacts(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "artifacts.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := store.Append(ctx, "proj-1", []Artifact{artifact("a1", "first")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "proj-1", []Artifact{artifact("a2", "second")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	artifacts, err := store.All(ctx, "proj-1")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	if artifacts[1].ID != "a2" || artifacts[1].Flowchart.Title != "second" {
		t.Fatalf("unexpected artifact: %+v", artifacts[1])
	}
}

func TestReplaceOverwritesExistingContent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "artifacts.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := store.Append(ctx, "proj-1", []Artifact{artifact("a1", "initial")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Replace(ctx, "proj-1", []Artifact{artifact("a2", "replacement")}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	artifacts, err := store.All(ctx, "proj-1")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(artifacts) != 1 || artifacts[0].ID != "a2" {
		t.Fatalf("unexpected artifacts after replace: %+v", artifacts)
	}
}

func TestReplaceClearsStoreWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "artifacts.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := store.Append(ctx, "proj-2", []Artifact{artifact("a1", "initial")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Replace(ctx, "proj-2", nil); err != nil {
		t.Fatalf("replace: %v", err)
	}
	artifacts, err := store.All(ctx, "proj-2")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(artifacts) != 0 {
		t.Fatalf("expected empty store, got %d artifacts", len(artifacts))
	}
}

func TestGetSearchesAllProjects(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "artifacts.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := store.Append(ctx, "proj-a", []Artifact{artifact("a1", "alpha")}); err != nil {
		t.Fatalf("append proj-a: %v", err)
	}
	if err := store.Append(ctx, "proj-b", []Artifact{artifact("b1", "beta")}); err != nil {
		t.Fatalf("append proj-b: %v", err)
	}

	got, err := store.Get(ctx, "b1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "beta" {
		t.Fatalf("unexpected artifact: %+v", got)
	}
	if _, err := store.Get(ctx, "missing"); err == nil {
		t.Fatal("expected error for unknown artifact id")
	}
}

func TestProjectsListsStoredProjects(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "artifacts.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := store.Append(ctx, "proj-a", []Artifact{artifact("a1", "one")}); err != nil {
		t.Fatalf("append proj-a: %v", err)
	}
	if err := store.Append(ctx, "proj-b", []Artifact{artifact("b1", "two"), artifact("b2", "three")}); err != nil {
		t.Fatalf("append proj-b: %v", err)
	}
	infos, err := store.Projects(ctx)
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(infos))
	}
	got := map[string]int{}
	for _, info := range infos {
		got[info.ID] = info.Artifacts
	}
	if got["proj-a"] != 1 || got["proj-b"] != 2 {
		t.Fatalf("unexpected project info: %#v", got)
	}
}
