// File path: internal/quality/quality_test.go
package quality

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

func soundChart() *flowchart.Flowchart {
	fc := &flowchart.Flowchart{Title: "test"}
	fc.AddNode(flowchart.Node{ID: "START", Type: flowchart.NodeTerminator, Label: "Start", Confidence: 1.0})
	fc.AddNode(flowchart.Node{ID: "P1", Type: flowchart.NodeProcess, Label: "Process data", Confidence: 1.0})
	fc.AddNode(flowchart.Node{ID: "END", Type: flowchart.NodeTerminator, Label: "End", Confidence: 1.0})
	fc.AddConnection(flowchart.Connection{From: "START", To: "P1", Type: flowchart.ConnNormal})
	fc.AddConnection(flowchart.Connection{From: "P1", To: "END", Type: flowchart.ConnNormal})
	return fc
}

func hasBlocker(report Report, fragment string) bool {
	for _, b := range report.Blockers {
		if strings.Contains(b, fragment) {
			return true
		}
	}
	return false
}

func TestEvaluateCertified(t *testing.T) {
	gate := New(DefaultThresholds())
	report := gate.Evaluate(Input{DetectionConfidence: 0.8, Flowchart: soundChart()})
	if !report.Certified || report.Tier != TierCertified {
		t.Fatalf("expected certified tier, got %+v", report)
	}
	if len(report.Blockers) != 0 {
		t.Fatalf("expected no blockers, got %v", report.Blockers)
	}
	if !report.GraphIntegrityPassed || !report.ISOCriticalPassed {
		t.Fatalf("expected integrity and iso checks to pass, got %+v", report)
	}
}

func TestEvaluateLowConfidenceIsDraft(t *testing.T) {
	gate := New(DefaultThresholds())
	report := gate.Evaluate(Input{DetectionConfidence: 0.4, Flowchart: soundChart()})
	if report.Certified {
		t.Fatal("expected draft tier for mid confidence")
	}
	if len(report.Blockers) != 0 {
		t.Fatalf("mid confidence must warn, not block: %v", report.Blockers)
	}
	if len(report.DetectionFlags) == 0 || report.DetectionFlags[0] != "low_detection_confidence" {
		t.Fatalf("expected low confidence flag, got %v", report.DetectionFlags)
	}
}

func TestEvaluateBelowDraftThresholdBlocks(t *testing.T) {
	gate := New(DefaultThresholds())
	report := gate.Evaluate(Input{DetectionConfidence: 0.1, Flowchart: soundChart()})
	if !hasBlocker(report, "detection_confidence_below_draft_threshold") {
		t.Fatalf("expected draft-threshold blocker, got %v", report.Blockers)
	}
}

func TestEvaluateValidationErrorsBlock(t *testing.T) {
	gate := New(DefaultThresholds())
	report := gate.Evaluate(Input{
		DetectionConfidence: 0.9,
		Flowchart:           soundChart(),
		ValidationErrors:    []string{"Decision node 'D1' has 1 branch(es), expected at least 2"},
	})
	if report.Certified {
		t.Fatal("expected validation errors to force draft tier")
	}
	if !hasBlocker(report, "iso_critical:") {
		t.Fatalf("expected iso_critical blocker, got %v", report.Blockers)
	}
	if report.ISOCriticalPassed {
		t.Fatal("expected ISOCriticalPassed to be false")
	}
}

func TestEvaluateFallbackBlocksCertification(t *testing.T) {
	gate := New(DefaultThresholds())
	report := gate.Evaluate(Input{DetectionConfidence: 0.9, Flowchart: soundChart(), FallbackUsed: true})
	if report.Certified {
		t.Fatal("expected extraction fallback to force draft tier")
	}
	found := false
	for _, w := range report.Warnings {
		if w == "extraction_fallback_used" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected fallback warning, got %v", report.Warnings)
	}
}

func TestEvaluateRenderArtifactChecks(t *testing.T) {
	gate := New(DefaultThresholds())

	report := gate.Evaluate(Input{
		DetectionConfidence: 0.9,
		Flowchart:           soundChart(),
		OutputPath:          filepath.Join(t.TempDir(), "missing.png"),
	})
	if !hasBlocker(report, "render_artifact_missing") {
		t.Fatalf("expected missing-artifact blocker, got %v", report.Blockers)
	}

	empty := filepath.Join(t.TempDir(), "empty.png")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write empty artifact: %v", err)
	}
	report = gate.Evaluate(Input{DetectionConfidence: 0.9, Flowchart: soundChart(), OutputPath: empty})
	if !hasBlocker(report, "render_artifact_empty") {
		t.Fatalf("expected empty-artifact blocker, got %v", report.Blockers)
	}

	report = gate.Evaluate(Input{
		DetectionConfidence: 0.9,
		Flowchart:           soundChart(),
		RenderAttempted:     true,
		RenderFailed:        true,
	})
	if !hasBlocker(report, "render_failed") {
		t.Fatalf("expected render_failed blocker, got %v", report.Blockers)
	}
}

func TestEvaluateGraphIntegrityBlocks(t *testing.T) {
	fc := soundChart()
	fc.AddNode(flowchart.Node{ID: "LOOSE", Type: flowchart.NodeProcess, Label: "Orphan", Confidence: 1.0})

	report := New(DefaultThresholds()).Evaluate(Input{DetectionConfidence: 0.9, Flowchart: fc})
	if report.GraphIntegrityPassed {
		t.Fatal("expected graph integrity failure")
	}
	if !hasBlocker(report, "graph_integrity:") {
		t.Fatalf("expected graph_integrity blocker, got %v", report.Blockers)
	}
}
