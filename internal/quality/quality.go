// File path: internal/quality/quality.go
package quality

import (
	"fmt"
	"os"

	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

// Thresholds classify draft versus certified outputs by detection confidence.
type Thresholds struct {
	MinConfidenceCertified float64
	MinConfidenceDraft     float64
}

// DefaultThresholds returns the standard draft/certified cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{MinConfidenceCertified: 0.65, MinConfidenceDraft: 0.25}
}

// Input gathers everything the gate needs about one produced artifact.
// DetectionConfidence below zero means no detection ran; a neutral 0.5 is
// assumed. RenderAttempted distinguishes a failed render from none at all.
type Input struct {
	DetectionConfidence float64
	Flowchart           *flowchart.Flowchart
	ValidationErrors    []string
	ValidationWarnings  []string
	FallbackUsed        bool
	RenderAttempted     bool
	RenderFailed        bool
	OutputPath          string
}

// Report is the gate verdict for one artifact. Blockers force the draft
// tier; warnings are advisory only.
type Report struct {
	Tier                 string   `json:"tier"`
	Certified            bool     `json:"certified"`
	DetectionScore       float64  `json:"detection_score"`
	DetectionFlags       []string `json:"detection_flags"`
	Blockers             []string `json:"blockers"`
	Warnings             []string `json:"warnings"`
	ISOCriticalPassed    bool     `json:"iso_critical_passed"`
	GraphIntegrityPassed bool     `json:"graph_integrity_passed"`
}

const (
	TierCertified = "certified"
	TierDraft     = "draft"
)

// Gate evaluates artifacts against fixed thresholds.
type Gate struct {
	thresholds Thresholds
}

func New(thresholds Thresholds) *Gate {
	return &Gate{thresholds: thresholds}
}

// Evaluate computes the quality tier and blockers for one artifact.
func (g *Gate) Evaluate(in Input) Report {
	score := in.DetectionConfidence
	if score < 0 {
		score = 0.5
	}
	if score > 1 {
		score = 1
	}

	report := Report{DetectionScore: score}

	if score < g.thresholds.MinConfidenceDraft {
		report.Blockers = append(report.Blockers, fmt.Sprintf(
			"detection_confidence_below_draft_threshold (%.2f < %.2f)", score, g.thresholds.MinConfidenceDraft))
	} else if score < g.thresholds.MinConfidenceCertified {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"detection_confidence_below_certified_threshold (%.2f < %.2f)", score, g.thresholds.MinConfidenceCertified))
		report.DetectionFlags = append(report.DetectionFlags, "low_detection_confidence")
	}

	structureErrors := in.Flowchart.CheckStructure()
	report.GraphIntegrityPassed = len(structureErrors) == 0
	for _, err := range structureErrors {
		report.Blockers = append(report.Blockers, "graph_integrity:"+err)
	}

	report.ISOCriticalPassed = len(in.ValidationErrors) == 0
	for _, err := range in.ValidationErrors {
		report.Blockers = append(report.Blockers, "iso_critical:"+err)
	}
	for _, w := range in.ValidationWarnings {
		report.Warnings = append(report.Warnings, "iso_warning:"+w)
	}

	// Certified output must not rest on a degraded extraction fallback.
	if in.FallbackUsed {
		report.Warnings = append(report.Warnings, "extraction_fallback_used")
	}

	if in.RenderAttempted && in.RenderFailed {
		report.Blockers = append(report.Blockers, "render_failed")
	}
	if in.OutputPath != "" {
		if info, err := os.Stat(in.OutputPath); err != nil {
			report.Blockers = append(report.Blockers, "render_artifact_missing")
		} else if info.Size() <= 0 {
			report.Blockers = append(report.Blockers, "render_artifact_empty")
		}
	}

	report.Certified = len(report.Blockers) == 0 &&
		score >= g.thresholds.MinConfidenceCertified &&
		!in.FallbackUsed
	report.Tier = TierDraft
	if report.Certified {
		report.Tier = TierCertified
	}
	return report
}
