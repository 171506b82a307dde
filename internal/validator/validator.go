// File path: internal/validator/validator.go
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nicodishanthj/flowforge/internal/common/telemetry"
	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

const maxLabelLength = 100

// Result carries the categorized findings of a validation pass. Warnings
// never affect validity; Valid is true exactly when Errors is empty.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validator checks flowcharts against ISO 5807 structural rules. It is a
// pure read-only pass over the graph; all checks accumulate findings rather
// than short-circuiting.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(fc *flowchart.Flowchart) Result {
	var errs, warns []string

	errs, warns = v.checkStructure(fc, errs, warns)
	errs = v.checkSymbols(fc, errs)
	errs, warns = v.checkConnections(fc, errs, warns)
	errs, warns = v.checkDecisions(fc, errs, warns)
	errs, warns = v.checkTerminators(fc, errs, warns)
	errs, warns = v.checkLabels(fc, errs, warns)

	result := Result{Valid: len(errs) == 0, Errors: errs, Warnings: warns}
	telemetry.RecordValidation(result.Valid)
	return result
}

func (v *Validator) checkStructure(fc *flowchart.Flowchart, errs, warns []string) ([]string, []string) {
	if len(fc.Nodes) == 0 {
		errs = append(errs, "Flowchart has no nodes")
		return errs, warns
	}
	if len(fc.Nodes) < 2 {
		warns = append(warns, "Flowchart has fewer than 2 nodes (start + end minimum)")
	}
	errs = append(errs, fc.CheckStructure()...)
	return errs, warns
}

func (v *Validator) checkSymbols(fc *flowchart.Flowchart, errs []string) []string {
	for _, n := range fc.Nodes {
		if !n.Type.Valid() {
			errs = append(errs, fmt.Sprintf("Invalid node type '%s' for node '%s'", n.Type, n.ID))
		}
	}
	return errs
}

func (v *Validator) checkConnections(fc *flowchart.Flowchart, errs, warns []string) ([]string, []string) {
	ids := make(map[string]bool, len(fc.Nodes))
	for _, n := range fc.Nodes {
		ids[n.ID] = true
	}
	for _, c := range fc.Connections {
		if !ids[c.From] {
			errs = append(errs, fmt.Sprintf("Connection references non-existent source node: %s", c.From))
		}
		if !ids[c.To] {
			errs = append(errs, fmt.Sprintf("Connection references non-existent target node: %s", c.To))
		}
	}
	if hasCycle(fc) {
		warns = append(warns, "Flowchart contains cycles - verify loops are intentional")
	}
	return errs, warns
}

func (v *Validator) checkDecisions(fc *flowchart.Flowchart, errs, warns []string) ([]string, []string) {
	for _, n := range fc.Nodes {
		if n.Type != flowchart.NodeDecision {
			continue
		}
		outgoing := fc.Outgoing(n.ID)

		if len(outgoing) < 2 {
			errs = append(errs, fmt.Sprintf("Decision node '%s' has %d branch(es), expected at least 2", n.ID, len(outgoing)))
		} else if len(outgoing) > 3 {
			warns = append(warns, fmt.Sprintf("Decision node '%s' has %d branches - consider simplifying", n.ID, len(outgoing)))
		}

		unlabeled := 0
		for _, c := range outgoing {
			if c.Label == "" {
				unlabeled++
			}
		}
		if unlabeled > 0 {
			warns = append(warns, fmt.Sprintf("Decision node '%s' has %d unlabeled branch(es)", n.ID, unlabeled))
		}

		yes, no := yesNoTargets(outgoing)
		if len(yes) > 0 && len(no) > 0 {
			errs, warns = v.checkConvergence(fc, n.ID, intersect(yes, no), errs, warns)
		}
	}
	return errs, warns
}

// checkConvergence handles Yes and No branches sharing targets. Converging
// on a terminator is merely suspicious; converging on anything else defeats
// the decision and is an error.
func (v *Validator) checkConvergence(fc *flowchart.Flowchart, nodeID string, common []string, errs, warns []string) ([]string, []string) {
	if len(common) == 0 {
		return errs, warns
	}
	var nonTerminator []string
	for _, id := range common {
		if n := fc.Node(id); n != nil && n.Type != flowchart.NodeTerminator {
			nonTerminator = append(nonTerminator, id)
		}
	}
	if len(nonTerminator) > 0 {
		errs = append(errs, fmt.Sprintf(
			"Decision node '%s': Yes/No branches both lead to same node(s): %s. Decision branches must lead to different nodes.",
			nodeID, strings.Join(nonTerminator, ", ")))
		return errs, warns
	}
	warns = append(warns, fmt.Sprintf(
		"Decision node '%s': Both branches lead to END. Verify this is intentional (e.g., final validation step).", nodeID))
	return errs, warns
}

func (v *Validator) checkTerminators(fc *flowchart.Flowchart, errs, warns []string) ([]string, []string) {
	var terminators []flowchart.Node
	for _, n := range fc.Nodes {
		if n.Type == flowchart.NodeTerminator {
			terminators = append(terminators, n)
		}
	}
	if len(terminators) == 0 {
		errs = append(errs, "Flowchart has no terminator nodes (start/end)")
		return errs, warns
	}

	var starts, ends []flowchart.Node
	for _, n := range terminators {
		label := strings.ToLower(n.Label)
		if strings.Contains(label, "start") || strings.Contains(label, "begin") {
			starts = append(starts, n)
		}
		if strings.Contains(label, "end") || strings.Contains(label, "finish") || strings.Contains(label, "stop") {
			ends = append(ends, n)
		}
	}

	if len(starts) == 0 {
		warns = append(warns, "No explicit START terminator found")
	} else if len(starts) > 1 {
		errs = append(errs, fmt.Sprintf("Multiple START nodes found: %d", len(starts)))
	}
	if len(ends) == 0 {
		warns = append(warns, "No explicit END terminator found")
	}

	if len(starts) > 0 {
		incoming := 0
		for _, c := range fc.Connections {
			if c.To == starts[0].ID && c.From != starts[0].ID {
				incoming++
			}
		}
		if incoming > 0 {
			errs = append(errs, fmt.Sprintf(
				"START node '%s' has %d incoming connection(s) - START nodes should only have outgoing connections",
				starts[0].ID, incoming))
		}
	}

	for _, end := range ends {
		if outgoing := fc.Outgoing(end.ID); len(outgoing) > 0 {
			errs = append(errs, fmt.Sprintf("END node '%s' has %d outgoing connection(s)", end.ID, len(outgoing)))
		}
	}
	return errs, warns
}

func (v *Validator) checkLabels(fc *flowchart.Flowchart, errs, warns []string) ([]string, []string) {
	for _, n := range fc.Nodes {
		if n.Label == "" {
			errs = append(errs, fmt.Sprintf("Node '%s' has no label", n.ID))
		} else if len(n.Label) > maxLabelLength {
			warns = append(warns, fmt.Sprintf("Node '%s' label is very long (%d chars) - consider shortening", n.ID, len(n.Label)))
		}
	}
	return errs, warns
}

func yesNoTargets(outgoing []flowchart.Connection) (yes, no map[string]bool) {
	yes, no = make(map[string]bool), make(map[string]bool)
	for _, c := range outgoing {
		label := strings.ToLower(c.Label)
		if c.Type == flowchart.ConnYes || strings.Contains(label, "yes") {
			yes[c.To] = true
		}
		if c.Type == flowchart.ConnNo || strings.Contains(label, "no") {
			no[c.To] = true
		}
	}
	return yes, no
}

func intersect(a, b map[string]bool) []string {
	var out []string
	for id := range a {
		if b[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func hasCycle(fc *flowchart.Flowchart) bool {
	adjacent := make(map[string][]string, len(fc.Nodes))
	for _, n := range fc.Nodes {
		adjacent[n.ID] = nil
	}
	for _, c := range fc.Connections {
		if _, ok := adjacent[c.From]; ok {
			adjacent[c.From] = append(adjacent[c.From], c.To)
		}
	}

	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	var visit func(id string) bool
	visit = func(id string) bool {
		visited[id] = true
		inStack[id] = true
		for _, next := range adjacent[id] {
			if !visited[next] {
				if visit(next) {
					return true
				}
			} else if inStack[next] {
				return true
			}
		}
		inStack[id] = false
		return false
	}

	for _, n := range fc.Nodes {
		if !visited[n.ID] && visit(n.ID) {
			return true
		}
	}
	return false
}
