// File path: internal/patterns/entities.go
package patterns

import (
	"regexp"
	"strings"

	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

// EntityRule is one deterministic phrase rule mapping workflow terminology
// to an ISO 5807 symbol. Rules are evaluated in declaration order, most
// specific first, and the first hit wins.
type EntityRule struct {
	ID         string
	Type       flowchart.NodeType
	Confidence float64
	pattern    *regexp.Regexp
}

var entityRules = []EntityRule{
	{
		ID: "TERMINATOR", Type: flowchart.NodeTerminator, Confidence: 0.95,
		pattern: regexp.MustCompile(`(?i)^\s*(start|begin|end|stop|finish|terminate|exit|halt|complete|done|initialize|launch)\s*$`),
	},
	{
		ID: "CONDITIONAL_FORK", Type: flowchart.NodeDecision, Confidence: 0.92,
		pattern: regexp.MustCompile(`(?i)\b(if|in case of|whether|when|should|unless|provided that|assuming|given that|on condition)\b`),
	},
	{
		ID: "DATABASE_OP", Type: flowchart.NodeDatabase, Confidence: 0.90,
		pattern: regexp.MustCompile(`(?i)\b(query|insert|update|delete|commit|rollback|select|fetch from db|persist|upsert|truncate|migrate|join tables|index|drop table|alter table)\b`),
	},
	{
		ID: "SUB_ROUTINE", Type: flowchart.NodePredefined, Confidence: 0.88,
		pattern: regexp.MustCompile(`(?i)\b(invoke api|call function|execute procedure|run subroutine|trigger webhook|call service|invoke method|run script|execute module|call endpoint)\b`),
	},
	{
		ID: "DOCUMENT_GEN", Type: flowchart.NodeDocument, Confidence: 0.90,
		pattern: regexp.MustCompile(`(?i)\b(generate report|export pdf|create document|print report|write log|emit certificate|produce invoice|draft memo|compile summary|generate receipt)\b`),
	},
	{
		ID: "MANUAL_INTERVENTION", Type: flowchart.NodeManual, Confidence: 0.88,
		pattern: regexp.MustCompile(`(?i)\b(wait for|manually review|human review|manual check|manually approve|hand off|escalate to|operator input|technician|physically|in person)\b`),
	},
	{
		ID: "IO_OPERATION", Type: flowchart.NodeIO, Confidence: 0.88,
		pattern: regexp.MustCompile(`(?i)\b(read file|write file|upload|download|receive data|send data|transmit|stream|pipe output|accept input|read from|write to|scan barcode|capture image)\b`),
	},
	{
		ID: "DISPLAY_OP", Type: flowchart.NodeDisplay, Confidence: 0.88,
		pattern: regexp.MustCompile(`(?i)\b(display message|show notification|alert user|render view|preview|pop up|toast notification|show dialog|display error|show warning|show confirmation)\b`),
	},
}

// ClassifyEntities matches text against the domain rule table. The boolean
// is false when no rule applies.
func ClassifyEntities(text string) (EntityRule, bool) {
	if strings.TrimSpace(text) == "" {
		return EntityRule{}, false
	}
	for _, rule := range entityRules {
		if rule.pattern.MatchString(text) {
			return rule, true
		}
	}
	return EntityRule{}, false
}
