// File path: internal/patterns/mapper.go
package patterns

import (
	"strings"

	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

// Mapping resolves verb+object pairs to ISO 5807 symbols instead of
// defaulting every step to a process rectangle.

var verbMap = map[string]flowchart.NodeType{
	// I/O operations
	"read": flowchart.NodeIO, "write": flowchart.NodeIO,
	"input": flowchart.NodeIO, "output": flowchart.NodeIO,
	"receive": flowchart.NodeIO, "send": flowchart.NodeIO,
	"upload": flowchart.NodeIO, "download": flowchart.NodeIO,
	"import": flowchart.NodeIO, "export": flowchart.NodeIO,
	"load": flowchart.NodeIO, "scan": flowchart.NodeIO,
	"capture": flowchart.NodeIO, "transmit": flowchart.NodeIO,

	// Display operations
	"display": flowchart.NodeDisplay, "show": flowchart.NodeDisplay,
	"alert": flowchart.NodeDisplay, "render": flowchart.NodeDisplay,
	"preview": flowchart.NodeDisplay, "view": flowchart.NodeDisplay,
	"notify": flowchart.NodeDisplay, "prompt": flowchart.NodeDisplay,

	// Database operations
	"store": flowchart.NodeDatabase, "query": flowchart.NodeDatabase,
	"fetch": flowchart.NodeDatabase, "persist": flowchart.NodeDatabase,
	"cache": flowchart.NodeDatabase, "index": flowchart.NodeDatabase,
	"lookup": flowchart.NodeDatabase,

	// Document operations
	"log": flowchart.NodeDocument, "report": flowchart.NodeDocument,
	"record": flowchart.NodeDocument, "document": flowchart.NodeDocument,
	"print": flowchart.NodeDocument, "archive": flowchart.NodeDocument,

	// Decision verbs
	"check": flowchart.NodeDecision, "verify": flowchart.NodeDecision,
	"validate": flowchart.NodeDecision, "test": flowchart.NodeDecision,
	"compare": flowchart.NodeDecision, "evaluate": flowchart.NodeDecision,
	"determine": flowchart.NodeDecision, "assess": flowchart.NodeDecision,
	"confirm": flowchart.NodeDecision,

	// Manual operations
	"enter": flowchart.NodeManual, "type": flowchart.NodeManual,
	"fill": flowchart.NodeManual, "sign": flowchart.NodeManual,
	"approve": flowchart.NodeManual,
}

// objectOverrides take precedence over the verb default; the thing being
// acted on is a stronger signal than the verb itself.
var objectOverrides = []struct {
	Keyword string
	Type    flowchart.NodeType
}{
	{"database", flowchart.NodeDatabase},
	{"db", flowchart.NodeDatabase},
	{"table", flowchart.NodeDatabase},
	{"record", flowchart.NodeDatabase},
	{"collection", flowchart.NodeDatabase},
	{"file", flowchart.NodeIO},
	{"disk", flowchart.NodeIO},
	{"drive", flowchart.NodeIO},
	{"port", flowchart.NodeIO},
	{"screen", flowchart.NodeDisplay},
	{"monitor", flowchart.NodeDisplay},
	{"console", flowchart.NodeDisplay},
	{"dialog", flowchart.NodeDisplay},
	{"popup", flowchart.NodeDisplay},
	{"message", flowchart.NodeDisplay},
	{"user", flowchart.NodeManual},
	{"operator", flowchart.NodeManual},
	{"technician", flowchart.NodeManual},
	{"api", flowchart.NodePredefined},
	{"service", flowchart.NodePredefined},
	{"function", flowchart.NodePredefined},
	{"procedure", flowchart.NodePredefined},
	{"subroutine", flowchart.NodePredefined},
	{"module", flowchart.NodePredefined},
	{"report", flowchart.NodeDocument},
	{"document", flowchart.NodeDocument},
	{"log", flowchart.NodeDocument},
	{"form", flowchart.NodeDocument},
	{"certificate", flowchart.NodeDocument},
}

var mapperCrossref = compileAll(
	`(?i)see\s+section`,
	`(?i)refer\s+to`,
	`(?i)as\s+described\s+in`,
	`(?i)follow\s+procedure`,
	`(?i)per\s+section`,
	`(?i)using\s+method`,
)

var mapperConditional = compileAll(
	`(?i)^if\s+`,
	`(?i)^when\s+`,
	`(?i)^whether\s+`,
	`(?i)^should\s+`,
	`(?i)^does\s+`,
	`(?i)^is\s+.*\?`,
	`(?i)^has\s+.*\?`,
	`(?i)^can\s+.*\?`,
	`(?i)\bif\s+(successful|failed|error|yes|no|true|false)\b`,
)

// Classification is the result of mapping a step onto the standard: the
// chosen symbol, how sure the tables are, and plausible alternatives.
type Classification struct {
	Type         flowchart.NodeType
	Confidence   float64
	Alternatives []flowchart.NodeType
}

// Map resolves an action verb plus object phrases to a node type with a
// confidence estimate. Priority: cross-references, conditionals, object
// overrides, verb defaults, process fallback.
func Map(action string, objects []string, fullText string) Classification {
	lower := strings.ToLower(fullText)

	for _, p := range mapperCrossref {
		if p.MatchString(lower) {
			return Classification{flowchart.NodePredefined, 0.9, []flowchart.NodeType{flowchart.NodeProcess}}
		}
	}
	for _, p := range mapperConditional {
		if p.MatchString(lower) {
			return Classification{flowchart.NodeDecision, 0.85, []flowchart.NodeType{flowchart.NodeProcess}}
		}
	}

	for _, obj := range objects {
		objLower := strings.ToLower(obj)
		for _, ov := range objectOverrides {
			if strings.Contains(objLower, ov.Keyword) {
				alts := []flowchart.NodeType{flowchart.NodeProcess}
				if ov.Type != flowchart.NodeDatabase {
					alts = append(alts, flowchart.NodeDatabase)
				}
				return Classification{ov.Type, 0.8, alts}
			}
		}
	}

	if t, ok := verbMap[strings.ToLower(action)]; ok {
		confidence := 0.7
		if t == flowchart.NodeDecision || t == flowchart.NodeIO {
			confidence = 0.85
		}
		return Classification{t, confidence, []flowchart.NodeType{flowchart.NodeProcess}}
	}

	return Classification{flowchart.NodeProcess, 0.6, []flowchart.NodeType{flowchart.NodeManual, flowchart.NodeIO}}
}

// MapText maps directly from raw step text, treating the first word as the
// action and the remainder as object phrases.
func MapText(text string) Classification {
	words := strings.Fields(strings.TrimSpace(text))
	if len(words) == 0 {
		return Classification{flowchart.NodeProcess, 0.5, nil}
	}
	return Map(words[0], words[1:], text)
}
