// File path: internal/flowchart/types.go
package flowchart

import (
	"fmt"
	"strings"
)

// NodeType identifies one of the ten ISO 5807 flowchart symbol categories.
type NodeType string

const (
	NodeTerminator NodeType = "terminator"
	NodeProcess    NodeType = "process"
	NodeDecision   NodeType = "decision"
	NodeIO         NodeType = "io"
	NodeDatabase   NodeType = "database"
	NodeDisplay    NodeType = "display"
	NodeDocument   NodeType = "document"
	NodePredefined NodeType = "predefined"
	NodeManual     NodeType = "manual"
	NodeConnector  NodeType = "connector"
)

// NodeTypes lists every valid symbol category in declaration order.
func NodeTypes() []NodeType {
	return []NodeType{
		NodeTerminator, NodeProcess, NodeDecision, NodeIO, NodeDatabase,
		NodeDisplay, NodeDocument, NodePredefined, NodeManual, NodeConnector,
	}
}

// Valid reports whether t is one of the ten defined categories.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTerminator, NodeProcess, NodeDecision, NodeIO, NodeDatabase,
		NodeDisplay, NodeDocument, NodePredefined, NodeManual, NodeConnector:
		return true
	}
	return false
}

// ConnectionType categorizes an edge between two nodes.
type ConnectionType string

const (
	ConnNormal ConnectionType = "normal"
	ConnTrue   ConnectionType = "true"
	ConnFalse  ConnectionType = "false"
	ConnYes    ConnectionType = "yes"
	ConnNo     ConnectionType = "no"
	ConnLoop   ConnectionType = "loop"
)

// Position is a cosmetic layout hint assigned by the optional layout pass.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Node is a single flowchart vertex.
type Node struct {
	ID           string    `json:"id"`
	Type         NodeType  `json:"node_type"`
	Label        string    `json:"label"`
	OriginalText string    `json:"original_text,omitempty"`
	Confidence   float64   `json:"confidence"`
	Position     *Position `json:"position,omitempty"`
	WarningLevel string    `json:"warning_level,omitempty"`
}

// Connection is a directed edge between two nodes identified by id.
type Connection struct {
	From  string         `json:"from"`
	To    string         `json:"to"`
	Label string         `json:"label,omitempty"`
	Type  ConnectionType `json:"connection_type"`
}

// Flowchart is the complete graph: ordered nodes and connections plus
// optional presentation metadata. Order is significant; it equals input
// step order plus synthesized terminators and branch children.
type Flowchart struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
}

func (f *Flowchart) AddNode(n Node) {
	f.Nodes = append(f.Nodes, n)
}

func (f *Flowchart) AddConnection(c Connection) {
	f.Connections = append(f.Connections, c)
}

// Node returns the node with the given id, or nil.
func (f *Flowchart) Node(id string) *Node {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i]
		}
	}
	return nil
}

// Incoming returns connections whose target is the given node id.
func (f *Flowchart) Incoming(id string) []Connection {
	var out []Connection
	for _, c := range f.Connections {
		if c.To == id {
			out = append(out, c)
		}
	}
	return out
}

// Outgoing returns connections whose source is the given node id.
func (f *Flowchart) Outgoing(id string) []Connection {
	var out []Connection
	for _, c := range f.Connections {
		if c.From == id {
			out = append(out, c)
		}
	}
	return out
}

// TerminatorsLabeled returns terminator nodes whose label contains the
// given fragment, matched case-insensitively.
func (f *Flowchart) TerminatorsLabeled(fragment string) []Node {
	var out []Node
	for _, n := range f.Nodes {
		if n.Type == NodeTerminator && strings.Contains(strings.ToLower(n.Label), strings.ToLower(fragment)) {
			out = append(out, n)
		}
	}
	return out
}

// CheckStructure runs the intrinsic graph-shape checks shared by the
// validator and the quality gate: terminator cardinality, start/end edge
// direction, orphan detection, and decision fan-out. It returns the
// accumulated error strings; an empty slice means the structure is sound.
func (f *Flowchart) CheckStructure() []string {
	var errs []string
	starts := f.TerminatorsLabeled("start")
	ends := f.TerminatorsLabeled("end")

	if len(starts) > 1 {
		errs = append(errs, fmt.Sprintf("Flowchart has %d start terminators, expected 1", len(starts)))
	}
	for _, start := range starts {
		// Self-loops on a start terminator are permitted.
		incoming := 0
		for _, c := range f.Incoming(start.ID) {
			if c.From != start.ID {
				incoming++
			}
		}
		if incoming > 0 {
			errs = append(errs, fmt.Sprintf(
				"START node '%s' has incoming connection(s) - START nodes should only have outgoing connections",
				start.ID))
		}
	}

	for _, end := range ends {
		if len(f.Outgoing(end.ID)) > 0 {
			errs = append(errs, fmt.Sprintf(
				"END node '%s' has outgoing connection(s) - END nodes should only have incoming connections",
				end.ID))
		}
		if len(f.Incoming(end.ID)) == 0 {
			errs = append(errs, fmt.Sprintf(
				"END node '%s' has no incoming connections - END nodes must be reachable", end.ID))
		}
	}

	connected := make(map[string]struct{})
	for _, c := range f.Connections {
		connected[c.From] = struct{}{}
		connected[c.To] = struct{}{}
	}
	startIDs := make(map[string]struct{}, len(starts))
	for _, s := range starts {
		startIDs[s.ID] = struct{}{}
	}
	var orphaned []string
	for _, n := range f.Nodes {
		if _, ok := connected[n.ID]; ok {
			continue
		}
		if _, ok := startIDs[n.ID]; ok {
			continue
		}
		orphaned = append(orphaned, n.ID)
	}
	if len(orphaned) > 0 {
		errs = append(errs, fmt.Sprintf("Orphaned nodes found: %v", orphaned))
	}

	for _, n := range f.Nodes {
		if n.Type != NodeDecision {
			continue
		}
		if len(f.Outgoing(n.ID)) < 2 {
			errs = append(errs, fmt.Sprintf("Decision node '%s' has fewer than 2 branches", n.ID))
		}
	}
	return errs
}
