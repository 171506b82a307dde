// File path: internal/builder/layout.go
package builder

import (
	"strings"

	"github.com/nicodishanthj/flowforge/internal/flowchart"
)

// Cosmetic layout pass: breadth-first leveling from the start node with
// fixed spacing. Positions are hints for renderers and carry no semantics.

const (
	xSpacing = 200
	ySpacing = 100
)

func applyLayout(fc *flowchart.Flowchart) {
	levels := calculateLevels(fc)

	levelCounts := make(map[int]int)
	for i := range fc.Nodes {
		level := levels[fc.Nodes[i].ID]
		fc.Nodes[i].Position = &flowchart.Position{
			X: levelCounts[level] * xSpacing,
			Y: level * ySpacing,
		}
		levelCounts[level]++
	}
}

func calculateLevels(fc *flowchart.Flowchart) map[string]int {
	levels := make(map[string]int)
	if len(fc.Nodes) == 0 {
		return levels
	}

	start := ""
	for _, n := range fc.Nodes {
		if strings.Contains(n.ID, "START") || strings.Contains(strings.ToLower(n.Label), "start") {
			start = n.ID
			break
		}
	}
	if start == "" {
		start = fc.Nodes[0].ID
	}

	type item struct {
		id    string
		level int
	}
	queue := []item{{start, 0}}
	visited := make(map[string]bool)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true
		levels[cur.id] = cur.level
		for _, c := range fc.Connections {
			if c.From == cur.id && !visited[c.To] {
				queue = append(queue, item{c.To, cur.level + 1})
			}
		}
	}
	return levels
}
