package mindmap

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/PabloGalante/meeting-engine/internal/domain"
)

// ExportMarkdown renders mm as level-0 H1 plus nested bullets per §6.4:
// each descendant is a bullet indented by its level, with message
// references trailing as italicized markers.
func ExportMarkdown(mm *domain.MindMap) string {
	var b strings.Builder
	root, ok := mm.Nodes[mm.RootNode]
	if !ok {
		return ""
	}
	fmt.Fprintf(&b, "# %s\n\n", root.Content)
	for _, childID := range root.ChildrenIDs {
		writeMarkdownNode(&b, mm, childID)
	}
	return b.String()
}

func writeMarkdownNode(b *strings.Builder, mm *domain.MindMap, id string) {
	node, ok := mm.Nodes[id]
	if !ok {
		return
	}
	indent := strings.Repeat("  ", node.Level-1)
	fmt.Fprintf(b, "%s- %s", indent, node.Content)
	if len(node.MessageReferences) > 0 {
		fmt.Fprintf(b, " _(refs: %s)_", strings.Join(node.MessageReferences, ", "))
	}
	b.WriteString("\n")
	for _, childID := range node.ChildrenIDs {
		writeMarkdownNode(b, mm, childID)
	}
}

// ExportJSON serializes mm as its stored document (§6.4).
func ExportJSON(mm *domain.MindMap) ([]byte, error) {
	return json.MarshalIndent(mm, "", "  ")
}

// layoutNode is one mind-map node placed on a 2D canvas for rendering.
type layoutNode struct {
	id   string
	x, y float64
}

// layout assigns each node a canvas position via a breadth-first walk from
// the root, in ChildrenIDs order (deterministic, since ChildrenIDs is a
// slice built in insertion order), spreading each level's nodes evenly
// across the canvas width.
func layout(mm *domain.MindMap, width, rowHeight float64) (map[string]layoutNode, int) {
	levels := [][]string{{mm.RootNode}}
	queue := []string{mm.RootNode}
	maxDepth := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		node, ok := mm.Nodes[id]
		if !ok || len(node.ChildrenIDs) == 0 {
			continue
		}
		if node.Level+1 > maxDepth {
			maxDepth = node.Level + 1
			levels = append(levels, nil)
		}
		levels[node.Level+1] = append(levels[node.Level+1], node.ChildrenIDs...)
		queue = append(queue, node.ChildrenIDs...)
	}

	positions := make(map[string]layoutNode, len(mm.Nodes))
	for level, ids := range levels {
		spacing := width / float64(len(ids)+1)
		for i, id := range ids {
			positions[id] = layoutNode{id: id, x: spacing * float64(i+1), y: rowHeight*float64(level) + rowHeight/2}
		}
	}
	return positions, maxDepth
}

// edges returns every (parent, child) node-id pair in mm, sorted for
// deterministic output.
func edges(mm *domain.MindMap) [][2]string {
	var out [][2]string
	for id, node := range mm.Nodes {
		for _, childID := range node.ChildrenIDs {
			out = append(out, [2]string{id, childID})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}
