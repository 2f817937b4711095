package domain

import (
	"time"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
)

// MindMapNode is one node of a mind-map tree. Level 0 is the root; a node's
// ChildrenIDs must list exactly the nodes whose ParentID equals this node's
// ID (§3 invariant).
type MindMapNode struct {
	ID                string            `json:"id"`
	Content           string            `json:"content"`
	Level             int               `json:"level"`
	ParentID          string            `json:"parent_id,omitempty"`
	ChildrenIDs       []string          `json:"children_ids"`
	MessageReferences []string          `json:"message_references"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// MindMap is the latest mind-map document stored on a meeting. Storing a new
// MindMap supersedes the old one and bumps Version; nodes are never mutated
// in place.
type MindMap struct {
	ID        string                  `json:"id"`
	MeetingID string                  `json:"meeting_id"`
	RootNode  string                  `json:"root_node"`
	Nodes     map[string]*MindMapNode `json:"nodes"`
	Version   int                     `json:"version"`
	CreatedAt time.Time               `json:"created_at"`
	CreatedBy string                  `json:"created_by"`
}

// ValidateTree checks the §3 invariants: exactly one root, ChildrenIDs agree
// with ParentID both ways, the graph is acyclic and connected from the root,
// and every MessageReferences entry resolves to a message id in
// validMessageIDs.
func (mm *MindMap) ValidateTree(validMessageIDs map[string]struct{}) error {
	root, ok := mm.Nodes[mm.RootNode]
	if !ok {
		return apperr.Validation("mind_map.root_node", "root node not present in nodes")
	}
	if root.Level != 0 || root.ParentID != "" {
		return apperr.Validation("mind_map.root_node", "root node must have level 0 and no parent")
	}

	for id, node := range mm.Nodes {
		if node.ID != id {
			return apperr.Validationf("mind_map.nodes", "node key %q does not match node id %q", id, node.ID)
		}
		if node.ParentID != "" {
			parent, ok := mm.Nodes[node.ParentID]
			if !ok {
				return apperr.Validationf("mind_map.nodes", "node %q references missing parent %q", id, node.ParentID)
			}
			if !contains(parent.ChildrenIDs, id) {
				return apperr.Validationf("mind_map.nodes", "parent %q does not list child %q", node.ParentID, id)
			}
		}
		for _, childID := range node.ChildrenIDs {
			child, ok := mm.Nodes[childID]
			if !ok {
				return apperr.Validationf("mind_map.nodes", "node %q references missing child %q", id, childID)
			}
			if child.ParentID != id {
				return apperr.Validationf("mind_map.nodes", "child %q does not point back to parent %q", childID, id)
			}
		}
		for _, ref := range node.MessageReferences {
			if _, ok := validMessageIDs[ref]; !ok {
				return apperr.Validationf("mind_map.nodes", "node %q references unknown message %q", id, ref)
			}
		}
	}

	// Acyclic + reachable-from-root check via a walk from the root.
	seen := map[string]bool{mm.RootNode: true}
	queue := []string{mm.RootNode}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, childID := range mm.Nodes[id].ChildrenIDs {
			if seen[childID] {
				return apperr.Validation("mind_map.nodes", "cycle detected in mind-map tree")
			}
			seen[childID] = true
			queue = append(queue, childID)
		}
	}
	if len(seen) != len(mm.Nodes) {
		return apperr.Validation("mind_map.nodes", "mind-map has nodes unreachable from the root")
	}
	return nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
