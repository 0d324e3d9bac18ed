package core

import "github.com/valter-silva-au/known-board/pkg/models"

// FindNode returns the node with the given id, searching depth-first, or
// nil when no node matches.
func FindNode(roots []models.Node, id string) models.Node {
	for _, n := range roots {
		if n.NodeID() == id {
			return n
		}
		if set, ok := models.AsTaskSet(n); ok {
			if found := FindNode(set.Children, id); found != nil {
				return found
			}
		}
	}
	return nil
}

// FindParent returns the TaskSet that directly contains the node with the
// given id. It returns nil when the node is a root or does not exist.
func FindParent(roots []models.Node, id string) *models.TaskSet {
	for _, n := range roots {
		set, ok := models.AsTaskSet(n)
		if !ok {
			continue
		}
		for _, child := range set.Children {
			if child.NodeID() == id {
				return set
			}
		}
		if p := FindParent(set.Children, id); p != nil {
			return p
		}
	}
	return nil
}

// Traverse walks the forest depth-first in pre-order, visiting every
// TaskSet before its children.
func Traverse(roots []models.Node, visit func(models.Node)) {
	for _, n := range roots {
		visit(n)
		if set, ok := models.AsTaskSet(n); ok {
			Traverse(set.Children, visit)
		}
	}
}

// Walk is Traverse with the depth (0 for roots) and the ancestor chain of
// each node. The ancestors slice is only valid during the callback.
func Walk(roots []models.Node, visit func(n models.Node, ancestors []*models.TaskSet)) {
	walk(roots, nil, visit)
}

func walk(nodes []models.Node, ancestors []*models.TaskSet, visit func(models.Node, []*models.TaskSet)) {
	for _, n := range nodes {
		visit(n, ancestors)
		if set, ok := models.AsTaskSet(n); ok {
			walk(set.Children, append(ancestors, set), visit)
		}
	}
}

// Filter returns a structure-preserving copy of the forest holding the
// nodes that satisfy keep. A rejected TaskSet drops its whole subtree; a
// kept TaskSet has its children filtered independently. The input is not
// modified.
func Filter(roots []models.Node, keep func(models.Node) bool) []models.Node {
	out := make([]models.Node, 0, len(roots))
	for _, n := range roots {
		if !keep(n) {
			continue
		}
		switch v := n.(type) {
		case *models.TaskSet:
			c := *v
			c.Children = Filter(v.Children, keep)
			out = append(out, &c)
		case *models.Task:
			out = append(out, models.CloneNode(v))
		}
	}
	return out
}

// NewTaskNode builds a Task with no episodes and completed=false.
func NewTaskNode(id, title, description, deadline, videoURL string) *models.Task {
	return &models.Task{
		NodeBase: models.NodeBase{ID: id, Title: title, Description: description},
		Deadline: deadline,
		VideoURL: videoURL,
		Episodes: []models.Episode{},
	}
}

// NewTaskSetNode builds a TaskSet with no children and hidden=false.
func NewTaskSetNode(id, title, description string) *models.TaskSet {
	return &models.TaskSet{
		NodeBase: models.NodeBase{ID: id, Title: title, Description: description},
		Children: []models.Node{},
	}
}

// IsDescendant reports whether candidateID names ancestor itself or any
// node in its subtree. It is the cycle predicate used by MoveNode.
func IsDescendant(ancestor models.Node, candidateID string) bool {
	if ancestor.NodeID() == candidateID {
		return true
	}
	set, ok := models.AsTaskSet(ancestor)
	if !ok {
		return false
	}
	for _, child := range set.Children {
		if IsDescendant(child, candidateID) {
			return true
		}
	}
	return false
}

// CollectIDs returns the set of every node id in the forest.
func CollectIDs(roots []models.Node) map[string]struct{} {
	ids := make(map[string]struct{})
	Traverse(roots, func(n models.Node) {
		ids[n.NodeID()] = struct{}{}
	})
	return ids
}

// CountNodes returns the number of nodes at every depth.
func CountNodes(roots []models.Node) int {
	count := 0
	Traverse(roots, func(models.Node) { count++ })
	return count
}

// IsHiddenByAncestry reports whether the node with the given id is a
// hidden TaskSet or lies anywhere beneath one. Unknown ids report false.
func IsHiddenByAncestry(roots []models.Node, id string) bool {
	hidden, found := false, false
	Walk(roots, func(n models.Node, ancestors []*models.TaskSet) {
		if found || n.NodeID() != id {
			return
		}
		found = true
		if set, ok := models.AsTaskSet(n); ok && set.Hidden {
			hidden = true
			return
		}
		for _, a := range ancestors {
			if a.Hidden {
				hidden = true
				return
			}
		}
	})
	return hidden
}

// PathTo returns the titles of the ancestors of the node with the given id,
// outermost first. It returns nil for roots and unknown ids.
func PathTo(roots []models.Node, id string) []string {
	var path []string
	Walk(roots, func(n models.Node, ancestors []*models.TaskSet) {
		if path != nil || n.NodeID() != id {
			return
		}
		path = make([]string, 0, len(ancestors))
		for _, a := range ancestors {
			path = append(path, a.Title)
		}
	})
	if len(path) == 0 {
		return nil
	}
	return path
}

// removeNode detaches the node with the given id from wherever it lives in
// the forest and returns the new root slice and the removed node.
func removeNode(roots []models.Node, id string) ([]models.Node, models.Node) {
	for i, n := range roots {
		if n.NodeID() == id {
			out := make([]models.Node, 0, len(roots)-1)
			out = append(out, roots[:i]...)
			out = append(out, roots[i+1:]...)
			return out, n
		}
	}
	for _, n := range roots {
		set, ok := models.AsTaskSet(n)
		if !ok {
			continue
		}
		children, removed := removeNode(set.Children, id)
		if removed != nil {
			set.Children = children
			return roots, removed
		}
	}
	return roots, nil
}

// pruneIDs removes every node whose id is in ids, at any depth, taking the
// node's subtree with it. The input forest is modified in place for nested
// sets.
func pruneIDs(roots []models.Node, ids map[string]struct{}) []models.Node {
	out := make([]models.Node, 0, len(roots))
	for _, n := range roots {
		if _, drop := ids[n.NodeID()]; drop {
			continue
		}
		if set, ok := models.AsTaskSet(n); ok {
			set.Children = pruneIDs(set.Children, ids)
		}
		out = append(out, n)
	}
	return out
}

// insertAt inserts n into nodes at index clamped to [0, len(nodes)].
func insertAt(nodes []models.Node, index int, n models.Node) []models.Node {
	if index < 0 {
		index = 0
	}
	if index > len(nodes) {
		index = len(nodes)
	}
	out := make([]models.Node, 0, len(nodes)+1)
	out = append(out, nodes[:index]...)
	out = append(out, n)
	out = append(out, nodes[index:]...)
	return out
}
