package core

import (
	"errors"
	"fmt"

	"github.com/valter-silva-au/known-board/pkg/models"
)

var (
	// ErrConflictResolutionRequired is returned by a merge that finds id
	// collisions when no resolution was supplied.
	ErrConflictResolutionRequired = errors.New("import has conflicting ids; a conflict resolution is required")
	// ErrUnknownImportMode is returned for a mode other than replace or merge.
	ErrUnknownImportMode = errors.New("unknown import mode")
	// ErrUnknownResolution is returned for an unsupported conflict resolution.
	ErrUnknownResolution = errors.New("unknown conflict resolution")
)

// DetectConflicts lists every incoming node, at any depth, whose id already
// exists anywhere in the existing forest. Conflicts are reported in
// pre-order of the incoming forest.
func DetectConflicts(existing, incoming []models.Node) models.ConflictInfo {
	known := CollectIDs(existing)
	info := models.ConflictInfo{Conflicts: []models.ConflictItem{}}
	Traverse(incoming, func(n models.Node) {
		if _, ok := known[n.NodeID()]; !ok {
			return
		}
		info.Conflicts = append(info.Conflicts, models.ConflictItem{
			ID:    n.NodeID(),
			Title: n.NodeTitle(),
			Type:  n.NodeType(),
			Node:  n,
		})
	})
	info.HasConflicts = len(info.Conflicts) > 0
	return info
}

// RegenerateIDs deep-copies a subtree, giving the node, every descendant
// node and every episode a fresh id.
func RegenerateIDs(node models.Node, ids IDGenerator) models.Node {
	switch v := node.(type) {
	case *models.Task:
		c := models.CloneNode(v).(*models.Task)
		c.ID = ids.NewID()
		for i := range c.Episodes {
			c.Episodes[i].ID = ids.NewID()
		}
		return c
	case *models.TaskSet:
		c := *v
		c.ID = ids.NewID()
		c.Children = make([]models.Node, 0, len(v.Children))
		for _, child := range v.Children {
			c.Children = append(c.Children, RegenerateIDs(child, ids))
		}
		return &c
	}
	return nil
}

// ProcessImportData combines the incoming board with the existing one.
//
// Replace returns the incoming forest. Merge appends the incoming roots
// after the existing roots; when ids collide, resolution decides:
// overwrite drops the colliding nodes from the existing forest at any
// depth, keep_old drops the colliding incoming nodes, and regenerate_id
// gives each colliding incoming subtree fresh ids. Neither input is
// modified.
func ProcessImportData(existing, incoming models.AppState, mode models.ImportMode, resolution models.ConflictResolution, ids IDGenerator) (models.AppState, error) {
	switch mode {
	case models.ImportReplace:
		return models.AppState{Version: models.VersionV2, Children: models.CloneNodes(incoming.Children)}, nil
	case models.ImportMerge:
	default:
		return models.AppState{}, fmt.Errorf("%w: %q", ErrUnknownImportMode, mode)
	}

	old := models.CloneNodes(existing.Children)
	incomingRoots := models.CloneNodes(incoming.Children)

	info := DetectConflicts(old, incomingRoots)
	if info.HasConflicts {
		conflicting := make(map[string]struct{}, len(info.Conflicts))
		for _, c := range info.Conflicts {
			conflicting[c.ID] = struct{}{}
		}
		switch resolution {
		case models.ResolveNone:
			return models.AppState{}, ErrConflictResolutionRequired
		case models.ResolveOverwrite:
			old = pruneIDs(old, conflicting)
		case models.ResolveKeepOld:
			incomingRoots = pruneIDs(incomingRoots, conflicting)
		case models.ResolveRegenerate:
			if ids == nil {
				ids = NewIDGenerator()
			}
			incomingRoots = regenerateConflicting(incomingRoots, conflicting, ids)
		default:
			return models.AppState{}, fmt.Errorf("%w: %q", ErrUnknownResolution, resolution)
		}
	}

	children := make([]models.Node, 0, len(old)+len(incomingRoots))
	children = append(children, old...)
	children = append(children, incomingRoots...)
	return models.AppState{Version: models.VersionV2, Children: children}, nil
}

// regenerateConflicting replaces each colliding node, with its subtree, by
// a copy carrying fresh ids. Non-colliding sets are searched recursively.
func regenerateConflicting(nodes []models.Node, conflicting map[string]struct{}, ids IDGenerator) []models.Node {
	out := make([]models.Node, 0, len(nodes))
	for _, n := range nodes {
		if _, hit := conflicting[n.NodeID()]; hit {
			out = append(out, RegenerateIDs(n, ids))
			continue
		}
		if set, ok := models.AsTaskSet(n); ok {
			set.Children = regenerateConflicting(set.Children, conflicting, ids)
		}
		out = append(out, n)
	}
	return out
}
