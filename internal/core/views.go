package core

import (
	"fmt"

	"github.com/valter-silva-au/known-board/pkg/models"
)

// ParseView converts a view name, accepting the empty string as pending.
func ParseView(s string) (models.ViewName, error) {
	switch v := models.ViewName(s); v {
	case "":
		return models.ViewPending, nil
	case models.ViewPending, models.ViewCompleted, models.ViewAll, models.ViewArchived:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q, must be one of: pending, completed, all, archived", s)
	}
}

// NotHidden is the visibility predicate shared by the task views. Used
// with Filter it hides every descendant of a hidden TaskSet.
func NotHidden(n models.Node) bool {
	set, ok := models.AsTaskSet(n)
	return !ok || !set.Hidden
}

// ApplyView returns a filtered copy of the forest for the named view.
// TaskSets are always kept by the task views unless hidden, in which case
// their subtree is dropped; includeHidden keeps hidden sets. The archived
// view returns the outermost hidden sets with their full subtrees.
func ApplyView(roots []models.Node, view models.ViewName, includeHidden bool) []models.Node {
	if view == models.ViewArchived {
		return archived(roots)
	}

	var keepTask func(*models.Task) bool
	switch view {
	case models.ViewCompleted:
		keepTask = func(t *models.Task) bool { return t.Completed }
	case models.ViewAll:
		keepTask = func(*models.Task) bool { return true }
	default:
		keepTask = func(t *models.Task) bool { return !t.Completed }
	}

	return Filter(roots, func(n models.Node) bool {
		switch v := n.(type) {
		case *models.Task:
			return keepTask(v)
		case *models.TaskSet:
			return includeHidden || !v.Hidden
		}
		return false
	})
}

func archived(roots []models.Node) []models.Node {
	out := []models.Node{}
	for _, n := range roots {
		set, ok := models.AsTaskSet(n)
		if !ok {
			continue
		}
		if set.Hidden {
			out = append(out, models.CloneNode(set))
			continue
		}
		out = append(out, archived(set.Children)...)
	}
	return out
}

// BoardStats summarizes a forest.
type BoardStats struct {
	Tasks     int `json:"tasks" yaml:"tasks"`
	Completed int `json:"completed" yaml:"completed"`
	TaskSets  int `json:"task_sets" yaml:"task_sets"`
	Hidden    int `json:"hidden" yaml:"hidden"`
	Episodes  int `json:"episodes" yaml:"episodes"`
}

// Stats counts the nodes of a forest at every depth.
func Stats(roots []models.Node) BoardStats {
	var s BoardStats
	Traverse(roots, func(n models.Node) {
		switch v := n.(type) {
		case *models.Task:
			s.Tasks++
			if v.Completed {
				s.Completed++
			}
			s.Episodes += len(v.Episodes)
		case *models.TaskSet:
			s.TaskSets++
			if v.Hidden {
				s.Hidden++
			}
		}
	})
	return s
}
