package models

import (
	"encoding/json"
	"fmt"
)

// NodeType is the discriminant written as "type" in the 2.0 wire format.
type NodeType string

const (
	NodeTypeTask    NodeType = "task"
	NodeTypeTaskSet NodeType = "taskSet"
)

// Node is a member of the board tree, implemented by *Task and *TaskSet.
type Node interface {
	NodeID() string
	NodeTitle() string
	NodeType() NodeType
	base() *NodeBase
}

// NodeBase holds the fields shared by every node variant.
type NodeBase struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

func (b *NodeBase) NodeID() string    { return b.ID }
func (b *NodeBase) NodeTitle() string { return b.Title }
func (b *NodeBase) base() *NodeBase   { return b }

// Task is a leaf work item. It never has child nodes, only episodes.
type Task struct {
	NodeBase
	Completed bool      `json:"completed" yaml:"completed"`
	Deadline  string    `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	VideoURL  string    `json:"videoUrl,omitempty" yaml:"video_url,omitempty"`
	Episodes  []Episode `json:"episodes" yaml:"episodes"`
}

// NodeType reports NodeTypeTask.
func (t *Task) NodeType() NodeType { return NodeTypeTask }

// TaskSet is a folder of nodes. Hidden archives the set and, by inheritance,
// everything underneath it; the flag is never copied onto descendants.
type TaskSet struct {
	NodeBase
	Hidden   bool   `json:"hidden" yaml:"hidden"`
	Children []Node `json:"children" yaml:"children"`
}

// NodeType reports NodeTypeTaskSet.
func (s *TaskSet) NodeType() NodeType { return NodeTypeTaskSet }

// Base exposes the shared fields of any node for in-place edits.
func Base(n Node) *NodeBase {
	return n.base()
}

// AsTask returns the node as a *Task when it is one.
func AsTask(n Node) (*Task, bool) {
	t, ok := n.(*Task)
	return t, ok
}

// AsTaskSet returns the node as a *TaskSet when it is one.
func AsTaskSet(n Node) (*TaskSet, bool) {
	s, ok := n.(*TaskSet)
	return s, ok
}

// IsTaskSet reports whether n is a TaskSet.
func IsTaskSet(n Node) bool {
	_, ok := n.(*TaskSet)
	return ok
}

// NodeRecord is the flat wire shape of a node, used for JSON decoding and
// for YAML/JSON rendering. Variant-specific fields are pointers so that a
// record can represent either variant without inventing defaults.
type NodeRecord struct {
	ID          string       `json:"id" yaml:"id"`
	Type        NodeType     `json:"type" yaml:"type"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Completed   *bool        `json:"completed,omitempty" yaml:"completed,omitempty"`
	Deadline    string       `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	VideoURL    string       `json:"videoUrl,omitempty" yaml:"video_url,omitempty"`
	Episodes    []Episode    `json:"episodes,omitempty" yaml:"episodes,omitempty"`
	Hidden      *bool        `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Children    []NodeRecord `json:"children,omitempty" yaml:"children,omitempty"`
}

// ToRecord converts a node subtree into its wire record.
func ToRecord(n Node) NodeRecord {
	switch v := n.(type) {
	case *Task:
		done := v.Completed
		return NodeRecord{
			ID:          v.ID,
			Type:        NodeTypeTask,
			Title:       v.Title,
			Description: v.Description,
			Completed:   &done,
			Deadline:    v.Deadline,
			VideoURL:    v.VideoURL,
			Episodes:    CloneEpisodes(v.Episodes),
		}
	case *TaskSet:
		hidden := v.Hidden
		return NodeRecord{
			ID:          v.ID,
			Type:        NodeTypeTaskSet,
			Title:       v.Title,
			Description: v.Description,
			Hidden:      &hidden,
			Children:    ToRecords(v.Children),
		}
	}
	return NodeRecord{}
}

// ToRecords converts a forest into wire records, preserving order.
func ToRecords(nodes []Node) []NodeRecord {
	out := make([]NodeRecord, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, ToRecord(n))
	}
	return out
}

// FromRecord converts a wire record into a node. Children on a task record
// are ignored since tasks are leaves.
func FromRecord(r NodeRecord) (Node, error) {
	switch r.Type {
	case NodeTypeTask:
		t := &Task{
			NodeBase: NodeBase{ID: r.ID, Title: r.Title, Description: r.Description},
			Deadline: r.Deadline,
			VideoURL: r.VideoURL,
			Episodes: CloneEpisodes(r.Episodes),
		}
		if r.Completed != nil {
			t.Completed = *r.Completed
		}
		return t, nil
	case NodeTypeTaskSet:
		children, err := FromRecords(r.Children)
		if err != nil {
			return nil, err
		}
		s := &TaskSet{
			NodeBase: NodeBase{ID: r.ID, Title: r.Title, Description: r.Description},
			Children: children,
		}
		if r.Hidden != nil {
			s.Hidden = *r.Hidden
		}
		return s, nil
	default:
		return nil, fmt.Errorf("node %q: unknown type %q", r.ID, r.Type)
	}
}

// FromRecords converts wire records into a forest, preserving order.
func FromRecords(records []NodeRecord) ([]Node, error) {
	out := make([]Node, 0, len(records))
	for _, r := range records {
		n, err := FromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

type taskWire struct {
	ID          string    `json:"id"`
	Type        NodeType  `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	Deadline    string    `json:"deadline,omitempty"`
	VideoURL    string    `json:"videoUrl,omitempty"`
	Episodes    []Episode `json:"episodes"`
}

type taskSetWire struct {
	ID          string   `json:"id"`
	Type        NodeType `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Hidden      bool     `json:"hidden"`
	Children    []Node   `json:"children"`
}

// MarshalJSON writes the task with its "type" discriminant.
func (t *Task) MarshalJSON() ([]byte, error) {
	episodes := t.Episodes
	if episodes == nil {
		episodes = []Episode{}
	}
	return json.Marshal(taskWire{
		ID:          t.ID,
		Type:        NodeTypeTask,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Deadline:    t.Deadline,
		VideoURL:    t.VideoURL,
		Episodes:    episodes,
	})
}

// MarshalJSON writes the set with its "type" discriminant and nested children.
func (s *TaskSet) MarshalJSON() ([]byte, error) {
	children := s.Children
	if children == nil {
		children = []Node{}
	}
	return json.Marshal(taskSetWire{
		ID:          s.ID,
		Type:        NodeTypeTaskSet,
		Title:       s.Title,
		Description: s.Description,
		Hidden:      s.Hidden,
		Children:    children,
	})
}

// MarshalYAML renders the task as its wire record.
func (t *Task) MarshalYAML() (interface{}, error) { return ToRecord(t), nil }

// MarshalYAML renders the set as its wire record.
func (s *TaskSet) MarshalYAML() (interface{}, error) { return ToRecord(s), nil }

// CloneNode deep-copies a node subtree so the copy shares no slices with the
// original.
func CloneNode(n Node) Node {
	switch v := n.(type) {
	case *Task:
		c := *v
		c.Episodes = CloneEpisodes(v.Episodes)
		return &c
	case *TaskSet:
		c := *v
		c.Children = CloneNodes(v.Children)
		return &c
	}
	return nil
}

// CloneNodes deep-copies a forest.
func CloneNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = CloneNode(n)
	}
	return out
}
