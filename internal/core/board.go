package core

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/valter-silva-au/known-board/pkg/models"
)

// UndoFunc restores the state an operation replaced. It is offered once.
type UndoFunc func() error

// UndoCapture receives a human-readable description of a completed
// operation and the closure that reverts it.
type UndoCapture func(message string, undo UndoFunc)

// MovePosition is the destination of MoveNode. An empty ParentID targets
// the root sequence; a nil Index appends.
type MovePosition struct {
	ParentID string
	Index    *int
}

// BoardManager owns the live board and is its only write path. Every
// mutating call is atomic: the change is applied to a copy, persisted, and
// only then made visible. Invalid targets are no-ops that log a warning;
// errors are returned only when persistence fails.
type BoardManager interface {
	Load() error
	State() models.AppState
	Node(id string) models.Node

	AddRootNode(node models.Node) error
	AddChildNode(parentID string, node models.Node) error
	UpdateNode(id string, upd models.NodeUpdate) error
	DeleteNode(id string) error
	MoveNode(id string, pos MovePosition) error

	ToggleTaskCompletion(id string, onUndo UndoCapture) error
	ToggleTaskSetHidden(id string, onUndo UndoCapture) error
	BatchRenameEpisodes(taskID string, names []string, onUndo UndoCapture) error

	AddEpisodes(taskID string, count int) ([]models.Episode, error)
	UpdateEpisode(taskID, episodeID string, upd models.EpisodeUpdate) error
	ToggleEpisode(taskID, episodeID string) error
	DeleteEpisode(taskID, episodeID string) error

	ReplaceState(state models.AppState) error
	Clear() error
}

type boardManager struct {
	mu       sync.Mutex
	store    BlobStore
	versions VersionManager
	ids      IDGenerator
	logger   EventLogger
	state    models.AppState
}

// NewBoardManager creates a BoardManager persisting through store. The
// board starts empty until Load is called. logger may be nil.
func NewBoardManager(store BlobStore, versions VersionManager, ids IDGenerator, logger EventLogger) BoardManager {
	if versions == nil {
		versions = NewVersionManager(logger, nil)
	}
	if ids == nil {
		ids = NewIDGenerator()
	}
	return &boardManager{
		store:    store,
		versions: versions,
		ids:      ids,
		logger:   logger,
		state:    DefaultAppState(),
	}
}

// Load reads the stored blob and runs it through the version manager. An
// absent blob gives an empty board; a malformed one gives an empty board
// and a warning. A 1.0 blob that migrates cleanly is written back in the
// 2.0 shape.
func (m *boardManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("loading board: %w", err)
	}
	if len(data) == 0 {
		m.state = DefaultAppState()
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		logWarn(m.logger, EventFallbackDefault, "stored board is not valid JSON, starting from an empty board", map[string]any{
			"error": err.Error(),
		})
		m.state = DefaultAppState()
		return nil
	}

	m.state = m.versions.LoadAppData(raw)
	if DetectVersion(raw) == models.VersionV1 {
		// A failed migration leaves the stored 1.0 blob untouched.
		if _, err := DecodeAppData(raw); err != nil {
			return nil
		}
		if err := m.persist(m.state); err != nil {
			return fmt.Errorf("saving migrated board: %w", err)
		}
	}
	return nil
}

func (m *boardManager) State() models.AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Node returns a copy of the node with the given id, or nil.
func (m *boardManager) Node(id string) models.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := FindNode(m.state.Children, id)
	if n == nil {
		return nil
	}
	return models.CloneNode(n)
}

func (m *boardManager) persist(state models.AppState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding board: %w", err)
	}
	if err := m.store.Save(data); err != nil {
		return fmt.Errorf("saving board: %w", err)
	}
	return nil
}

// mutate runs fn against a copy of the state. When fn reports a change the
// copy is persisted and becomes the live state. It reports whether the
// change was committed.
func (m *boardManager) mutate(fn func(work *models.AppState) bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.Clone()
	if !fn(&work) {
		return false, nil
	}
	if err := m.persist(work); err != nil {
		return false, err
	}
	m.state = work
	return true, nil
}

func (m *boardManager) notFound(op, id string) {
	logWarn(m.logger, EventNodeNotFound, fmt.Sprintf("%s: node %s not found", op, id), map[string]any{
		"op": op,
		"id": id,
	})
}

func (m *boardManager) AddRootNode(node models.Node) error {
	if node == nil {
		return nil
	}
	added, err := m.mutate(func(work *models.AppState) bool {
		work.Children = append(work.Children, models.CloneNode(node))
		return true
	})
	if err != nil {
		return fmt.Errorf("adding node %s: %w", node.NodeID(), err)
	}
	if added {
		logInfo(m.logger, EventNodeAdded, map[string]any{"id": node.NodeID(), "type": string(node.NodeType())})
	}
	return nil
}

func (m *boardManager) AddChildNode(parentID string, node models.Node) error {
	if node == nil {
		return nil
	}
	added, err := m.mutate(func(work *models.AppState) bool {
		set, ok := m.findTaskSet(work, "add child", parentID)
		if !ok {
			return false
		}
		set.Children = append(set.Children, models.CloneNode(node))
		return true
	})
	if err != nil {
		return fmt.Errorf("adding node %s under %s: %w", node.NodeID(), parentID, err)
	}
	if added {
		logInfo(m.logger, EventNodeAdded, map[string]any{
			"id":        node.NodeID(),
			"type":      string(node.NodeType()),
			"parent_id": parentID,
		})
	}
	return nil
}

func (m *boardManager) UpdateNode(id string, upd models.NodeUpdate) error {
	updated, err := m.mutate(func(work *models.AppState) bool {
		n := FindNode(work.Children, id)
		if n == nil {
			m.notFound("update", id)
			return false
		}
		applyNodeUpdate(n, upd)
		return true
	})
	if err != nil {
		return fmt.Errorf("updating node %s: %w", id, err)
	}
	if updated {
		logInfo(m.logger, EventNodeUpdated, map[string]any{"id": id})
	}
	return nil
}

// applyNodeUpdate merges the set fields of upd onto n. Fields belonging to
// the other variant are ignored.
func applyNodeUpdate(n models.Node, upd models.NodeUpdate) {
	base := models.Base(n)
	if upd.Title != nil {
		base.Title = *upd.Title
	}
	if upd.Description != nil {
		base.Description = *upd.Description
	}
	switch v := n.(type) {
	case *models.Task:
		if upd.Completed != nil {
			v.Completed = *upd.Completed
		}
		if upd.Deadline != nil {
			v.Deadline = *upd.Deadline
		}
		if upd.VideoURL != nil {
			v.VideoURL = *upd.VideoURL
		}
		if upd.Episodes != nil {
			v.Episodes = models.CloneEpisodes(upd.Episodes)
		}
	case *models.TaskSet:
		if upd.Hidden != nil {
			v.Hidden = *upd.Hidden
		}
	}
}

func (m *boardManager) DeleteNode(id string) error {
	deleted, err := m.mutate(func(work *models.AppState) bool {
		roots, removed := removeNode(work.Children, id)
		if removed == nil {
			m.notFound("delete", id)
			return false
		}
		work.Children = roots
		return true
	})
	if err != nil {
		return fmt.Errorf("deleting node %s: %w", id, err)
	}
	if deleted {
		logInfo(m.logger, EventNodeDeleted, map[string]any{"id": id})
	}
	return nil
}

func (m *boardManager) MoveNode(id string, pos MovePosition) error {
	reject := func(reason string) {
		logWarn(m.logger, EventMoveRejected, fmt.Sprintf("move %s: %s", id, reason), map[string]any{
			"id":        id,
			"parent_id": pos.ParentID,
		})
	}
	moved, err := m.mutate(func(work *models.AppState) bool {
		node := FindNode(work.Children, id)
		if node == nil {
			reject("node not found")
			return false
		}
		if pos.ParentID != "" {
			target := FindNode(work.Children, pos.ParentID)
			if target == nil {
				reject("target " + pos.ParentID + " not found")
				return false
			}
			if !models.IsTaskSet(target) {
				reject("target " + pos.ParentID + " is a task")
				return false
			}
			if IsDescendant(node, pos.ParentID) {
				reject("target " + pos.ParentID + " is inside the moved node")
				return false
			}
		}

		roots, removed := removeNode(work.Children, id)
		work.Children = roots
		removed = models.CloneNode(removed)

		if pos.ParentID == "" {
			work.Children = insertAt(work.Children, indexOr(pos.Index, len(work.Children)), removed)
			return true
		}
		target, _ := models.AsTaskSet(FindNode(work.Children, pos.ParentID))
		target.Children = insertAt(target.Children, indexOr(pos.Index, len(target.Children)), removed)
		return true
	})
	if err != nil {
		return fmt.Errorf("moving node %s: %w", id, err)
	}
	if moved {
		data := map[string]any{"id": id, "parent_id": pos.ParentID}
		if pos.Index != nil {
			data["index"] = *pos.Index
		}
		logInfo(m.logger, EventNodeMoved, data)
	}
	return nil
}

func indexOr(index *int, fallback int) int {
	if index == nil {
		return fallback
	}
	return *index
}

func (m *boardManager) ToggleTaskCompletion(id string, onUndo UndoCapture) error {
	var title string
	var previous bool
	toggled, err := m.mutate(func(work *models.AppState) bool {
		task, ok := m.findTask(work, "toggle completion", id)
		if !ok {
			return false
		}
		title, previous = task.Title, task.Completed
		task.Completed = !task.Completed
		return true
	})
	if err != nil {
		return fmt.Errorf("toggling task %s: %w", id, err)
	}
	if !toggled {
		return nil
	}
	logInfo(m.logger, EventTaskToggled, map[string]any{"id": id, "completed": !previous})
	if onUndo != nil {
		msg := fmt.Sprintf("Completed %q", title)
		if previous {
			msg = fmt.Sprintf("Moved %q back to pending", title)
		}
		onUndo(msg, func() error {
			return m.UpdateNode(id, models.NodeUpdate{Completed: models.BoolPtr(previous)})
		})
	}
	return nil
}

func (m *boardManager) ToggleTaskSetHidden(id string, onUndo UndoCapture) error {
	var title string
	var previous bool
	toggled, err := m.mutate(func(work *models.AppState) bool {
		set, ok := m.findTaskSet(work, "toggle hidden", id)
		if !ok {
			return false
		}
		title, previous = set.Title, set.Hidden
		set.Hidden = !set.Hidden
		return true
	})
	if err != nil {
		return fmt.Errorf("toggling task set %s: %w", id, err)
	}
	if !toggled {
		return nil
	}
	logInfo(m.logger, EventSetToggled, map[string]any{"id": id, "hidden": !previous})
	if onUndo != nil {
		msg := fmt.Sprintf("Archived %q", title)
		if previous {
			msg = fmt.Sprintf("Restored %q", title)
		}
		onUndo(msg, func() error {
			return m.UpdateNode(id, models.NodeUpdate{Hidden: models.BoolPtr(previous)})
		})
	}
	return nil
}

func (m *boardManager) BatchRenameEpisodes(taskID string, names []string, onUndo UndoCapture) error {
	var title string
	var previous []models.Episode
	renamed := 0
	applied, err := m.mutate(func(work *models.AppState) bool {
		task, ok := m.findTask(work, "rename episodes", taskID)
		if !ok {
			return false
		}
		title = task.Title
		previous = models.CloneEpisodes(task.Episodes)
		for i := range task.Episodes {
			if i >= len(names) {
				break
			}
			if names[i] != "" {
				task.Episodes[i].Title = names[i]
				renamed++
			}
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("renaming episodes of %s: %w", taskID, err)
	}
	if !applied {
		return nil
	}
	logInfo(m.logger, EventEpisodesChanged, map[string]any{"id": taskID, "op": "rename", "renamed": renamed})
	if onUndo != nil {
		onUndo(fmt.Sprintf("Renamed %d episodes of %q", renamed, title), func() error {
			return m.UpdateNode(taskID, models.NodeUpdate{Episodes: previous})
		})
	}
	return nil
}

// ReplaceState swaps in a whole new board, as done by import.
func (m *boardManager) ReplaceState(state models.AppState) error {
	next := state.Clone()
	next.Version = models.VersionV2
	if next.Children == nil {
		next.Children = []models.Node{}
	}
	_, err := m.mutate(func(work *models.AppState) bool {
		*work = next
		return true
	})
	if err != nil {
		return fmt.Errorf("replacing board: %w", err)
	}
	logInfo(m.logger, EventStateReplaced, map[string]any{"nodes": CountNodes(next.Children)})
	return nil
}

// Clear empties the store and resets the board.
func (m *boardManager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("clearing board: %w", err)
	}
	m.state = DefaultAppState()
	logInfo(m.logger, EventStateCleared, nil)
	return nil
}
