package core

import (
	"fmt"

	"github.com/valter-silva-au/known-board/pkg/models"
)

// findTask resolves id to a Task in the working tree, logging a warning
// when it is missing or names a TaskSet.
func (m *boardManager) findTask(work *models.AppState, op, id string) (*models.Task, bool) {
	n := FindNode(work.Children, id)
	if n == nil {
		m.notFound(op, id)
		return nil, false
	}
	task, ok := models.AsTask(n)
	if !ok {
		m.wrongType(op, id, models.NodeTypeTask)
		return nil, false
	}
	return task, true
}

// findTaskSet is findTask for TaskSets.
func (m *boardManager) findTaskSet(work *models.AppState, op, id string) (*models.TaskSet, bool) {
	n := FindNode(work.Children, id)
	if n == nil {
		m.notFound(op, id)
		return nil, false
	}
	set, ok := models.AsTaskSet(n)
	if !ok {
		m.wrongType(op, id, models.NodeTypeTaskSet)
		return nil, false
	}
	return set, true
}

func (m *boardManager) wrongType(op, id string, want models.NodeType) {
	logWarn(m.logger, EventInvalidTarget, fmt.Sprintf("%s: %s is not a %s", op, id, want), map[string]any{
		"op":   op,
		"id":   id,
		"want": string(want),
	})
}

func findEpisode(task *models.Task, episodeID string) int {
	for i, ep := range task.Episodes {
		if ep.ID == episodeID {
			return i
		}
	}
	return -1
}

// renumberEpisodes restores the 1..N numbering in array order.
func renumberEpisodes(eps []models.Episode) {
	for i := range eps {
		eps[i].Number = i + 1
	}
}

// AddEpisodes appends count new episodes numbered after the existing ones
// and returns them.
func (m *boardManager) AddEpisodes(taskID string, count int) ([]models.Episode, error) {
	if count <= 0 {
		logWarn(m.logger, EventInvalidTarget, fmt.Sprintf("add episodes: count must be positive, got %d", count), map[string]any{
			"id":    taskID,
			"count": count,
		})
		return nil, nil
	}
	var added []models.Episode
	applied, err := m.mutate(func(work *models.AppState) bool {
		task, ok := m.findTask(work, "add episodes", taskID)
		if !ok {
			return false
		}
		start := len(task.Episodes)
		added = make([]models.Episode, 0, count)
		for i := 0; i < count; i++ {
			number := start + i + 1
			added = append(added, models.Episode{
				ID:     m.ids.NewID(),
				Number: number,
				Title:  models.DefaultEpisodeTitle(number),
			})
		}
		task.Episodes = append(task.Episodes, added...)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("adding episodes to %s: %w", taskID, err)
	}
	if !applied {
		return nil, nil
	}
	logInfo(m.logger, EventEpisodesChanged, map[string]any{"id": taskID, "op": "add", "count": count})
	return added, nil
}

// UpdateEpisode merges the set fields of upd onto one episode.
func (m *boardManager) UpdateEpisode(taskID, episodeID string, upd models.EpisodeUpdate) error {
	applied, err := m.mutate(func(work *models.AppState) bool {
		task, ok := m.findTask(work, "update episode", taskID)
		if !ok {
			return false
		}
		i := findEpisode(task, episodeID)
		if i < 0 {
			m.notFound("update episode", episodeID)
			return false
		}
		ep := &task.Episodes[i]
		if upd.Title != nil {
			ep.Title = *upd.Title
		}
		if upd.Description != nil {
			ep.Description = *upd.Description
		}
		if upd.Deadline != nil {
			ep.Deadline = *upd.Deadline
		}
		if upd.VideoURL != nil {
			ep.VideoURL = *upd.VideoURL
		}
		if upd.Completed != nil {
			ep.Completed = *upd.Completed
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("updating episode %s of %s: %w", episodeID, taskID, err)
	}
	if applied {
		logInfo(m.logger, EventEpisodesChanged, map[string]any{"id": taskID, "op": "update", "episode_id": episodeID})
	}
	return nil
}

// ToggleEpisode flips one episode's completed flag. The task's own flag is
// not touched.
func (m *boardManager) ToggleEpisode(taskID, episodeID string) error {
	completed := false
	applied, err := m.mutate(func(work *models.AppState) bool {
		task, ok := m.findTask(work, "toggle episode", taskID)
		if !ok {
			return false
		}
		i := findEpisode(task, episodeID)
		if i < 0 {
			m.notFound("toggle episode", episodeID)
			return false
		}
		task.Episodes[i].Completed = !task.Episodes[i].Completed
		completed = task.Episodes[i].Completed
		return true
	})
	if err != nil {
		return fmt.Errorf("toggling episode %s of %s: %w", episodeID, taskID, err)
	}
	if applied {
		logInfo(m.logger, EventEpisodesChanged, map[string]any{
			"id":         taskID,
			"op":         "toggle",
			"episode_id": episodeID,
			"completed":  completed,
		})
	}
	return nil
}

// DeleteEpisode removes one episode and renumbers the rest.
func (m *boardManager) DeleteEpisode(taskID, episodeID string) error {
	applied, err := m.mutate(func(work *models.AppState) bool {
		task, ok := m.findTask(work, "delete episode", taskID)
		if !ok {
			return false
		}
		i := findEpisode(task, episodeID)
		if i < 0 {
			m.notFound("delete episode", episodeID)
			return false
		}
		eps := make([]models.Episode, 0, len(task.Episodes)-1)
		eps = append(eps, task.Episodes[:i]...)
		eps = append(eps, task.Episodes[i+1:]...)
		renumberEpisodes(eps)
		task.Episodes = eps
		return true
	})
	if err != nil {
		return fmt.Errorf("deleting episode %s of %s: %w", episodeID, taskID, err)
	}
	if applied {
		logInfo(m.logger, EventEpisodesChanged, map[string]any{"id": taskID, "op": "delete", "episode_id": episodeID})
	}
	return nil
}
