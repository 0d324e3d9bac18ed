package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/known-board/internal/core"
	"github.com/valter-silva-au/known-board/pkg/models"
)

// Output formats accepted by --output.
const (
	outputTree = "tree"
	outputJSON = "json"
	outputYAML = "yaml"
)

func requireBoard() error {
	if BoardMgr == nil {
		return fmt.Errorf("board not initialized")
	}
	return nil
}

func ids() core.IDGenerator {
	if IDGen == nil {
		IDGen = core.NewIDGenerator()
	}
	return IDGen
}

// lookupNode returns the node with id or a user-facing error.
func lookupNode(id string) (models.Node, error) {
	n := BoardMgr.Node(id)
	if n == nil {
		return nil, fmt.Errorf("node %s not found", id)
	}
	return n, nil
}

func lookupTask(id string) (*models.Task, error) {
	n, err := lookupNode(id)
	if err != nil {
		return nil, err
	}
	task, ok := models.AsTask(n)
	if !ok {
		return nil, fmt.Errorf("%s is a task set, not a task", id)
	}
	return task, nil
}

func lookupTaskSet(id string) (*models.TaskSet, error) {
	n, err := lookupNode(id)
	if err != nil {
		return nil, err
	}
	set, ok := models.AsTaskSet(n)
	if !ok {
		return nil, fmt.Errorf("%s is a task, not a task set", id)
	}
	return set, nil
}

// lookupEpisode resolves ref as an episode id or a 1-based episode number.
func lookupEpisode(task *models.Task, ref string) (models.Episode, error) {
	for _, ep := range task.Episodes {
		if ep.ID == ref {
			return ep, nil
		}
	}
	if number, err := strconv.Atoi(ref); err == nil {
		for _, ep := range task.Episodes {
			if ep.Number == number {
				return ep, nil
			}
		}
	}
	return models.Episode{}, fmt.Errorf("episode %s not found on task %s", ref, task.ID)
}

// printUndo reports an undoable change. The closure itself is dropped since
// each CLI invocation is a single action.
func printUndo(w io.Writer) core.UndoCapture {
	return func(message string, _ core.UndoFunc) {
		fmt.Fprintln(w, message)
	}
}

func validateOutput(format string) error {
	switch format {
	case outputTree, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q, must be one of: tree, json, yaml", format)
	}
}

// writeRecords renders nodes as JSON or YAML wire records.
func writeRecords(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("formatting as JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("formatting as YAML: %w", err)
		}
		_, err = io.WriteString(w, string(data))
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func trimmedTitle(args []string) (string, error) {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return "", fmt.Errorf("title must not be empty")
	}
	return title, nil
}
