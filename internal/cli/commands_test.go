package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/known-board/pkg/models"
)

func TestAdd_TaskAtRoot(t *testing.T) {
	env := newTestEnv(t)

	out := mustRun(t, "add", "task", "Buy", "milk", "--deadline", "2026-01-02")
	if !strings.Contains(out, `Added task "Buy milk" (id-1)`) {
		t.Errorf("unexpected output: %s", out)
	}
	task, ok := models.AsTask(env.board.Node("id-1"))
	if !ok {
		t.Fatal("expected id-1 to be a task")
	}
	if task.Deadline != "2026-01-02" || task.Completed {
		t.Errorf("task = %+v", task)
	}
}

func TestAdd_SetAndNestedTask(t *testing.T) {
	env := newTestEnv(t)

	mustRun(t, "add", "set", "Projects")
	out := mustRun(t, "add", "task", "Ship it", "--parent", "id-1", "--description", "soon")
	if !strings.Contains(out, `Added task "Ship it" to "Projects" (id-2)`) {
		t.Errorf("unexpected output: %s", out)
	}
	set, ok := models.AsTaskSet(env.board.Node("id-1"))
	if !ok || len(set.Children) != 1 || set.Children[0].NodeID() != "id-2" {
		t.Fatalf("expected id-2 inside id-1, got %+v", set)
	}
}

func TestAdd_Rejects(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"blank title", []string{"add", "task", "  "}, "title must not be empty"},
		{"missing parent", []string{"add", "task", "x", "--parent", "nope"}, "node nope not found"},
		{"task parent", []string{"add", "set", "x", "--parent", "report"}, "report is a task, not a task set"},
		{"bad deadline", []string{"add", "task", "x", "--deadline", "tomorrow"}, "invalid deadline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			expectErrContains(t, err, tt.want)
		})
	}
}

func TestList_Views(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "pending default",
			args:    []string{"list"},
			want:    []string{"Write report", "Deep task", "[1/2 episodes]"},
			notWant: []string{"Chores", "Old thing"},
		},
		{
			name:    "completed",
			args:    []string{"list", "--view", "completed"},
			want:    []string{"Chores"},
			notWant: []string{"Write report"},
		},
		{
			name: "all with hidden",
			args: []string{"list", "--view", "all", "--include-hidden"},
			want: []string{"Write report", "Chores", "Old thing", "Attic (archived)"},
		},
		{
			name:    "archived",
			args:    []string{"list", "--view", "archived"},
			want:    []string{"Old thing"},
			notWant: []string{"Write report"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustRun(t, tt.args...)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("expected %q in output:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("did not expect %q in output:\n%s", w, out)
				}
			}
		})
	}
}

func TestList_EmptyBoard(t *testing.T) {
	newTestEnv(t)

	out := mustRun(t, "list")
	if !strings.Contains(out, "No pending items.") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestList_UsesConfiguredDefaultView(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)
	Config.DefaultView = models.ViewCompleted

	out := mustRun(t, "list")
	if !strings.Contains(out, "Chores") || strings.Contains(out, "Write report") {
		t.Errorf("expected completed view:\n%s", out)
	}
}

func TestList_JSONOutput(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	out := mustRun(t, "list", "--view", "all", "-o", "json")
	var records []models.NodeRecord
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if len(records) != 2 || records[0].ID != "work" || records[1].ID != "chores" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestList_BadFlags(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	_, err := runCLI(t, "list", "--view", "someday")
	if err == nil {
		t.Error("expected error for unknown view")
	}
	_, err = runCLI(t, "list", "-o", "xml")
	expectErrContains(t, err, "unknown output format")
}

func TestShow_Task(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	out := mustRun(t, "show", "report")
	for _, want := range []string{"Write report", "2025-06-30", "Episodes (1/2 done)", "Outline", "Episode 2", "Work"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestShow_InsideArchivedSet(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	out := mustRun(t, "show", "old")
	if !strings.Contains(out, "(inside an archived task set)") {
		t.Errorf("expected archived note:\n%s", out)
	}
	out = mustRun(t, "show", "attic")
	if strings.Contains(out, "(inside an archived task set)") {
		t.Errorf("archived set itself should not carry the note:\n%s", out)
	}
}

func TestShow_YAMLAndNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	out := mustRun(t, "show", "sub", "-o", "yaml")
	var rec models.NodeRecord
	if err := yaml.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("decoding yaml: %v", err)
	}
	if rec.ID != "sub" || rec.Type != models.NodeTypeTaskSet || len(rec.Children) != 1 {
		t.Errorf("unexpected record: %+v", rec)
	}

	_, err := runCLI(t, "show", "ghost")
	expectErrContains(t, err, "node ghost not found")
}

func TestUpdate_Fields(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	out := mustRun(t, "update", "report", "--title", "Final report", "--deadline", "")
	if !strings.Contains(out, `Updated task "Final report"`) {
		t.Errorf("unexpected output: %s", out)
	}
	task, _ := models.AsTask(env.board.Node("report"))
	if task.Title != "Final report" || task.Deadline != "" {
		t.Errorf("task = %+v", task)
	}
	if len(task.Episodes) != 2 {
		t.Errorf("episodes should be untouched, got %d", len(task.Episodes))
	}
}

func TestUpdate_Rejects(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"nothing", []string{"update", "report"}, "nothing to update"},
		{"empty title", []string{"update", "report", "--title", ""}, "title must not be empty"},
		{"set deadline", []string{"update", "work", "--deadline", "2026-01-01"}, "apply to tasks only"},
		{"bad deadline", []string{"update", "report", "--deadline", "soon"}, "invalid deadline"},
		{"missing", []string{"update", "ghost", "--title", "x"}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			expectErrContains(t, err, tt.want)
		})
	}
}

func TestDelete_RequiresYesForNonEmptySet(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	_, err := runCLI(t, "delete", "work")
	expectErrContains(t, err, "contains 3 nodes; pass --yes")
	if env.board.Node("work") == nil {
		t.Fatal("work should still exist")
	}

	out := mustRun(t, "delete", "work", "--yes")
	if !strings.Contains(out, `Deleted task set "Work"`) {
		t.Errorf("unexpected output: %s", out)
	}
	for _, id := range []string{"work", "report", "sub", "deep"} {
		if env.board.Node(id) != nil {
			t.Errorf("%s should be gone", id)
		}
	}
}

func TestDelete_Task(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	mustRun(t, "rm", "chores")
	if env.board.Node("chores") != nil {
		t.Error("chores should be deleted")
	}
}

func TestMove(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	out := mustRun(t, "move", "chores", "--parent", "sub", "--index", "0")
	if !strings.Contains(out, `Moved "Chores" to "Sub project"`) {
		t.Errorf("unexpected output: %s", out)
	}
	sub, _ := models.AsTaskSet(env.board.Node("sub"))
	if len(sub.Children) != 2 || sub.Children[0].NodeID() != "chores" {
		t.Errorf("expected chores first in sub, got %v", sub.Children)
	}

	out = mustRun(t, "move", "deep")
	if !strings.Contains(out, `Moved "Deep task" to the top level`) {
		t.Errorf("unexpected output: %s", out)
	}
	roots := env.board.State().Children
	if roots[len(roots)-1].NodeID() != "deep" {
		t.Errorf("expected deep appended at root")
	}
}

func TestMove_Rejects(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"into self", []string{"move", "work", "--parent", "work"}, "into itself or one of its descendants"},
		{"into descendant", []string{"move", "work", "--parent", "sub"}, "into itself or one of its descendants"},
		{"into task", []string{"move", "deep", "--parent", "report"}, "is a task, not a task set"},
		{"negative index", []string{"move", "deep", "--index", "-1"}, "must not be negative"},
		{"missing", []string{"move", "ghost"}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			expectErrContains(t, err, tt.want)
		})
	}
}

func TestDone_Toggles(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	out := mustRun(t, "done", "deep")
	if !strings.Contains(out, `Completed "Deep task"`) {
		t.Errorf("unexpected output: %s", out)
	}
	task, _ := models.AsTask(env.board.Node("deep"))
	if !task.Completed {
		t.Fatal("deep should be completed")
	}

	out = mustRun(t, "done", "deep")
	if !strings.Contains(out, `Moved "Deep task" back to pending`) {
		t.Errorf("unexpected output: %s", out)
	}

	_, err := runCLI(t, "done", "work")
	expectErrContains(t, err, "work is a task set, not a task")
}

func TestHide_Toggles(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	out := mustRun(t, "hide", "work")
	if !strings.Contains(out, `Archived "Work"`) {
		t.Errorf("unexpected output: %s", out)
	}
	out = mustRun(t, "archive", "work")
	if !strings.Contains(out, `Restored "Work"`) {
		t.Errorf("unexpected output: %s", out)
	}

	_, err := runCLI(t, "hide", "chores")
	expectErrContains(t, err, "chores is a task, not a task set")
}
