package cli

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/known-board/internal/core"
	"github.com/valter-silva-au/known-board/pkg/models"
)

func fixNow(t *testing.T, at time.Time) {
	t.Helper()
	orig := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = orig })
}

func notInteractive(t *testing.T) {
	t.Helper()
	orig := interactive
	interactive = func() bool { return false }
	t.Cleanup(func() { interactive = orig })
}

func writeExport(t *testing.T, roots ...models.Node) string {
	t.Helper()
	data, err := Exchange.ExportJSON(models.AppState{Version: models.VersionV2, Children: roots})
	if err != nil {
		t.Fatalf("exporting: %v", err)
	}
	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExport_DefaultFileName(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)
	fixNow(t, time.Date(2025, 6, 30, 14, 25, 1, 0, time.UTC))

	out := mustRun(t, "export")
	want := filepath.Join(env.dir, "exports", "known-board-export-2025-06-30-142501.json")
	if !strings.Contains(out, "Exported 7 nodes to "+want) {
		t.Errorf("unexpected output: %s", out)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	state, err := Exchange.ParseImport(data)
	if err != nil {
		t.Fatalf("parsing export: %v", err)
	}
	if core.CountNodes(state.Children) != 7 {
		t.Errorf("export holds %d nodes, want 7", core.CountNodes(state.Children))
	}
}

func TestExport_CompressedToPath(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	path := filepath.Join(t.TempDir(), "nested", "board.kbz")
	mustRun(t, "export", "-z", "--out", path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if strings.HasPrefix(string(data), "{") {
		t.Error("compressed export should not be plain JSON")
	}
	state, err := Exchange.ParseImport(data)
	if err != nil {
		t.Fatalf("parsing compressed export: %v", err)
	}
	if core.CountNodes(state.Children) != 7 {
		t.Errorf("export holds %d nodes, want 7", core.CountNodes(state.Children))
	}
}

func TestExport_Stdout(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	out := mustRun(t, "export", "--stdout")
	if !strings.Contains(out, `"exportedAt"`) || !strings.Contains(out, `"Deep task"`) {
		t.Errorf("expected envelope on stdout:\n%s", out)
	}

	_, err := runCLI(t, "export", "--stdout", "--clipboard")
	expectErrContains(t, err, "cannot be combined")
}

func TestExport_ClipboardRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	mustRun(t, "export", "--clipboard", "-z")
	if _, err := base64.StdEncoding.DecodeString(env.clipboard.text); err != nil {
		t.Fatalf("compressed clipboard export should be base64: %v", err)
	}

	mustRun(t, "reset", "--yes")
	out := mustRun(t, "import", "--paste")
	if !strings.Contains(out, "Imported 7 nodes from clipboard (merge); board now has 7 nodes") {
		t.Errorf("unexpected output: %s", out)
	}
	if env.board.Node("deep") == nil {
		t.Error("deep should be restored from the clipboard")
	}
}

func TestExport_ClipboardUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.clipboard.unavailable = true

	_, err := runCLI(t, "export", "--clipboard")
	expectErrContains(t, err, "clipboard is not available")
	_, err = runCLI(t, "import", "--paste")
	expectErrContains(t, err, "clipboard is not available")
}

func TestImport_MergeWithoutConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, core.NewTaskNode("mine", "Mine", "", "", ""))
	path := writeExport(t, sampleRoots()...)

	out := mustRun(t, "import", path)
	if !strings.Contains(out, "board now has 8 nodes") {
		t.Errorf("unexpected output: %s", out)
	}
	roots := env.board.State().Children
	if roots[0].NodeID() != "mine" || len(roots) != 4 {
		t.Errorf("expected existing node first then imported roots, got %d roots", len(roots))
	}
}

func TestImport_ConflictsNeedResolution(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)
	notInteractive(t)
	path := writeExport(t, sampleRoots()...)

	_, err := runCLI(t, "import", path)
	if !errors.Is(err, core.ErrConflictResolutionRequired) {
		t.Fatalf("expected ErrConflictResolutionRequired, got %v", err)
	}
	expectErrContains(t, err, "7 imported nodes already on the board")
	expectErrContains(t, err, "--on-conflict")
	if core.CountNodes(env.board.State().Children) != 7 {
		t.Error("board should be unchanged")
	}
}

func TestImport_Resolutions(t *testing.T) {
	tests := []struct {
		resolution string
		wantTotal  int
	}{
		{"overwrite", 7},
		{"keep_old", 7},
		{"regenerate_id", 14},
	}
	for _, tt := range tests {
		t.Run(tt.resolution, func(t *testing.T) {
			env := newTestEnv(t)
			env.seed(t, sampleRoots()...)
			notInteractive(t)

			renamed := sampleRoots()
			models.Base(renamed[2]).Title = "Imported chores"
			path := writeExport(t, renamed...)

			mustRun(t, "import", path, "--on-conflict", tt.resolution)
			if got := core.CountNodes(env.board.State().Children); got != tt.wantTotal {
				t.Errorf("board has %d nodes, want %d", got, tt.wantTotal)
			}
			title := env.board.Node("chores").NodeTitle()
			switch tt.resolution {
			case "overwrite":
				if title != "Imported chores" {
					t.Errorf("overwrite kept title %q", title)
				}
			default:
				if title != "Chores" {
					t.Errorf("%s changed title to %q", tt.resolution, title)
				}
			}
		})
	}
}

func TestImport_ReplaceRequiresYes(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)
	path := writeExport(t, core.NewTaskNode("fresh", "Fresh", "", "", ""))

	_, err := runCLI(t, "import", path, "--mode", "replace")
	expectErrContains(t, err, "pass --yes to confirm")

	out := mustRun(t, "import", path, "--mode", "replace", "--yes")
	if !strings.Contains(out, "board now has 1 node") {
		t.Errorf("unexpected output: %s", out)
	}
	if env.board.Node("work") != nil || env.board.Node("fresh") == nil {
		t.Error("replace should discard the old board")
	}
}

func TestImport_Rejects(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", []string{"import"}, "pass a file to import"},
		{"file and paste", []string{"import", bad, "--paste"}, "not both"},
		{"bad mode", []string{"import", bad, "--mode", "upsert"}, "must be replace or merge"},
		{"bad resolution", []string{"import", bad, "--on-conflict", "merge"}, "must be overwrite, keep_old or regenerate_id"},
		{"missing file", []string{"import", filepath.Join(t.TempDir(), "none.json")}, "reading import file"},
		{"malformed", []string{"import", bad}, "importing " + bad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			expectErrContains(t, err, tt.want)
		})
	}
}

func TestImport_LegacyFromStdin(t *testing.T) {
	env := newTestEnv(t)
	legacy := `{"version":"1.0","tasks":[{"id":"t1","title":"Legacy task","completed":false}],"taskSets":[]}`

	resetFlags(rootCmd)
	rootCmd.SetIn(strings.NewReader(legacy))
	var out strings.Builder
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"import", "-"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("import from stdin: %v", err)
	}
	if !strings.Contains(out.String(), "from stdin") {
		t.Errorf("unexpected output: %s", out.String())
	}
	if n := env.board.Node("t1"); n == nil || n.NodeTitle() != "Legacy task" {
		t.Errorf("expected legacy task imported, got %v", n)
	}
}

func TestDecodePasted(t *testing.T) {
	plain := `{"version":"2.0","children":[]}`
	if got := string(decodePasted(plain)); got != plain {
		t.Errorf("plain JSON changed: %q", got)
	}

	raw := []byte{0x1f, 0x8b, 0x00, 0x01}
	encoded := base64.StdEncoding.EncodeToString(raw)
	if got := decodePasted("  " + encoded + "\n"); string(got) != string(raw) {
		t.Errorf("base64 not decoded: %v", got)
	}

	if got := string(decodePasted("not base64!")); got != "not base64!" {
		t.Errorf("undecodable text changed: %q", got)
	}
}

func TestReset(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleRoots()...)

	_, err := runCLI(t, "reset")
	expectErrContains(t, err, "reset would delete 7 nodes")

	out := mustRun(t, "reset", "-y")
	if !strings.Contains(out, "Board reset (7 nodes removed)") {
		t.Errorf("unexpected output: %s", out)
	}
	if len(env.board.State().Children) != 0 {
		t.Error("board should be empty")
	}

	out = mustRun(t, "reset")
	if !strings.Contains(out, "0 nodes removed") {
		t.Errorf("reset of empty board should not need --yes: %s", out)
	}
}
