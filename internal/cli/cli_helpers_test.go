package cli

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/valter-silva-au/known-board/internal/core"
	"github.com/valter-silva-au/known-board/internal/integration"
	"github.com/valter-silva-au/known-board/internal/storage"
	"github.com/valter-silva-au/known-board/pkg/models"
)

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

// fakeClipboard implements integration.Clipboard with configurable behavior.
type fakeClipboard struct {
	text        string
	unavailable bool
	readFn      func() (string, error)
}

func (c *fakeClipboard) ReadText() (string, error) {
	if c.readFn != nil {
		return c.readFn()
	}
	return c.text, nil
}

func (c *fakeClipboard) WriteText(text string) error {
	c.text = text
	return nil
}

func (c *fakeClipboard) Available() bool { return !c.unavailable }

var _ integration.Clipboard = (*fakeClipboard)(nil)

// testEnv wires the CLI globals to a file-backed board in a temp dir and
// restores the previous globals when the test ends.
type testEnv struct {
	dir       string
	board     core.BoardManager
	clipboard *fakeClipboard
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	origBoard, origExchange, origIDs, origClip := BoardMgr, Exchange, IDGen, Clipboard
	origConfig, origBase, origLog, origActivity := Config, BasePath, EventLog, ActivityCal
	t.Cleanup(func() {
		BoardMgr, Exchange, IDGen, Clipboard = origBoard, origExchange, origIDs, origClip
		Config, BasePath, EventLog, ActivityCal = origConfig, origBase, origLog, origActivity
	})

	dir := t.TempDir()
	gen := &seqIDs{}
	store := storage.NewFileBlobStore(filepath.Join(dir, "board.json"))
	board := core.NewBoardManager(store, nil, gen, nil)
	if err := board.Load(); err != nil {
		t.Fatalf("loading board: %v", err)
	}

	cfg := core.DefaultConfig()
	cfg.Export.Dir = "exports"

	env := &testEnv{dir: dir, board: board, clipboard: &fakeClipboard{}}
	BoardMgr = board
	IDGen = gen
	Clipboard = env.clipboard
	Config = cfg
	BasePath = dir
	EventLog = nil
	ActivityCal = nil
	Exchange = core.NewExchange(core.ExchangeConfig{
		Compressor:  integration.NewPacker(),
		Compression: core.DefaultCompressionOptions(),
		Prefix:      cfg.Export.Prefix,
		IDs:         gen,
	})
	return env
}

// seed replaces the board with roots.
func (e *testEnv) seed(t *testing.T, roots ...models.Node) {
	t.Helper()
	if err := e.board.ReplaceState(models.AppState{Version: models.VersionV2, Children: roots}); err != nil {
		t.Fatalf("seeding board: %v", err)
	}
}

// sampleRoots builds:
//
//	work (set)
//	  report (task, 2 episodes)
//	  sub (set)
//	    deep (task)
//	attic (set, hidden)
//	  old (task)
//	chores (task, completed)
func sampleRoots() []models.Node {
	report := core.NewTaskNode("report", "Write report", "", "2025-06-30", "")
	report.Episodes = []models.Episode{
		{ID: "report-ep1", Number: 1, Title: "Outline"},
		{ID: "report-ep2", Number: 2},
	}
	sub := core.NewTaskSetNode("sub", "Sub project", "")
	sub.Children = []models.Node{core.NewTaskNode("deep", "Deep task", "", "", "")}
	work := core.NewTaskSetNode("work", "Work", "")
	work.Children = []models.Node{report, sub}

	attic := core.NewTaskSetNode("attic", "Attic", "")
	attic.Hidden = true
	attic.Children = []models.Node{core.NewTaskNode("old", "Old thing", "", "", "")}

	chores := core.NewTaskNode("chores", "Chores", "", "", "")
	chores.Completed = true
	return []models.Node{work, attic, chores}
}

// resetFlags restores every flag in the command tree to its default so that
// one test's flags do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("kb %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func expectErrContains(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q", want)
	}
	if !strings.Contains(err.Error(), want) {
		t.Errorf("expected error containing %q, got: %v", want, err)
	}
}

func findCommand(name string) *cobra.Command {
	for _, c := range rootCmd.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
