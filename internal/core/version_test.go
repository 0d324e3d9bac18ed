package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/known-board/pkg/models"
)

func TestDetectVersion(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"v2", decodeRaw(t, `{"version":"2.0","children":[]}`), models.VersionV2},
		{"v1 by shape", decodeRaw(t, `{"taskSets":[],"tasks":[]}`), models.VersionV1},
		{"v1 by tag", decodeRaw(t, `{"version":"1.0"}`), models.VersionV1},
		{"empty object", decodeRaw(t, `{}`), models.VersionUnknown},
		{"null", nil, models.VersionUnknown},
		{"array", decodeRaw(t, `[]`), models.VersionUnknown},
		{"v2 tag without children", decodeRaw(t, `{"version":"2.0"}`), models.VersionUnknown},
		{"v2 children not array", decodeRaw(t, `{"version":"2.0","children":{}}`), models.VersionUnknown},
		{"only tasks", decodeRaw(t, `{"tasks":[]}`), models.VersionUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectVersion(tt.raw); got != tt.want {
				t.Errorf("DetectVersion = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateAppStateV2(t *testing.T) {
	tests := []struct {
		name string
		json string
		want bool
	}{
		{"empty", `{"version":"2.0","children":[]}`, true},
		{"nested", `{"version":"2.0","children":[{"id":"s","type":"taskSet","title":"S","children":[{"id":"t","type":"task","title":"T"}]}]}`, true},
		{"missing id", `{"version":"2.0","children":[{"type":"task","title":"T"}]}`, false},
		{"numeric id", `{"version":"2.0","children":[{"id":1,"type":"task","title":"T"}]}`, false},
		{"bad type", `{"version":"2.0","children":[{"id":"x","type":"folder","title":"T"}]}`, false},
		{"missing title", `{"version":"2.0","children":[{"id":"x","type":"task"}]}`, false},
		{"children not array", `{"version":"2.0","children":[{"id":"x","type":"taskSet","title":"T","children":"no"}]}`, false},
		{"bad grandchild", `{"version":"2.0","children":[{"id":"s","type":"taskSet","title":"S","children":[{"id":"t","type":"task"}]}]}`, false},
		{"node not object", `{"version":"2.0","children":["x"]}`, false},
		{"task with children", `{"version":"2.0","children":[{"id":"t","type":"task","title":"T","children":[{"id":"c","type":"task","title":"C"}]}]}`, false},
		{"task with empty children", `{"version":"2.0","children":[{"id":"t","type":"task","title":"T","children":[]}]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAppStateV2(decodeRaw(t, tt.json)); got != tt.want {
				t.Errorf("ValidateAppStateV2 = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMigrateV1ToV2_BuildsNestedForest(t *testing.T) {
	v1 := models.LegacyState{
		Version: models.VersionV1,
		TaskSets: []models.LegacyTaskSet{
			{ID: "s1", Title: "Courses"},
			{ID: "s2", Title: "Advanced", ParentID: "s1", Hidden: true},
		},
		Tasks: []models.LegacyTask{
			{ID: "t1", Title: "Loose"},
			{ID: "t2", Title: "Generics", ParentID: "s2", Completed: true,
				Episodes: []models.Episode{{ID: "e1", Number: 1, Title: "Intro"}}},
			{ID: "t3", Title: "Basics", ParentID: "s1", Deadline: "2024-01-02"},
		},
	}

	state, err := MigrateV1ToV2(v1)
	if err != nil {
		t.Fatalf("MigrateV1ToV2: %v", err)
	}
	if state.Version != models.VersionV2 {
		t.Errorf("Version = %q", state.Version)
	}
	// Sets precede tasks within a parent, each in list order.
	if got := rootIDs(state.Children); !equalStrings(got, []string{"s1", "t1"}) {
		t.Errorf("roots = %v, want [s1 t1]", got)
	}
	s1 := state.Children[0].(*models.TaskSet)
	if got := rootIDs(s1.Children); !equalStrings(got, []string{"s2", "t3"}) {
		t.Errorf("s1 children = %v, want [s2 t3]", got)
	}
	s2 := s1.Children[0].(*models.TaskSet)
	if !s2.Hidden {
		t.Error("hidden flag lost")
	}
	t2 := s2.Children[0].(*models.Task)
	if !t2.Completed || len(t2.Episodes) != 1 || t2.Episodes[0].Title != "Intro" {
		t.Errorf("task fields lost: %+v", t2)
	}
	if s1.Children[1].(*models.Task).Deadline != "2024-01-02" {
		t.Error("deadline lost")
	}
}

func TestMigrateV1ToV2_Failures(t *testing.T) {
	tests := []struct {
		name string
		v1   models.LegacyState
		msg  string
	}{
		{
			name: "orphan parent",
			v1:   models.LegacyState{Tasks: []models.LegacyTask{{ID: "t", Title: "T", ParentID: "ghost"}}},
			msg:  "missing parent",
		},
		{
			name: "task as parent",
			v1: models.LegacyState{Tasks: []models.LegacyTask{
				{ID: "a", Title: "A"},
				{ID: "b", Title: "B", ParentID: "a"},
			}},
			msg: "references task",
		},
		{
			name: "duplicate id",
			v1: models.LegacyState{
				TaskSets: []models.LegacyTaskSet{{ID: "x", Title: "X"}},
				Tasks:    []models.LegacyTask{{ID: "x", Title: "X"}},
			},
			msg: "duplicate",
		},
		{
			name: "parent cycle",
			v1: models.LegacyState{TaskSets: []models.LegacyTaskSet{
				{ID: "a", Title: "A", ParentID: "b"},
				{ID: "b", Title: "B", ParentID: "a"},
			}},
			msg: "unreachable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MigrateV1ToV2(tt.v1)
			if !errors.Is(err, ErrMigrationFailed) {
				t.Fatalf("err = %v, want ErrMigrationFailed", err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("err = %q, want it to mention %q", err, tt.msg)
			}
		})
	}
}

func TestLoadAppData_FallsBackAndWarns(t *testing.T) {
	inputs := map[string]any{
		"unknown":       decodeRaw(t, `{"foo":1}`),
		"invalid v2":    decodeRaw(t, `{"version":"2.0","children":[{"id":"x"}]}`),
		"failing v1":    decodeRaw(t, `{"taskSets":[],"tasks":[{"id":"t","title":"T","parentId":"nope"}]}`),
		"v1 wrong type": decodeRaw(t, `{"version":"1.0","tasks":"nope"}`),
		"nil":           nil,
	}
	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			logger := &recordingLogger{}
			vm := NewVersionManager(logger, nil)
			state := vm.LoadAppData(raw)
			if state.Version != models.VersionV2 || len(state.Children) != 0 || state.Children == nil {
				t.Errorf("expected empty default state, got %+v", state)
			}
			if logger.count(EventFallbackDefault) != 1 {
				t.Errorf("expected one %s warning, got events %+v", EventFallbackDefault, logger.events)
			}
		})
	}
}

func TestLoadAppData_MigratesV1(t *testing.T) {
	logger := &recordingLogger{}
	vm := NewVersionManager(logger, nil)
	raw := decodeRaw(t, `{"taskSets":[{"id":"s","title":"S"}],"tasks":[{"id":"t","title":"T","parentId":"s","completed":true}]}`)

	state := vm.LoadAppData(raw)

	if ids := allIDs(state.Children); !equalStrings(ids, []string{"s", "t"}) {
		t.Fatalf("ids = %v", ids)
	}
	if logger.count(EventStateMigrated) != 1 {
		t.Error("expected a migration event")
	}
}

func TestImportFromParsedEnvelope_UnwrapsData(t *testing.T) {
	vm := NewVersionManager(nil, nil)
	wrapped := decodeRaw(t, `{"version":"2.0","exportedAt":"2024-01-01T00:00:00.000Z","data":{"version":"2.0","children":[{"id":"a","type":"task","title":"A"}]}}`)
	bare := decodeRaw(t, `{"version":"2.0","children":[{"id":"a","type":"task","title":"A"}]}`)
	legacy := decodeRaw(t, `{"version":"2.0","data":{"taskSets":[],"tasks":[{"id":"a","title":"A"}]}}`)

	for name, payload := range map[string]any{"wrapped": wrapped, "bare": bare, "legacy data": legacy} {
		state := vm.ImportFromParsedEnvelope(payload)
		if ids := allIDs(state.Children); !equalStrings(ids, []string{"a"}) {
			t.Errorf("%s: ids = %v, want [a]", name, ids)
		}
	}
}

func TestPrepareExportData(t *testing.T) {
	fixed := time.Date(2024, 3, 9, 14, 5, 6, 789_000_000, time.FixedZone("X", 3600))
	vm := NewVersionManager(nil, func() time.Time { return fixed })
	state := stateOf(mkTask("a", "A"))

	env := vm.PrepareExportData(state)

	if env.Version != models.VersionV2 {
		t.Errorf("Version = %q", env.Version)
	}
	if env.ExportedAt != "2024-03-09T13:05:06.789Z" {
		t.Errorf("ExportedAt = %q", env.ExportedAt)
	}
	if env.Data.Version != models.VersionV2 || len(env.Data.Children) != 1 {
		t.Errorf("Data = %+v", env.Data)
	}
	env.Data.Children[0].(*models.Task).Title = "changed"
	if state.Children[0].NodeTitle() != "A" {
		t.Error("export must not alias the live state")
	}
}

func TestExportRoundTrip_Concrete(t *testing.T) {
	vm := NewVersionManager(nil, nil)
	tk := withEpisodes(NewTaskNode("t", "Watch", "series", "2024-06-01", "https://v.example/1"), "One", "Two")
	tk.Completed = true
	hidden := mkSet("h", "Old")
	hidden.Hidden = true
	state := stateOf(mkSet("s", "Set", tk, hidden), mkTask("r", "Root"))

	text := mustJSON(t, vm.PrepareExportData(state).Data)
	got := vm.LoadAppData(decodeRaw(t, text))

	if mustJSON(t, got) != mustJSON(t, state) {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", mustJSON(t, got), mustJSON(t, state))
	}
}
