package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valter-silva-au/known-board/pkg/models"
)

var (
	// ErrUnrecognizedFormat is returned when a payload is neither 1.0 nor 2.0.
	ErrUnrecognizedFormat = errors.New("unrecognized board format")
	// ErrInvalidState is returned when a 2.0 payload fails structural validation.
	ErrInvalidState = errors.New("invalid board state")
	// ErrMigrationFailed is returned when a 1.0 payload is internally inconsistent.
	ErrMigrationFailed = errors.New("migrating 1.0 board failed")
)

// exportTimeLayout renders timestamps like JavaScript's toISOString.
const exportTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// DetectVersion classifies a decoded JSON value by its shape.
func DetectVersion(raw any) string {
	m, ok := raw.(map[string]any)
	if !ok {
		return models.VersionUnknown
	}
	version, _ := m["version"].(string)
	if version == models.VersionV2 {
		if _, ok := m["children"].([]any); ok {
			return models.VersionV2
		}
	}
	if version == models.VersionV1 {
		return models.VersionV1
	}
	_, setsOK := m["taskSets"].([]any)
	_, tasksOK := m["tasks"].([]any)
	if setsOK && tasksOK {
		return models.VersionV1
	}
	return models.VersionUnknown
}

// ValidateAppStateV2 reports whether every entry of the state's children,
// recursively, has a string id, a known type, a string title, and (when
// present) a children array of valid nodes. A task may not carry children.
func ValidateAppStateV2(raw any) bool {
	m, ok := raw.(map[string]any)
	if !ok {
		return false
	}
	children, ok := m["children"].([]any)
	if !ok {
		return false
	}
	return validNodes(children)
}

func validNodes(nodes []any) bool {
	for _, n := range nodes {
		if !validNode(n) {
			return false
		}
	}
	return true
}

func validNode(raw any) bool {
	m, ok := raw.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := m["id"].(string); !ok {
		return false
	}
	if _, ok := m["title"].(string); !ok {
		return false
	}
	nodeType, _ := m["type"].(string)
	switch models.NodeType(nodeType) {
	case models.NodeTypeTask, models.NodeTypeTaskSet:
	default:
		return false
	}
	children, present := m["children"]
	if !present {
		return true
	}
	list, ok := children.([]any)
	if !ok {
		return false
	}
	// Tasks are leaves.
	if models.NodeType(nodeType) == models.NodeTypeTask && len(list) > 0 {
		return false
	}
	return validNodes(list)
}

// MigrateV1ToV2 rebuilds the nested forest from the flat 1.0 lists. Within
// each parent, task sets come first and tasks second, each in list order.
// Ids and fields are carried over unchanged. It fails on duplicate ids, on
// a parentId naming a missing record or a task, and on records that can
// never be reached from the root (parent cycles).
func MigrateV1ToV2(v1 models.LegacyState) (models.AppState, error) {
	seen := make(map[string]models.NodeType, len(v1.TaskSets)+len(v1.Tasks))
	for _, s := range v1.TaskSets {
		if _, dup := seen[s.ID]; dup {
			return models.AppState{}, fmt.Errorf("%w: duplicate id %q", ErrMigrationFailed, s.ID)
		}
		seen[s.ID] = models.NodeTypeTaskSet
	}
	for _, t := range v1.Tasks {
		if _, dup := seen[t.ID]; dup {
			return models.AppState{}, fmt.Errorf("%w: duplicate id %q", ErrMigrationFailed, t.ID)
		}
		seen[t.ID] = models.NodeTypeTask
	}

	byParent := make(map[string][]models.Node)
	checkParent := func(id, parentID string) error {
		if parentID == "" {
			return nil
		}
		kind, ok := seen[parentID]
		if !ok {
			return fmt.Errorf("%w: %q references missing parent %q", ErrMigrationFailed, id, parentID)
		}
		if kind != models.NodeTypeTaskSet {
			return fmt.Errorf("%w: %q references task %q as parent", ErrMigrationFailed, id, parentID)
		}
		return nil
	}
	for _, s := range v1.TaskSets {
		if err := checkParent(s.ID, s.ParentID); err != nil {
			return models.AppState{}, err
		}
		set := NewTaskSetNode(s.ID, s.Title, s.Description)
		set.Hidden = s.Hidden
		byParent[s.ParentID] = append(byParent[s.ParentID], set)
	}
	for _, t := range v1.Tasks {
		if err := checkParent(t.ID, t.ParentID); err != nil {
			return models.AppState{}, err
		}
		task := NewTaskNode(t.ID, t.Title, t.Description, t.Deadline, t.VideoURL)
		task.Completed = t.Completed
		task.Episodes = models.CloneEpisodes(t.Episodes)
		byParent[t.ParentID] = append(byParent[t.ParentID], task)
	}

	attached := 0
	var attach func(nodes []models.Node)
	attach = func(nodes []models.Node) {
		for _, n := range nodes {
			attached++
			if set, ok := models.AsTaskSet(n); ok {
				if kids := byParent[set.ID]; kids != nil {
					set.Children = kids
				}
				attach(set.Children)
			}
		}
	}
	roots := byParent[""]
	if roots == nil {
		roots = []models.Node{}
	}
	attach(roots)

	if attached != len(seen) {
		return models.AppState{}, fmt.Errorf("%w: %d records unreachable from root", ErrMigrationFailed, len(seen)-attached)
	}
	return models.AppState{Version: models.VersionV2, Children: roots}, nil
}

// DefaultAppState returns an empty 2.0 board.
func DefaultAppState() models.AppState {
	return models.AppState{Version: models.VersionV2, Children: []models.Node{}}
}

// DecodeAppData is the strict form of loading: it classifies raw, validates
// or migrates it, and returns an error describing why it could not.
func DecodeAppData(raw any) (models.AppState, error) {
	switch DetectVersion(raw) {
	case models.VersionV2:
		if !ValidateAppStateV2(raw) {
			return models.AppState{}, ErrInvalidState
		}
		var state models.AppState
		if err := remarshal(raw, &state); err != nil {
			return models.AppState{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		state.Version = models.VersionV2
		if state.Children == nil {
			state.Children = []models.Node{}
		}
		return state, nil
	case models.VersionV1:
		var legacy models.LegacyState
		if err := remarshal(raw, &legacy); err != nil {
			return models.AppState{}, fmt.Errorf("%w: %v", ErrMigrationFailed, err)
		}
		return MigrateV1ToV2(legacy)
	default:
		return models.AppState{}, ErrUnrecognizedFormat
	}
}

// UnwrapEnvelope returns the envelope's data field when payload is an
// export envelope, and payload itself otherwise.
func UnwrapEnvelope(payload any) any {
	if m, ok := payload.(map[string]any); ok {
		if data, ok := m["data"]; ok && data != nil {
			return data
		}
	}
	return payload
}

func remarshal(raw any, dst any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// VersionManager is the ingress point for externally sourced board state.
type VersionManager interface {
	// LoadAppData never fails; unusable input yields an empty board and a
	// warning event.
	LoadAppData(raw any) models.AppState
	// ImportFromParsedEnvelope accepts an export envelope or bare state.
	ImportFromParsedEnvelope(payload any) models.AppState
	PrepareExportData(state models.AppState) models.ExportEnvelope
}

type versionManager struct {
	logger EventLogger
	now    func() time.Time
}

// NewVersionManager creates a VersionManager. logger may be nil; now
// defaults to time.Now.
func NewVersionManager(logger EventLogger, now func() time.Time) VersionManager {
	if now == nil {
		now = time.Now
	}
	return &versionManager{logger: logger, now: now}
}

func (vm *versionManager) LoadAppData(raw any) models.AppState {
	version := DetectVersion(raw)
	state, err := DecodeAppData(raw)
	if err != nil {
		logWarn(vm.logger, EventFallbackDefault, "board data unusable, starting from an empty board", map[string]any{
			"detected_version": version,
			"error":            err.Error(),
		})
		return DefaultAppState()
	}
	if version == models.VersionV1 {
		logInfo(vm.logger, EventStateMigrated, map[string]any{
			"from":  models.VersionV1,
			"to":    models.VersionV2,
			"nodes": CountNodes(state.Children),
		})
	}
	return state
}

func (vm *versionManager) ImportFromParsedEnvelope(payload any) models.AppState {
	return vm.LoadAppData(UnwrapEnvelope(payload))
}

func (vm *versionManager) PrepareExportData(state models.AppState) models.ExportEnvelope {
	data := state.Clone()
	data.Version = models.VersionV2
	if data.Children == nil {
		data.Children = []models.Node{}
	}
	return models.ExportEnvelope{
		Version:    models.VersionV2,
		ExportedAt: vm.now().UTC().Format(exportTimeLayout),
		Data:       data,
	}
}
