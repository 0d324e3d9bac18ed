package core

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/valter-silva-au/known-board/pkg/models"
)

// memStore implements BlobStore in memory. The func fields override the
// default behavior when set.
type memStore struct {
	data   []byte
	saves  int
	loadFn func() ([]byte, error)
	saveFn func([]byte) error
}

func (s *memStore) Load() ([]byte, error) {
	if s.loadFn != nil {
		return s.loadFn()
	}
	return s.data, nil
}

func (s *memStore) Save(data []byte) error {
	if s.saveFn != nil {
		if err := s.saveFn(data); err != nil {
			return err
		}
	}
	s.data = append([]byte(nil), data...)
	s.saves++
	return nil
}

func (s *memStore) Clear() error {
	s.data = nil
	return nil
}

// recordedEvent is one call captured by recordingLogger.
type recordedEvent struct {
	Level string
	Type  string
	Msg   string
	Data  map[string]any
}

// recordingLogger implements EventLogger and keeps every event.
type recordingLogger struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (l *recordingLogger) LogEvent(eventType string, data map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, recordedEvent{Level: "INFO", Type: eventType, Data: data})
	return nil
}

func (l *recordingLogger) LogWarning(eventType, message string, data map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, recordedEvent{Level: "WARN", Type: eventType, Msg: message, Data: data})
	return nil
}

func (l *recordingLogger) warnings() []recordedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []recordedEvent
	for _, e := range l.events {
		if e.Level == "WARN" {
			out = append(out, e)
		}
	}
	return out
}

func (l *recordingLogger) count(eventType string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// seqIDs implements IDGenerator with predictable ids.
type seqIDs struct {
	prefix string
	n      int
}

func (g *seqIDs) NewID() string {
	g.n++
	if g.prefix == "" {
		return fmt.Sprintf("gen-%d", g.n)
	}
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

func mkTask(id, title string) *models.Task {
	return NewTaskNode(id, title, "", "", "")
}

func mkSet(id, title string, children ...models.Node) *models.TaskSet {
	s := NewTaskSetNode(id, title, "")
	s.Children = append(s.Children, children...)
	return s
}

func withEpisodes(t *models.Task, titles ...string) *models.Task {
	for i, title := range titles {
		t.Episodes = append(t.Episodes, models.Episode{
			ID:     fmt.Sprintf("%s-ep%d", t.ID, i+1),
			Number: i + 1,
			Title:  title,
		})
	}
	return t
}

func stateOf(roots ...models.Node) models.AppState {
	return models.AppState{Version: models.VersionV2, Children: append([]models.Node{}, roots...)}
}

// rootIDs returns the ids of the root nodes in order.
func rootIDs(roots []models.Node) []string {
	ids := make([]string, len(roots))
	for i, n := range roots {
		ids[i] = n.NodeID()
	}
	return ids
}

// allIDs returns every node id in pre-order.
func allIDs(roots []models.Node) []string {
	var ids []string
	Traverse(roots, func(n models.Node) { ids = append(ids, n.NodeID()) })
	return ids
}

// fataler is satisfied by *testing.T and *rapid.T.
type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

func mustJSON(t fataler, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

// decodeRaw parses JSON text into the generic shape the loader receives.
func decodeRaw(t fataler, text string) any {
	t.Helper()
	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return raw
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// newTestBoard returns a board backed by an in-memory store, seeded with
// roots.
func newTestBoard(t *testing.T, roots ...models.Node) (BoardManager, *memStore, *recordingLogger) {
	t.Helper()
	store := &memStore{}
	logger := &recordingLogger{}
	board := NewBoardManager(store, NewVersionManager(logger, nil), &seqIDs{}, logger)
	if len(roots) > 0 {
		if err := board.ReplaceState(stateOf(roots...)); err != nil {
			t.Fatalf("seeding board: %v", err)
		}
	}
	return board, store, logger
}
