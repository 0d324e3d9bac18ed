package models

import (
	"encoding/json"
	"fmt"
)

// Version tags understood by the loader.
const (
	VersionV1      = "1.0"
	VersionV2      = "2.0"
	VersionUnknown = "unknown"
)

// AppState is the whole board in the 2.0 shape: one ordered forest.
type AppState struct {
	Version  string `json:"version" yaml:"version"`
	Children []Node `json:"children" yaml:"children"`
}

type appStateWire struct {
	Version  string       `json:"version"`
	Children []NodeRecord `json:"children"`
}

// MarshalJSON always writes a children array, even for an empty board.
func (s AppState) MarshalJSON() ([]byte, error) {
	children := s.Children
	if children == nil {
		children = []Node{}
	}
	return json.Marshal(struct {
		Version  string `json:"version"`
		Children []Node `json:"children"`
	}{Version: s.Version, Children: children})
}

// UnmarshalJSON decodes the nested forest through NodeRecord so each node
// comes back as its concrete variant.
func (s *AppState) UnmarshalJSON(data []byte) error {
	var w appStateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	children, err := FromRecords(w.Children)
	if err != nil {
		return fmt.Errorf("decoding children: %w", err)
	}
	s.Version = w.Version
	s.Children = children
	return nil
}

// Clone deep-copies the state.
func (s AppState) Clone() AppState {
	return AppState{Version: s.Version, Children: CloneNodes(s.Children)}
}

// ExportEnvelope is the on-disk and clipboard representation of an export.
type ExportEnvelope struct {
	Version    string   `json:"version"`
	ExportedAt string   `json:"exportedAt"`
	Data       AppState `json:"data"`
}
