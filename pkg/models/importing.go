package models

// ImportMode selects how an incoming board is combined with the live one.
type ImportMode string

const (
	ImportReplace ImportMode = "replace"
	ImportMerge   ImportMode = "merge"
)

// ConflictResolution selects how id collisions are handled in merge mode.
type ConflictResolution string

const (
	ResolveNone       ConflictResolution = ""
	ResolveOverwrite  ConflictResolution = "overwrite"
	ResolveKeepOld    ConflictResolution = "keep_old"
	ResolveRegenerate ConflictResolution = "regenerate_id"
)

// ConflictItem describes one incoming node whose id already exists.
type ConflictItem struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Type  NodeType `json:"type"`
	Node  Node     `json:"-"`
}

// ConflictInfo is the result of comparing two forests for id collisions.
type ConflictInfo struct {
	Conflicts    []ConflictItem `json:"conflicts"`
	HasConflicts bool           `json:"hasConflicts"`
}
