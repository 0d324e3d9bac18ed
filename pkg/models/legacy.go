package models

// LegacyState is the 1.0 board shape: two flat lists linked by ParentID.
type LegacyState struct {
	Version  string          `json:"version,omitempty"`
	TaskSets []LegacyTaskSet `json:"taskSets"`
	Tasks    []LegacyTask    `json:"tasks"`
}

// LegacyTask is a 1.0 task record. An empty ParentID means root level.
type LegacyTask struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Deadline    string    `json:"deadline,omitempty"`
	VideoURL    string    `json:"videoUrl,omitempty"`
	Completed   bool      `json:"completed"`
	Episodes    []Episode `json:"episodes"`
	ParentID    string    `json:"parentId,omitempty"`
}

// LegacyTaskSet is a 1.0 task set record. An empty ParentID means root level.
type LegacyTaskSet struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Hidden      bool   `json:"hidden"`
	ParentID    string `json:"parentId,omitempty"`
}
