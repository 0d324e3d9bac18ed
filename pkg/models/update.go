package models

// NodeUpdate is a partial update for UpdateNode. Nil fields are left alone.
// Fields that do not apply to the target's variant are ignored; id and type
// are not updatable.
type NodeUpdate struct {
	Title       *string
	Description *string

	// Task fields.
	Completed *bool
	Deadline  *string
	VideoURL  *string
	Episodes  []Episode

	// TaskSet fields.
	Hidden *bool
}

// EpisodeUpdate is a partial update for a single episode.
type EpisodeUpdate struct {
	Title       *string
	Description *string
	Deadline    *string
	VideoURL    *string
	Completed   *bool
}

// StringPtr returns a pointer to s, for building updates inline.
func StringPtr(s string) *string { return &s }

// BoolPtr returns a pointer to b, for building updates inline.
func BoolPtr(b bool) *bool { return &b }
