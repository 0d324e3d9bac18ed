package models

import "fmt"

// Episode is a numbered sub-item of a Task. Number is 1-based and always
// matches the episode's position in Task.Episodes.
type Episode struct {
	ID          string `json:"id" yaml:"id"`
	Number      int    `json:"number" yaml:"number"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Deadline    string `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	VideoURL    string `json:"videoUrl,omitempty" yaml:"video_url,omitempty"`
	Completed   bool   `json:"completed" yaml:"completed"`
}

// DisplayTitle returns the episode title, or "Episode {number}" when unset.
func (e Episode) DisplayTitle() string {
	if e.Title == "" {
		return DefaultEpisodeTitle(e.Number)
	}
	return e.Title
}

// DefaultEpisodeTitle is the title given to episodes created without one.
func DefaultEpisodeTitle(number int) string {
	return fmt.Sprintf("Episode %d", number)
}

// CloneEpisodes copies an episode list. The result is never nil.
func CloneEpisodes(eps []Episode) []Episode {
	out := make([]Episode, len(eps))
	copy(out, eps)
	return out
}
