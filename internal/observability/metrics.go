package observability

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Activity summarises the board history over a time window.
type Activity struct {
	EventCount     int            `json:"event_count" yaml:"event_count"`
	Warnings       int            `json:"warnings" yaml:"warnings"`
	NodesAdded     int            `json:"nodes_added" yaml:"nodes_added"`
	NodesDeleted   int            `json:"nodes_deleted" yaml:"nodes_deleted"`
	TasksCompleted int            `json:"tasks_completed" yaml:"tasks_completed"`
	TasksReopened  int            `json:"tasks_reopened" yaml:"tasks_reopened"`
	Imports        int            `json:"imports" yaml:"imports"`
	ByType         map[string]int `json:"by_type" yaml:"by_type"`
	OldestEvent    *time.Time     `json:"oldest_event,omitempty" yaml:"oldest_event,omitempty"`
	NewestEvent    *time.Time     `json:"newest_event,omitempty" yaml:"newest_event,omitempty"`
}

// Types returns the event types seen, sorted by name.
func (a *Activity) Types() []string {
	out := make([]string, 0, len(a.ByType))
	for t := range a.ByType {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ActivityCalculator derives an Activity summary from the event log.
type ActivityCalculator interface {
	Calculate(since time.Time) (*Activity, error)
}

type activityCalculator struct {
	eventLog EventLog
}

// NewActivityCalculator creates an ActivityCalculator reading from eventLog.
func NewActivityCalculator(eventLog EventLog) ActivityCalculator {
	return &activityCalculator{eventLog: eventLog}
}

// Calculate reads every event at or after since and aggregates it.
func (c *activityCalculator) Calculate(since time.Time) (*Activity, error) {
	events, err := c.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for activity: %w", err)
	}
	return Summarise(events), nil
}

// Summarise aggregates events that were already read.
func Summarise(events []Event) *Activity {
	a := &Activity{ByType: make(map[string]int)}
	a.EventCount = len(events)

	for i, event := range events {
		t := event.Time
		if i == 0 {
			a.OldestEvent = &t
		}
		a.NewestEvent = &t
		a.ByType[event.Type]++

		if event.Level == LevelWarn {
			a.Warnings++
		}

		switch event.Type {
		case "board.node_added":
			a.NodesAdded++
		case "board.node_deleted":
			a.NodesDeleted++
		case "board.task_toggled":
			if done, ok := event.Data["completed"].(bool); ok {
				if done {
					a.TasksCompleted++
				} else {
					a.TasksReopened++
				}
			}
		case "import.committed":
			a.Imports++
		}
	}
	return a
}

// ParseSince turns a window such as "7d", "24h" or "2w" into the instant
// that far before now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || num < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}
	switch s[len(s)-1] {
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'w':
		return now.AddDate(0, 0, -7*num), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use h, d or w)", s[len(s)-1:])
	}
}
