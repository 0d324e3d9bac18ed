package core

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
	LogWarning(eventType, message string, data map[string]any) error
}

// Event types written by core services.
const (
	EventNodeAdded         = "board.node_added"
	EventNodeUpdated       = "board.node_updated"
	EventNodeDeleted       = "board.node_deleted"
	EventNodeMoved         = "board.node_moved"
	EventTaskToggled       = "board.task_toggled"
	EventSetToggled        = "board.set_toggled"
	EventEpisodesChanged   = "board.episodes_changed"
	EventStateReplaced     = "board.state_replaced"
	EventStateCleared      = "board.state_cleared"
	EventNodeNotFound      = "board.node_not_found"
	EventMoveRejected      = "board.move_rejected"
	EventInvalidTarget     = "board.invalid_target"
	EventFallbackDefault   = "state.fallback_default"
	EventStateMigrated     = "state.migrated"
	EventImportCommitted   = "import.committed"
	EventImportConflicting = "import.conflicts_detected"
)

// logInfo records an informational event. Logging failures never affect
// the operation being logged.
func logInfo(l EventLogger, eventType string, data map[string]any) {
	if l == nil {
		return
	}
	_ = l.LogEvent(eventType, data)
}

// logWarn records a warning event.
func logWarn(l EventLogger, eventType, message string, data map[string]any) {
	if l == nil {
		return
	}
	_ = l.LogWarning(eventType, message, data)
}
