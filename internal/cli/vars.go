package cli

import (
	"github.com/valter-silva-au/known-board/internal/core"
	"github.com/valter-silva-au/known-board/internal/integration"
	"github.com/valter-silva-au/known-board/internal/observability"
	"github.com/valter-silva-au/known-board/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BoardMgr  core.BoardManager
	Exchange  core.Exchange
	IDGen     core.IDGenerator
	Clipboard integration.Clipboard
	Config    *models.BoardConfig
	BasePath  string
)

// Observability service instances. Both are nil when the event log is
// disabled.
var (
	EventLog    observability.EventLog
	ActivityCal observability.ActivityCalculator
)
