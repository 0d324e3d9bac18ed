// Package internal provides the App struct that wires all components of the
// known board together and initializes the CLI layer.
package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/known-board/internal/cli"
	"github.com/valter-silva-au/known-board/internal/core"
	"github.com/valter-silva-au/known-board/internal/integration"
	"github.com/valter-silva-au/known-board/internal/observability"
	"github.com/valter-silva-au/known-board/internal/storage"
	"github.com/valter-silva-au/known-board/pkg/models"
)

// HomeEnv overrides the board directory when set.
const HomeEnv = "KB_HOME"

// App holds all service dependencies for the known board.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.BoardConfig
	// ConfigErr is the load or validation error that made the App fall back
	// to defaults, if any.
	ConfigErr error

	// Storage layer
	Store core.BlobStore

	// Core services
	IDGen    core.IDGenerator
	Versions core.VersionManager
	Board    core.BoardManager
	Exchange core.Exchange

	// Integration services
	Packer    *integration.Packer
	Clipboard integration.Clipboard

	// Observability
	EventLog    observability.EventLog
	ActivityCal observability.ActivityCalculator
}

// NewApp creates and wires all components of the known board. basePath is
// the directory holding .kbconfig and, by default, the board data.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err == nil {
		err = app.ConfigMgr.ValidateConfig(cfg)
	}
	if err != nil {
		// Unreadable or invalid config falls back to defaults and is
		// reported as a warning event.
		app.ConfigErr = err
		cfg = core.DefaultConfig()
	}
	app.Config = cfg

	// --- Observability ---
	if cfg.Events.Enabled {
		app.EventLog, err = observability.NewJSONLEventLog(app.ConfigMgr.ResolvePath(cfg.Events.Path))
		if err != nil {
			// Non-fatal: disable observability if log can't be created.
			app.EventLog = nil
		}
	}
	var logger core.EventLogger
	if app.EventLog != nil {
		logger = &eventLogAdapter{log: app.EventLog}
		app.ActivityCal = observability.NewActivityCalculator(app.EventLog)
		if app.ConfigErr != nil {
			_ = logger.LogWarning("config.invalid", app.ConfigErr.Error(), map[string]any{"base_path": basePath})
		}
	}

	// --- Storage layer ---
	storePath := app.ConfigMgr.ResolvePath(cfg.Storage.Path)
	switch cfg.Storage.Backend {
	case models.BackendSQLite:
		store, err := storage.OpenSQLiteBlobStore(storePath, cfg.Storage.Key)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("opening board database: %w", err)
		}
		app.Store = store
	default:
		app.Store = storage.NewFileBlobStore(storePath)
	}

	// --- Core services ---
	app.IDGen = core.NewIDGenerator()
	app.Versions = core.NewVersionManager(logger, nil)
	app.Board = core.NewBoardManager(app.Store, app.Versions, app.IDGen, logger)
	if err := app.Board.Load(); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("loading board: %w", err)
	}

	// --- Integration services ---
	app.Packer = integration.NewPacker()
	app.Clipboard = integration.NewClipboard()
	app.Exchange = core.NewExchange(core.ExchangeConfig{
		Versions:   app.Versions,
		Compressor: app.Packer,
		Compression: core.CompressionOptions{
			EnableValuePool:  cfg.Compression.EnableValuePool,
			PoolMinRepeats:   cfg.Compression.PoolMinRepeats,
			PoolMinStringLen: cfg.Compression.PoolMinStringLen,
		},
		Prefix: cfg.Export.Prefix,
		IDs:    app.IDGen,
		Logger: logger,
	})

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.BoardMgr = app.Board
	cli.Exchange = app.Exchange
	cli.IDGen = app.IDGen
	cli.Clipboard = app.Clipboard
	cli.EventLog = app.EventLog
	cli.ActivityCal = app.ActivityCal

	return app, nil
}

// Close releases resources held by the App, such as the event log file
// handle and the database connection. It is safe to call more than once.
func (a *App) Close() error {
	var firstErr error
	if c, ok := a.Store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			firstErr = err
		}
	}
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ResolveBasePath determines the board directory. It checks the KB_HOME env
// var, then walks up from the current directory looking for .kbconfig, then
// falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		for _, name := range []string{core.ConfigFileName, core.ConfigFileName + ".yaml"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   observability.LevelInfo,
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}

func (a *eventLogAdapter) LogWarning(eventType, message string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   observability.LevelWarn,
		Type:    eventType,
		Message: message,
		Data:    data,
	})
}
