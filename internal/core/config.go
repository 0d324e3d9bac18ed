// Package core contains the business logic for the known board: tree
// utilities, schema versioning and migration, the mutation engine, import
// conflict resolution, the export/import pipeline, views, search and
// configuration.
package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/known-board/pkg/models"
)

// ConfigFileName is the name of the per-board configuration file.
const ConfigFileName = ".kbconfig"

// ConfigurationManager loads and validates the board configuration from
// the .kbconfig file.
type ConfigurationManager interface {
	LoadConfig() (*models.BoardConfig, error)
	ValidateConfig(cfg *models.BoardConfig) error
	// ResolvePath returns p relative to the base path unless p is absolute.
	ResolvePath(p string) string
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .kbconfig from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns a BoardConfig populated with defaults.
func DefaultConfig() *models.BoardConfig {
	return &models.BoardConfig{
		Storage: models.StorageConfig{
			Backend: models.BackendFile,
			Path:    "board.json",
			Key:     "known-board-data",
		},
		Compression: models.CompressionConfig{
			EnableValuePool:  true,
			PoolMinRepeats:   2,
			PoolMinStringLen: 6,
		},
		Export: models.ExportConfig{
			Dir:    ".",
			Prefix: "known-board-export",
		},
		Events: models.EventsConfig{
			Enabled: true,
			Path:    ".kb_events.jsonl",
		},
		DefaultView: models.ViewPending,
	}
}

// LoadConfig reads .kbconfig from the base path. If the file does not
// exist, defaults are returned.
func (cm *viperConfigManager) LoadConfig() (*models.BoardConfig, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("storage.backend", string(cfg.Storage.Backend))
	v.SetDefault("storage.key", cfg.Storage.Key)
	v.SetDefault("compression.enable_value_pool", cfg.Compression.EnableValuePool)
	v.SetDefault("compression.pool_min_repeats", cfg.Compression.PoolMinRepeats)
	v.SetDefault("compression.pool_min_string_len", cfg.Compression.PoolMinStringLen)
	v.SetDefault("export.dir", cfg.Export.Dir)
	v.SetDefault("export.prefix", cfg.Export.Prefix)
	v.SetDefault("events.enabled", cfg.Events.Enabled)
	v.SetDefault("events.path", cfg.Events.Path)
	v.SetDefault("defaults.view", string(cfg.DefaultView))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	cfg.Storage.Backend = models.StorageBackend(v.GetString("storage.backend"))
	cfg.Storage.Key = v.GetString("storage.key")
	// The default path depends on the backend, so only override when set.
	if v.IsSet("storage.path") {
		cfg.Storage.Path = v.GetString("storage.path")
	} else if cfg.Storage.Backend == models.BackendSQLite {
		cfg.Storage.Path = "board.db"
	}
	cfg.Compression.EnableValuePool = v.GetBool("compression.enable_value_pool")
	cfg.Compression.PoolMinRepeats = v.GetInt("compression.pool_min_repeats")
	cfg.Compression.PoolMinStringLen = v.GetInt("compression.pool_min_string_len")
	cfg.Export.Dir = v.GetString("export.dir")
	cfg.Export.Prefix = v.GetString("export.prefix")
	cfg.Events.Enabled = v.GetBool("events.enabled")
	cfg.Events.Path = v.GetString("events.path")
	cfg.DefaultView = models.ViewName(v.GetString("defaults.view"))

	return cfg, nil
}

var validBackends = map[models.StorageBackend]bool{
	models.BackendFile:   true,
	models.BackendSQLite: true,
}

var validDefaultViews = map[models.ViewName]bool{
	models.ViewPending:   true,
	models.ViewCompleted: true,
	models.ViewAll:       true,
}

// ValidateConfig checks cfg for invalid values and reports all of them in
// a single error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.BoardConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !validBackends[cfg.Storage.Backend] {
		errs = append(errs, fmt.Sprintf(
			"storage.backend %q is invalid, must be one of: file, sqlite",
			cfg.Storage.Backend,
		))
	}
	if cfg.Storage.Path == "" {
		errs = append(errs, "storage.path must not be empty")
	}
	if cfg.Storage.Key == "" {
		errs = append(errs, "storage.key must not be empty")
	}
	if cfg.Compression.PoolMinRepeats < 2 {
		errs = append(errs, fmt.Sprintf(
			"compression.pool_min_repeats must be at least 2, got %d",
			cfg.Compression.PoolMinRepeats,
		))
	}
	if cfg.Compression.PoolMinStringLen < 1 {
		errs = append(errs, fmt.Sprintf(
			"compression.pool_min_string_len must be positive, got %d",
			cfg.Compression.PoolMinStringLen,
		))
	}
	if cfg.Export.Prefix == "" {
		errs = append(errs, "export.prefix must not be empty")
	}
	if strings.ContainsAny(cfg.Export.Prefix, `/\`) {
		errs = append(errs, fmt.Sprintf("export.prefix %q must not contain path separators", cfg.Export.Prefix))
	}
	if cfg.Events.Enabled && cfg.Events.Path == "" {
		errs = append(errs, "events.path must not be empty when events are enabled")
	}
	if !validDefaultViews[cfg.DefaultView] {
		errs = append(errs, fmt.Sprintf(
			"defaults.view %q is invalid, must be one of: pending, completed, all",
			cfg.DefaultView,
		))
	}

	if len(errs) > 0 {
		return fmt.Errorf("board config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (cm *viperConfigManager) ResolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cm.basePath, p)
}
