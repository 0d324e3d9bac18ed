package models

// StorageBackend names a persistence implementation for the board blob.
type StorageBackend string

const (
	BackendFile   StorageBackend = "file"
	BackendSQLite StorageBackend = "sqlite"
)

// ViewName selects a read-side filter over the board.
type ViewName string

const (
	ViewPending   ViewName = "pending"
	ViewCompleted ViewName = "completed"
	ViewAll       ViewName = "all"
	ViewArchived  ViewName = "archived"
)

// CompressionConfig holds the options passed to the compression codec.
type CompressionConfig struct {
	EnableValuePool  bool `yaml:"enable_value_pool" mapstructure:"enable_value_pool"`
	PoolMinRepeats   int  `yaml:"pool_min_repeats" mapstructure:"pool_min_repeats"`
	PoolMinStringLen int  `yaml:"pool_min_string_len" mapstructure:"pool_min_string_len"`
}

// StorageConfig selects where the board blob lives.
type StorageConfig struct {
	Backend StorageBackend `yaml:"backend" mapstructure:"backend"`
	Path    string         `yaml:"path" mapstructure:"path"`
	Key     string         `yaml:"key" mapstructure:"key"`
}

// ExportConfig controls export file naming.
type ExportConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
}

// EventsConfig controls the JSONL event log.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// BoardConfig holds settings read from .kbconfig via Viper.
type BoardConfig struct {
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Compression CompressionConfig `yaml:"compression" mapstructure:"compression"`
	Export      ExportConfig      `yaml:"export" mapstructure:"export"`
	Events      EventsConfig      `yaml:"events" mapstructure:"events"`
	DefaultView ViewName          `yaml:"default_view" mapstructure:"default_view"`
}
