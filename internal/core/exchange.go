package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valter-silva-au/known-board/pkg/models"
)

// ErrEmptyImport is returned when an import payload has no content.
var ErrEmptyImport = errors.New("import payload is empty")

// Exchange converts between the live board and export payloads.
type Exchange interface {
	// ExportJSON renders the export envelope as indented JSON.
	ExportJSON(state models.AppState) ([]byte, error)
	// ExportCompressed renders the compact envelope through the compressor.
	ExportCompressed(state models.AppState) ([]byte, error)
	// ExportFilename names an export file taken at now.
	ExportFilename(compressed bool, now time.Time) string
	// ParseImport decodes a plain or compressed export, or bare state, into
	// a 2.0 board. Unusable payloads are reported as errors.
	ParseImport(data []byte) (models.AppState, error)
	// Conflicts compares incoming against the live board.
	Conflicts(board BoardManager, incoming models.AppState) models.ConflictInfo
	// Commit combines incoming with the live board and stores the result.
	Commit(board BoardManager, incoming models.AppState, mode models.ImportMode, resolution models.ConflictResolution) (models.AppState, error)
}

// ExchangeConfig configures an Exchange.
type ExchangeConfig struct {
	Versions    VersionManager
	Compressor  Compressor
	Compression CompressionOptions
	Prefix      string
	IDs         IDGenerator
	Logger      EventLogger
}

type exchange struct {
	cfg ExchangeConfig
}

// NewExchange creates an Exchange. A nil Compressor disables compressed
// export and import.
func NewExchange(cfg ExchangeConfig) Exchange {
	if cfg.Versions == nil {
		cfg.Versions = NewVersionManager(cfg.Logger, nil)
	}
	if cfg.IDs == nil {
		cfg.IDs = NewIDGenerator()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "known-board-export"
	}
	return &exchange{cfg: cfg}
}

func (e *exchange) ExportJSON(state models.AppState) ([]byte, error) {
	env := e.cfg.Versions.PrepareExportData(state)
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return data, nil
}

func (e *exchange) ExportCompressed(state models.AppState) ([]byte, error) {
	if e.cfg.Compressor == nil {
		return nil, fmt.Errorf("compressed export: no compressor configured")
	}
	env := e.cfg.Versions.PrepareExportData(state)
	text, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	out, err := e.cfg.Compressor.Compress(string(text), e.cfg.Compression)
	if err != nil {
		return nil, fmt.Errorf("compressing export: %w", err)
	}
	return out, nil
}

func (e *exchange) ExportFilename(compressed bool, now time.Time) string {
	ext := ".json"
	if compressed {
		ext = ".kbz"
	}
	return e.cfg.Prefix + "-" + now.Format("2006-01-02-150405") + ext
}

func (e *exchange) ParseImport(data []byte) (models.AppState, error) {
	if e.cfg.Compressor != nil && e.cfg.Compressor.IsCompressed(data) {
		text, err := e.cfg.Compressor.Decompress(data)
		if err != nil {
			return models.AppState{}, fmt.Errorf("decompressing import: %w", err)
		}
		data = []byte(text)
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return models.AppState{}, ErrEmptyImport
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.AppState{}, fmt.Errorf("parsing import: %w", err)
	}
	if _, err := DecodeAppData(UnwrapEnvelope(raw)); err != nil {
		return models.AppState{}, fmt.Errorf("reading import: %w", err)
	}
	return e.cfg.Versions.ImportFromParsedEnvelope(raw), nil
}

func (e *exchange) Conflicts(board BoardManager, incoming models.AppState) models.ConflictInfo {
	return DetectConflicts(board.State().Children, incoming.Children)
}

func (e *exchange) Commit(board BoardManager, incoming models.AppState, mode models.ImportMode, resolution models.ConflictResolution) (models.AppState, error) {
	existing := board.State()
	info := DetectConflicts(existing.Children, incoming.Children)
	if info.HasConflicts {
		logInfo(e.cfg.Logger, EventImportConflicting, map[string]any{
			"conflicts":  len(info.Conflicts),
			"resolution": string(resolution),
		})
	}

	merged, err := ProcessImportData(existing, incoming, mode, resolution, e.cfg.IDs)
	if err != nil {
		return models.AppState{}, err
	}
	if err := board.ReplaceState(merged); err != nil {
		return models.AppState{}, fmt.Errorf("committing import: %w", err)
	}
	logInfo(e.cfg.Logger, EventImportCommitted, map[string]any{
		"mode":       string(mode),
		"resolution": string(resolution),
		"incoming":   CountNodes(incoming.Children),
		"total":      CountNodes(merged.Children),
	})
	return merged, nil
}
