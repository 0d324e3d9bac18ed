package cli

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/known-board/internal/core"
	"github.com/valter-silva-au/known-board/pkg/models"
)

var (
	exportCompressed bool
	exportClipboard  bool
	exportOut        string
	exportStdout     bool

	importPaste      bool
	importMode       string
	importResolution string
	importYes        bool

	resetYes bool
)

// now is replaced in tests.
var now = func() time.Time { return time.Now() }

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the board to a file, stdout or the clipboard",
	Long: `Export the whole board, archived sets included, as a versioned JSON file.

With --compressed the export is packed into a compact .kbz file. Without
--out, the file is written into export.dir with a timestamped name such as
known-board-export-2025-06-30-142501.json.

With --clipboard the export is copied instead of written; compressed
exports are copied as base64 text.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		if Exchange == nil {
			return fmt.Errorf("exchange not initialized")
		}
		if exportClipboard && exportStdout {
			return fmt.Errorf("--clipboard and --stdout cannot be combined")
		}

		state := BoardMgr.State()
		var (
			data []byte
			err  error
		)
		if exportCompressed {
			data, err = Exchange.ExportCompressed(state)
		} else {
			data, err = Exchange.ExportJSON(state)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		count := core.CountNodes(state.Children)

		switch {
		case exportClipboard:
			if Clipboard == nil || !Clipboard.Available() {
				return fmt.Errorf("clipboard is not available on this system")
			}
			text := string(data)
			if exportCompressed {
				text = base64.StdEncoding.EncodeToString(data)
			}
			if err := Clipboard.WriteText(text); err != nil {
				return err
			}
			fmt.Fprintf(out, "Copied %s to the clipboard (%d bytes)\n", plural(count, "node"), len(text))
			return nil
		case exportStdout:
			if exportCompressed {
				_, err = out.Write(data)
			} else {
				_, err = fmt.Fprintln(out, string(data))
			}
			return err
		}

		path := exportOut
		if path == "" {
			path = filepath.Join(exportDir(), Exchange.ExportFilename(exportCompressed, now()))
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Fprintf(out, "Exported %s to %s\n", plural(count, "node"), path)
		return nil
	},
}

func exportDir() string {
	dir := "."
	if Config != nil && Config.Export.Dir != "" {
		dir = Config.Export.Dir
	}
	if !filepath.IsAbs(dir) && BasePath != "" {
		dir = filepath.Join(BasePath, dir)
	}
	return dir
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a board export, replacing or merging with the current board",
	Long: `Import a board from an export file (plain .json or compressed .kbz), a
bare board file, or an older 1.0 board, which is upgraded on the fly.

Modes:
  merge    append the imported nodes to the current board (default)
  replace  discard the current board (requires --yes when it is not empty)

When merging, imported nodes whose id already exists on the board are
conflicts. Choose how to handle them with --on-conflict:
  overwrite      imported nodes replace the existing ones
  keep_old       imported nodes with a clashing id are skipped
  regenerate_id  clashing imported nodes get fresh ids

Without --on-conflict, an interactive picker is shown on a terminal.

Read the export from the clipboard with --paste, or from stdin with "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		if Exchange == nil {
			return fmt.Errorf("exchange not initialized")
		}

		mode := models.ImportMode(importMode)
		if mode != models.ImportMerge && mode != models.ImportReplace {
			return fmt.Errorf("%w %q, must be replace or merge", core.ErrUnknownImportMode, importMode)
		}
		resolution := models.ConflictResolution(importResolution)
		switch resolution {
		case models.ResolveNone, models.ResolveOverwrite, models.ResolveKeepOld, models.ResolveRegenerate:
		default:
			return fmt.Errorf("%w %q, must be overwrite, keep_old or regenerate_id", core.ErrUnknownResolution, importResolution)
		}

		data, source, err := readImport(cmd, args)
		if err != nil {
			return err
		}
		incoming, err := Exchange.ParseImport(data)
		if err != nil {
			return fmt.Errorf("importing %s: %w", source, err)
		}

		out := cmd.OutOrStdout()
		current := BoardMgr.State()
		if mode == models.ImportReplace && len(current.Children) > 0 && !importYes {
			return fmt.Errorf("replace would discard %s on the current board; pass --yes to confirm", plural(core.CountNodes(current.Children), "node"))
		}

		if mode == models.ImportMerge && resolution == models.ResolveNone {
			info := Exchange.Conflicts(BoardMgr, incoming)
			if info.HasConflicts {
				if !interactive() {
					return conflictError(info)
				}
				resolution, err = pickResolution(info, out)
				if err != nil {
					return err
				}
				if resolution == models.ResolveNone {
					fmt.Fprintln(out, "Import cancelled.")
					return nil
				}
			}
		}

		merged, err := Exchange.Commit(BoardMgr, incoming, mode, resolution)
		if err != nil {
			if errors.Is(err, core.ErrConflictResolutionRequired) {
				return conflictError(Exchange.Conflicts(BoardMgr, incoming))
			}
			return fmt.Errorf("importing %s: %w", source, err)
		}

		fmt.Fprintf(out, "Imported %s from %s (%s); board now has %s\n",
			plural(core.CountNodes(incoming.Children), "node"), source, mode, plural(core.CountNodes(merged.Children), "node"))
		return nil
	},
}

// readImport returns the raw import bytes and a description of where they
// came from.
func readImport(cmd *cobra.Command, args []string) ([]byte, string, error) {
	switch {
	case importPaste && len(args) > 0:
		return nil, "", fmt.Errorf("pass a file or --paste, not both")
	case importPaste:
		if Clipboard == nil || !Clipboard.Available() {
			return nil, "", fmt.Errorf("clipboard is not available on this system")
		}
		text, err := Clipboard.ReadText()
		if err != nil {
			return nil, "", err
		}
		return decodePasted(text), "clipboard", nil
	case len(args) == 0:
		return nil, "", fmt.Errorf("pass a file to import, - for stdin, or --paste")
	case args[0] == "-":
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(cmd.InOrStdin()); err != nil {
			return nil, "", fmt.Errorf("reading stdin: %w", err)
		}
		return buf.Bytes(), "stdin", nil
	default:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, "", fmt.Errorf("reading import file: %w", err)
		}
		return data, args[0], nil
	}
}

// decodePasted undoes the base64 wrapping applied to compressed clipboard
// exports. Anything else is returned as-is.
func decodePasted(text string) []byte {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, "{") {
		return []byte(text)
	}
	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return []byte(text)
	}
	return decoded
}

func conflictError(info models.ConflictInfo) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s already on the board:", plural(len(info.Conflicts), "imported node"))
	for i, c := range info.Conflicts {
		if i == maxListedConflicts {
			fmt.Fprintf(&b, "\n  ... and %d more", len(info.Conflicts)-maxListedConflicts)
			break
		}
		fmt.Fprintf(&b, "\n  - %s %q (%s)", c.Type, c.Title, c.ID)
	}
	b.WriteString("\nchoose with --on-conflict overwrite|keep_old|regenerate_id")
	return fmt.Errorf("%w\n%s", core.ErrConflictResolutionRequired, b.String())
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every node and start from an empty board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		count := core.CountNodes(BoardMgr.State().Children)
		if count > 0 && !resetYes {
			return fmt.Errorf("reset would delete %s; export first and pass --yes to confirm", plural(count, "node"))
		}
		if err := BoardMgr.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Board reset (%s removed)\n", plural(count, "node"))
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVarP(&exportCompressed, "compressed", "z", false, "Write a compact .kbz export")
	exportCmd.Flags().BoolVar(&exportClipboard, "clipboard", false, "Copy the export to the clipboard instead of a file")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Write the export to this path")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "Write the export to stdout")

	importCmd.Flags().BoolVar(&importPaste, "paste", false, "Read the export from the clipboard")
	importCmd.Flags().StringVar(&importMode, "mode", string(models.ImportMerge), "Import mode: merge or replace")
	importCmd.Flags().StringVar(&importResolution, "on-conflict", "", "Conflict handling when merging: overwrite, keep_old or regenerate_id")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Confirm replacing a non-empty board")
	_ = importCmd.RegisterFlagCompletionFunc("mode", completeImportModes)
	_ = importCmd.RegisterFlagCompletionFunc("on-conflict", completeResolutions)

	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Confirm deleting a non-empty board")

	rootCmd.AddCommand(exportCmd, importCmd, resetCmd)
}
