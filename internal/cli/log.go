package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/known-board/internal/observability"
)

var (
	logLevel   string
	logType    string
	logSince   string
	logLimit   int
	logJSON    bool
	logSummary bool
)

var (
	warnLevelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errLevelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the board event log",
	Long: `Show recorded board events, newest last.

Filter with --level (INFO, WARN, ERROR), --type (an exact type such as
board.node_added, or a family ending in "." such as import.) and --since
(e.g. 24h, 7d, 2w). --summary prints counts instead of events.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized (events may be disabled)")
		}

		filter := observability.EventFilter{Level: logLevel, Limit: logLimit}
		if n := len(logType); n > 0 && logType[n-1] == '.' {
			filter.TypePrefix = logType
		} else {
			filter.Type = logType
		}
		if logSince != "" {
			since, err := observability.ParseSince(logSince, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			filter.Since = &since
		}

		if logSummary {
			filter.Limit = 0
		}
		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading event log: %w", err)
		}

		out := cmd.OutOrStdout()
		if logSummary {
			printActivity(out, observability.Summarise(events), logJSON)
			return nil
		}

		if logJSON {
			for _, e := range events {
				data, err := json.Marshal(e)
				if err != nil {
					return fmt.Errorf("formatting event: %w", err)
				}
				fmt.Fprintln(out, string(data))
			}
			return nil
		}

		if len(events) == 0 {
			fmt.Fprintln(out, "No events found.")
			return nil
		}
		for _, e := range events {
			level := e.Level
			switch e.Level {
			case observability.LevelWarn:
				level = warnLevelStyle.Render(level)
			case observability.LevelError:
				level = errLevelStyle.Render(level)
			}
			fmt.Fprintf(out, "%s  %-5s  %-26s %s\n", e.Time.Local().Format("2006-01-02 15:04:05"), level, e.Type, e.Message)
		}
		return nil
	},
}

func printActivity(out io.Writer, a *observability.Activity, asJSON bool) {
	if asJSON {
		data, err := json.MarshalIndent(a, "", "  ")
		if err == nil {
			fmt.Fprintln(out, string(data))
		}
		return
	}

	fmt.Fprintln(out, "Board activity")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-20s %d\n", "Events recorded:", a.EventCount)
	fmt.Fprintf(out, "  %-20s %d\n", "Nodes added:", a.NodesAdded)
	fmt.Fprintf(out, "  %-20s %d\n", "Nodes deleted:", a.NodesDeleted)
	fmt.Fprintf(out, "  %-20s %d\n", "Tasks completed:", a.TasksCompleted)
	fmt.Fprintf(out, "  %-20s %d\n", "Tasks reopened:", a.TasksReopened)
	fmt.Fprintf(out, "  %-20s %d\n", "Imports:", a.Imports)
	fmt.Fprintf(out, "  %-20s %d\n", "Warnings:", a.Warnings)

	if len(a.ByType) > 0 {
		fmt.Fprintln(out, "\n  By type:")
		for _, t := range a.Types() {
			fmt.Fprintf(out, "    %-28s %d\n", t, a.ByType[t])
		}
	}
	if a.OldestEvent != nil {
		fmt.Fprintf(out, "\n  %-20s %s\n", "Oldest event:", a.OldestEvent.Format(time.RFC3339))
	}
	if a.NewestEvent != nil {
		fmt.Fprintf(out, "  %-20s %s\n", "Newest event:", a.NewestEvent.Format(time.RFC3339))
	}
}

func init() {
	logCmd.Flags().StringVar(&logLevel, "level", "", "Only show events of this level (INFO, WARN, ERROR)")
	logCmd.Flags().StringVar(&logType, "type", "", "Only show this event type, or a family ending in '.'")
	logCmd.Flags().StringVar(&logSince, "since", "", "Only show events newer than this (e.g. 24h, 7d, 2w)")
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 50, "Show at most this many of the newest events (0 for all)")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "Print events as JSON lines")
	logCmd.Flags().BoolVar(&logSummary, "summary", false, "Print activity counts instead of events")
	rootCmd.AddCommand(logCmd)
}
