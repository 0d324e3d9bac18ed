package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/known-board/pkg/models"
)

var (
	renameFromFile string
	episodeTitle   string
	episodeDesc    string
	episodeDue     string
	episodeVideo   string
)

var episodesCmd = &cobra.Command{
	Use:     "episodes",
	Aliases: []string{"ep"},
	Short:   "Manage the episodes of a task",
	Long: `Manage the episodes of a task. Episodes are numbered 1..N in order and
are renumbered when one is deleted. Episodes can be referenced by id or by
number.`,
}

var episodesListCmd = &cobra.Command{
	Use:   "list <task-id>",
	Short: "List the episodes of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		task, err := lookupTask(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(task.Episodes) == 0 {
			fmt.Fprintf(out, "%q has no episodes.\n", task.Title)
			return nil
		}
		fmt.Fprintf(out, "%s (%d/%d done)\n", task.Title, completedEpisodes(task), len(task.Episodes))
		for _, ep := range task.Episodes {
			mark := "○"
			if ep.Completed {
				mark = "●"
			}
			fmt.Fprintf(out, "  %s %2d. %-30s %s\n", mark, ep.Number, ep.DisplayTitle(), idStyle.Render(ep.ID))
		}
		return nil
	},
}

var episodesAddCmd = &cobra.Command{
	Use:   "add <task-id> <count>",
	Short: "Append numbered episodes to a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		task, err := lookupTask(args[0])
		if err != nil {
			return err
		}
		count, err := strconv.Atoi(args[1])
		if err != nil || count <= 0 {
			return fmt.Errorf("count must be a positive number, got %q", args[1])
		}
		added, err := BoardMgr.AddEpisodes(task.ID, count)
		if err != nil {
			return err
		}
		if len(added) == 0 {
			return fmt.Errorf("no episodes added to %q", task.Title)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %q (%d-%d)\n",
			plural(len(added), "episode"), task.Title, added[0].Number, added[len(added)-1].Number)
		return nil
	},
}

var episodesRenameCmd = &cobra.Command{
	Use:   "rename <task-id> [names...]",
	Short: "Rename episodes in order",
	Long: `Rename the episodes of a task in order: the first name goes to episode 1,
the second to episode 2, and so on. Empty names leave that episode unchanged;
extra names are ignored.

Names can be read one per line from a file with --from-file ("-" reads stdin).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		task, err := lookupTask(args[0])
		if err != nil {
			return err
		}
		names := args[1:]
		if renameFromFile != "" {
			if len(names) > 0 {
				return fmt.Errorf("pass names as arguments or --from-file, not both")
			}
			names, err = readLines(renameFromFile)
			if err != nil {
				return err
			}
		}
		if len(names) == 0 {
			return fmt.Errorf("no names given")
		}
		if len(task.Episodes) == 0 {
			return fmt.Errorf("%q has no episodes to rename", task.Title)
		}
		return BoardMgr.BatchRenameEpisodes(task.ID, names, printUndo(cmd.OutOrStdout()))
	},
}

var episodesDoneCmd = &cobra.Command{
	Use:   "done <task-id> <episode>",
	Short: "Toggle whether an episode is completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		task, ep, err := lookupTaskEpisode(args[0], args[1])
		if err != nil {
			return err
		}
		if err := BoardMgr.ToggleEpisode(task.ID, ep.ID); err != nil {
			return err
		}
		state := "completed"
		if ep.Completed {
			state = "pending"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Marked episode %d %q of %q %s\n", ep.Number, ep.DisplayTitle(), task.Title, state)
		return nil
	},
}

var episodesUpdateCmd = &cobra.Command{
	Use:   "update <task-id> <episode>",
	Short: "Change the fields of an episode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		task, ep, err := lookupTaskEpisode(args[0], args[1])
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		var upd models.EpisodeUpdate
		changed := false
		if flags.Changed("title") {
			upd.Title, changed = models.StringPtr(episodeTitle), true
		}
		if flags.Changed("description") {
			upd.Description, changed = models.StringPtr(episodeDesc), true
		}
		if flags.Changed("deadline") {
			if err := validateDeadline(episodeDue); err != nil {
				return err
			}
			upd.Deadline, changed = models.StringPtr(episodeDue), true
		}
		if flags.Changed("video-url") {
			upd.VideoURL, changed = models.StringPtr(episodeVideo), true
		}
		if !changed {
			return fmt.Errorf("nothing to update: pass at least one of --title, --description, --deadline, --video-url")
		}

		if err := BoardMgr.UpdateEpisode(task.ID, ep.ID, upd); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated episode %d of %q\n", ep.Number, task.Title)
		return nil
	},
}

var episodesDeleteCmd = &cobra.Command{
	Use:     "delete <task-id> <episode>",
	Aliases: []string{"rm"},
	Short:   "Delete an episode and renumber the rest",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		task, ep, err := lookupTaskEpisode(args[0], args[1])
		if err != nil {
			return err
		}
		if err := BoardMgr.DeleteEpisode(task.ID, ep.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted episode %d %q of %q\n", ep.Number, ep.DisplayTitle(), task.Title)
		return nil
	},
}

func lookupTaskEpisode(taskID, ref string) (*models.Task, models.Episode, error) {
	task, err := lookupTask(taskID)
	if err != nil {
		return nil, models.Episode{}, err
	}
	ep, err := lookupEpisode(task, ref)
	if err != nil {
		return nil, models.Episode{}, err
	}
	return task, ep, nil
}

// readLines reads one name per line from path, or stdin for "-". Trailing
// carriage returns are dropped; blank lines are kept as empty names.
func readLines(path string) ([]string, error) {
	f := os.Stdin
	if path != "-" {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening names file: %w", err)
		}
		defer func() { _ = f.Close() }()
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading names: %w", err)
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

func init() {
	episodesRenameCmd.Flags().StringVar(&renameFromFile, "from-file", "", "Read names from a file, one per line (- for stdin)")

	episodesUpdateCmd.Flags().StringVar(&episodeTitle, "title", "", "New title (empty resets to the default)")
	episodesUpdateCmd.Flags().StringVar(&episodeDesc, "description", "", "New description")
	episodesUpdateCmd.Flags().StringVar(&episodeDue, "deadline", "", "New deadline as YYYY-MM-DD")
	episodesUpdateCmd.Flags().StringVar(&episodeVideo, "video-url", "", "New video link")

	for _, c := range []*cobra.Command{episodesListCmd, episodesAddCmd, episodesRenameCmd, episodesDoneCmd, episodesUpdateCmd, episodesDeleteCmd} {
		c.ValidArgsFunction = completeTaskIDs
	}

	episodesCmd.AddCommand(episodesListCmd, episodesAddCmd, episodesRenameCmd, episodesDoneCmd, episodesUpdateCmd, episodesDeleteCmd)
	rootCmd.AddCommand(episodesCmd)
}
