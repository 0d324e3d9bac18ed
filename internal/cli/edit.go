package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/known-board/internal/core"
	"github.com/valter-silva-au/known-board/pkg/models"
)

var (
	updateTitle       string
	updateDescription string
	updateDeadline    string
	updateVideoURL    string

	moveParent string
	moveIndex  int

	deleteYes bool
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change the fields of a task or task set",
	Long: `Change the fields of a task or task set. Only the flags given are applied;
pass an empty value (e.g. --deadline "") to clear a field.

Deadline and video URL apply to tasks only.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		n, err := lookupNode(args[0])
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		var upd models.NodeUpdate
		if flags.Changed("title") {
			if updateTitle == "" {
				return fmt.Errorf("title must not be empty")
			}
			upd.Title = models.StringPtr(updateTitle)
		}
		if flags.Changed("description") {
			upd.Description = models.StringPtr(updateDescription)
		}
		if flags.Changed("deadline") || flags.Changed("video-url") {
			if models.IsTaskSet(n) {
				return fmt.Errorf("%s is a task set: --deadline and --video-url apply to tasks only", args[0])
			}
		}
		if flags.Changed("deadline") {
			if err := validateDeadline(updateDeadline); err != nil {
				return err
			}
			upd.Deadline = models.StringPtr(updateDeadline)
		}
		if flags.Changed("video-url") {
			upd.VideoURL = models.StringPtr(updateVideoURL)
		}
		if !flags.Changed("title") && !flags.Changed("description") && !flags.Changed("deadline") && !flags.Changed("video-url") {
			return fmt.Errorf("nothing to update: pass at least one of --title, --description, --deadline, --video-url")
		}

		if err := BoardMgr.UpdateNode(n.NodeID(), upd); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %q\n", kindOf(n), BoardMgr.Node(n.NodeID()).NodeTitle())
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a task or task set with everything inside it",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		n, err := lookupNode(args[0])
		if err != nil {
			return err
		}
		count := core.CountNodes([]models.Node{n})
		if count > 1 && !deleteYes {
			return fmt.Errorf("%q contains %s; pass --yes to delete it", n.NodeTitle(), plural(count-1, "node"))
		}
		if err := BoardMgr.DeleteNode(n.NodeID()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %q\n", kindOf(n), n.NodeTitle())
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <id>",
	Short: "Move a node into another task set or to the top level",
	Long: `Move a node into another task set (--parent) or to the top level (no --parent).

--index places the node at that position among the destination's children;
without it the node is appended. A task set cannot be moved into itself or
any of its descendants.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		n, err := lookupNode(args[0])
		if err != nil {
			return err
		}
		dest := "the top level"
		if moveParent != "" {
			parent, err := lookupTaskSet(moveParent)
			if err != nil {
				return err
			}
			if core.IsDescendant(n, moveParent) {
				return fmt.Errorf("cannot move %q into itself or one of its descendants", n.NodeTitle())
			}
			dest = fmt.Sprintf("%q", parent.Title)
		}

		pos := core.MovePosition{ParentID: moveParent}
		if cmd.Flags().Changed("index") {
			if moveIndex < 0 {
				return fmt.Errorf("--index must not be negative")
			}
			idx := moveIndex
			pos.Index = &idx
		}
		if err := BoardMgr.MoveNode(n.NodeID(), pos); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %q to %s\n", n.NodeTitle(), dest)
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Toggle a task between pending and completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		if _, err := lookupTask(args[0]); err != nil {
			return err
		}
		return BoardMgr.ToggleTaskCompletion(args[0], printUndo(cmd.OutOrStdout()))
	},
}

var hideCmd = &cobra.Command{
	Use:     "hide <set-id>",
	Aliases: []string{"archive"},
	Short:   "Toggle whether a task set is archived",
	Long: `Toggle whether a task set is archived. Archiving hides the set and
everything inside it from the task views; running the command again restores it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		if _, err := lookupTaskSet(args[0]); err != nil {
			return err
		}
		return BoardMgr.ToggleTaskSetHidden(args[0], printUndo(cmd.OutOrStdout()))
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "New title")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "New description")
	updateCmd.Flags().StringVar(&updateDeadline, "deadline", "", "New deadline as YYYY-MM-DD (tasks only)")
	updateCmd.Flags().StringVar(&updateVideoURL, "video-url", "", "New video link (tasks only)")
	updateCmd.ValidArgsFunction = completeNodeIDs

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete task sets that still contain nodes")
	deleteCmd.ValidArgsFunction = completeNodeIDs

	moveCmd.Flags().StringVar(&moveParent, "parent", "", "Destination task set (default: top level)")
	moveCmd.Flags().IntVar(&moveIndex, "index", 0, "Position among the destination's children (default: append)")
	moveCmd.ValidArgsFunction = completeNodeIDs
	_ = moveCmd.RegisterFlagCompletionFunc("parent", completeTaskSetIDs)

	doneCmd.ValidArgsFunction = completeTaskIDs
	hideCmd.ValidArgsFunction = completeTaskSetArgs

	rootCmd.AddCommand(updateCmd, deleteCmd, moveCmd, doneCmd, hideCmd)
}
