package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/known-board/internal/core"
	"github.com/valter-silva-au/known-board/pkg/models"
)

var (
	addParent      string
	addDescription string
	addDeadline    string
	addVideoURL    string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a task or task set",
}

var addTaskCmd = &cobra.Command{
	Use:   "task <title>",
	Short: "Add a task",
	Long: `Add a task at the top level of the board, or inside a task set with --parent.

Examples:
  kb add task "Write report" --deadline 2025-06-30
  kb add task "Record intro" --parent 3f2a9c1e-...`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		title, err := trimmedTitle(args)
		if err != nil {
			return err
		}
		if err := validateDeadline(addDeadline); err != nil {
			return err
		}
		node := core.NewTaskNode(ids().NewID(), title, addDescription, addDeadline, addVideoURL)
		return addNode(cmd, addParent, node)
	},
}

var addSetCmd = &cobra.Command{
	Use:     "set <title>",
	Aliases: []string{"folder"},
	Short:   "Add a task set",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		title, err := trimmedTitle(args)
		if err != nil {
			return err
		}
		node := core.NewTaskSetNode(ids().NewID(), title, addDescription)
		return addNode(cmd, addParent, node)
	},
}

func addNode(cmd *cobra.Command, parentID string, node models.Node) error {
	if parentID == "" {
		if err := BoardMgr.AddRootNode(node); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q (%s)\n", kindOf(node), node.NodeTitle(), node.NodeID())
		return nil
	}

	parent, err := lookupTaskSet(parentID)
	if err != nil {
		return err
	}
	if err := BoardMgr.AddChildNode(parentID, node); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q to %q (%s)\n", kindOf(node), node.NodeTitle(), parent.Title, node.NodeID())
	return nil
}

func kindOf(n models.Node) string {
	if models.IsTaskSet(n) {
		return "task set"
	}
	return "task"
}

// validateDeadline accepts an empty deadline or a YYYY-MM-DD date.
func validateDeadline(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("invalid deadline %q: use YYYY-MM-DD", s)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{addTaskCmd, addSetCmd} {
		c.Flags().StringVar(&addParent, "parent", "", "Task set to add into (default: top level)")
		c.Flags().StringVar(&addDescription, "description", "", "Description")
		_ = c.RegisterFlagCompletionFunc("parent", completeTaskSetIDs)
	}
	addTaskCmd.Flags().StringVar(&addDeadline, "deadline", "", "Deadline as YYYY-MM-DD")
	addTaskCmd.Flags().StringVar(&addVideoURL, "video-url", "", "Link to a video for the task")

	addCmd.AddCommand(addTaskCmd, addSetCmd)
	rootCmd.AddCommand(addCmd)
}
