package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/known-board/internal/core"
	"github.com/valter-silva-au/known-board/pkg/models"
)

var (
	listView          string
	listIncludeHidden bool
	listOutput        string
	showOutput        string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show the board as a tree",
	Long: `Show the board as a tree filtered by a view.

Views:
  pending    tasks not yet completed (default, configurable via defaults.view)
  completed  completed tasks
  all        every task
  archived   archived task sets and everything inside them

Task sets are always shown by the task views unless archived. Use
--include-hidden to show archived sets too.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		if err := validateOutput(listOutput); err != nil {
			return err
		}

		viewName := listView
		if !cmd.Flags().Changed("view") && Config != nil && Config.DefaultView != "" {
			viewName = string(Config.DefaultView)
		}
		view, err := core.ParseView(viewName)
		if err != nil {
			return err
		}

		state := BoardMgr.State()
		visible := core.ApplyView(state.Children, view, listIncludeHidden)

		out := cmd.OutOrStdout()
		if listOutput != outputTree {
			return writeRecords(out, listOutput, models.ToRecords(visible))
		}

		if len(visible) == 0 {
			fmt.Fprintf(out, "No %s items.\n", view)
		} else {
			renderTree(out, visible)
		}
		renderStats(out, core.Stats(state.Children))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task or task set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		if err := validateOutput(showOutput); err != nil {
			return err
		}
		n, err := lookupNode(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if showOutput != outputTree {
			return writeRecords(out, showOutput, models.ToRecord(n))
		}

		roots := BoardMgr.State().Children
		renderDetail(out, n, core.PathTo(roots, n.NodeID()))
		if core.IsHiddenByAncestry(roots, n.NodeID()) && !isHiddenSet(n) {
			fmt.Fprintln(out, "  (inside an archived task set)")
		}
		return nil
	},
}

func isHiddenSet(n models.Node) bool {
	set, ok := models.AsTaskSet(n)
	return ok && set.Hidden
}

func init() {
	listCmd.Flags().StringVar(&listView, "view", "pending", "View: pending, completed, all or archived")
	listCmd.Flags().BoolVar(&listIncludeHidden, "include-hidden", false, "Include archived task sets")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", outputTree, "Output format: tree, json or yaml")
	_ = listCmd.RegisterFlagCompletionFunc("view", completeViews)
	_ = listCmd.RegisterFlagCompletionFunc("output", completeOutputs)

	showCmd.Flags().StringVarP(&showOutput, "output", "o", outputTree, "Output format: tree, json or yaml")
	showCmd.ValidArgsFunction = completeNodeIDs
	_ = showCmd.RegisterFlagCompletionFunc("output", completeOutputs)

	rootCmd.AddCommand(listCmd, showCmd)
}
