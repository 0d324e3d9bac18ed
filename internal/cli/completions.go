package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/known-board/internal/core"
	"github.com/valter-silva-au/known-board/pkg/models"
)

// completeNodes lists ids of nodes accepted by keep, with the title as the
// description. Only the first positional argument is completed.
func completeNodes(keep func(models.Node) bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if BoardMgr == nil || len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		var ids []string
		core.Traverse(BoardMgr.State().Children, func(n models.Node) {
			if !keep(n) {
				return
			}
			if toComplete == "" || strings.HasPrefix(n.NodeID(), toComplete) {
				ids = append(ids, n.NodeID()+"\t"+n.NodeTitle())
			}
		})
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

var (
	completeNodeIDs     = completeNodes(func(models.Node) bool { return true })
	completeTaskIDs     = completeNodes(func(n models.Node) bool { return !models.IsTaskSet(n) })
	completeTaskSetArgs = completeNodes(models.IsTaskSet)
)

// completeTaskSetIDs completes flag values such as --parent, where positional
// arguments have already been given.
func completeTaskSetIDs(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeTaskSetArgs(cmd, nil, toComplete)
}

// completeViews returns a completion function for --view values.
func completeViews(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"pending\tTasks not yet completed",
		"completed\tCompleted tasks",
		"all\tEvery task",
		"archived\tArchived task sets",
	}, cobra.ShellCompDirectiveNoFileComp
}

func completeOutputs(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{outputTree, outputJSON, outputYAML}, cobra.ShellCompDirectiveNoFileComp
}

func completeImportModes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"replace\tDiscard the current board",
		"merge\tAppend to the current board",
	}, cobra.ShellCompDirectiveNoFileComp
}

func completeResolutions(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"overwrite\tImported nodes replace existing ones with the same id",
		"keep_old\tSkip imported nodes whose id already exists",
		"regenerate_id\tGive clashing imported nodes fresh ids",
	}, cobra.ShellCompDirectiveNoFileComp
}
