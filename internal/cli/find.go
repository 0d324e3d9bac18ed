package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/known-board/internal/core"
)

var findLimit int

var findCmd = &cobra.Command{
	Use:     "find <query>",
	Aliases: []string{"search"},
	Short:   "Fuzzy search titles across the whole board",
	Long: `Fuzzy search task and task set titles at any depth, including archived
sets. Results are ordered best match first and show where each node lives.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		query := strings.Join(args, " ")
		results := core.SearchNodes(BoardMgr.State().Children, query)

		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintf(out, "No matches for %q.\n", query)
			return nil
		}
		if findLimit > 0 && len(results) > findLimit {
			results = results[:findLimit]
		}
		for _, r := range results {
			location := ""
			if len(r.Path) > 0 {
				location = "  in " + strings.Join(r.Path, " / ")
			}
			fmt.Fprintf(out, "%s%s\n", nodeLine(r.Node), branchStyle.Render(location))
		}
		return nil
	},
}

func init() {
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 20, "Maximum number of results (0 for all)")
	rootCmd.AddCommand(findCmd)
}
