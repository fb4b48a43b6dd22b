package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Suggest unsaved patterns worth keeping",
		Long:  "Rank unsaved patterns by detection confidence, recency and replays so they can be saved before they are purged.",
		Args:  cobra.NoArgs,
		Run:   runReview,
	}

	cmd.Flags().IntP("limit", "l", 10, "Max suggestions")

	RootCmd.AddCommand(cmd)
}

func runReview(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	items := s.det.Review(limit)
	if textOutput() {
		for _, it := range items {
			fmt.Printf("%.2f ", it.Score)
			printPatternLine(it.Pattern)
		}
		return
	}
	printJSON(items)
}
