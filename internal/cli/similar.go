package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/pattern-memory/internal/embedding"
)

func init() {
	cmd := &cobra.Command{
		Use:   "similar <pattern-id>",
		Short: "Find patterns that resemble another",
		Long:  "Rank patterns by melodic contour (interval steps, key independent) or by scale degree usage.",
		Args:  cobra.ExactArgs(1),
		Run:   runSimilar,
	}

	cmd.Flags().String("by", embedding.Contour, "Compare by: contour or degrees")
	cmd.Flags().IntP("limit", "l", 10, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSimilar(cmd *cobra.Command, args []string) {
	by, _ := cmd.Flags().GetString("by")
	limit, _ := cmd.Flags().GetInt("limit")

	e, err := embedding.New(by)
	if err != nil {
		exitErr("similar", err)
	}

	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	items, ok := s.det.Similar(args[0], e, limit)
	if !ok {
		s.Close(cmd.Context())
		exitErr("similar", fmt.Errorf("pattern %q not found", args[0]))
	}
	if textOutput() {
		for _, it := range items {
			fmt.Printf("%.3f ", it.Similarity)
			printPatternLine(it.Pattern)
		}
		return
	}
	printJSON(items)
}
