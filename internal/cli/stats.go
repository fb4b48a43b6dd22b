package cli

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/pattern-memory/internal/model"
	"github.com/rcliao/pattern-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show pattern and history statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	stats := s.det.Stats()
	rev, hasRev := s.host.Revision(cmd.Context())
	if !textOutput() {
		out := struct {
			*store.Stats
			Revision *int `json:"snapshot_revision,omitempty"`
		}{Stats: stats}
		if hasRev {
			out.Revision = &rev
		}
		printJSON(out)
		return
	}

	fmt.Printf("patterns:  %s (%s saved)\n", humanize.Comma(int64(stats.TotalPatterns)), humanize.Comma(int64(stats.SavedPatterns)))
	fmt.Printf("history:   %s notes\n", humanize.Comma(int64(stats.HistorySize)))
	fmt.Printf("storage:   %s\n", humanize.Bytes(uint64(stats.StorageBytes)))
	if hasRev {
		fmt.Printf("revision:  %s\n", humanize.Comma(int64(rev)))
	}
	if stats.OldestPattern != nil {
		fmt.Printf("oldest:    %s\n", humanize.Time(*stats.OldestPattern))
		fmt.Printf("newest:    %s\n", humanize.Time(*stats.NewestPattern))
	}
	fmt.Printf("avg notes: %.1f\n", stats.AverageNoteCount)
	if stats.MostPlayed != nil {
		fmt.Printf("top:       %s (%s)\n", stats.MostPlayed.ID, humanize.Plural(stats.MostPlayed.PlayCount, "play", "plays"))
	}

	types := make([]model.PatternType, 0, len(stats.TypeCounts))
	for t := range stats.TypeCounts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Printf("  %-9s %d\n", t, stats.TypeCounts[t])
	}
}
