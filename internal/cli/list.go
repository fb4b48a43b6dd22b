package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/pattern-memory/internal/model"
	"github.com/rcliao/pattern-memory/internal/store"
)

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List patterns",
		Args:  cobra.NoArgs,
		Run:   runList,
	}
	addListFlags(listCmd)

	searchCmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search patterns by name or tag",
		Args:  cobra.MinimumNArgs(1),
		Run:   runList,
	}
	addListFlags(searchCmd)

	RootCmd.AddCommand(listCmd, searchCmd)
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().String("key", "", "Filter by musical key")
	cmd.Flags().String("mode", "", "Filter by mode")
	cmd.Flags().String("instrument", "", "Filter by instrument")
	cmd.Flags().String("type", "", "Filter by type: scale, arpeggio, chord, melody, rhythm, mixed")
	cmd.Flags().String("session", "", "Filter by session id")
	cmd.Flags().Bool("saved", false, "Only saved patterns")
	cmd.Flags().Bool("unsaved", false, "Only unsaved patterns")
	cmd.Flags().Int("min-plays", 0, "Minimum play count")
	cmd.Flags().Duration("since", 0, "Only patterns created within this long")
	cmd.Flags().String("sort", "created_at", "Sort by: created_at, last_played_at, play_count, note_count, complexity_score")
	cmd.Flags().Bool("desc", false, "Sort descending")
	cmd.Flags().IntP("limit", "l", 20, "Max results (0 = all)")
	cmd.Flags().Bool("ids-only", false, "Only output pattern ids")
}

func runList(cmd *cobra.Command, args []string) {
	key, _ := cmd.Flags().GetString("key")
	mode, _ := cmd.Flags().GetString("mode")
	instrument, _ := cmd.Flags().GetString("instrument")
	typ, _ := cmd.Flags().GetString("type")
	sessionID, _ := cmd.Flags().GetString("session")
	saved, _ := cmd.Flags().GetBool("saved")
	unsaved, _ := cmd.Flags().GetBool("unsaved")
	minPlays, _ := cmd.Flags().GetInt("min-plays")
	since, _ := cmd.Flags().GetDuration("since")
	sortStr, _ := cmd.Flags().GetString("sort")
	desc, _ := cmd.Flags().GetBool("desc")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	sortBy, err := store.ParseSortField(sortStr)
	if err != nil {
		exitErr("list", err)
	}
	if typ != "" && !model.ValidPatternTypes[model.PatternType(typ)] {
		exitErr("list", fmt.Errorf("unknown pattern type %q", typ))
	}
	if saved && unsaved {
		exitErr("list", fmt.Errorf("--saved and --unsaved are exclusive"))
	}

	p := store.ListParams{
		Key:          key,
		Mode:         mode,
		Instrument:   instrument,
		Type:         model.PatternType(typ),
		SessionID:    sessionID,
		MinPlayCount: minPlays,
		Query:        strings.Join(args, " "),
		SortBy:       sortBy,
		Desc:         desc,
		Limit:        limit,
	}
	if saved || unsaved {
		p.Saved = &saved
	}
	if since > 0 {
		p.CreatedAfter = time.Now().Add(-since)
	}

	s := mustOpen(cmd)
	defer s.Close(cmd.Context())
	patterns := s.det.List(p)

	switch {
	case idsOnly:
		for _, pt := range patterns {
			fmt.Println(pt.ID)
		}
	case textOutput():
		for _, pt := range patterns {
			printPatternLine(pt)
		}
	default:
		printJSON(patterns)
	}
}

func printPatternLine(p model.Pattern) {
	mark := " "
	if p.IsSaved {
		mark = "*"
	}
	label := p.Name
	if label == "" {
		label = noteNames(p)
	}
	fmt.Printf("%s %s  %-8s %2d notes  %s %s  complexity %.2f  %s  %s\n",
		mark, p.ID, p.PatternType, p.NoteCount, p.Key, p.Mode, p.ComplexityScore,
		humanize.Time(p.CreatedAt), label)
}

func noteNames(p model.Pattern) string {
	names := make([]string, 0, len(p.Notes))
	for _, n := range p.Notes {
		names = append(names, n.Note)
	}
	return strings.Join(names, " ")
}
