package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded notes",
		Args:  cobra.NoArgs,
		Run:   runHistory,
	}

	cmd.Flags().IntP("limit", "l", 50, "Show the newest N notes (0 = all)")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	notes := s.det.History()
	if limit > 0 && len(notes) > limit {
		notes = notes[len(notes)-limit:]
	}
	if !textOutput() {
		printJSON(notes)
		return
	}
	for _, n := range notes {
		held := "held"
		if n.Duration != nil {
			held = n.Duration.String()
		}
		fmt.Printf("%s  %-4s %s %s  degree %d  %-8s %s\n",
			n.PressTime.Format("15:04:05.000"), n.Note, n.Key, n.Mode, n.ScaleDegree, n.Instrument, held)
	}
}
