package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "play <pattern-id>",
		Short: "Record that a pattern was played back",
		Args:  cobra.ExactArgs(1),
		Run:   runPlay,
	}

	RootCmd.AddCommand(cmd)
}

func runPlay(cmd *cobra.Command, args []string) {
	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	if !s.det.MarkPlayed(args[0]) {
		s.Close(cmd.Context())
		exitErr("play", fmt.Errorf("pattern %q not found", args[0]))
	}
	p, _ := s.det.Get(args[0])
	fmt.Printf(`{"ok":true,"id":%q,"play_count":%d}`+"\n", p.ID, p.PlayCount)
}
