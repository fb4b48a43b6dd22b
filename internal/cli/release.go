package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "release <note-id|audio-id>",
		Short: "Record when a note was released",
		Args:  cobra.ExactArgs(1),
		Run:   runRelease,
	}

	RootCmd.AddCommand(cmd)
}

func runRelease(cmd *cobra.Command, args []string) {
	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	ok := s.det.UpdateNoteRelease(args[0], time.Now())
	fmt.Printf(`{"ok":%t,"id":%q}`+"\n", ok, args[0])
}
