package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Practice session management",
	}

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Close the current session and start a new one",
		Long:  "Segments the notes of the current session into patterns, then starts a fresh session id.",
		Args:  cobra.NoArgs,
		Run:   runSessionNew,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current session id",
		Args:  cobra.NoArgs,
		Run:   runSessionShow,
	}

	sessionCmd.AddCommand(newCmd, showCmd)
	RootCmd.AddCommand(sessionCmd)
}

func runSessionNew(cmd *cobra.Command, args []string) {
	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	prev := s.det.SessionID()
	id := s.det.StartNewSession()
	fmt.Printf(`{"ok":true,"session_id":%q,"previous":%q}`+"\n", id, prev)
}

func runSessionShow(cmd *cobra.Command, args []string) {
	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	fmt.Println(s.det.SessionID())
}
