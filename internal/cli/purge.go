package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove unsaved patterns older than the purge age",
		Args:  cobra.NoArgs,
		Run:   runPurge,
	}

	RootCmd.AddCommand(cmd)
}

func runPurge(cmd *cobra.Command, args []string) {
	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	n := s.det.Purge()
	fmt.Printf(`{"ok":true,"purged":%d}`+"\n", n)
}
