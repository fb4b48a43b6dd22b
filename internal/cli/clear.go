package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all history and patterns, saved ones included",
		Args:  cobra.NoArgs,
		Run:   runClear,
	}

	cmd.Flags().Bool("yes", false, "Confirm deleting everything")
	cmd.Flags().Bool("all", false, "Also forget stored settings and the session")

	RootCmd.AddCommand(cmd)
}

func runClear(cmd *cobra.Command, args []string) {
	yes, _ := cmd.Flags().GetBool("yes")
	all, _ := cmd.Flags().GetBool("all")
	if !yes {
		exitErr("clear", fmt.Errorf("refusing to delete everything without --yes"))
	}

	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	if all {
		if err := s.host.Discard(cmd.Context()); err != nil {
			exitErr("clear", err)
		}
	} else {
		s.det.ClearAllData()
	}
	fmt.Printf(`{"ok":true,"all":%t}`+"\n", all)
}
