package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "save <pattern-id>",
		Short: "Keep a pattern so it is never purged",
		Args:  cobra.ExactArgs(1),
		Run:   runSave,
	}

	cmd.Flags().String("name", "", "Name the pattern")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")

	RootCmd.AddCommand(cmd)
}

func runSave(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")
	tagsStr, _ := cmd.Flags().GetString("tags")

	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	if !s.det.MarkSaved(args[0], name, splitTags(tagsStr)) {
		s.Close(cmd.Context())
		exitErr("save", fmt.Errorf("pattern %q not found", args[0]))
	}
	fmt.Printf(`{"ok":true,"id":%q,"saved":true}`+"\n", args[0])
}
