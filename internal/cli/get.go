package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <pattern-id>",
		Short: "Show a pattern",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	p, ok := s.det.Get(args[0])
	if !ok {
		s.Close(cmd.Context())
		exitErr("get", fmt.Errorf("pattern %q not found", args[0]))
	}
	if textOutput() {
		printPatternLine(p)
		for _, n := range p.Notes {
			held := "-"
			if n.Duration != nil {
				held = n.Duration.String()
			}
			fmt.Printf("    %-4s degree %d  %-3s  %s\n", n.Note, n.ScaleDegree, n.Solfege.Name, held)
		}
		return
	}
	printJSON(p)
}
