package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export history, patterns and settings as JSON",
		Long:  "Export the full detector state as one JSON snapshot, to stdout or a file. The format is what import expects.",
		Args:  cobra.NoArgs,
		Run:   runExport,
	}

	cmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	out, _ := cmd.Flags().GetString("out")

	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	b, err := s.det.ExportData().Encode()
	if err != nil {
		exitErr("export", err)
	}
	if out == "" {
		os.Stdout.Write(append(b, '\n'))
		return
	}
	if err := os.WriteFile(out, b, 0o644); err != nil {
		exitErr("write export", err)
	}
}
