package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/pattern-memory/internal/logging"
	"github.com/rcliao/pattern-memory/internal/service"
	"github.com/rcliao/pattern-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace all state with an exported snapshot",
		Long:  "Import a snapshot (stdin or file) in the format produced by export. Malformed fields are skipped with a warning; expired unsaved patterns are purged.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var r io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			exitErr("open import", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		exitErr("read import", err)
	}

	snap, err := service.DecodeSnapshot(data)
	if err != nil && snap.History == nil && snap.Patterns == nil && snap.Config == nil && snap.SessionID == "" {
		exitErr("parse json", err)
	}

	s := mustOpen(cmd)
	defer s.Close(cmd.Context())
	if err != nil {
		s.log.Warn("import_partial", logging.F("error", err))
	}

	s.det.LoadData(snap)
	patterns := len(s.det.List(store.ListParams{}))
	fmt.Printf(`{"ok":true,"history":%d,"patterns":%d}`+"\n", len(s.det.History()), patterns)
}
