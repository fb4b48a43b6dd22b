package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/pattern-memory/internal/logging"
	"github.com/rcliao/pattern-memory/internal/midifile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest <file.mid>",
		Short: "Replay a MIDI file as if it were played",
		Long:  "Read note events from a Standard MIDI File and record them with their original timing, then segment them into patterns.",
		Args:  cobra.ExactArgs(1),
		Run:   runIngest,
	}

	cmd.Flags().String("key", "", "Musical key (default from config)")
	cmd.Flags().String("mode", "", "Mode (default from config)")
	cmd.Flags().String("instrument", "", "Instrument (default from config)")
	cmd.Flags().Bool("new-session", true, "Record the file in its own session")

	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	newSession, _ := cmd.Flags().GetBool("new-session")

	events, err := midifile.Read(args[0])
	if err != nil {
		exitErr("ingest", err)
	}

	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	if newSession {
		s.det.StartNewSession()
	}
	c := inputContext(cmd, s)
	flushEvery := s.det.Config().MaxHistorySize / 2
	res, err := midifile.Replay(s.det, events, c, time.Now(), flushEvery)
	if err != nil {
		exitErr("ingest", err)
	}
	s.log.Info("ingested",
		logging.F("file", args[0]),
		logging.F("notes", res.Notes),
		logging.F("releases", res.Releases),
		logging.F("patterns", len(res.Patterns)))

	if textOutput() {
		for _, p := range res.Patterns {
			printPatternLine(p)
		}
		return
	}
	fmt.Printf(`{"ok":true,"notes":%d,"releases":%d,"unmatched_releases":%d,"patterns":%d}`+"\n",
		res.Notes, res.Releases, res.Skipped, len(res.Patterns))
}
