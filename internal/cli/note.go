package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/pattern-memory/internal/theory"
)

func init() {
	cmd := &cobra.Command{
		Use:   "note <midi-key>",
		Short: "Record a played note",
		Long:  "Record one note by MIDI key number (60 = C4) in the configured key, mode and instrument.",
		Args:  cobra.ExactArgs(1),
		Run:   runNote,
	}

	cmd.Flags().String("key", "", "Musical key (default from config)")
	cmd.Flags().String("mode", "", "Mode: major, minor, dorian, ... (default from config)")
	cmd.Flags().String("instrument", "", "Instrument (default from config)")
	cmd.Flags().Uint8("velocity", 100, "Velocity 0-127")
	cmd.Flags().String("audio-id", "", "Audio engine note id, used to match the release")
	cmd.Flags().Duration("hold", 0, "Release the note after this long")

	RootCmd.AddCommand(cmd)
}

func runNote(cmd *cobra.Command, args []string) {
	midiKey, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil || midiKey > 127 {
		exitErr("note", fmt.Errorf("invalid midi key %q", args[0]))
	}
	velocity, _ := cmd.Flags().GetUint8("velocity")
	audioID, _ := cmd.Flags().GetString("audio-id")
	hold, _ := cmd.Flags().GetDuration("hold")

	s := mustOpen(cmd)
	defer s.Close(cmd.Context())

	c := inputContext(cmd, s)
	if !theory.ValidMode(c.Mode) {
		exitErr("note", fmt.Errorf("unknown mode %q", c.Mode))
	}
	d, err := c.NoteData(uint8(midiKey), velocity)
	if err != nil {
		exitErr("note", err)
	}
	d.AudioNoteID = audioID

	n := s.det.RecordNote(d)
	if hold > 0 {
		s.det.UpdateNoteRelease(n.ID, n.PressTime.Add(hold))
	}
	if textOutput() {
		fmt.Printf("%s  %s (degree %d, %s) %s\n", n.ID, n.Note, n.ScaleDegree, n.Solfege.Name, n.PressTime.Format(time.RFC3339Nano))
		return
	}
	fmt.Printf(`{"ok":true,"id":%q,"note":%q}`+"\n", n.ID, n.Note)
}

// inputContext merges flag overrides onto the configured input context.
func inputContext(cmd *cobra.Command, s *session) theory.Context {
	c := theory.Context{Key: s.cfg.Input.Key, Mode: s.cfg.Input.Mode, Instrument: s.cfg.Input.Instrument}
	if v, _ := cmd.Flags().GetString("key"); v != "" {
		c.Key = v
	}
	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		c.Mode = v
	}
	if v, _ := cmd.Flags().GetString("instrument"); v != "" {
		c.Instrument = v
	}
	return c
}
