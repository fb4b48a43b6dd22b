package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/pattern-memory/internal/logging"
	"github.com/rcliao/pattern-memory/internal/midiin"
)

func init() {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Detect patterns from a live MIDI input",
		Long:  "Listen on a MIDI input port until interrupted. Phrases are segmented after each silence and the state is saved in the background.",
		Args:  cobra.NoArgs,
		Run:   runListen,
	}

	cmd.Flags().StringP("port", "p", "", "Input port name or part of it (default from config, else first hardware port)")
	cmd.Flags().Bool("list-ports", false, "List input ports and exit")
	cmd.Flags().String("key", "", "Musical key (default from config)")
	cmd.Flags().String("mode", "", "Mode (default from config)")
	cmd.Flags().String("instrument", "", "Instrument (default from config)")
	cmd.Flags().Duration("purge-every", time.Minute, "How often expired patterns are purged")
	cmd.Flags().Int("queue", 16, "Pending snapshot writes before new ones are dropped")

	RootCmd.AddCommand(cmd)
}

func runListen(cmd *cobra.Command, args []string) {
	listPorts, _ := cmd.Flags().GetBool("list-ports")
	port, _ := cmd.Flags().GetString("port")
	purgeEvery, _ := cmd.Flags().GetDuration("purge-every")
	queue, _ := cmd.Flags().GetInt("queue")

	if listPorts {
		names, err := midiin.Ports()
		if err != nil {
			exitErr("list ports", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	s, err := openSession(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close(cmd.Context())
	s.host.StartAutosave(queue)

	if port == "" {
		port = s.cfg.Input.Port
	}
	l, err := midiin.Open(port, s.det, inputContext(cmd, s), s.log)
	if err != nil {
		s.Close(cmd.Context())
		exitErr("open midi input", err)
	}
	defer l.Close()

	ctx := cmd.Context()
	go s.host.RunRetention(ctx, purgeEvery)

	fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s (session %s), ctrl-c to stop\n", l.Port(), s.det.SessionID())
	select {
	case <-ctx.Done():
	case err := <-l.Errors():
		s.log.Error("midi_input_lost", logging.F("error", err))
	}
	s.det.Segment()
}
