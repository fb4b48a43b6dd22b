// Package midiin feeds a live MIDI input port into a detector.
package midiin

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/rcliao/pattern-memory/internal/logging"
	"github.com/rcliao/pattern-memory/internal/model"
	"github.com/rcliao/pattern-memory/internal/theory"
)

// Virtual and system ports that are never picked automatically.
var excludedPorts = []string{"Midi Through", "Through Port", "Dummy"}

// ErrNoPort is returned when no usable input port exists.
var ErrNoPort = errors.New("midiin: no input port")

// Sink receives live notes. *service.Detector implements it.
type Sink interface {
	RecordNote(d model.NoteData) model.HistoryNote
	UpdateNoteRelease(id string, at time.Time) bool
}

// Listener forwards note starts and ends from one input port.
type Listener struct {
	drv  *rtmididrv.Driver
	in   drivers.In
	stop func()

	sink Sink
	ctx  theory.Context
	now  func() time.Time
	log  logging.Logger
	// Errors from the driver goroutine; the listener stops on the first one.
	errs chan error
}

// Ports lists the available input port names.
func Ports() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	defer drv.Close()
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names, nil
}

// Open connects to the first port whose name contains port, or the first
// non-virtual port when port is empty.
func Open(port string, sink Sink, c theory.Context, log logging.Logger) (*Listener, error) {
	if log == nil {
		log = logging.Nop()
	}
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	found := pick(ins, port)
	if found == nil {
		drv.Close()
		if port == "" {
			return nil, ErrNoPort
		}
		return nil, fmt.Errorf("input %q not found: %w", port, ErrNoPort)
	}
	if err := found.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open %q: %w", found.String(), err)
	}

	log = log.With(logging.F("port", found.String()))
	l := &Listener{
		drv:  drv,
		in:   found,
		sink: sink,
		ctx:  c,
		now:  time.Now,
		log:  log,
		errs: make(chan error, 1),
	}
	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		l.handle(msg)
	}, midi.HandleError(func(listenErr error) {
		log.Warn("midi_listener_error", logging.F("error", listenErr))
		select {
		case l.errs <- listenErr:
		default:
		}
	}))
	if err != nil {
		_ = found.Close()
		drv.Close()
		return nil, fmt.Errorf("listen %q: %w", found.String(), err)
	}
	l.stop = stop
	log.Info("midi_connected")
	return l, nil
}

func pick(ins []drivers.In, port string) drivers.In {
	for _, in := range ins {
		name := in.String()
		if port != "" {
			if containsCI(name, port) {
				return in
			}
			continue
		}
		if !excluded(name) {
			return in
		}
	}
	return nil
}

func excluded(name string) bool {
	for _, p := range excludedPorts {
		if containsCI(name, p) {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Port returns the connected port name.
func (l *Listener) Port() string {
	return l.in.String()
}

// Errors reports the first driver error.
func (l *Listener) Errors() <-chan error {
	return l.errs
}

func (l *Listener) handle(msg midi.Message) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		d, err := l.ctx.NoteData(key, vel)
		if err != nil {
			l.log.Warn("midi_note_skipped", logging.F("key", key), logging.F("error", err))
			return
		}
		d.AudioNoteID = audioNoteID(ch, key)
		n := l.sink.RecordNote(d)
		l.log.Debug("midi_note_on", logging.F("note", n.Note), logging.F("ch", ch), logging.F("vel", vel))
	case msg.GetNoteEnd(&ch, &key):
		l.sink.UpdateNoteRelease(audioNoteID(ch, key), l.now())
		l.log.Debug("midi_note_off", logging.F("key", key), logging.F("ch", ch))
	}
}

func audioNoteID(ch, key uint8) string {
	return fmt.Sprintf("%d:%d", ch, key)
}

// Close stops listening and releases the driver.
func (l *Listener) Close() error {
	if l.stop != nil {
		l.stop()
	}
	err := l.in.Close()
	l.drv.Close()
	return err
}
