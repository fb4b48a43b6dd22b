// Package logging writes structured logfmt lines:
//
//	ts=2026-01-02T03:04:05Z level=info msg=pattern_created id=01J.. notes=4
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Level orders log severities.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
	off
)

var levelNames = [...]string{Debug: "debug", Info: "info", Warn: "warn", Error: "error"}

func (l Level) String() string {
	if l < Debug || l > Error {
		return "info"
	}
	return levelNames[l]
}

// ParseLevel maps a config or flag value to a Level. Unknown values mean
// Info.
func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	}
	return Info
}

// Field is one key=value pair.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger is what the rest of the module logs through.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a logger that prepends fields to every line.
	With(fields ...Field) Logger
	Enabled(level Level) bool
}

// sink is shared by a logger and everything derived from it with With.
type sink struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

type logger struct {
	sink  *sink
	level Level
	// context holds the pre-rendered " k=v" pairs from With.
	context []byte
}

// New returns a logger writing lines at or above level to out, or to stderr
// when out is nil.
func New(out io.Writer, level Level) Logger {
	if out == nil {
		out = os.Stderr
	}
	return &logger{sink: &sink{out: out, now: time.Now}, level: level}
}

// Nop returns a logger that drops everything.
func Nop() Logger {
	return &logger{sink: &sink{out: io.Discard, now: time.Now}, level: off}
}

func (l *logger) Enabled(level Level) bool { return level >= l.level }

func (l *logger) With(fields ...Field) Logger {
	ctx := append([]byte(nil), l.context...)
	for _, f := range fields {
		ctx = appendField(ctx, f)
	}
	return &logger{sink: l.sink, level: l.level, context: ctx}
}

func (l *logger) Debug(msg string, fields ...Field) { l.write(Debug, msg, fields) }
func (l *logger) Info(msg string, fields ...Field)  { l.write(Info, msg, fields) }
func (l *logger) Warn(msg string, fields ...Field)  { l.write(Warn, msg, fields) }
func (l *logger) Error(msg string, fields ...Field) { l.write(Error, msg, fields) }

func (l *logger) write(level Level, msg string, fields []Field) {
	if !l.Enabled(level) {
		return
	}
	buf := make([]byte, 0, 128)
	buf = append(buf, "ts="...)
	buf = l.sink.now().UTC().AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, " level="...)
	buf = append(buf, level.String()...)
	buf = append(buf, " msg="...)
	buf = appendString(buf, msg)
	buf = append(buf, l.context...)
	for _, f := range fields {
		buf = appendField(buf, f)
	}
	buf = append(buf, '\n')

	l.sink.mu.Lock()
	_, _ = l.sink.out.Write(buf)
	l.sink.mu.Unlock()
}

func appendField(buf []byte, f Field) []byte {
	buf = append(buf, ' ')
	buf = append(buf, f.Key...)
	buf = append(buf, '=')
	return appendValue(buf, f.Value)
}

func appendValue(buf []byte, v any) []byte {
	switch v := v.(type) {
	case nil:
		return append(buf, "null"...)
	case string:
		return appendString(buf, v)
	case bool:
		return strconv.AppendBool(buf, v)
	case int:
		return strconv.AppendInt(buf, int64(v), 10)
	case int64:
		return strconv.AppendInt(buf, v, 10)
	case uint64:
		return strconv.AppendUint(buf, v, 10)
	case float64:
		return strconv.AppendFloat(buf, v, 'f', -1, 64)
	case time.Time:
		return v.UTC().AppendFormat(buf, time.RFC3339Nano)
	case error:
		return appendString(buf, v.Error())
	case interface{ String() string }:
		return appendString(buf, v.String())
	default:
		return appendString(buf, fmt.Sprint(v))
	}
}

// appendString quotes s only when a logfmt reader would split on it.
func appendString(buf []byte, s string) []byte {
	if s == "" {
		return append(buf, `""`...)
	}
	if strings.ContainsAny(s, " \t\r\n\"=") {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}
