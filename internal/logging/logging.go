// Package logging provides the station's external log sink: a
// category+level line writer backed by log/slog and a rotating file,
// the way mmp-vice's pkg/log wraps slog with lumberjack.
package logging

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Category identifies which component emitted a line.
type Category string

const (
	Master       Category = "MASTER"
	Dispatcher   Category = "DISPATCHER"
	TicketOffice Category = "TICKET_OFFICE"
	Driver       Category = "DRIVER"
	Passenger    Category = "PASSENGER"
	Stats        Category = "STATS"
)

// Mode is the --log verbosity selector.
type Mode string

const (
	Verbose Mode = "verbose"
	Summary Mode = "summary"
	Minimal Mode = "minimal"
)

// Logger is the station-wide log sink. A nil *Logger is valid and
// discards DEBUG/INFO, mirroring vice's nil-tolerant Logger methods.
type Logger struct {
	*slog.Logger
	mode Mode
	file string
}

// New builds a Logger at the given verbosity, writing to dir (default
// "busstation-logs" when empty). verbose enables DEBUG, summary enables
// INFO/WARN/ERROR for every category, minimal enables WARN/ERROR only.
func New(mode Mode, dir string) *Logger {
	if dir == "" {
		dir = "busstation-logs"
	}
	w := &lumberjack.Logger{
		Filename: dir + "/station.log",
		MaxSize:  32, // MB
		MaxAge:   7,
		Compress: true,
	}

	lvl := slog.LevelInfo
	switch mode {
	case Verbose:
		lvl = slog.LevelDebug
	case Summary:
		lvl = slog.LevelInfo
	case Minimal:
		lvl = slog.LevelWarn
	default:
		fmt.Fprintf(os.Stderr, "%s: invalid log mode, defaulting to summary\n", mode)
		mode = Summary
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return &Logger{
		Logger: slog.New(h),
		mode:   mode,
		file:   w.Filename,
	}
}

// Mode reports the configured verbosity.
func (l *Logger) Mode() Mode {
	if l == nil {
		return Summary
	}
	return l.mode
}

// File reports the path lumberjack is rotating.
func (l *Logger) File() string {
	if l == nil {
		return ""
	}
	return l.file
}

// Log writes one line tagged with category and level, matching the
// external log-sink contract of spec.md §6.
func (l *Logger) Log(cat Category, level string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch level {
	case "DEBUG":
		l.Debug(msg, slog.String("category", string(cat)))
	case "WARN":
		l.Warn(msg, slog.String("category", string(cat)))
	case "ERROR":
		l.Error(msg, slog.String("category", string(cat)))
	default:
		l.Info(msg, slog.String("category", string(cat)))
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	if l == nil {
		return
	}
	l.Logger.Debug(msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	if l == nil {
		return
	}
	l.Logger.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		slog.Warn(msg, args...)
		return
	}
	l.Logger.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	if l == nil {
		slog.Error(msg, args...)
		return
	}
	l.Logger.Error(msg, args...)
}
