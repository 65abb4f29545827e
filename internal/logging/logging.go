// Package logging builds the process slog logger from command-line options.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel normalizes a log level string into slog.Level.
// Unknown values return slog.LevelInfo with an error.
func ParseLevel(s string) (slog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.New("invalid log level: " + s)
}

// Options controls logger formatting and destination.
type Options struct {
	Level  string
	Format string // text or json
	// File, when set, receives logs in addition to Writer and is rotated
	// by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	Writer     io.Writer // defaults to stderr
}

// New constructs the logger, installs it as the slog default and returns a
// closer for the rotating file, if any.
func New(opt Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, nil, err
	}
	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	var closer io.Closer = nopCloser{}
	if opt.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opt.File,
			MaxSize:    orDefault(opt.MaxSizeMB, 10),
			MaxBackups: orDefault(opt.MaxBackups, 3),
			Compress:   true,
		}
		w = io.MultiWriter(w, lj)
		closer = lj
	}

	ho := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}
	var h slog.Handler
	switch strings.ToLower(opt.Format) {
	case "", "text":
		h = slog.NewTextHandler(w, ho)
	case "json":
		h = slog.NewJSONHandler(w, ho)
	default:
		return nil, nil, errors.New("invalid log format: " + opt.Format)
	}
	lg := slog.New(h)
	slog.SetDefault(lg)
	return lg, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
