// Package logx wires structured logging to a rotating file, mirroring the
// teacher's <logDir>-configurable, rotate-by-size convention.
package logx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.Mutex
	logger  *slog.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	debugOn bool
)

// Options configures the rotating log file.
type Options struct {
	Dir        string // directory containing az.log; created if missing
	MaxSizeMB  int    // default 10
	MaxBackups int    // default 5
	MaxAgeDays int    // default 30
}

// Init points the package logger at <Dir>/az.log and returns it. Safe to
// call more than once (e.g. after a config reload changes logDir).
func Init(opts Options) (*slog.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 5
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 30
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
		return nil, err
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "az.log"),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	debugOn = os.Getenv("AZEDARACH_DEBUG") != ""
	return logger, nil
}

// Get returns the current package logger. Before Init is called it
// discards everything, so packages may hold a reference at construction
// time and log through it once Init runs.
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Debugf emits a low-volume trace line gated on AZEDARACH_DEBUG, mirroring
// the teacher's debug.Logf helper for chatter that shouldn't hit the
// structured log at Info level.
func Debugf(format string, args ...any) {
	mu.Lock()
	on := debugOn
	mu.Unlock()
	if !on {
		return
	}
	Get().Debug(sprintfLazy(format, args...))
}

func sprintfLazy(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
