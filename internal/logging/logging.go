// Package logging builds the zerolog logger used across medcarbon and carries
// it through context.Context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name. Unknown names fall back to info.
	Level string

	// Format is FormatConsole or FormatJSON.
	Format string

	// Output receives log lines. Defaults to os.Stderr.
	Output io.Writer

	// File, when set, receives a JSON copy of every log line.
	File string

	// Caller adds the source file and line to each entry.
	Caller bool
}

// Result is the logger together with anything it opened.
type Result struct {
	Logger zerolog.Logger
	file   *os.File
}

// Close releases the log file, if one was opened.
func (r *Result) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// NewLogger builds a logger from cfg. A log file that cannot be opened is
// reported through the returned error while the console logger still works.
func NewLogger(cfg Config) (*Result, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var console io.Writer = out
	if !strings.EqualFold(cfg.Format, FormatJSON) {
		console = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal(out),
		}
	}

	res := &Result{}
	writers := []io.Writer{console}
	var fileErr error
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			fileErr = fmt.Errorf("opening log file %s: %w", cfg.File, err)
		} else {
			res.file = f
			writers = append(writers, f)
		}
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	res.Logger = ctx.Logger()
	return res, fileErr
}

// ParseLevel parses a level name, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// ComponentLogger returns a child logger tagged with component.
func ComponentLogger(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}

// FromContext returns the logger stored in ctx, or a disabled logger when
// there is none.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		l := zerolog.Nop()
		return &l
	}
	return zerolog.Ctx(ctx)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
