// Package logging builds the zerolog logger shared by the server and the service.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const permission = 0o664

// Builder configures where logs go and at which level.
type Builder struct {
	writer  io.Writer
	path    string
	level   string
	console bool
}

// Logger is a built logger plus the file it writes to, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New returns a builder writing JSON to stdout at info level.
func New() *Builder {
	return &Builder{level: "info"}
}

// FromPath appends logs to the file at path.
func (b *Builder) FromPath(path string) *Builder {
	b.path = path
	return b
}

// FromBuffer writes logs to w.
func (b *Builder) FromBuffer(w io.Writer) *Builder {
	b.writer = w
	return b
}

// Level sets the minimum level by name ("debug", "info", ...).
// Unknown names keep info.
func (b *Builder) Level(level string) *Builder {
	b.level = level
	return b
}

// Console switches to human readable output.
func (b *Builder) Console(console bool) *Builder {
	b.console = console
	return b
}

// Make builds the logger.
func (b *Builder) Make() (*Logger, error) {
	out := &Logger{}

	var w io.Writer = os.Stdout
	if b.writer != nil {
		w = b.writer
	}
	if b.path != "" {
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		out.file = f
		w = zerolog.SyncWriter(f)
	}
	if b.console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: b.path != ""}
	}

	level, err := zerolog.ParseLevel(b.level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return out, nil
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
