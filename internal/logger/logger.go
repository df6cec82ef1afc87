// Package logger builds the structured logger used by the command line tools.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options defines logger initialization parameters.
type Options struct {
	Level      string    `yaml:"level"`
	Pretty     bool      `yaml:"pretty"`
	File       string    `yaml:"file"`
	MaxSizeMB  int       `yaml:"max_size_mb"`
	MaxBackups int       `yaml:"max_backups"`
	MaxAgeDays int       `yaml:"max_age_days"`
	Compress   bool      `yaml:"compress"`
	Console    io.Writer `yaml:"-"` // Defaults to os.Stderr
}

// New creates a logger writing to the console and, when File is set, to a
// rotating log file. The returned closer releases the file.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("create logs dir: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		writers = append(writers, lj)
		closer = lj
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	if opts.Pretty {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339})
	} else {
		writers = append(writers, console)
	}

	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	out := io.MultiWriter(writers...)
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), closer, nil
}

// ParseLevel accepts debug, info, warn and error. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	switch lvl {
	case zerolog.DebugLevel, zerolog.InfoLevel, zerolog.WarnLevel, zerolog.ErrorLevel:
		return lvl, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unsupported log level %q", s)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
