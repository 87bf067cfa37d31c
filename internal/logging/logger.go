// Package logging builds the zap loggers used across the engine.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format picks the encoder: JSON for headless runs, console for the demo window.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// Options is the logging section of a config file. The zero value logs
// info and above as JSON.
type Options struct {
	Level  Level  `yaml:"level"`
	Format Format `yaml:"format"`
	Caller bool   `yaml:"caller"`
}

// LoadOptions reads the top-level "logging" key of a YAML document and
// ignores everything else, so it can share a file with the physics config.
func LoadOptions(r io.Reader) (Options, error) {
	var doc struct {
		Logging Options `yaml:"logging"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("decode logging options: %w", err)
	}
	switch Format(strings.ToLower(string(doc.Logging.Format))) {
	case "", FormatJSON, FormatConsole:
	default:
		return Options{}, fmt.Errorf("unknown log format %q", doc.Logging.Format)
	}
	return doc.Logging, nil
}

// New builds a logger writing to stderr. JSON output is sampled per second
// so a misbehaving scene can't flood it; console output is not.
func New(opts Options) *zap.Logger {
	level := zap.NewAtomicLevelAt(toZapLevel(opts.Level))

	var core zapcore.Core
	if Format(strings.ToLower(string(opts.Format))) == FormatConsole {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), level)
	} else {
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		core = zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(os.Stderr), level)
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
	}

	var zapOpts []zap.Option
	if opts.Caller {
		zapOpts = append(zapOpts, zap.AddCaller())
	}
	return zap.New(core, zapOpts...)
}

// Nop discards everything. Used by tests and as the world default.
func Nop() *zap.Logger {
	return zap.NewNop()
}

func toZapLevel(level Level) zapcore.Level {
	switch Level(strings.ToLower(string(level))) {
	case LevelDebug:
		return zap.DebugLevel
	case LevelInfo:
		return zap.InfoLevel
	case LevelWarn:
		return zap.WarnLevel
	case LevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
