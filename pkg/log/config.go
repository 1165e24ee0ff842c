// Copyright 2026 The tlsync Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tlsync/tlsync/pkg/metrics"
	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/private/config"
)

const (
	// DefaultConsoleLevel is the default log level for the console.
	DefaultConsoleLevel = "info"
	// DefaultStacktraceLevel is the default level above which stack traces
	// are attached.
	DefaultStacktraceLevel = "none"
)

// ConsoleLevel is the level of the console logger. It can be changed at
// runtime and serves the level over HTTP (GET/PUT).
var ConsoleLevel = zap.NewAtomicLevel()

// Config is the configuration for the logger.
type Config struct {
	Console ConsoleConfig `toml:"console,omitempty"`
}

// ConsoleConfig is the config for the console logger.
type ConsoleConfig struct {
	// Level of console logging (debug|info|error).
	Level string `toml:"level,omitempty"`
	// Format of the console logging (human|json).
	Format string `toml:"format,omitempty"`
	// StacktraceLevel sets from which level stacktraces are attached
	// (debug|info|error|none).
	StacktraceLevel string `toml:"stacktrace_level,omitempty"`
	// DisableCaller stops annotating logs with the calling function's file
	// name and line number.
	DisableCaller bool `toml:"disable_caller,omitempty"`
}

// InitDefaults populates unset fields in cfg to their default values.
func (c *Config) InitDefaults() {
	if c.Console.Level == "" {
		c.Console.Level = DefaultConsoleLevel
	}
	if c.Console.Format == "" {
		c.Console.Format = "human"
	}
	if c.Console.StacktraceLevel == "" {
		c.Console.StacktraceLevel = DefaultStacktraceLevel
	}
}

// Validate checks that the levels and the format are known.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.Console.Level); err != nil {
		return err
	}
	if c.Console.StacktraceLevel != "none" {
		if _, err := parseLevel(c.Console.StacktraceLevel); err != nil {
			return err
		}
	}
	switch c.Console.Format {
	case "human", "json":
	default:
		return serrors.New("unknown log format", "format", c.Console.Format)
	}
	return nil
}

// Sample writes the sample configuration.
func (c *Config) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteSample(dst, path, ctx, &c.Console)
}

// ConfigName returns the name of the config block.
func (c *Config) ConfigName() string {
	return "log"
}

// Sample writes the console sample configuration.
func (c *ConsoleConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, consoleSample)
}

// ConfigName returns the name of the console config block.
func (c *ConsoleConfig) ConfigName() string {
	return "console"
}

// EntriesCounter counts the emitted log entries per level.
type EntriesCounter struct {
	Debug metrics.Counter
	Info  metrics.Counter
	Error metrics.Counter
}

type setupOptions struct {
	entriesCounter EntriesCounter
	out            zapcore.WriteSyncer
}

// Option is a setup option.
type Option func(*setupOptions)

// WithEntriesCounter configures the counters for the emitted entries.
func WithEntriesCounter(m EntriesCounter) Option {
	return func(o *setupOptions) {
		o.entriesCounter = m
	}
}

// WithOutput sends the console output to w instead of stderr.
func WithOutput(w io.Writer) Option {
	return func(o *setupOptions) {
		o.out = zapcore.AddSync(w)
	}
}

// Setup configures the root logger according to cfg.
func Setup(cfg Config, opts ...Option) error {
	o := setupOptions{out: zapcore.Lock(os.Stderr)}
	for _, opt := range opts {
		opt(&o)
	}
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return serrors.Wrap("validating logging config", err)
	}
	lvl, err := parseLevel(cfg.Console.Level)
	if err != nil {
		return err
	}
	ConsoleLevel.SetLevel(lvl)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if cfg.Console.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	zopts := []zap.Option{zap.Hooks(o.countEntry)}
	if !cfg.Console.DisableCaller {
		zopts = append(zopts, zap.AddCaller())
	}
	if cfg.Console.StacktraceLevel != "none" {
		st, err := parseLevel(cfg.Console.StacktraceLevel)
		if err != nil {
			return err
		}
		zopts = append(zopts, zap.AddStacktrace(st))
	}
	zap.ReplaceGlobals(zap.New(zapcore.NewCore(enc, o.out, ConsoleLevel), zopts...))
	return nil
}

func (o setupOptions) countEntry(e zapcore.Entry) error {
	switch e.Level {
	case zapcore.DebugLevel:
		metrics.CounterInc(o.entriesCounter.Debug)
	case zapcore.InfoLevel:
		metrics.CounterInc(o.entriesCounter.Info)
	default:
		metrics.CounterInc(o.entriesCounter.Error)
	}
	return nil
}

func parseLevel(lvl string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(lvl))); err != nil {
		return l, serrors.Wrap("parsing log level", err, "level", lvl)
	}
	return l, nil
}
