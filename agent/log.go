// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger groups the logging methods the agent uses internally. Loggers
// must be safe for use from multiple goroutines (spec §6.7's logging
// contract).
type Logger interface {
	Error(msg string, context map[string]interface{})
	Warn(msg string, context map[string]interface{})
	Info(msg string, context map[string]interface{})
	Debug(msg string, context map[string]interface{})
	DebugEnabled() bool
}

type zerologShim struct{ logger zerolog.Logger }

func (s *zerologShim) Error(msg string, c map[string]interface{}) {
	s.logger.Error().Fields(c).Msg(msg)
}
func (s *zerologShim) Warn(msg string, c map[string]interface{}) {
	s.logger.Warn().Fields(c).Msg(msg)
}
func (s *zerologShim) Info(msg string, c map[string]interface{}) {
	s.logger.Info().Fields(c).Msg(msg)
}
func (s *zerologShim) Debug(msg string, c map[string]interface{}) {
	s.logger.Debug().Fields(c).Msg(msg)
}
func (s *zerologShim) DebugEnabled() bool {
	return s.logger.GetLevel() <= zerolog.DebugLevel
}

// NewLogger wraps w in a zerolog logger at info level, using a
// colorable writer when w is a terminal (spec §1.1's ambient logging
// stack).
func NewLogger(w io.Writer) Logger {
	return newZerologLogger(w, zerolog.InfoLevel)
}

// NewDebugLogger wraps w in a zerolog logger at debug level.
func NewDebugLogger(w io.Writer) Logger {
	return newZerologLogger(w, zerolog.DebugLevel)
}

func newZerologLogger(w io.Writer, level zerolog.Level) Logger {
	out := w
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		out = colorable.NewColorable(f)
	}
	console := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}
	l := zerolog.New(console).With().Timestamp().Logger().Level(level)
	return &zerologShim{logger: l}
}

// Transform adapts an existing *zerolog.Logger to the Logger
// interface, for callers who already manage their own zerolog setup.
func Transform(l *zerolog.Logger) Logger { return &zerologShim{logger: *l} }

type nullLogger struct{}

func (nullLogger) Error(string, map[string]interface{}) {}
func (nullLogger) Warn(string, map[string]interface{})  {}
func (nullLogger) Info(string, map[string]interface{})  {}
func (nullLogger) Debug(string, map[string]interface{}) {}
func (nullLogger) DebugEnabled() bool                   { return false }

// NewNullLogger returns a Logger that discards everything, used as the
// Config default.
func NewNullLogger() Logger { return nullLogger{} }
