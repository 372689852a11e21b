// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

// Package logger wraps zerolog with the constructors and context helpers
// used across chantier-sync. Code receives a *Logger and pulls
// request-scoped instances with FromContext or FromRequest.
package logger

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger embeds zerolog.Logger, keeping the full zerolog API available.
type Logger struct {
	zerolog.Logger
}

// newZerolog is the shared setup: JSON entries with a "role" field for
// filtering, a timestamp, and the caller recorded as a function name under
// "func".
func newZerolog(w io.Writer, role string) *Logger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return runtime.FuncForPC(pc).Name()
	}
	zerolog.CallerFieldName = "func"

	logger := zerolog.New(w).With().
		Str("role", role).
		Timestamp().
		Caller().
		Logger()

	return &Logger{logger}
}

// NewLogger builds the server logger, writing to stdout.
func NewLogger(role string) *Logger {
	return newZerolog(os.Stdout, role)
}

// NewClientLogger logs to a file next to the executable. The TUI owns the
// terminal, so stdout is only a fallback when the file cannot be opened.
func NewClientLogger(role string) *Logger {
	var w io.Writer = os.Stdout

	execPath, _ := os.Executable()
	logPath := filepath.Join(filepath.Dir(execPath), "logs")
	if logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		w = logFile
	}

	return newZerolog(w, role)
}

// Nop returns a logger that discards everything. For tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// GetChildLogger returns a copy that can take extra context fields without
// touching the parent.
func (l *Logger) GetChildLogger() *Logger {
	return &Logger{l.With().Logger()}
}

// FromRequest returns the logger the middleware attached to the request
// context. Falls back to zerolog's global logger, so it never returns nil.
func FromRequest(r *http.Request) *Logger {
	return &Logger{*log.Ctx(r.Context())}
}

// FromContext is FromRequest for bare contexts.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}
