// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

var root atomic.Value

func init() {
	root.Store(&logger{slog.New(NewTerminalHandlerWithLevel(os.Stderr, newLevelVar(slog.LevelInfo), false))})
}

func newLevelVar(l slog.Level) *slog.LevelVar {
	var v slog.LevelVar
	v.Set(l)
	return &v
}

// SetDefault sets the default global logger.
func SetDefault(l Logger) {
	root.Store(l)
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the root logger.
func Root() Logger {
	return root.Load().(Logger)
}

// WithContext returns a logger bound to the given key/value context. The
// root handler is resolved on every call, so loggers created in package
// var blocks still pick up a handler installed later via SetDefault.
func WithContext(ctx ...interface{}) Logger {
	return &lazyLogger{ctx: ctx}
}

// New returns a logger with the given context, bound to the current root.
func New(ctx ...interface{}) Logger {
	return Root().With(ctx...)
}

// The following functions bypass the exported logger methods (logger.Debug,
// etc.) to keep the call depth the same for all paths to logger.Write so
// runtime.Caller(2) always refers to the call site in client code.

// Trace is a convenient alias for Root().Trace
func Trace(msg string, ctx ...interface{}) {
	Root().Write(LevelTrace, msg, ctx...)
}

// Debug is a convenient alias for Root().Debug
func Debug(msg string, ctx ...interface{}) {
	Root().Write(slog.LevelDebug, msg, ctx...)
}

// Info is a convenient alias for Root().Info
func Info(msg string, ctx ...interface{}) {
	Root().Write(slog.LevelInfo, msg, ctx...)
}

// Warn is a convenient alias for Root().Warn
func Warn(msg string, ctx ...interface{}) {
	Root().Write(slog.LevelWarn, msg, ctx...)
}

// Error is a convenient alias for Root().Error
func Error(msg string, ctx ...interface{}) {
	Root().Write(slog.LevelError, msg, ctx...)
}

// Crit is a convenient alias for Root().Crit
func Crit(msg string, ctx ...interface{}) {
	Root().Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

type lazyLogger struct {
	ctx []interface{}
}

func (l *lazyLogger) resolve() Logger {
	return Root().With(l.ctx...)
}

func (l *lazyLogger) With(ctx ...interface{}) Logger {
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &lazyLogger{ctx: merged}
}

func (l *lazyLogger) New(ctx ...interface{}) Logger {
	return l.With(ctx...)
}

func (l *lazyLogger) Log(level slog.Level, msg string, ctx ...interface{}) {
	l.resolve().Log(level, msg, ctx...)
}

func (l *lazyLogger) Trace(msg string, ctx ...interface{}) {
	l.resolve().Trace(msg, ctx...)
}

func (l *lazyLogger) Debug(msg string, ctx ...interface{}) {
	l.resolve().Debug(msg, ctx...)
}

func (l *lazyLogger) Info(msg string, ctx ...interface{}) {
	l.resolve().Info(msg, ctx...)
}

func (l *lazyLogger) Warn(msg string, ctx ...interface{}) {
	l.resolve().Warn(msg, ctx...)
}

func (l *lazyLogger) Error(msg string, ctx ...interface{}) {
	l.resolve().Error(msg, ctx...)
}

func (l *lazyLogger) Crit(msg string, ctx ...interface{}) {
	l.resolve().Crit(msg, ctx...)
}

func (l *lazyLogger) Write(level slog.Level, msg string, attrs ...interface{}) {
	l.resolve().Write(level, msg, attrs...)
}

func (l *lazyLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.resolve().Enabled(ctx, level)
}

func (l *lazyLogger) Handler() slog.Handler {
	return l.resolve().Handler()
}
