// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	isatty "github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/Citadel-Finance/citadel-pool-go/log"
)

func fatal(args ...any) {
	fmt.Fprint(os.Stderr, "Fatal: ")
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".citadel-pool")
	}
	return ""
}

func initLogger(ctx *cli.Context) {
	var level slog.LevelVar
	level.Set(log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stderr, &level)
	} else {
		useColor := isatty.IsTerminal(os.Stderr.Fd())
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, &level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
}

// handleExitSignal returns a channel closed on SIGINT/SIGTERM.
func handleExitSignal() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		sig := <-signals
		logger.Info("exit signal received", "signal", sig)
		close(done)
	}()
	return done
}
