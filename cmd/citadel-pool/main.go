// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/Citadel-Finance/citadel-pool-go/api"
	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/factory"
	"github.com/Citadel-Finance/citadel-pool-go/kv"
	"github.com/Citadel-Finance/citadel-pool-go/log"
	"github.com/Citadel-Finance/citadel-pool-go/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")

	factoryAddr = citadel.BytesToAddress([]byte("citadel-factory"))
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "citadel-pool",
		Usage:     "Citadel staking pool service",
		Copyright: "2021 Citadel Finance",
		Flags: []cli.Flag{
			dataDirFlag,
			configFlag,
			apiAddrFlag,
			apiCorsFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			enableAPILogsFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	configPath := ctx.String(configFlag.Name)
	if configPath == "" {
		fatal("--config is required")
	}
	config, err := loadConfig(configPath)
	if err != nil {
		fatal(err)
	}

	dataDir := ctx.String(dataDirFlag.Name)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fatal(err)
	}
	store, err := kv.New(filepath.Join(dataDir, "ledger.db"), kv.Options{
		CacheSize:              128,
		OpenFilesCacheCapacity: 512,
	})
	if err != nil {
		fatal(err)
	}
	defer func() { logger.Info("closing ledger database..."); store.Close() }()

	f := factory.New(factoryAddr, store, citadel.TokenAddress(RewardSymbol))
	if err := bootstrap(config, f, store, uint64(time.Now().Unix())); err != nil {
		fatal(err)
	}

	handler := api.New(f, nil, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
	})

	listener, err := net.Listen("tcp", ctx.String(apiAddrFlag.Name))
	if err != nil {
		fatal(err)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	logger.Info("service started",
		"version", fullVersion(),
		"api", "http://"+listener.Addr().String(),
		"pools", len(config.Pools),
	)

	var group errgroup.Group
	group.Go(func() error {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-handleExitSignal()
		logger.Info("stopping API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
