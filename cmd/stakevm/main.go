// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// "stakevm" runs a single stakevm node and serves its APIs.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/stakevm/config"
	"github.com/ava-labs/stakevm/genesis"
	"github.com/ava-labs/stakevm/pubsub"
	"github.com/ava-labs/stakevm/rpc"
	"github.com/ava-labs/stakevm/server"
	"github.com/ava-labs/stakevm/vm"
)

const (
	version         = "v0.0.1"
	metricsEndpoint = "/metrics"
)

var (
	configFile  string
	genesisFile string

	rootCmd = &cobra.Command{
		Use:        "stakevm",
		Short:      "StakeVM node",
		SuggestFor: []string{"stakevm"},
		RunE:       runFunc,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Prints out the version",
		RunE: func(*cobra.Command, []string) error {
			fmt.Println(version)
			return nil
		},
	}
)

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		"node config file (json or yaml), defaults are used when empty",
	)
	rootCmd.PersistentFlags().StringVar(
		&genesisFile,
		"genesis",
		"genesis.json",
		"genesis file",
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "stakevm failed %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

func loadConfig() (config.Config, error) {
	if len(configFile) == 0 {
		cfg := config.NewConfig()
		return cfg, cfg.Verify()
	}
	return config.LoadFile(configFile)
}

func runFunc(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	genesisBytes, err := os.ReadFile(genesisFile)
	if err != nil {
		return err
	}
	g, err := genesis.Load(genesisBytes)
	if err != nil {
		return err
	}
	log, err := vm.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, dbGatherer, err := vm.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	v, err := vm.New(ctx, log, cfg, g, db, registry)
	if err != nil {
		_ = db.Close()
		return err
	}

	listener, err := net.Listen("tcp", cfg.HTTPHost)
	if err != nil {
		_ = v.Shutdown()
		return err
	}
	srv := server.New(
		log,
		listener,
		server.NewDefaultHTTPConfig(),
		cfg.AllowedOrigins,
		cfg.AllowedHosts,
		server.DefaultShutdownTimeout,
	)
	ws, err := addRoutes(srv, v, cfg, prometheus.Gatherers{registry, dbGatherer})
	if err != nil {
		_ = v.Shutdown()
		return err
	}

	v.Start(ctx)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(srv.Dispatch)
	eg.Go(func() error {
		err := ws.Run(ctx)
		if errors.Is(err, rpc.ErrClosed) {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		return srv.Shutdown()
	})
	waitErr := eg.Wait()

	// Closing the VM also closes the block subscription of [ws].
	if err := v.Shutdown(); err != nil {
		log.Error("unable to shutdown vm", zap.Error(err))
	}
	return waitErr
}

func addRoutes(
	srv *server.Server,
	v *vm.VM,
	cfg config.Config,
	gatherer prometheus.Gatherer,
) (*rpc.WebSocketServer, error) {
	jsonHandler, err := server.NewHandler(rpc.NewJSONRPCServer(v), rpc.Name)
	if err != nil {
		return nil, err
	}
	if err := srv.AddRoute(jsonHandler, "", rpc.JSONRPCEndpoint); err != nil {
		return nil, err
	}

	pubsubConfig := pubsub.NewDefaultServerConfig()
	pubsubConfig.MaxPendingMessages = cfg.StreamingBacklogSize
	ws, pubsubServer := rpc.NewWebSocketServer(v, pubsubConfig)
	if err := srv.AddRoute(pubsubServer, "", rpc.WebSocketEndpoint); err != nil {
		return nil, err
	}

	if cfg.MetricsEnabled {
		metricsHandler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
		if err := srv.AddRoute(metricsHandler, "", metricsEndpoint); err != nil {
			return nil, err
		}
	}
	return ws, nil
}
