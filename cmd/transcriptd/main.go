// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/transcriptd/internal/config"
	xlog "github.com/ManuGH/transcriptd/internal/log"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until config is loaded.
	xlog.Configure(xlog.Config{Level: "info", Service: "transcriptd", Version: version})
	logger := xlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Precedence: ENV > File > Defaults
	cfg, err := config.NewLoader(*configPath, version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xlog.FieldEvent, "config.load_failed").
			Str(xlog.FieldPath, *configPath).
			Msg("failed to load configuration")
	}

	xlog.Reset()
	xlog.Configure(xlog.Config{Level: cfg.LogLevel, Service: "transcriptd", Version: cfg.Version})
	logger = xlog.WithComponent("daemon")

	source := "env+defaults"
	if *configPath != "" {
		source = "file"
	}
	logger.Info().
		Str(xlog.FieldEvent, "config.loaded").
		Str(xlog.FieldSource, source).
		Str("store_backend", cfg.Store.Backend).
		Str("platform_provider", cfg.Platform.Provider).
		Str("cache_backend", cfg.Cache.Backend).
		Str("handlers_mode", cfg.Handlers.Mode).
		Msg("configuration loaded")

	if err := run(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str(xlog.FieldEvent, "daemon.failed").
			Msg("transcriptd stopped with error")
	}
	logger.Info().Str(xlog.FieldEvent, "daemon.stopped").Msg("transcriptd stopped")
}

func run(ctx context.Context, cfg config.AppConfig) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}
	return a.Serve(ctx, ln)
}
