// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/transcriptd/internal/api"
	"github.com/ManuGH/transcriptd/internal/assets"
	"github.com/ManuGH/transcriptd/internal/cache"
	"github.com/ManuGH/transcriptd/internal/config"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/editor"
	"github.com/ManuGH/transcriptd/internal/domain/transcripts/store"
	"github.com/ManuGH/transcriptd/internal/handlers"
	"github.com/ManuGH/transcriptd/internal/health"
	xlog "github.com/ManuGH/transcriptd/internal/log"
	"github.com/ManuGH/transcriptd/internal/telemetry"
	"github.com/ManuGH/transcriptd/internal/videoplatform"
)

const shutdownTimeout = 10 * time.Second

// app owns every long-lived component of the daemon.
type app struct {
	cfg    config.AppConfig
	logger zerolog.Logger

	manager *editor.Manager
	server  *api.Server
	watcher *videoplatform.FileProvider

	closers []func() error
}

func newApp(ctx context.Context, cfg config.AppConfig) (*app, error) {
	a := &app{cfg: cfg, logger: xlog.WithComponent("daemon")}
	ready := false
	defer func() {
		if !ready {
			_ = a.Close()
		}
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "transcriptd",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	a.onClose(func() error {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return tp.Shutdown(sctx)
	})

	hm := health.NewManager(cfg.Version)

	fields, err := store.OpenFieldStore(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open field store: %w", err)
	}
	a.onClose(fields.Close)
	hm.RegisterChecker(health.CheckFunc("store", fields.Ping))

	indexCache, err := a.openCache(ctx, hm)
	if err != nil {
		return nil, err
	}
	a.onClose(indexCache.Close)

	provider, err := a.openProvider()
	if err != nil {
		return nil, err
	}

	assetStore, err := assets.NewDiskStore(cfg.Assets.Dir)
	if err != nil {
		return nil, fmt.Errorf("open asset store: %w", err)
	}

	local := handlers.NewService(provider, assetStore)
	var sessionHandlers handlers.Handlers = local
	var served api.TranscriptHandlers = local
	downloadBase := api.V1BaseURL + "/transcripts/download"
	vttBase := api.V1BaseURL + "/transcripts/vtt"
	if cfg.Handlers.Mode == config.HandlersRemote {
		client, err := handlers.NewClient(cfg.Handlers.BaseURL, cfg.Platform.Timeout)
		if err != nil {
			return nil, fmt.Errorf("init handler client: %w", err)
		}
		sessionHandlers = client
		served = nil
		remote := strings.TrimRight(cfg.Handlers.BaseURL, "/")
		downloadBase = remote + downloadBase
		vttBase = remote + vttBase
	}

	a.manager = editor.NewManager(editor.ManagerConfig{
		Items:        fields,
		Index:        videoplatform.NewIndexService(provider, indexCache, cfg.Cache.TTL),
		Handlers:     sessionHandlers,
		Sink:         store.Flusher{Store: fields},
		DownloadBase: downloadBase,
		VTTBase:      vttBase,
		IdleTimeout:  cfg.Session.IdleTimeout,
	})

	tracingService := ""
	if cfg.Telemetry.Enabled {
		tracingService = "transcriptd-api"
	}
	server, err := api.New(api.Config{
		RateLimit:        cfg.API.RateLimit,
		MaxUploadBytes:   cfg.API.MaxUploadBytes,
		ValidateRequests: cfg.API.ValidateRequests,
		TracingService:   tracingService,
	}, api.Deps{
		Sessions: a.manager,
		Handlers: served,
		Items:    fields,
		Health:   hm,
	})
	if err != nil {
		return nil, fmt.Errorf("init api: %w", err)
	}
	a.server = server
	ready = true
	return a, nil
}

func (a *app) openCache(ctx context.Context, hm *health.Manager) (cache.IndexCache, error) {
	switch a.cfg.Cache.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     a.cfg.Cache.RedisAddr,
			Password: a.cfg.Cache.RedisPassword,
			DB:       a.cfg.Cache.RedisDB,
		}, xlog.WithComponent("cache"))
		if err != nil {
			return nil, fmt.Errorf("connect index cache: %w", err)
		}
		// A cache outage slows session opens but does not break them.
		hm.RegisterChecker(health.SoftCheckFunc("index_cache", rc.Ping))
		return rc, nil
	case config.CacheNone:
		return cache.NewNoOpCache(), nil
	default:
		return cache.NewMemoryCache(time.Minute), nil
	}
}

func (a *app) openProvider() (videoplatform.Provider, error) {
	p := a.cfg.Platform
	if p.Provider == config.PlatformHTTP {
		hp, err := videoplatform.NewHTTPProvider(videoplatform.HTTPConfig{
			BaseURL:          p.BaseURL,
			Token:            p.Token,
			Timeout:          p.Timeout,
			RateLimit:        p.RateLimit,
			RateBurst:        p.RateBurst,
			BreakerThreshold: p.BreakerThreshold,
			BreakerReset:     p.BreakerReset,
		})
		if err != nil {
			return nil, fmt.Errorf("init platform provider: %w", err)
		}
		return hp, nil
	}

	fp, err := videoplatform.NewFileProvider(p.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load platform catalog: %w", err)
	}
	a.watcher = fp
	return fp, nil
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Serve runs the HTTP server, the session sweeper and the catalog watcher
// until ctx is done or one of them fails.
func (a *app) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info().
			Str(xlog.FieldEvent, "server.started").
			Str("addr", ln.Addr().String()).
			Msg("HTTP server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		a.logger.Info().Str(xlog.FieldEvent, "server.stopped").Msg("HTTP server stopped")
		return nil
	})
	g.Go(func() error {
		return a.manager.Run(gctx, a.cfg.Session.SweepInterval)
	})
	if a.watcher != nil {
		g.Go(func() error {
			return a.watcher.Watch(gctx)
		})
	}
	return g.Wait()
}

// Close releases components in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
