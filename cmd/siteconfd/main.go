// SPDX-License-Identifier: MIT

// Command siteconfd runs the configuration core as a daemon: it bootstraps
// and hot-reloads the domain config files and serves the read API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/sync/errgroup"

	"github.com/groveworks/siteconf/internal/api"
	"github.com/groveworks/siteconf/internal/config"
	"github.com/groveworks/siteconf/internal/domains"
	xlog "github.com/groveworks/siteconf/internal/log"
)

// settings are the daemon's own process options, distinct from the domain
// configuration it manages.
type settings struct {
	ConfigDir  string        `env:"SITECONF_DIR" envDefault:"./config"`
	ListenAddr string        `env:"SITECONF_LISTEN" envDefault:":8080"`
	LogLevel   string        `env:"SITECONF_LOG_LEVEL" envDefault:"info"`
	RateLimit  int           `env:"SITECONF_RATE_LIMIT" envDefault:"120"`
	Shutdown   time.Duration `env:"SITECONF_SHUTDOWN_GRACE" envDefault:"10s"`
}

func main() {
	var cfg settings
	if err := env.Parse(&cfg); err != nil {
		base := xlog.Base()
		base.Fatal().Err(err).Msg("parse environment")
	}
	xlog.Configure(xlog.Config{Level: cfg.LogLevel})
	logger := xlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr, err := config.NewManager(cfg.ConfigDir, domains.All())
	if err != nil {
		logger.Fatal().Err(err).Msg("construct manager")
	}

	mgr.Subscribe(config.EventChanged, func(ev config.Event) {
		logger.Info().
			Str("event", "daemon.config_changed").
			Str("file", ev.File).
			Time("at", ev.Time).
			Msg("live configuration update applied")
	})

	if err := mgr.Start(ctx); err != nil {
		// Per-domain bootstrap failures are not fatal for the process; the
		// affected domains keep serving their compiled-in defaults.
		logger.Error().Err(err).Msg("startup degraded")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.New(mgr).Router(api.Options{RateLimit: cfg.RateLimit}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("serving read API")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if cerr := mgr.Close(); cerr != nil {
		logger.Error().Err(cerr).Msg("close watcher")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("daemon exited with error")
	}
	logger.Info().Msg("shutdown complete")
}
