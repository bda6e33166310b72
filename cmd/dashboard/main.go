package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/ufo-sightings-dashboard/internal/adapter/http"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/adapter/mapbox"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/archive"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/config"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/dashboard"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Hotspot labeling is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	cache := archive.NewCache(archive.NewLoader(logger, metrics), metrics)
	svc := dashboard.New(cache, cfg.ArchivePath, geocoder, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The dashboard has nothing to show without the archive.
	if err := svc.Warm(ctx); err != nil {
		logger.Error("failed to load archive", "path", cfg.ArchivePath, "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return reloadOnHangup(gctx, cache, svc, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// reloadOnHangup drops the cached archive on SIGHUP and reads it again, so an
// updated file can be picked up without a restart. A failed reload leaves the
// dashboard serving errors until the next successful one.
func reloadOnHangup(ctx context.Context, cache *archive.Cache, svc *dashboard.Service, logger *slog.Logger) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			logger.Info("reloading archive")
			cache.Invalidate()
			if err := svc.Warm(ctx); err != nil {
				logger.Error("archive reload failed", "error", err)
			}
		}
	}
}
