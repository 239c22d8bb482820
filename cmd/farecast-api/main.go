// README: Entry point; loads config, wires services, starts HTTP server, metrics and the idle session sweeper.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"farecast/internal/ai"
	"farecast/internal/config"
	httptransport "farecast/internal/http"
	"farecast/internal/infra"
	"farecast/internal/maps"
	"farecast/internal/metrics"
	"farecast/internal/modules/location"
	"farecast/internal/modules/prediction"
	"farecast/internal/modules/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := infra.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("farecast stopped", zap.Error(err))
	}
	logger.Info("farecast stopped")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	collector := metrics.NewCollector()

	client := prediction.NewClient(prediction.ClientConfig{
		BaseURL:         cfg.Predictor.URL,
		Timeout:         cfg.Predictor.Timeout,
		BreakerFailures: cfg.Predictor.BreakerFailures,
		BreakerCooldown: cfg.Predictor.BreakerCooldown,
		UserAgent:       cfg.Maps.UserAgent,
	}, nil)

	opts := []prediction.Option{prediction.WithMetrics(collector)}

	if cfg.DB.DSN != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer dbPool.Close()
		opts = append(opts, prediction.WithStore(prediction.NewStore(dbPool)))
		logger.Info("quote history in postgres")
	}

	if cfg.NATS.URL != "" {
		nc, err := infra.NewNATS(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		pub := prediction.NewNATSPublisher(nc, cfg.NATS.Subject)
		defer pub.Close()
		opts = append(opts, prediction.WithPublisher(pub))
		logger.Info("publishing quotes", zap.String("subject", cfg.NATS.Subject))
	}

	if cfg.AI.GeminiKey != "" {
		gen, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey, cfg.AI.Model)
		if err != nil {
			return fmt.Errorf("gemini: %w", err)
		}
		defer gen.Close()
		opts = append(opts, prediction.WithRecommender(ai.NewFareAdvisor(gen)))
		logger.Info("ai recommendations enabled", zap.String("model", cfg.AI.Model))
	}

	fares := prediction.NewService(client, logger, opts...)

	deps := session.Deps{Predictor: fares, Metrics: collector, Log: logger, OnClose: fares.Forget}
	places, routes, err := placeServices(ctx, cfg, collector, logger)
	if err != nil {
		return err
	}
	if places != nil {
		deps.Places = places
	}
	if routes != nil {
		deps.Routes = routes
	}

	sessions := session.NewManager(deps, nil, cfg.Session.IdleTTL)
	server := httptransport.NewServer(cfg.HTTP.Addr, httptransport.ServerDeps{
		Sessions: sessions,
		Quotes:   fares,
		Upstream: client,
		Log:      logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error {
		sessions.RunSweeper(gctx, cfg.Session.SweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sessions.Shutdown()
		return nil
	})
	if cfg.MetricsAddr != "" {
		ms := collector.Serve(cfg.MetricsAddr, logger)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return ms.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

// placeServices picks the geocoder (Google when keyed, otherwise Nominatim),
// fronts it with the Redis cache when configured, and returns the driving
// route service when Google is available.
func placeServices(ctx context.Context, cfg config.Config, collector *metrics.Collector, logger *zap.Logger) (*location.Service, *maps.RouteService, error) {
	var (
		geocoder location.Geocoder
		routes   *maps.RouteService
	)
	switch {
	case cfg.Maps.GoogleAPIKey != "":
		gm, err := maps.NewClient(cfg.Maps.GoogleAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("google maps: %w", err)
		}
		geocoder = maps.NewGeocodeService(gm, cfg.Maps.Language, cfg.Maps.Region)
		routes = maps.NewRouteService(gm)
		logger.Info("place search via google maps")
	case cfg.Maps.NominatimURL != "":
		geocoder = location.NewNominatim(cfg.Maps.NominatimURL, cfg.Maps.UserAgent, &http.Client{Timeout: cfg.Maps.Timeout})
		logger.Info("place search via nominatim", zap.String("url", cfg.Maps.NominatimURL))
	default:
		logger.Warn("place search disabled")
		return nil, nil, nil
	}

	if cfg.Redis.Addr != "" {
		rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		geocoder = location.NewCachedGeocoder(geocoder, rdb, cfg.Redis.GeocodeTTL, collector, logger)
		logger.Info("geocode cache in redis", zap.Duration("ttl", cfg.Redis.GeocodeTTL))
	}
	return location.NewService(geocoder, logger), routes, nil
}
