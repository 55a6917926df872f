package main

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pmcosta/dealfinder/internal/airports"
	"github.com/pmcosta/dealfinder/internal/cache"
	"github.com/pmcosta/dealfinder/internal/config"
	"github.com/pmcosta/dealfinder/internal/handler"
	"github.com/pmcosta/dealfinder/internal/logger"
	"github.com/pmcosta/dealfinder/internal/providers"
	"github.com/pmcosta/dealfinder/internal/ratelimit"
)

func main() {
	logger.Init()
	defer logger.Sync()
	log := logger.GetLogger("main")

	cfg := config.Load()

	dir, err := airports.Load()
	if err != nil {
		log.Fatalw("failed to load airport directory", "error", err)
	}

	store := buildCache(cfg)
	defer store.Close()

	limiter := ratelimit.NewProviderLimiter(ratelimit.DefaultDelay)

	var amadeus *providers.AmadeusProvider
	if cfg.Amadeus.ClientID != "" && cfg.Amadeus.ClientSecret != "" {
		amadeus = providers.NewAmadeusProvider(providers.AmadeusConfig{
			ClientID:            cfg.Amadeus.ClientID,
			ClientSecret:        cfg.Amadeus.ClientSecret,
			BaseURL:             cfg.Amadeus.BaseURL,
			Currency:            cfg.Amadeus.Currency,
			Timeout:             cfg.Amadeus.Timeout,
			MaxRetries:          cfg.Amadeus.MaxRetries,
			BackoffBase:         cfg.Amadeus.BackoffBase,
			BackoffJitter:       cfg.Amadeus.BackoffJitter,
			RetryAfterCap:       cfg.Amadeus.RetryAfterCap,
			MinRequestDelay:     cfg.Amadeus.MinRequestDelay,
			ConfirmMaxCalls:     cfg.Amadeus.ConfirmMaxCalls,
			ConfirmWindow:       cfg.Amadeus.ConfirmWindow,
			ExploreDestinations: cfg.ExploreDestinations,
			ExploreMaxCalls:     cfg.ExploreMaxCalls,
		}, store, dir, limiter)
		log.Infow("amadeus provider enabled", "base_url", cfg.Amadeus.BaseURL)
	}

	var travelpayouts *providers.TravelpayoutsProvider
	if cfg.Travelpayouts.Token != "" {
		travelpayouts, err = providers.NewTravelpayoutsProvider(providers.TravelpayoutsConfig{
			Token:               cfg.Travelpayouts.Token,
			BaseURL:             cfg.Travelpayouts.BaseURL,
			Currency:            cfg.Amadeus.Currency,
			Timeout:             cfg.Travelpayouts.Timeout,
			MaxRetries:          cfg.Travelpayouts.MaxRetries,
			RateLimitDelay:      cfg.Travelpayouts.RateLimitDelay,
			BackoffFactor:       cfg.Travelpayouts.BackoffFactor,
			ExploreDestinations: cfg.ExploreDestinations,
		}, store, dir, limiter)
		if err != nil {
			log.Fatalw("failed to initialize travelpayouts provider", "error", err)
		}
		log.Infow("travelpayouts provider enabled", "base_url", cfg.Travelpayouts.BaseURL)
	}

	composer := buildComposer(amadeus, travelpayouts)
	if composer == nil {
		log.Fatalw("no provider configured: set AMADEUS_CLIENT_ID/AMADEUS_CLIENT_SECRET or TRAVELPAYOUTS_TOKEN")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	handler.NewSearchHandler(composer, amadeus, store, dir).Register(e)

	log.Infow("starting server", "port", cfg.Server.Port)
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

func buildCache(cfg *config.Config) cache.Store {
	log := logger.GetLogger("main")

	switch cfg.Cache.Backend {
	case "redis":
		store, err := cache.NewRedisStore(cache.RedisConfig{
			Host:     cfg.Cache.RedisHost,
			Port:     cfg.Cache.RedisPort,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		log.Infow("redis cache enabled", "host", cfg.Cache.RedisHost, "ttl", cfg.Cache.TTL)
		return store

	case "none":
		log.Infow("cache disabled")
		return cache.NewNoOpStore()

	default:
		store, err := cache.NewSQLiteStore(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			log.Fatalw("failed to open cache database", "path", cfg.Cache.Path, "error", err)
		}
		log.Infow("sqlite cache enabled", "path", cfg.Cache.Path, "ttl", cfg.Cache.TTL)
		return store
	}
}

// buildComposer wires whichever providers are configured, keeping nil
// concrete pointers out of the Provider interface values.
func buildComposer(amadeus *providers.AmadeusProvider, travelpayouts *providers.TravelpayoutsProvider) *providers.Composer {
	switch {
	case amadeus != nil && travelpayouts != nil:
		return providers.NewComposer(amadeus, travelpayouts)
	case amadeus != nil:
		return providers.NewComposer(amadeus, nil)
	case travelpayouts != nil:
		return providers.NewComposer(travelpayouts, nil)
	}
	return nil
}
