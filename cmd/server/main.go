package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"currency-rate-proxy/internal/adapter/cache"
	httpRouter "currency-rate-proxy/internal/adapter/http"
	"currency-rate-proxy/internal/adapter/repository"
	"currency-rate-proxy/internal/config"
	"currency-rate-proxy/internal/domain/ports"
	"currency-rate-proxy/internal/metrics"
	"currency-rate-proxy/internal/provider"
	"currency-rate-proxy/internal/resilience"
	"currency-rate-proxy/internal/service"
	"currency-rate-proxy/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger(os.Getenv("LOG_LEVEL")).Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	log.Info("Starting currency rate proxy")

	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer)

	store, closeStore, err := newCacheStore(cfg.Cache, log)
	if err != nil {
		log.Error("Failed to set up cache store", "error", err, "backend", cfg.Cache.Backend)
		os.Exit(1)
	}
	defer closeStore()

	fetcher := repository.NewFrankfurterAPI(cfg.ExchangeAPI.BaseURL, nil, log)

	breaker := resilience.NewCircuitBreaker(breakerConfig(cfg.Provider.Default, cfg.Resilience), log)
	breaker.OnStateChange(appMetrics.SetCircuitState)
	pipeline := resilience.NewPipeline(pipelineConfig(cfg.Resilience), breaker, log).WithObserver(appMetrics)

	rates := provider.NewRateProvider(cfg.Provider.Default, fetcher, pipeline, log)
	cached := provider.NewCachedProvider(rates, store, cacheTTLs(cfg.Cache), log, appMetrics)

	factory := provider.NewFactory(cfg.Provider.Default, cached)
	if err := factory.Validate(); err != nil {
		log.Error("Invalid provider configuration", "error", err, "providers", factory.Names())
		os.Exit(1)
	}

	exchangeService := service.NewExchangeService(factory, log)
	handler := httpRouter.NewHandler(exchangeService, log, appMetrics)

	router := httpRouter.NewRouter(handler, log, appMetrics, prometheus.DefaultGatherer)
	routes := router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      routes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, cancelBackground := context.WithCancel(context.Background())
	go refreshRates(ctx, exchangeService, cfg.ExchangeAPI.WarmBases, cfg.ExchangeAPI.RefreshRate, log)
	go sweepCache(ctx, store, cfg.Cache.SweepInterval, log)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	cancelBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		return
	}

	log.Info("Server exited")
}

func newCacheStore(cfg config.CacheConfig, log *logger.Logger) (ports.CacheStore, func(), error) {
	if cfg.Backend != "redis" {
		return cache.NewMemoryCache(log), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	store := cache.NewRedisStore(client, cfg.Prefix, log)
	return store, func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close redis client", "error", err)
		}
	}, nil
}

func breakerConfig(name string, cfg config.ResilienceConfig) resilience.BreakerConfig {
	return resilience.BreakerConfig{
		Name:           name,
		FailureRatio:   cfg.FailureRatio,
		MinThroughput:  cfg.MinThroughput,
		SamplingWindow: cfg.SamplingWindow,
		BreakDuration:  cfg.BreakDuration,
	}
}

func pipelineConfig(cfg config.ResilienceConfig) resilience.PipelineConfig {
	return resilience.PipelineConfig{
		TotalTimeout:   cfg.TotalTimeout,
		AttemptTimeout: cfg.AttemptTimeout,
		MaxAttempts:    cfg.MaxAttempts,
		Backoff: resilience.Backoff{
			BaseDelay: cfg.BaseDelay,
			MaxDelay:  cfg.MaxDelay,
		},
	}
}

func cacheTTLs(cfg config.CacheConfig) provider.TTLs {
	return provider.TTLs{
		Latest:         cfg.LatestTTL,
		Conversion:     cfg.ConversionTTL,
		Historical:     cfg.HistoricalTTL,
		CurrencyList:   cfg.CurrencyListTTL,
		StaleRetention: cfg.StaleRetention,
	}
}

// refreshRates periodically refreshes exchange rates
func refreshRates(ctx context.Context, service *service.ExchangeService, bases []string, interval time.Duration, log *logger.Logger) {
	// Refresh rates immediately at startup
	if err := service.RefreshRates(ctx, bases); err != nil {
		log.Error("Failed to refresh rates at startup", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := service.RefreshRates(ctx, bases); err != nil {
				log.Error("Failed to refresh rates", "error", err)
			}
		case <-ctx.Done():
			log.Info("Stopping rate refresh goroutine")
			return
		}
	}
}

func sweepCache(ctx context.Context, store ports.CacheStore, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := store.ClearExpired(ctx); err != nil {
				log.Error("Failed to clear expired cache entries", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
