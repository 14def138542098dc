package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/localmart/internal/analytics"
	"github.com/example/localmart/internal/discovery/domain"
	"github.com/example/localmart/internal/discovery/geo"
	"github.com/example/localmart/internal/discovery/geocache"
	"github.com/example/localmart/internal/discovery/handler"
	"github.com/example/localmart/internal/discovery/proximity"
	"github.com/example/localmart/internal/discovery/recommend"
	"github.com/example/localmart/internal/discovery/repository"
	discoveryservice "github.com/example/localmart/internal/discovery/service"
	"github.com/example/localmart/pkg/events"
	"github.com/example/localmart/pkg/observability"
)

type appConfig struct {
	HTTPAddr        string
	RedisAddr       string
	NATSURL         string
	CatalogPath     string
	GeocodeBaseURL  string
	GeocodeCountry  string
	GeocodeTimeout  time.Duration
	GeocodeCacheTTL time.Duration
	FallbackCount   int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.SetupLogger("discovery-service")
	defer logger.Sync() //nolint:errcheck

	shutdown, err := observability.SetupTracer(ctx, "discovery-service")
	if err != nil {
		logger.Warn("tracer setup failed", zap.Error(err))
	} else {
		defer shutdown(context.Background())
	}

	cfg := loadConfig()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping", zap.Error(err))
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		if conn, err := nats.Connect(cfg.NATSURL, nats.Name("discoveryservice")); err == nil {
			natsConn = conn
			defer conn.Drain() //nolint:errcheck
		} else {
			logger.Warn("nats connection failed", zap.Error(err))
		}
	}

	var geocoder domain.Geocoder = geo.NewResolver(geo.ResolverConfig{
		BaseURL: cfg.GeocodeBaseURL,
		Country: cfg.GeocodeCountry,
		Timeout: cfg.GeocodeTimeout,
	})
	if redisClient != nil {
		cache := geocache.NewRedisLocationCache(redisClient, "", cfg.GeocodeCacheTTL)
		geocoder = geocache.NewCachedGeocoder(geocoder, cache, logger.Named("geocache"))
	}

	catalog := repository.NewMemoryCatalog()
	if cfg.CatalogPath != "" {
		if err := catalog.LoadFile(cfg.CatalogPath); err != nil {
			logger.Fatal("load catalog", zap.Error(err), zap.String("path", cfg.CatalogPath))
		}
	}

	svc := discoveryservice.New(
		geocoder,
		catalog,
		catalog,
		proximity.New(proximity.Config{FallbackCount: cfg.FallbackCount}),
		recommend.New(recommend.Config{}, nil),
		recommend.DefaultSeasonMap(),
		events.NewPublisher(natsConn, events.DefaultSubject),
		domain.SystemClock{},
	)

	var trending handler.TrendingSource
	if natsConn != nil {
		worker := analytics.NewWorker(natsConn, events.DefaultSubject, logger.Named("analytics"))
		trending = worker
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("analytics worker stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Warn("analytics worker disabled, no NATS connection")
	}

	r := chi.NewRouter()
	r.Mount("/", handler.NewHTTP(svc, trending).Router())
	r.Mount("/observability", observability.MetricsRouter())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("discovery service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func loadConfig() appConfig {
	return appConfig{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		NATSURL:         os.Getenv("NATS_URL"),
		CatalogPath:     os.Getenv("CATALOG_PATH"),
		GeocodeBaseURL:  os.Getenv("GEOCODE_BASE_URL"),
		GeocodeCountry:  os.Getenv("GEOCODE_COUNTRY"),
		GeocodeTimeout:  time.Duration(parseIntEnv("GEOCODE_TIMEOUT_MS", 5000)) * time.Millisecond,
		GeocodeCacheTTL: time.Duration(parseIntEnv("GEOCODE_CACHE_TTL_SEC", 86400)) * time.Second,
		FallbackCount:   parseIntEnv("FALLBACK_COUNT", proximity.DefaultFallbackCount),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
