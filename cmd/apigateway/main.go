package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/localmart/internal/auth"
	ratelimitmw "github.com/example/localmart/internal/http/middleware"
	"github.com/example/localmart/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.SetupLogger("api-gateway")
	defer logger.Sync() //nolint:errcheck

	shutdown, err := observability.SetupTracer(ctx, "api-gateway")
	if err != nil {
		logger.Warn("tracer setup failed", zap.Error(err))
	} else {
		defer shutdown(context.Background())
	}

	discoveryURL := getenv("DISCOVERY_SERVICE_URL", "http://localhost:8080")
	merchantURL := getenv("MERCHANT_SERVICE_URL", "http://localhost:8081")
	jwtSecret := os.Getenv("JWT_SECRET")

	redisClient := newRedisClient(ctx, logger)
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	limiter := ratelimitmw.NewRateLimiter(redisClient, ratelimitmw.RateConfig{
		Rate:  parseFloatEnv("RATE_READ_RPS", 50),
		Burst: parseFloatEnv("RATE_READ_BURST", 100),
	}, ratelimitmw.RateConfig{
		Rate:  parseFloatEnv("RATE_WRITE_RPS", 10),
		Burst: parseFloatEnv("RATE_WRITE_BURST", 20),
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer)
	if limiter != nil {
		r.Use(limiter.Middleware)
	}
	r.Mount("/observability", observability.MetricsRouter())
	r.Get("/docs", swaggerHandler)
	r.Get("/docs/", swaggerHandler)
	r.Get("/docs/index.html", swaggerHandler)
	r.Get("/docs/openapi.yaml", openAPIHandler)
	r.Handle("/v1/products/search", proxy(discoveryURL+"/v1/products/search"))
	r.Handle("/v1/recommendations", proxy(discoveryURL+"/v1/recommendations"))
	r.Handle("/v1/analytics/trending", proxy(discoveryURL+"/v1/analytics/trending"))
	r.Get("/v1/merchants/nearby", proxy(merchantURL+"/v1/merchants/nearby"))
	r.With(auth.Middleware(jwtSecret, "merchant", "admin")).
		Post("/v1/merchants/{id}/location", proxyPrefix(merchantURL))

	srv := &http.Server{Addr: getenv("HTTP_ADDR", ":8088"), Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("api gateway listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// proxy forwards the request to one fixed upstream URL.
func proxy(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forward(w, r, target+queryString(r))
	}
}

// proxyPrefix forwards the request to the upstream base, preserving the
// request path.
func proxyPrefix(base string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forward(w, r, base+r.URL.Path+queryString(r))
	}
}

// hopHeaders are connection-specific per RFC 9110 section 7.6.1 and must not
// travel across the proxy in either direction.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

func forward(w http.ResponseWriter, r *http.Request, target string) {
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	req.Header = r.Header.Clone()
	stripHopHeaders(req.Header)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func queryString(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return ""
	}
	return "?" + r.URL.RawQuery
}

func stripHopHeaders(h http.Header) {
	for _, v := range h.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		h.Del(name)
	}
}

func copyHeader(dst, src http.Header) {
	for k, v := range src {
		if isHopHeader(k) {
			continue
		}
		vv := make([]string, len(v))
		copy(vv, v)
		dst[k] = vv
	}
}

func isHopHeader(name string) bool {
	for _, h := range hopHeaders {
		if http.CanonicalHeaderKey(name) == h {
			return true
		}
	}
	return false
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func newRedisClient(ctx context.Context, logger *zap.Logger) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping failed", zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
