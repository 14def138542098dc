package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/example/localmart/internal/discovery/proximity"
	"github.com/example/localmart/internal/merchantloc"
	"github.com/example/localmart/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.SetupLogger("merchant-service")
	defer logger.Sync() //nolint:errcheck

	shutdown, err := observability.SetupTracer(ctx, "merchant-service")
	if err != nil {
		logger.Warn("tracer setup failed", zap.Error(err))
	} else {
		defer shutdown(context.Background())
	}

	store := merchantloc.NewStore()
	filter := proximity.New(proximity.Config{FallbackCount: parseIntEnv("FALLBACK_COUNT", proximity.DefaultFallbackCount)})

	go runREST(logger, store, filter)
	go runGRPC(logger, store)

	<-ctx.Done()
	logger.Info("shutdown signal received")
}

func runREST(logger *zap.Logger, store *merchantloc.Store, filter *proximity.Filter) {
	r := chi.NewRouter()
	r.Mount("/", merchantloc.NewHTTP(store, filter).Router())
	r.Mount("/observability", observability.MetricsRouter())

	srv := &http.Server{Addr: getenv("HTTP_ADDR", ":8081"), Handler: r, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("merchant REST listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("merchant rest server", zap.Error(err))
	}
}

func runGRPC(logger *zap.Logger, store *merchantloc.Store) {
	lis, err := net.Listen("tcp", getenv("GRPC_ADDR", ":9090"))
	if err != nil {
		logger.Fatal("listen grpc", zap.Error(err))
	}

	srv := grpc.NewServer()
	merchantloc.RegisterLocationServer(srv, merchantloc.NewServer(store))
	logger.Info("merchant location grpc listening", zap.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil {
		logger.Fatal("grpc serve", zap.Error(err))
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
