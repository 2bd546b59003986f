package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ovenline/fulfillment/internal/fulfillment/adapters/httpx"
	"github.com/ovenline/fulfillment/internal/fulfillment/adapters/identity"
	"github.com/ovenline/fulfillment/internal/fulfillment/adapters/sqlite"
	"github.com/ovenline/fulfillment/internal/fulfillment/app"
	"github.com/ovenline/fulfillment/internal/fulfillment/notify"
	"github.com/ovenline/fulfillment/internal/fulfillment/ports"
	"github.com/ovenline/fulfillment/internal/pkg/cache"
	"github.com/ovenline/fulfillment/internal/pkg/config"
	"github.com/ovenline/fulfillment/internal/pkg/metrics"
	"github.com/ovenline/fulfillment/internal/pkg/telemetry"
)

const serviceName = "fulfillment-service"

func main() {
	telemetry.InitLogger(serviceName)

	if err := run(); err != nil {
		slog.Error("service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	shutdownTracer, err := telemetry.SetupTracer(ctx, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			slog.Error("tracer shutdown", "error", err)
		}
	}()

	repo, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	hub := notify.NewHub()
	notifiers := notify.Fanout{hub}
	if sink := notify.NewKafkaSink(cfg.KafkaBrokers); sink != nil {
		defer sink.Close()
		notifiers = append(notifiers, sink)
		slog.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers)
	}

	m := metrics.New("core")
	engine := app.NewEngine(repo, notifiers, app.WithMetrics(m))
	query := app.NewQueryService(repo, directory(cfg))
	handler := httpx.NewHandler(engine, query)

	router := httpx.NewRouter(httpx.RouterConfig{
		Handler: handler,
		Hub:     hub,
		AuthKey: []byte(cfg.AuthHMACKey),
		Metrics: m,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("fulfillment service listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// directory assembles the identity lookup chain: nothing configured means no
// decoration; redis adds a snapshot cache in front of the HTTP client.
func directory(cfg config.Config) ports.IdentityDirectory {
	if cfg.IdentityBaseURL == "" {
		return nil
	}
	var dir ports.IdentityDirectory = identity.NewHTTPDirectory(cfg.IdentityBaseURL)
	if cfg.RedisAddr != "" {
		dir = identity.NewCachedDirectory(dir, cache.NewRedisCache(cfg.RedisAddr, serviceName))
	}
	return dir
}
