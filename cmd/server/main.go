package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/qikurl/internal/container"
	"github.com/serroba/qikurl/internal/shortener"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.MongoPackage(injector)
	container.RepositoryPackage(injector)
	container.CachePackage(injector)
	container.MetricsPackage(injector)
	container.PublisherGroupPackage(injector)
	container.LifecyclePackage(injector)
	container.RateLimitPackage(injector)
	container.HTTPPackage(injector)
}

func newServer(injector *do.Injector, port int) *http.Server {
	router := do.MustInvoke[*chi.Mux](injector)

	// Invoking the API registers the routes on the router.
	_ = do.MustInvoke[huma.API](injector)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// probeDependencies logs the state of the store and the cache before serving.
// A degraded start is allowed.
func probeDependencies(injector *do.Injector, logger *zap.Logger) {
	manager := do.MustInvoke[*shortener.Manager](injector)
	report := manager.Health(context.Background())

	fields := []zap.Field{
		zap.String("store", string(report.Store)),
		zap.String("cache", string(report.Cache)),
	}

	if report.Degraded() {
		logger.Warn("starting degraded", fields...)

		return
	}

	logger.Info("dependencies up", fields...)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		registerPackages(injector, options)

		logger := do.MustInvoke[*zap.Logger](injector)

		var server *http.Server

		hooks.OnStart(func() {
			server = newServer(injector, options.Port)
			probeDependencies(injector, logger)

			logger.Info("server starting",
				zap.Int("port", options.Port),
				zap.String("store", options.StoreBackend),
				zap.String("cache", options.CacheBackend),
				zap.String("base_url", options.PublicURL()),
				zap.Bool("evictions", options.Evictions),
			)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			_ = logger.Sync()
		})
	})

	cli.Run()
}
