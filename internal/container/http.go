package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/do"
	"github.com/serroba/qikurl/internal/eviction"
	"github.com/serroba/qikurl/internal/handlers"
	"github.com/serroba/qikurl/internal/health"
	"github.com/serroba/qikurl/internal/metrics"
	"github.com/serroba/qikurl/internal/middleware"
	"github.com/serroba/qikurl/internal/ratelimit"
	"github.com/serroba/qikurl/internal/shortener"
	"github.com/serroba/qikurl/internal/store"
	"go.uber.org/zap"
)

func MetricsPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*metrics.Prometheus, error) {
		return metrics.NewPrometheus(true), nil
	})
}

// LifecyclePackage provides the lifecycle manager over the configured store and cache.
func LifecyclePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*shortener.Manager, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		repo, err := do.Invoke[shortener.Repository](i)
		if err != nil {
			return nil, err
		}

		cache, err := do.Invoke[shortener.Cache](i)
		if err != nil {
			return nil, err
		}

		secrets, err := shortener.NewSecretGenerator()
		if err != nil {
			return nil, err
		}

		managerOpts := []shortener.Option{
			shortener.WithTimeout(opts.OpTimeout()),
			shortener.WithMaxCacheTTL(opts.CacheTTL()),
			shortener.WithMetrics(do.MustInvoke[*metrics.Prometheus](i)),
		}

		if opts.Evictions {
			managerOpts = append(managerOpts, shortener.WithEvictor(do.MustInvoke[*eviction.Publisher](i)))
		}

		return shortener.NewManager(repo, cache, secrets, logger, managerOpts...), nil
	})
}

// RateLimitPackage counts requests in Redis when Redis is the cache, in memory otherwise.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Limiter, error) {
		opts := do.MustInvoke[*Options](i)

		var counter ratelimit.Store = store.NewRateLimitMemoryStore()
		if opts.CacheBackend == BackendRedis {
			counter = store.NewRateLimitRedisStore(do.MustInvoke[*RedisClient](i).Client)
		}

		return ratelimit.NewFixedWindowLimiter(counter, int64(opts.RateLimitMax), opts.Window()), nil
	})
}

// HTTPPackage provides the router and the API. Invoking the API registers the routes.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		prom := do.MustInvoke[*metrics.Prometheus](i)

		router := chi.NewMux()
		router.Use(chimiddleware.Recoverer)
		router.Handle("/metrics", prom.Handler())

		return router, nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)
		limiter := do.MustInvoke[ratelimit.Limiter](i)

		manager, err := do.Invoke[*shortener.Manager](i)
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, huma.DefaultConfig("qikurl", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))
		api.UseMiddleware(middleware.RateLimiter(api, limiter, logger))

		health.RegisterRoutes(api, health.NewHandler(manager))
		handlers.RegisterRoutes(api, handlers.NewURLHandler(manager, opts.PublicURL(), logger))

		return api, nil
	})
}
