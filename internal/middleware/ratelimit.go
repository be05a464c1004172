package middleware

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/qikurl/internal/ratelimit"
	"go.uber.org/zap"
)

// MessageRateLimited is the error detail of throttled requests.
const MessageRateLimited = "Rate limit exceeded. Try again later."

// RateLimiter returns a Huma middleware limiting operations that carry a
// ratelimit.EndpointConfig, per scope and client IP. Limiter failures let the
// request through.
func RateLimiter(
	api huma.API, limiter ratelimit.Limiter, logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := ratelimit.GetEndpointConfig(ctx)
		if cfg == nil || cfg.Disabled {
			next(ctx)

			return
		}

		ip := MetaFromContext(ctx.Context()).ClientIP
		if ip == "" {
			ip = clientIP(ctx)
		}

		allowed, err := limiter.Allow(ctx.Context(), ratelimit.Key(cfg.Scope, ip))
		if err != nil {
			logger.Warn("rate limit check failed, allowing request",
				zap.String("scope", string(cfg.Scope)),
				zap.String("client_ip", ip),
				zap.Error(err),
			)
			next(ctx)

			return
		}

		if !allowed {
			logger.Info("rate limit exceeded",
				zap.String("scope", string(cfg.Scope)),
				zap.String("client_ip", ip),
			)

			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, MessageRateLimited)

			return
		}

		next(ctx)
	}
}
