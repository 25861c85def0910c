package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hourbank/timebank/internal/api/metrics"
)

// Counter counts hits for a key within a fixed window.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}

// RateLimitConfig bounds the number of requests a client IP may make per window.
type RateLimitConfig struct {
	Max    int64
	Window time.Duration
}

// RateLimit rejects requests above cfg.Max per cfg.Window for each client IP.
// Counter failures let the request through.
func RateLimit(counter Counter, cfg RateLimitConfig, log zerolog.Logger) echo.MiddlewareFunc {
	limit := strconv.FormatInt(cfg.Max, 10)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			n, resetIn, err := counter.Hit(c.Request().Context(), ip, cfg.Window)
			if err != nil {
				log.Warn().Err(err).Str("ip", ip).Msg("rate limiter unavailable")
				return next(c)
			}

			resetSecs := strconv.Itoa(int(math.Ceil(resetIn.Seconds())))
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(max(cfg.Max-n, 0), 10))
			h.Set("X-RateLimit-Reset", resetSecs)

			if n > cfg.Max {
				metrics.RateLimitedTotal.Inc()
				h.Set("Retry-After", resetSecs)
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")
			}
			return next(c)
		}
	}
}
