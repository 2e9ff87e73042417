package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"pasarloka/internal/infrastructure/ratelimit"
)

// RateLimit throttles a route by client identity: the authenticated uid when
// present, otherwise the remote IP. The action name selects the bucket tier.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := c.Get("uid").(string)
			if !ok || key == "" {
				key = c.RealIP()
			}

			allowed, wait := limiter.Allow(key, action)
			if !allowed {
				return echo.NewHTTPError(http.StatusTooManyRequests,
					fmt.Sprintf("Rate limit exceeded, retry in %s", wait.Round(time.Second)))
			}

			return next(c)
		}
	}
}
