package middleware

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/lucasmerida/storely-backend/api/responses"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
	"github.com/lucasmerida/storely-backend/pkg/logger"
	pkgredis "github.com/lucasmerida/storely-backend/pkg/redis"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

var _ rateLimiter = (*pkgredis.Client)(nil)

// RateLimit applies a fixed-window limit per remote address. Used on public
// endpoints; authenticated routes rely on the idempotency layer instead.
func RateLimit(limiter rateLimiter, scope string, limit int64, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			allowed, count, err := limiter.FixedWindowAllow(ctx, scope+":"+host, limit, window)
			if err != nil {
				// Redis being down should not take the endpoint with it.
				if logg != nil {
					logg.Warn(ctx, "rate limit check failed, allowing request")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"scope": scope,
						"count": count,
					}), "rate limit exceeded")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
