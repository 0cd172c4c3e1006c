package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/frahmantamala/pisda/internal"
	"github.com/go-chi/httprate"
)

const rateLimitMessage = "Too many requests from this IP, please try again later."

// RateLimit caps requests per client IP over a sliding window.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": rateLimitMessage,
				"code":  internal.ErrCodeRateLimited,
			})
		}),
	)
}
