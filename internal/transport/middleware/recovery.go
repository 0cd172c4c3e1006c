package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/frahmantamala/pisda/internal"
)

// RecoveryMiddleware turns a panic into a 500 response. The panic value is
// only echoed to the client when exposeDetail is set (development).
func RecoveryMiddleware(logger *slog.Logger, exposeDetail bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					"error", rec,
					"method", r.Method,
					"url", r.URL.String(),
					"request_id", RequestIDFromContext(r.Context()),
					"stack", string(debug.Stack()))

				body := map[string]interface{}{
					"error": "Internal server error",
					"code":  internal.ErrCodeInternal,
				}
				if exposeDetail {
					body["message"] = fmt.Sprintf("panic: %v", rec)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(body)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
