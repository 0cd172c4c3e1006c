package middleware

import (
	"net/http"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/transport"
)

// BodyLimit caps request bodies at limit bytes. A declared Content-Length over
// the cap is refused up front; chunked bodies fail on the first read past it.
func BodyLimit(limit int64, base *transport.BaseHandler) func(http.Handler) http.Handler {
	if base == nil {
		base = transport.NewBaseHandler(nil)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				base.WriteAppError(w, internal.NewPayloadTooLargeError(limit))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
