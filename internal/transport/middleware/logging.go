package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/pisda/pkg/logger"
)

// maxLoggedBody caps how much of a JSON body is kept for the log line.
const maxLoggedBody = 4 << 10

// sensitiveFields are matched against lower-cased header and JSON key names.
var sensitiveFields = []string{
	"password",
	"passwordhash",
	"password_hash",
	"token",
	"authorization",
	"cookie",
	"secret",
	"jwt",
	"credential",
}

const filtered = "[FILTERED]"

// LoggingMiddleware logs one line per request and one per response. Bodies
// are only logged at debug level, only for JSON payloads, and always pass
// through the masking filter first.
func LoggingMiddleware(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := requestLogger(r, base)

			logRequest(log, r)

			ww := &responseWriter{ResponseWriter: w, body: &bytes.Buffer{}}
			next.ServeHTTP(ww, r)

			logResponse(r.Context(), log, ww, time.Since(start))
		})
	}
}

func requestLogger(r *http.Request, base *slog.Logger) *slog.Logger {
	if id := RequestIDFromContext(r.Context()); id != "" {
		return logger.From(r.Context())
	}
	if base != nil {
		return base
	}
	return logger.From(r.Context())
}

// responseWriter captures the status and, for JSON responses, the body.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
	body       *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.statusCode == 0 {
		rw.statusCode = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	if isJSON(rw.Header().Get("Content-Type")) && rw.body.Len() < maxLoggedBody {
		rw.body.Write(b)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Status() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

func logRequest(log *slog.Logger, r *http.Request) {
	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
		"headers", filterSensitiveHeaders(r.Header),
	}

	log.Info("incoming request", attrs...)

	if r.Body == nil || !isJSON(r.Header.Get("Content-Type")) || !log.Enabled(r.Context(), slog.LevelDebug) {
		return
	}
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		// replay the bytes and then the read error so the handler sees it
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(bodyBytes), failingReader{err}))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	log.Debug("request body", "body", filterSensitiveBody(truncate(bodyBytes)))
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func logResponse(ctx context.Context, log *slog.Logger, rw *responseWriter, duration time.Duration) {
	status := rw.Status()

	level := slog.LevelInfo
	if status >= 400 && status < 500 {
		level = slog.LevelWarn
	} else if status >= 500 {
		level = slog.LevelError
	}

	log.Log(ctx, level, "response",
		"status_code", status,
		"duration_ms", duration.Milliseconds(),
		"response_size", rw.size,
	)

	if rw.body.Len() > 0 && log.Enabled(ctx, slog.LevelDebug) {
		log.Debug("response body", "body", filterSensitiveBody(truncate(rw.body.Bytes())))
	}
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

func truncate(b []byte) []byte {
	if len(b) > maxLoggedBody {
		return b[:maxLoggedBody]
	}
	return b
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

func filterSensitiveHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitive(name) {
			out[name] = filtered
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// filterSensitiveBody masks sensitive JSON keys. A body that is not valid
// JSON is dropped entirely if it mentions a sensitive field.
func filterSensitiveBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		if isSensitive(string(body)) {
			return "[FILTERED - Contains sensitive data]"
		}
		return string(body)
	}

	out, err := json.Marshal(filterSensitiveJSON(data))
	if err != nil {
		return "[ERROR - Failed to marshal filtered JSON]"
	}
	return string(out)
}

func filterSensitiveJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitive(key) {
				out[key] = filtered
			} else {
				out[key] = filterSensitiveJSON(value)
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = filterSensitiveJSON(item)
		}
		return out
	default:
		return v
	}
}
