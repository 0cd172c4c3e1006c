package rest

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/frahmantamala/pisda/internal/transport"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// Pinger is anything whose availability can be probed: *sqlx.DB, *sql.DB,
// or a jsonfile.Dir.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthResponse struct {
	Status     string                `json:"status"`
	Message    string                `json:"message"`
	Timestamp  time.Time             `json:"timestamp"`
	Components map[string]CheckEntry `json:"components,omitempty"`
}

type CheckEntry struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	CheckedAt  time.Time    `json:"checked_at"`
	DurationMs int64        `json:"duration_ms"`
}

type HealthHandler struct {
	*transport.BaseHandler
	components map[string]Pinger
	timeout    time.Duration
	now        func() time.Time
}

func NewHealthHandler(components map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: transport.NewBaseHandler(nil),
		components:  components,
		timeout:     2 * time.Second,
		now:         time.Now,
	}
}

// Ping only says the process is up.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// Health probes every registered component and answers 503 if any is down.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:     "OK",
		Message:    "P.I.S.D.A. server is running",
		Timestamp:  h.now().UTC(),
		Components: make(map[string]CheckEntry, len(h.components)),
	}

	names := make([]string, 0, len(h.components))
	for name := range h.components {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	for _, name := range names {
		start := time.Now()
		err := h.components[name].PingContext(ctx)
		entry := CheckEntry{
			Status:     HealthHealthy,
			CheckedAt:  h.now().UTC(),
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			entry.Status = HealthUnhealthy
			entry.Message = err.Error()
			status = http.StatusServiceUnavailable
			resp.Status = "DEGRADED"
			resp.Message = "One or more components are unavailable"
			h.Logger.Warn("health check failed", "component", name, "error", err)
		}
		resp.Components[name] = entry
	}

	h.WriteJSON(w, status, resp)
}
