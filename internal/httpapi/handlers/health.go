package handlers

import (
	"context"
	"net/http"
	"time"

	"cgiad/internal/httpkit"
)

const checkTimeout = 5 * time.Second

// Health reports liveness and the configured storage providers. With
// ?deep=true it also pings the optional Redis and Postgres backends.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	health := map[string]any{
		"status":  "ok",
		"service": "cgiad-api",
		"storage": h.svc.Providers(),
	}

	if r.URL.Query().Get("deep") == "true" {
		checks := h.deepHealthCheck(ctx)
		health["checks"] = checks
		for _, check := range checks {
			if check["status"] != "ok" {
				health["status"] = "degraded"
				h.log.FromContext(ctx).Warn("health check degraded", "checks", checks)
				break
			}
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, health)
}

func (h *Handler) deepHealthCheck(ctx context.Context) map[string]map[string]any {
	checks := make(map[string]map[string]any)
	if h.pool != nil {
		checks["postgres"] = timedCheck(ctx, func(ctx context.Context) error { return h.pool.Ping(ctx) })
	}
	if h.rdb != nil {
		checks["redis"] = timedCheck(ctx, func(ctx context.Context) error { return h.rdb.Ping(ctx).Err() })
	}
	return checks
}

func timedCheck(ctx context.Context, ping func(context.Context) error) map[string]any {
	start := time.Now()
	result := map[string]any{"status": "ok"}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := ping(checkCtx); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}
	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}
