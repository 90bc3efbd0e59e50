package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const healthTimeout = 3 * time.Second

// Pinger is anything that can report its own connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueInspector reports the task queues known to the broker.
type QueueInspector interface {
	Queues() ([]string, error)
}

type HealthHandler struct {
	db    Pinger
	redis *redis.Client
	queue QueueInspector
}

func NewHealthHandler(db Pinger, redis *redis.Client, queue QueueInspector) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, queue: queue}
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Health checks the database and Redis.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, false)
}

// Ready additionally requires the task queue to be reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, true)
}

func (h *HealthHandler) report(w http.ResponseWriter, r *http.Request, withQueue bool) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	services := make(map[string]string)
	status := "healthy"

	check := func(name string, err error) {
		if err != nil {
			services[name] = "unhealthy"
			status = "unhealthy"
			return
		}
		services[name] = "healthy"
	}

	check("database", h.db.Ping(ctx))

	if h.redis != nil {
		check("redis", h.redis.Ping(ctx).Err())
	}

	if withQueue && h.queue != nil {
		_, err := h.queue.Queues()
		check("queue", err)
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, HealthResponse{
		Status:   status,
		Services: services,
	})
}
