package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/receipto/receipto/internal/api/response"
	"github.com/receipto/receipto/internal/storage"
)

// Pinger checks connectivity to a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns an http.HandlerFunc for GET /health. It reports
// liveness only; dependency checks live on the detailed endpoint.
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, map[string]string{"status": "healthy"})
	}
}

// NewDetailedHealthHandler returns an http.HandlerFunc for GET /health/detailed.
// Each dependency is checked independently; any failure flips the overall
// status to unhealthy.
func NewDetailedHealthHandler(db, cache Pinger, files *storage.FileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"cache":    "healthy",
			"storage":  "healthy",
		}

		if err := db.Ping(r.Context()); err != nil {
			health["database"] = fmt.Sprintf("unhealthy: %v", err)
			health["status"] = "unhealthy"
		}
		if err := cache.Ping(r.Context()); err != nil {
			health["cache"] = fmt.Sprintf("unhealthy: %v", err)
			health["status"] = "unhealthy"
		}
		if !files.Healthy() {
			health["storage"] = "unhealthy: directory not found"
			health["status"] = "unhealthy"
		}

		response.JSON(w, health)
	}
}
