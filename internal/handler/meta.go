package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/reactgram/internal/docs"
)

// HandleRoot answers the liveness probe the frontend and load balancers hit.
//
// HTTP: GET /
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "API WORKING!")
}

// HandleOpenAPI serves the OpenAPI document.
//
// HTTP: GET /api-docs/openapi.json
func HandleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	io.WriteString(w, docs.SwaggerInfo.ReadDoc())
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// HandleHealth reports 200 while db answers and 503 otherwise.
//
// HTTP: GET /healthz
func HandleHealth(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Error("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Errors: []string{"database unavailable"}})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
