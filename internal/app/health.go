package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/shandysiswandi/datasprint/docs"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type pinger func(ctx context.Context) error

func (a *App) healthHandler() http.Handler {
	return newHealthHandler(a.clock.Now, map[string]pinger{
		"database": a.dbConn.Ping,
		"redis": func(ctx context.Context) error {
			return a.cacheConn.Ping(ctx).Err()
		},
	})
}

func newHealthHandler(now func() time.Time, deps map[string]pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{
			Status:    "ok",
			Message:   "DATASPRINT API is healthy",
			Timestamp: now().UTC(),
		}
		code := http.StatusOK

		for name, ping := range deps {
			if err := ping(ctx); err != nil {
				slog.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
				resp.Status = "degraded"
				resp.Message = name + " is unreachable"
				code = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.ErrorContext(ctx, "failed to encode health response", "error", err)
		}
	})
}

func swaggerHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc := docs.SwaggerInfo.ReadDoc()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(doc)); err != nil {
			slog.ErrorContext(r.Context(), "failed to write swagger doc", "error", err)
		}
	})
}
