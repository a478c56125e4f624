package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"blog-api/middlewares"

	"github.com/gorilla/mux"
)

// Pinger is satisfied by *sql.DB and by the Redis client adapter.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type RootHandler struct {
	// Checks is keyed by dependency name.
	Checks map[string]Pinger
	Log    *slog.Logger
}

func (h *RootHandler) rootHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("Welcome to the blog API!")); err != nil {
		h.Log.Error("error writing response", "error", err)
	}
}

// Healthz pings every dependency and reports 503 if any of them fails.
func (h *RootHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := map[string]string{"status": "ok"}
	for name, p := range h.Checks {
		if err := p.PingContext(ctx); err != nil {
			h.Log.Warn("health check failed", "dependency", name, "error", err)
			report[name] = err.Error()
			report["status"] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
	}

	middlewares.RespondJSON(w, report, status)
}

// SetupRootRoute registers the welcome page and health check.
func (h *RootHandler) SetupRootRoute(router *mux.Router) {
	router.HandleFunc("/", h.rootHandler).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
}
