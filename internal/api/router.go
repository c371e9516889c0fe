package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/micro-nova/piconfig-go/internal/auth"
)

// NewRouter creates and returns the main HTTP router.
func NewRouter(ctrl Controller, authSvc *auth.Service, bus EventBus, info InfoFunc) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{ctrl: ctrl, events: bus, info: info}

	r.Group(func(r chi.Router) {
		r.Use(authSvc.Middleware)

		// Session state
		r.Get("/api", h.getState)
		r.Get("/api/state", h.getState)
		r.Get("/api/info", h.getInfo)

		// Boot partition
		r.Post("/api/mount", h.mount)
		r.Post("/api/mount/refresh", h.refreshMount)

		// Interfaces
		r.Post("/api/interfaces/{id}/refresh", h.refreshInterface)
		r.Put("/api/interfaces/{id}", h.setInterface)

		// config.txt
		r.Post("/api/config-txt/load", h.loadConfigText)
		r.Put("/api/config-txt", h.editConfigText)
		r.Post("/api/config-txt/save", h.saveConfigText)
		r.Post("/api/config-txt/discard", h.discardConfigText)

		// Shell
		r.Post("/api/page", h.navigate)
		r.Delete("/api/notification/{seq}", h.dismissNotification)
		r.Post("/api/reboot", h.reboot)

		// SSE
		r.Get("/api/subscribe", h.subscribe)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, api-key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
