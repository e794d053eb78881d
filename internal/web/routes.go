package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/static"
)

func (s *Server) setupRoutes() {
	sessionHandler := handlers.NewSessionHandler(s.session)
	attendanceHandler := handlers.NewAttendanceHandler(s.session)
	streamHandler := handlers.NewStreamHandler(s.frames)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Long-lived streams
		r.Get("/session/events", sessionHandler.Events)
		r.Get("/stream", streamHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(30 * time.Second))

			r.Get("/session", sessionHandler.Get)
			r.Post("/session/stop", sessionHandler.Stop)
			r.Get("/stream/snapshot", streamHandler.Snapshot)
			r.Get("/attendance", attendanceHandler.List)
			r.Get("/attendance/export", attendanceHandler.Export)
		})
	})

	s.router.Get("/", s.serveIndex)
}

// serveIndex serves the operator page
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(static.IndexHTML())
}
