package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/syui/aigpt/internal/persona"
	"github.com/syui/aigpt/internal/scheduler"
	"github.com/syui/aigpt/internal/store"
	"github.com/syui/aigpt/internal/transmission"
)

// Server is the aigpt HTTP API server.
type Server struct {
	db         *store.DB
	persona    *persona.Engine
	sched      *scheduler.Scheduler
	controller *transmission.Controller
	router     chi.Router
	version    string
	started    time.Time
}

// New creates a new Server.
func New(db *store.DB, p *persona.Engine, sched *scheduler.Scheduler, c *transmission.Controller, version string) *Server {
	s := &Server{
		db:         db,
		persona:    p,
		sched:      sched,
		controller: c,
		version:    version,
		started:    time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/chat", s.handleChat)
		r.Get("/status", s.handleStatus)
		r.Get("/fortune", s.handleFortune)

		r.Get("/relationships", s.handleListRelationships)
		r.Get("/relationships/{userID}", s.handleGetRelationship)

		r.Get("/memories/search", s.handleSearchMemories)
		r.Get("/memories/contextual", s.handleContextualMemories)

		r.Get("/tasks", s.handleListTasks)
		r.Post("/tasks", s.handleAddTask)
		r.Post("/tasks/{taskID}/enable", s.handleEnableTask)
		r.Post("/tasks/{taskID}/disable", s.handleDisableTask)
		r.Delete("/tasks/{taskID}", s.handleRemoveTask)

		r.Get("/transmissions", s.handleListTransmissions)
		r.Get("/transmissions/stats", s.handleTransmissionStats)

		r.Post("/maintenance", s.handleMaintenance)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
