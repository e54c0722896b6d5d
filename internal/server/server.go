package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/betalog/internal/runner"
	"github.com/claude/betalog/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  storage.Store
	timer  *runner.Runner
	log    *slog.Logger
	apiKey string
	loc    *time.Location
	whois  WhoIser
	mcp    http.Handler
	router chi.Router
}

// New creates a new Server with all routes configured. loc is the default
// location for calendar dates; nil means time.Local.
func New(store storage.Store, timer *runner.Runner, apiKey string, loc *time.Location, log *slog.Logger) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		store:  store,
		timer:  timer,
		log:    log,
		apiKey: apiKey,
		loc:    loc,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Get("/api/v1/me", s.handleMe)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/presets", s.handleListPresets)
		r.Get("/presets/{id}", s.handleGetPreset)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/{id}", s.handleGetExercise)
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Get("/calendar", s.handleCalendar)
		r.Get("/progress", s.handleProgress)
		r.Get("/progress/exercises", s.handleExerciseProgress)
		r.Get("/settings/{key}", s.handleGetSetting)

		// Writes to the log (API key required when configured)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/presets", s.handleCreatePreset)
			r.Put("/presets/{id}", s.handleReplacePreset)
			r.Delete("/presets/{id}", s.handleDeletePreset)
			r.Post("/sessions", s.handleCreateSession)
			r.Delete("/sessions/{id}", s.handleDeleteSession)
			r.Post("/exercises", s.handleCreateExercise)
			r.Delete("/exercises/{id}", s.handleDeleteExercise)
			r.Post("/workouts", s.handleCreateWorkout)
			r.Delete("/workouts/{id}", s.handleDeleteWorkout)
			r.Put("/settings/{key}", s.handlePutSetting)
		})

		r.Route("/timer", func(r chi.Router) {
			r.Get("/", s.handleTimerState)
			r.Get("/events", s.handleTimerEvents)
			r.Post("/configure", s.handleTimerConfigure)
			r.Post("/load", s.handleTimerLoad)
			r.Post("/start", s.handleTimerStart)
			r.Post("/pause", s.handleTimerPause)
			r.Post("/resume", s.handleTimerResume)
			r.Post("/reset", s.handleTimerReset)
			r.Post("/skip", s.handleTimerSkip)
			r.Post("/retry", s.handleTimerRetry)
		})
	})

	s.router.Handle("/mcp", http.HandlerFunc(s.serveMCP))
}

// SetMCP mounts an MCP transport handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.mcp = h
}

func (s *Server) serveMCP(w http.ResponseWriter, r *http.Request) {
	if s.mcp == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "MCP endpoint not enabled"})
		return
	}
	s.mcp.ServeHTTP(w, r)
}
