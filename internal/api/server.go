package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/vango-dev/cellgraph/internal/todos"
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
)

// DefaultRequestTimeout bounds how long a request waits for the loop.
const DefaultRequestTimeout = 5 * time.Second

// Server exposes a todo model over HTTP. Every model access is queued on the
// loop that owns the model's runtime.
type Server struct {
	loop    *cellgraph.Loop
	model   *todos.Model
	hub     *Hub
	logger  *slog.Logger
	metrics http.Handler
	timeout time.Duration
	origin  func(*http.Request) bool

	sub cellgraph.Subscription
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and hub logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithRequestTimeout bounds the wait for the loop per request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCheckOrigin sets the WebSocket origin check.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(s *Server) {
		s.origin = fn
	}
}

// NewServer creates a server for model, which must live on loop's runtime.
func NewServer(loop *cellgraph.Loop, model *todos.Model, opts ...Option) *Server {
	s := &Server{
		loop:    loop,
		model:   model,
		logger:  slog.Default(),
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.logger, s.origin)
	return s
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Attach subscribes the hub to the model's view. The loop must be running.
func (s *Server) Attach(ctx context.Context) error {
	return s.loop.Do(ctx, func() error {
		if !s.sub.IsZero() {
			return nil
		}
		s.sub = cellgraph.Subscribe(s.model.Runtime(), func(fr *cellgraph.Frame) {
			s.hub.Publish(s.model.View(fr))
		}, cellgraph.Named("api.view"))
		return nil
	})
}

// Detach disposes the view subscription and closes every WebSocket.
func (s *Server) Detach(ctx context.Context) error {
	defer s.hub.Close()
	return s.loop.Do(ctx, func() error {
		if !s.sub.IsZero() {
			s.sub.Dispose()
			s.sub = cellgraph.Subscription{}
		}
		return nil
	})
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Get("/ws", s.hub.HandleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Put("/route", s.handleNavigate)

		r.Get("/todos", s.handleView)
		r.Post("/todos", s.handleAdd)
		r.Post("/todos/toggle-all", s.handleToggleAll)
		r.Delete("/todos/completed", s.handleClearCompleted)
		r.Put("/todos/{id}", s.handleRename)
		r.Delete("/todos/{id}", s.handleRemove)
		r.Post("/todos/{id}/toggle", s.handleToggle)
		r.Post("/todos/{id}/select", s.handleSelect)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("api: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// do runs fn on the loop and writes the resulting view, or the error.
func (s *Server) do(w http.ResponseWriter, r *http.Request, status int, fn func() error) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	var view todos.View
	err := s.loop.Do(ctx, func() error {
		if err := fn(); err != nil {
			return err
		}
		view = s.model.View(nil)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, status, view)
}

type titleRequest struct {
	Title string `json:"title"`
}

type navigateRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, http.StatusOK, func() error { return nil })
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.writeError(w, errBlankTitle)
		return
	}
	s.do(w, r, http.StatusCreated, func() error {
		if s.model.Add(req.Title).IsZero() {
			return errBlankTitle
		}
		return nil
	})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req titleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}
	s.do(w, r, http.StatusOK, func() error {
		return s.model.RenameByID(id, req.Title)
	})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	s.do(w, r, http.StatusOK, func() error {
		return s.model.RemoveByID(id)
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	s.do(w, r, http.StatusOK, func() error {
		return s.model.ToggleByID(id)
	})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	s.do(w, r, http.StatusOK, func() error {
		return s.model.SelectByID(id)
	})
}

func (s *Server) handleToggleAll(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, http.StatusOK, func() error {
		s.model.CheckOrUncheckAll()
		return nil
	})
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, http.StatusOK, func() error {
		s.model.RemoveCompleted()
		return nil
	})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}
	s.do(w, r, http.StatusOK, func() error {
		return s.model.Navigate(req.URL)
	})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid todo id"})
		return uuid.UUID{}, false
	}
	return id, true
}
